// Package keystore reads and writes the unencrypted validator keyfile
// format used by this module's cmd/keygen and cmd/consensusd binaries.
//
// Grounded on tools/unencrypted-keys-gen/main.go's JSON container
// shape (a struct of raw key bytes written with encoding/json),
// adapted from that tool's BLS validator/withdrawal key pair to this
// module's single Ed25519 signing key plus its derived address.
package keystore

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/republic-chain/proof-of-stake/crypto/signing"
)

// Keyfile is the on-disk representation of one validator's signing
// key, keyed by its derived address for operator sanity-checking.
type Keyfile struct {
	Address    string `json:"address"`
	PublicKey  []byte `json:"public_key"`
	PrivateKey []byte `json:"private_key"`
}

// Save writes pk/sk to path as JSON with owner-only permissions, since
// PrivateKey is unencrypted key material.
func Save(path string, pk signing.PublicKey, sk signing.PrivateKey) error {
	kf := Keyfile{
		Address:    signing.DeriveAddress(pk).String(),
		PublicKey:  pk[:],
		PrivateKey: sk[:],
	}
	b, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return errors.Wrap(err, "keystore: marshal")
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return errors.Wrap(err, "keystore: write file")
	}
	return nil
}

// Load reads a Keyfile written by Save and returns its keypair.
func Load(path string) (signing.PublicKey, signing.PrivateKey, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return signing.PublicKey{}, signing.PrivateKey{}, errors.Wrap(err, "keystore: read file")
	}
	var kf Keyfile
	if err := json.Unmarshal(b, &kf); err != nil {
		return signing.PublicKey{}, signing.PrivateKey{}, errors.Wrap(err, "keystore: unmarshal")
	}
	if len(kf.PublicKey) != signing.PublicKeySize || len(kf.PrivateKey) != signing.PrivateKeySize {
		return signing.PublicKey{}, signing.PrivateKey{}, errors.New("keystore: malformed key sizes")
	}
	var pk signing.PublicKey
	var sk signing.PrivateKey
	copy(pk[:], kf.PublicKey)
	copy(sk[:], kf.PrivateKey)
	return pk, sk, nil
}
