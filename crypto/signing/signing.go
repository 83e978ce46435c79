// Package signing wraps Ed25519 signature creation and verification per
// RFC 8032, and derives consensus Address values from public keys.
//
// Grounded on the ed25519 usage in the jam reference implementation's
// block and net packages (golang.org/x/crypto/ed25519), adapted to this
// module's fixed-size PublicKey/PrivateKey/Signature types.
package signing

import (
	"crypto/sha256"

	"github.com/pkg/errors"
	"golang.org/x/crypto/ed25519"
)

// PublicKeySize, PrivateKeySize, and SignatureSize mirror the Ed25519
// RFC 8032 field widths.
const (
	PublicKeySize  = ed25519.PublicKeySize
	PrivateKeySize = ed25519.PrivateKeySize
	SignatureSize  = ed25519.SignatureSize
	AddressSize    = 20
)

// PublicKey is a 32-byte Ed25519 public key.
type PublicKey [PublicKeySize]byte

// PrivateKey is a 64-byte Ed25519 private key (seed + public key).
type PrivateKey [PrivateKeySize]byte

// Signature is a 64-byte Ed25519 signature.
type Signature [SignatureSize]byte

// Address is a 20-byte validator identifier derived from a public key.
type Address [AddressSize]byte

// Less provides a deterministic total order over addresses, used by
// the validator registry's "ascending address" iteration order.
func (a Address) Less(other Address) bool {
	for i := range a {
		if a[i] != other[i] {
			return a[i] < other[i]
		}
	}
	return false
}

func (a Address) String() string {
	const hextable = "0123456789abcdef"
	out := make([]byte, 2+len(a)*2)
	out[0], out[1] = '0', 'x'
	for i, b := range a {
		out[2+i*2] = hextable[b>>4]
		out[2+i*2+1] = hextable[b&0x0f]
	}
	return string(out)
}

// GenerateKey produces a fresh Ed25519 keypair drawn from crypto/rand.
func GenerateKey() (PublicKey, PrivateKey, error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return PublicKey{}, PrivateKey{}, errors.Wrap(err, "generate ed25519 key")
	}
	var pk PublicKey
	var sk PrivateKey
	copy(pk[:], pub)
	copy(sk[:], priv)
	return pk, sk, nil
}

// Sign signs message with sk and returns the Ed25519 signature.
func Sign(sk PrivateKey, message []byte) Signature {
	sig := ed25519.Sign(ed25519.PrivateKey(sk[:]), message)
	var out Signature
	copy(out[:], sig)
	return out
}

// Verify reports whether sig is a valid Ed25519 signature over message
// under pk.
func Verify(pk PublicKey, message []byte, sig Signature) bool {
	return ed25519.Verify(ed25519.PublicKey(pk[:]), message, sig[:])
}

// DeriveAddress computes the Address bound to a public key: the last 20
// bytes of SHA-256(pubkey)
func DeriveAddress(pk PublicKey) Address {
	digest := sha256.Sum256(pk[:])
	var addr Address
	copy(addr[:], digest[len(digest)-AddressSize:])
	return addr
}
