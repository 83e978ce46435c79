package types

import "github.com/republic-chain/proof-of-stake/crypto/signing"

// Transaction is opaque to consensus beyond signature well-formedness and
// the Merkle root it contributes to its enclosing block; execution and
// fee-market semantics belong to the external mempool/state-engine
// collaborators.
type Transaction struct {
	From      signing.Address
	To        signing.Address
	Amount    uint64
	Nonce     uint64
	GasLimit  uint64
	GasPrice  uint64
	Signature signing.Signature
}

// CanonicalBytes returns the fixed-field, big-endian encoding of t used
// both to feed the block's Merkle root and, with the signature omitted
// (withSignature false), to form the signing message.
func (t Transaction) CanonicalBytes(withSignature bool) []byte {
	w := newEncoder()
	w.address(t.From)
	w.address(t.To)
	w.uint64(t.Amount)
	w.uint64(t.Nonce)
	w.uint64(t.GasLimit)
	w.uint64(t.GasPrice)
	if withSignature {
		w.signature(t.Signature)
	}
	return w.bytes()
}
