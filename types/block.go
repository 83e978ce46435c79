package types

import (
	"github.com/republic-chain/proof-of-stake/crypto/hash"
	"github.com/republic-chain/proof-of-stake/crypto/merkle"
	"github.com/republic-chain/proof-of-stake/crypto/signing"
	"github.com/republic-chain/proof-of-stake/primitives"
)

// Header carries everything about a Block except its body; hash(block)
// is the SHA-256 of the canonically serialized header with
// ProposerSignature zeroed.
type Header struct {
	Height            uint64
	PreviousHash      hash.Hash
	MerkleRoot        hash.Hash
	StateRoot         hash.Hash
	Timestamp         int64
	Slot              primitives.Slot
	Epoch             primitives.Epoch
	Proposer          signing.Address
	GasLimit          uint64
	GasUsed           uint64
	ProposerSignature signing.Signature
}

// Block is a Header plus its body: an ordered transaction list and an
// optional vector of attestations the proposer chose to embed.
type Block struct {
	Header       Header
	Transactions []Transaction
	Attestations []Attestation
}

// canonicalHeaderBytes serializes h with ProposerSignature zeroed,
// regardless of whether the caller's header actually carries a
// signature. This is what hash(block) is computed over.
func (h Header) canonicalHeaderBytes() []byte {
	w := newEncoder()
	w.uint64(h.Height)
	w.hash(h.PreviousHash)
	w.hash(h.MerkleRoot)
	w.hash(h.StateRoot)
	w.uint64(uint64(h.Timestamp))
	w.uint64(uint64(h.Slot))
	w.uint64(uint64(h.Epoch))
	w.address(h.Proposer)
	w.uint64(h.GasLimit)
	w.uint64(h.GasUsed)
	var zero signing.Signature
	w.signature(zero)
	return w.bytes()
}

// Hash computes hash(block)
func (b Block) Hash() hash.Hash {
	return hash.Sum(b.Header.canonicalHeaderBytes())
}

// SigningRoot is the message the proposer signs: identical to Hash,
// since ProposerSignature is always zeroed before hashing.
func (b Block) SigningRoot() hash.Hash {
	return b.Hash()
}

// ComputeMerkleRoot derives the Merkle root of the block's transaction
// list, for comparison against Header.MerkleRoot during validation.
func (b Block) ComputeMerkleRoot() hash.Hash {
	return TransactionsMerkleRoot(b.Transactions)
}

// TransactionsMerkleRoot computes the Merkle root leaves of a
// transaction list: each leaf is SHA-256 of the transaction's signed
// canonical bytes.
func TransactionsMerkleRoot(txs []Transaction) hash.Hash {
	leaves := make([]hash.Hash, len(txs))
	for i, tx := range txs {
		leaves[i] = hash.Sum(tx.CanonicalBytes(true))
	}
	return merkle.Root(leaves)
}
