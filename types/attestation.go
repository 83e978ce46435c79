package types

import (
	"github.com/republic-chain/proof-of-stake/crypto/hash"
	"github.com/republic-chain/proof-of-stake/crypto/signing"
	"github.com/republic-chain/proof-of-stake/primitives"
)

// Attestation is a signed vote referencing a head root and a
// source/target checkpoint pair.
type Attestation struct {
	Slot            primitives.Slot
	CommitteeIndex  uint64
	ValidatorIndex  uint64
	BeaconBlockRoot hash.Hash
	Source          Checkpoint
	Target          Checkpoint
	Signature       signing.Signature
}

// SigningRoot returns the canonical hash attested validators sign over:
// every field except the signature itself.
func (a Attestation) SigningRoot() hash.Hash {
	w := newEncoder()
	w.uint64(uint64(a.Slot))
	w.uint64(a.CommitteeIndex)
	w.uint64(a.ValidatorIndex)
	w.hash(a.BeaconBlockRoot)
	w.fixed(a.Source.canonicalBytes())
	w.fixed(a.Target.canonicalBytes())
	return hash.Sum(w.bytes())
}

// SameVote reports whether two attestations from the same validator
// express the identical vote (used by the slashing detector to skip a
// re-seen attestation).
func (a Attestation) SameVote(other Attestation) bool {
	return a.ValidatorIndex == other.ValidatorIndex &&
		a.Target.Equal(other.Target) &&
		a.BeaconBlockRoot == other.BeaconBlockRoot
}
