// Package committee derives per-slot seeds, proposer selection, and
// attestation committees from the active validator set.
//
// Grounded on core/helpers/validators.go's ComputeProposerIndex (the
// seed-plus-running-hash sampling idiom) and ComputeShuffledIndex (the
// swap-or-not shuffle idiom), adapted to this spec's simpler weighted
// draw: rather than Prysm's rejection-sampling loop against a capped
// MAX_EFFECTIVE_BALANCE, the spec selects proposers by an exact
// cumulative-weight draw over a seeded uniform value, since there is
// no balance cap to make rejection sampling necessary here. DESIGN.md
// records this deviation.
package committee

import (
	"encoding/binary"
	"math/big"

	"github.com/pkg/errors"
	"github.com/republic-chain/proof-of-stake/crypto/hash"
	"github.com/republic-chain/proof-of-stake/primitives"
	"github.com/republic-chain/proof-of-stake/types"
)

// ErrEmptyActiveSet is returned when proposer or committee selection is
// attempted over an empty active validator list.
var ErrEmptyActiveSet = errors.New("committee: no active validators")

// SlotSeed derives the per-slot randomness seed used for both proposer
// and committee selection: the epoch seed for slot's containing epoch,
// mixed with the slot number. Every slot in an epoch is rooted in the
// same per-epoch randomness, but each slot gets its own seed, so
// committees are reshuffled every slot.
func SlotSeed(genesisSeed hash.Hash, slot primitives.Slot, slotsPerEpoch uint64) hash.Hash {
	epochSeed := EpochSeed(genesisSeed, primitives.EpochOf(slot, slotsPerEpoch))
	return hash.SumMany(epochSeed.Bytes(), slot.LittleEndianBytes())
}

// EpochSeed derives the per-epoch seed that SlotSeed mixes each slot
// number into.
func EpochSeed(genesisSeed hash.Hash, epoch primitives.Epoch) hash.Hash {
	return hash.SumMany(genesisSeed.Bytes(), []byte("epoch"), epoch.LittleEndianBytes())
}

// ComputeProposer selects the slot's proposer from active by a
// weighted draw: the first 8 bytes of seed, read as a big-endian
// unsigned integer and reduced modulo totalWeight, give a value in
// [0, totalWeight), and the validator whose cumulative-weight range
// contains that value wins. active must be in a fixed deterministic
// order (ascending address, as returned by validatorset.Set.IterActive)
// so that every honest node derives the same result.
func ComputeProposer(active []*types.Validator, seed hash.Hash) (*types.Validator, error) {
	if len(active) == 0 {
		return nil, ErrEmptyActiveSet
	}
	total := new(big.Int)
	weights := make([]*big.Int, len(active))
	for i, v := range active {
		w := new(big.Int).SetUint64(v.EffectiveBalance)
		weights[i] = w
		total.Add(total, w)
	}
	if total.Sign() == 0 {
		return nil, errors.New("committee: total active weight is zero")
	}
	// r is the first 8 bytes of seed(slot) read as an unsigned integer,
	// reduced modulo the total active effective balance T.
	r := new(big.Int).SetUint64(binary.BigEndian.Uint64(seed[:8]))
	draw := new(big.Int).Mod(r, total)
	cursor := new(big.Int)
	for i, w := range weights {
		cursor.Add(cursor, w)
		if draw.Cmp(cursor) < 0 {
			return active[i], nil
		}
	}
	// cursor == total once every weight is accumulated, and draw < total
	// by construction of Mod above, so the loop always returns before
	// reaching here; kept as a defensive fallback against future edits.
	return active[len(active)-1], nil
}

// Committee is the ordered set of validators assigned to attest at a
// given slot for a given committee index.
type Committee struct {
	Slot    primitives.Slot
	Index   uint64
	Members []*types.Validator
}

// HasMember reports whether validatorIndex was assigned to this
// committee, used by attestation validation's "validator is in the
// committee for that slot and index" check.
func (c Committee) HasMember(validatorIndex uint64) bool {
	for _, v := range c.Members {
		if v.Index == validatorIndex {
			return true
		}
	}
	return false
}

// ComputeCommittees partitions active into committeesPerSlot
// committees for slot, via a seeded Fisher-Yates shuffle of the active
// list followed by a contiguous split.
func ComputeCommittees(active []*types.Validator, slot primitives.Slot, committeesPerSlot uint64, seed hash.Hash) ([]Committee, error) {
	if len(active) == 0 {
		return nil, ErrEmptyActiveSet
	}
	if committeesPerSlot == 0 {
		committeesPerSlot = 1
	}
	shuffled := shuffle(active, seed)
	committees := make([]Committee, committeesPerSlot)
	n := uint64(len(shuffled))
	for idx := uint64(0); idx < committeesPerSlot; idx++ {
		start := n * idx / committeesPerSlot
		end := n * (idx + 1) / committeesPerSlot
		committees[idx] = Committee{
			Slot:    slot,
			Index:   idx,
			Members: shuffled[start:end],
		}
	}
	return committees, nil
}

// shuffle performs a seeded Fisher-Yates permutation of validators,
// drawing each swap index from successive rounds of the seed hash.
func shuffle(validators []*types.Validator, seed hash.Hash) []*types.Validator {
	out := make([]*types.Validator, len(validators))
	copy(out, validators)
	for i := len(out) - 1; i > 0; i-- {
		j := boundedIndex(seed, uint64(i), uint64(i)+1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// boundedIndex derives a deterministic value in [0, bound) from seed
// mixed with round, using rejection-free modulus reduction over a wide
// hash output (bias is negligible for realistic committee sizes).
func boundedIndex(seed hash.Hash, round, bound uint64) uint64 {
	if bound == 0 {
		return 0
	}
	var roundBytes [8]byte
	binary.LittleEndian.PutUint64(roundBytes[:], round)
	digest := hash.SumMany(seed.Bytes(), roundBytes[:])
	value := binary.BigEndian.Uint64(digest[:8])
	return value % bound
}

