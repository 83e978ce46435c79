// Package finality implements Casper-FFG-style justification and
// finalization over checkpoints.
//
// Grounded on the teacher's epoch-boundary bookkeeping style in
// core/validators.ProcessPenaltiesAndExits (a single pass run once per
// epoch over accumulated per-epoch state) and on
// protoarray.ForkChoice.ProcessAttestation's pattern of tracking the
// latest vote per validator; this package instead tallies votes by
// supermajority link (source checkpoint -> target checkpoint)
// directly, since justification is a property of the link a vote
// casts, not just its target. A block-embedded attestation counts
// toward its link's tally in the epoch the embedding block is
// processed, not deferred to any later epoch boundary — matching the
// teacher's non-deferred ProcessAttestation trigger-on-insertion
// style.
package finality

import (
	"github.com/republic-chain/proof-of-stake/types"
)

// Tracker accumulates source->target link votes and derives the
// justified/finalized checkpoint pair per the Casper-FFG rule: a
// checkpoint finalizes only when it was itself justified by a direct
// link from the immediately preceding epoch's checkpoint, and the
// next epoch then justifies too.
type Tracker struct {
	// tallies maps a supermajority link's canonical key to the set of
	// validator indices that have voted for it, so re-votes from the
	// same validator for the same link don't double-count.
	tallies map[linkKey]map[uint64]uint64 // link -> validatorIndex -> weight

	justified               types.Checkpoint
	justifiedSource         types.Checkpoint // the link source that justified `justified`
	previousJustified       types.Checkpoint
	previousJustifiedSource types.Checkpoint // the link source that justified `previousJustified`
	finalized               types.Checkpoint
}

type checkpointKey struct {
	epoch uint64
	root  [32]byte
}

type linkKey struct {
	source checkpointKey
	target checkpointKey
}

func keyOf(c types.Checkpoint) checkpointKey {
	return checkpointKey{epoch: uint64(c.Epoch), root: c.Root}
}

func linkKeyOf(source, target types.Checkpoint) linkKey {
	return linkKey{source: keyOf(source), target: keyOf(target)}
}

// New constructs a Tracker seeded with the genesis checkpoint as both
// the justified and finalized root, with genesis itself standing as
// its own justifying source.
func New(genesis types.Checkpoint) *Tracker {
	return &Tracker{
		tallies:                 make(map[linkKey]map[uint64]uint64),
		justified:               genesis,
		justifiedSource:         genesis,
		previousJustified:       genesis,
		previousJustifiedSource: genesis,
		finalized:               genesis,
	}
}

// Justified returns the current justified checkpoint.
func (t *Tracker) Justified() types.Checkpoint { return t.justified }

// Finalized returns the current finalized checkpoint.
func (t *Tracker) Finalized() types.Checkpoint { return t.finalized }

// RecordVote tallies validatorIndex's vote for the source->target
// link, weighted by its effective balance, idempotently: casting the
// same vote twice has no additional effect.
func (t *Tracker) RecordVote(validatorIndex uint64, source, target types.Checkpoint, weight uint64) {
	k := linkKeyOf(source, target)
	votes, ok := t.tallies[k]
	if !ok {
		votes = make(map[uint64]uint64)
		t.tallies[k] = votes
	}
	votes[validatorIndex] = weight
}

// weightForLink returns the total tallied weight for the source->target
// link.
func (t *Tracker) weightForLink(source, target types.Checkpoint) uint64 {
	votes, ok := t.tallies[linkKeyOf(source, target)]
	if !ok {
		return 0
	}
	var total uint64
	for _, w := range votes {
		total += w
	}
	return total
}

// UpdateJustification re-evaluates justification for candidate against
// totalActiveWeight: if at least two-thirds of total active weight has
// voted for the source->candidate link, and candidate's epoch is at or
// after the current justified epoch, candidate becomes the new
// justified checkpoint and source is recorded as the link that
// justified it.
func (t *Tracker) UpdateJustification(candidate, source types.Checkpoint, totalActiveWeight uint64) bool {
	if candidate.Epoch < t.justified.Epoch {
		return false
	}
	weight := t.weightForLink(source, candidate)
	if !meetsSupermajority(weight, totalActiveWeight) {
		return false
	}
	t.previousJustified = t.justified
	t.previousJustifiedSource = t.justifiedSource
	t.justified = candidate
	t.justifiedSource = source
	return true
}

// TryFinalize applies the Casper-FFG direct-link finalization rule:
// previousJustified finalizes only if justified and previousJustified
// sit in consecutive epochs AND previousJustified was itself justified
// by a link sourced from its own immediately preceding epoch — i.e.
// the chain previousJustifiedSource -> previousJustified -> justified
// is an unbroken run of consecutive-epoch links, not just two
// checkpoints that happen to carry consecutive epoch numbers.
func (t *Tracker) TryFinalize() bool {
	if t.justified.Epoch != t.previousJustified.Epoch+1 || t.justified.Epoch == 0 {
		return false
	}
	if t.previousJustifiedSource.Epoch+1 != t.previousJustified.Epoch {
		return false
	}
	if t.previousJustified.Epoch <= t.finalized.Epoch {
		return false
	}
	t.finalized = t.previousJustified
	return true
}

// meetsSupermajority reports whether weight is at least two-thirds of
// total, computed without floating point to keep the rule exact.
func meetsSupermajority(weight, total uint64) bool {
	if total == 0 {
		return false
	}
	return weight*3 >= total*2
}

// Prune discards link tallies whose target is at or before the
// finalized epoch, bounding the tracker's memory.
func (t *Tracker) Prune() {
	for k := range t.tallies {
		if k.target.epoch <= uint64(t.finalized.Epoch) {
			delete(t.tallies, k)
		}
	}
}
