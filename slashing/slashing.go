// Package slashing detects double-vote, surround-vote, and
// double-proposal offenses from observed attestations and block
// headers, and records the evidence that justifies a slash.
//
// Grounded on core/validators.go's PenalizeValidator control flow
// (detect offense, apply penalty, schedule exit) with the
// whistleblower-reward mechanic dropped, since this design has no
// whistleblower concept; the detector itself follows this module's own
// types.Attestation.SameVote/Checkpoint shapes rather than any single
// teacher file, since Prysm's slasher lives in a separate, far larger
// subsystem (slasher/) this module does not attempt to reproduce in
// full.
package slashing

import (
	"github.com/google/uuid"

	"github.com/republic-chain/proof-of-stake/crypto/hash"
	"github.com/republic-chain/proof-of-stake/crypto/signing"
	"github.com/republic-chain/proof-of-stake/primitives"
	"github.com/republic-chain/proof-of-stake/types"
	"github.com/republic-chain/proof-of-stake/validatorset"
)

// Evidence is a recorded slashable offense: the offender, the offense
// classification and the epoch it was recorded at; the conflicting
// messages themselves are not kept. ID lets the host deduplicate
// evidence across gossip and storage without re-deriving a key from
// the offense's contents.
type Evidence struct {
	ID       uuid.UUID
	Offender signing.Address
	Offense  validatorset.Offense
	At       primitives.Epoch
}

// NewEvidence stamps a fresh, uniquely identified Evidence record.
func NewEvidence(offender signing.Address, offense validatorset.Offense, at primitives.Epoch) Evidence {
	return Evidence{ID: uuid.New(), Offender: offender, Offense: offense, At: at}
}

// Detector tracks every attestation seen from each validator (kept
// until Prune drops it; the history is not capped at a fixed count) and
// each validator's proposed block per slot, to surface conflicting
// votes/proposals as they arrive.
type Detector struct {
	attestationsByValidator  map[uint64][]types.Attestation
	proposalsByValidatorSlot map[proposalKey]hash.Hash
}

type proposalKey struct {
	validatorIndex uint64
	slot           uint64
}

// New constructs an empty Detector.
func New() *Detector {
	return &Detector{
		attestationsByValidator:  make(map[uint64][]types.Attestation),
		proposalsByValidatorSlot: make(map[proposalKey]hash.Hash),
	}
}

// CheckAttestation records att and reports any slashable offense it
// commits against a previously seen attestation from the same
// validator: a double vote (the same target epoch with a different
// target root) or a surround vote (one attestation's source/target
// range strictly contains the other's).
func (d *Detector) CheckAttestation(att types.Attestation) (validatorset.Offense, bool) {
	prior := d.attestationsByValidator[att.ValidatorIndex]
	for _, other := range prior {
		if other.SameVote(att) {
			continue
		}
		if other.Target.Epoch == att.Target.Epoch && other.Target.Root != att.Target.Root {
			d.attestationsByValidator[att.ValidatorIndex] = append(prior, att)
			return validatorset.OffenseDoubleVote, true
		}
		if surrounds(other, att) || surrounds(att, other) {
			d.attestationsByValidator[att.ValidatorIndex] = append(prior, att)
			return validatorset.OffenseSurroundVote, true
		}
	}
	d.attestationsByValidator[att.ValidatorIndex] = append(prior, att)
	return "", false
}

// surrounds reports whether a's source/target range strictly
// surrounds b's: a.Source < b.Source and b.Target < a.Target.
func surrounds(a, b types.Attestation) bool {
	return a.Source.Epoch < b.Source.Epoch && b.Target.Epoch < a.Target.Epoch
}

// CheckProposal records a proposer's block root for slot and reports
// whether validatorIndex already proposed a different root at the
// same slot (a double proposal).
func (d *Detector) CheckProposal(validatorIndex uint64, slot primitives.Slot, blockRoot hash.Hash) bool {
	key := proposalKey{validatorIndex: validatorIndex, slot: uint64(slot)}
	prior, seen := d.proposalsByValidatorSlot[key]
	d.proposalsByValidatorSlot[key] = blockRoot
	return seen && prior != blockRoot
}

// Prune discards attestation and proposal history older than
// retentionEpochs before currentEpoch, bounding the detector's memory
//.
func (d *Detector) Prune(currentEpoch primitives.Epoch, retentionEpochs, slotsPerEpoch uint64) {
	floor := primitives.Epoch(0)
	if uint64(currentEpoch) > retentionEpochs {
		floor = currentEpoch - primitives.Epoch(retentionEpochs)
	}
	for idx, atts := range d.attestationsByValidator {
		kept := atts[:0]
		for _, a := range atts {
			if a.Target.Epoch >= floor {
				kept = append(kept, a)
			}
		}
		d.attestationsByValidator[idx] = kept
	}
	floorSlot := uint64(floor) * slotsPerEpoch
	for key := range d.proposalsByValidatorSlot {
		if key.slot < floorSlot {
			delete(d.proposalsByValidatorSlot, key)
		}
	}
}
