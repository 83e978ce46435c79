package engine

import (
	"context"

	"github.com/pkg/errors"

	"github.com/republic-chain/proof-of-stake/committee"
	"github.com/republic-chain/proof-of-stake/consensuserr"
	"github.com/republic-chain/proof-of-stake/forkchoice"
	"github.com/republic-chain/proof-of-stake/monitoring/metrics"
	"github.com/republic-chain/proof-of-stake/primitives"
	"github.com/republic-chain/proof-of-stake/slashing"
	"github.com/republic-chain/proof-of-stake/types"
)

// IngestAttestation validates att and, on success, updates fork-choice
// weights and epoch tallies, per the ingest_attestation contract in
// attestation ingest.
func (e *Engine) IngestAttestation(ctx context.Context, att types.Attestation, origin Origin) error {
	validator, ok := e.validators.ByIndex(att.ValidatorIndex)
	if !ok {
		return consensuserr.New(consensuserr.KindValidator, "unknown validator index")
	}

	epoch := primitives.EpochOf(att.Slot, e.cfg.SlotsPerEpoch)
	if validator.Status != types.StatusActive || validator.ActivationEpoch > epoch {
		return consensuserr.New(consensuserr.KindValidator, "validator not active at attestation epoch")
	}

	if !e.verifySignature(validator.PubKey, att.SigningRoot().Bytes(), att.Signature) {
		return consensuserr.New(consensuserr.KindCrypto, "bad attestation signature")
	}

	active := e.validators.IterActive(epoch)
	committees, err := committee.ComputeCommittees(active, att.Slot, e.cfg.CommitteesPerSlot, committee.SlotSeed(e.cfg.GenesisSeed, att.Slot, e.cfg.SlotsPerEpoch))
	if err != nil {
		return consensuserr.Wrap(err, consensuserr.KindAttestationInvalid, "compute committees")
	}
	if att.CommitteeIndex >= uint64(len(committees)) || !committees[att.CommitteeIndex].HasMember(att.ValidatorIndex) {
		return consensuserr.New(consensuserr.KindAttestationInvalid, "validator not in committee for slot/index")
	}

	if !e.store.Has(att.Target.Root) {
		return consensuserr.New(consensuserr.KindAttestationInvalid, "target root unknown to fork store")
	}

	if offense, slashable := e.detector.CheckAttestation(att); slashable {
		e.recordEvidence(slashing.NewEvidence(validator.Address, offense, epoch))
		_ = e.validators.Slash(validator.Address, offense, epoch, nil)
		// The vote that exposed the offense is itself discarded: the
		// validator's weight stops counting from the slashing event
		// onward, which includes the triggering vote.
		return consensuserr.New(consensuserr.KindAttestationInvalid, string(offense))
	}
	if validator.Status == types.StatusSlashed {
		return consensuserr.New(consensuserr.KindAttestationInvalid, "validator already slashed, vote carries no weight")
	}

	if err := e.store.InsertAttestation(att.ValidatorIndex, att.BeaconBlockRoot, att.Slot, validator.EffectiveBalance); err != nil {
		if errors.Is(err, forkchoice.ErrStaleSlot) {
			return consensuserr.New(consensuserr.KindAttestationInvalid, "stale attestation slot, ignored")
		}
		return consensuserr.Wrap(err, consensuserr.KindAttestationInvalid, "apply fork-choice vote")
	}
	e.finalityTracker.RecordVote(att.ValidatorIndex, att.Source, att.Target, validator.EffectiveBalance)
	validator.Performance.Attested++
	metrics.AttestationsProcessed.Inc()

	e.evaluateFinality(ctx, epoch)
	return nil
}
