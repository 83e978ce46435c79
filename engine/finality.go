package engine

import (
	"context"

	"github.com/republic-chain/proof-of-stake/crypto/hash"
	"github.com/republic-chain/proof-of-stake/primitives"
	"github.com/republic-chain/proof-of-stake/types"
)

// evaluateFinality re-checks justification for the last three epochs
// and finalization for the justified pair
// to call after every block or attestation insertion: the checks are
// idempotent once an epoch's supermajority has already been reached.
func (e *Engine) evaluateFinality(ctx context.Context, currentEpoch primitives.Epoch) {
	head, err := e.Head(currentEpoch)
	if err != nil {
		return
	}

	prevFinalized := e.finalityTracker.Finalized()

	for _, epoch := range candidateEpochs(currentEpoch) {
		root, err := e.store.CheckpointRoot(head, epoch, e.cfg.SlotsPerEpoch)
		if err != nil {
			continue
		}
		source, err := e.sourceCheckpoint(head, epoch)
		if err != nil {
			continue
		}
		total := e.validators.TotalActiveEffectiveBalance(epoch)
		e.finalityTracker.UpdateJustification(types.Checkpoint{Epoch: epoch, Root: root}, source, total)
	}
	e.finalityTracker.TryFinalize()

	justified := e.finalityTracker.Justified()
	e.store.SetJustifiedCheckpoint(justified.Root, justified.Epoch)

	newFinalized := e.finalityTracker.Finalized()
	if newFinalized.Epoch > prevFinalized.Epoch {
		if err := e.store.PruneTo(newFinalized.Root); err != nil {
			log.WithError(err).Warn("prune fork store to new finalized root failed")
		}
		e.finalityTracker.Prune()
		e.detector.Prune(currentEpoch, e.cfg.EvidenceRetention, e.cfg.SlotsPerEpoch)
		_ = e.db.PutCheckpoint(ctx, "finalized", newFinalized)
		log.WithField("epoch", newFinalized.Epoch).Info("finalized checkpoint advanced")
	}
	_ = e.db.PutCheckpoint(ctx, "justified", e.finalityTracker.Justified())
}

// sourceCheckpoint returns the checkpoint for the epoch immediately
// preceding epoch along the chain ending at head: the link a
// justification vote for epoch must have been cast from, per the
// direct-link finalization rule. Epoch 0 has no predecessor, so it
// stands as its own source.
func (e *Engine) sourceCheckpoint(head hash.Hash, epoch primitives.Epoch) (types.Checkpoint, error) {
	if epoch == 0 {
		root, err := e.store.CheckpointRoot(head, epoch, e.cfg.SlotsPerEpoch)
		if err != nil {
			return types.Checkpoint{}, err
		}
		return types.Checkpoint{Epoch: epoch, Root: root}, nil
	}
	root, err := e.store.CheckpointRoot(head, epoch-1, e.cfg.SlotsPerEpoch)
	if err != nil {
		return types.Checkpoint{}, err
	}
	return types.Checkpoint{Epoch: epoch - 1, Root: root}, nil
}

// candidateEpochs returns {current-2, current-1, current}, clipped at
// zero, matching the justification re-evaluation window.
func candidateEpochs(current primitives.Epoch) []primitives.Epoch {
	var out []primitives.Epoch
	for i := int64(2); i >= 0; i-- {
		if int64(current)-i < 0 {
			continue
		}
		out = append(out, primitives.Epoch(int64(current)-i))
	}
	return out
}
