package engine

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/republic-chain/proof-of-stake/committee"
	"github.com/republic-chain/proof-of-stake/consensuserr"
	"github.com/republic-chain/proof-of-stake/crypto/hash"
	"github.com/republic-chain/proof-of-stake/monitoring/metrics"
	"github.com/republic-chain/proof-of-stake/primitives"
	"github.com/republic-chain/proof-of-stake/slashing"
	"github.com/republic-chain/proof-of-stake/types"
	"github.com/republic-chain/proof-of-stake/validatorset"
)

// IngestBlock validates block and, on success, commits it to the fork
// store and persists it, per the ingest_block contract.
// A network-origin block whose parent is unknown is buffered as an
// orphan and its parent is requested through the network interface; a
// parent that comes back is ingested in turn. Self-produced blocks
// (origin OriginSelf) skip that request.
func (e *Engine) IngestBlock(ctx context.Context, block *types.Block, origin Origin) error {
	root := block.Hash()

	if err := e.checkSlotSkew(block.Header.Slot); err != nil {
		return err
	}

	epoch := primitives.EpochOf(block.Header.Slot, e.cfg.SlotsPerEpoch)
	active := e.validators.IterActive(epoch)
	proposer, err := committee.ComputeProposer(active, committee.SlotSeed(e.cfg.GenesisSeed, block.Header.Slot, e.cfg.SlotsPerEpoch))
	if err != nil {
		return consensuserr.Wrap(err, consensuserr.KindValidation, "compute expected proposer")
	}
	if proposer.Address != block.Header.Proposer {
		return consensuserr.New(consensuserr.KindValidation, "block proposer does not match selection")
	}

	if !e.verifySignature(proposer.PubKey, block.SigningRoot().Bytes(), block.Header.ProposerSignature) {
		return consensuserr.New(consensuserr.KindCrypto, "bad proposer signature")
	}

	// A validly signed block for this slot from this proposer: now safe
	// to check for a double proposal, independent of
	// whether the block's content turns out to be otherwise invalid.
	if e.detector.CheckProposal(proposer.Index, block.Header.Slot, root) {
		e.recordEvidence(slashing.NewEvidence(proposer.Address, validatorset.OffenseDoubleProposal, epoch))
		_ = e.validators.Slash(proposer.Address, validatorset.OffenseDoubleProposal, epoch, nil)
	}

	if block.ComputeMerkleRoot() != block.Header.MerkleRoot {
		return consensuserr.New(consensuserr.KindValidation, "transaction merkle root mismatch")
	}

	if !e.store.Has(block.Header.PreviousHash) {
		e.bufferOrphan(block, origin)
		if origin == OriginNetwork {
			parent, err := e.net.RequestBlock(ctx, block.Header.PreviousHash)
			if err != nil {
				log.WithError(err).WithField("parent", block.Header.PreviousHash.String()).Debug("parent request failed")
			} else if parent != nil {
				_ = e.IngestBlock(ctx, parent, OriginNetwork)
			}
		}
		return consensuserr.Wrap(errors.Errorf("parent %s not found", block.Header.PreviousHash), consensuserr.KindOrphaned, "block orphaned")
	}

	computedStateRoot, err := e.st.ApplyBlock(ctx, block)
	if err != nil {
		return consensuserr.Wrap(err, consensuserr.KindState, "apply block")
	}
	if computedStateRoot != block.Header.StateRoot {
		return consensuserr.New(consensuserr.KindState, "state root mismatch after apply")
	}

	if err := e.store.InsertBlock(root, block.Header.PreviousHash, block.Header.Slot); err != nil {
		return consensuserr.Wrap(err, consensuserr.KindValidation, "insert into fork store")
	}
	e.heights[root] = e.heights[block.Header.PreviousHash] + 1

	if err := e.db.PutBlock(ctx, block); err != nil {
		return consensuserr.Wrap(err, consensuserr.KindInternal, "persist block")
	}
	if len(block.Attestations) > 0 {
		if err := e.db.PutAttestations(ctx, root, block.Attestations); err != nil {
			return consensuserr.Wrap(err, consensuserr.KindInternal, "persist embedded attestations")
		}
	}
	metrics.BlocksProcessed.Inc()

	// Embedded attestations count toward justification in the epoch
	// the embedding block is processed, so they run through the same
	// ingest_attestation path as network-received votes, right now
	// rather than deferred.
	for _, att := range block.Attestations {
		if err := e.IngestAttestation(ctx, att, origin); err != nil {
			log.WithError(err).WithField("block", root.String()).Debug("embedded attestation rejected")
		}
	}

	e.evaluateFinality(ctx, epoch)
	log.WithFields(map[string]interface{}{
		"slot":         block.Header.Slot,
		"root":         root.String(),
		"proposer":     block.Header.Proposer.String(),
		"transactions": len(block.Transactions),
		"attestations": len(block.Attestations),
	}).Info("processed block")

	e.resolveOrphans(ctx, root)
	return nil
}

// checkSlotSkew rejects blocks whose slot starts further in the
// future than the configured clock skew tolerance.
func (e *Engine) checkSlotSkew(slot primitives.Slot) error {
	slotTime := e.slotStart(slot)
	if slotTime.After(time.Now().Add(e.cfg.ClockSkewTolerance)) {
		return consensuserr.New(consensuserr.KindValidation, "block slot too far in the future")
	}
	return nil
}

func (e *Engine) bufferOrphan(block *types.Block, origin Origin) {
	root := block.Hash()
	if _, exists := e.orphans[root]; exists {
		return
	}
	if len(e.orphans) >= e.cfg.MaxOrphans && len(e.orphanOrder) > 0 {
		oldest := e.orphanOrder[0]
		e.orphanOrder = e.orphanOrder[1:]
		delete(e.orphans, oldest)
	}
	e.orphans[root] = &orphanEntry{block: block, bufferedAt: e.currentSlot, origin: origin}
	e.orphanOrder = append(e.orphanOrder, root)
}

// resolveOrphans re-attempts ingestion of any buffered block whose
// parent is now newRoot, cascading through the buffer as each
// resolved block may itself be the missing parent of another.
func (e *Engine) resolveOrphans(ctx context.Context, newRoot hash.Hash) {
	var resolved []hash.Hash
	for root, entry := range e.orphans {
		if entry.block.Header.PreviousHash == newRoot {
			resolved = append(resolved, root)
		}
	}
	for _, root := range resolved {
		entry := e.orphans[root]
		delete(e.orphans, root)
		e.removeFromOrphanOrder(root)
		if err := e.IngestBlock(ctx, entry.block, entry.origin); err != nil {
			log.WithError(err).WithField("block", root.String()).Debug("buffered orphan still invalid")
		}
	}
}

func (e *Engine) removeFromOrphanOrder(root hash.Hash) {
	for i, r := range e.orphanOrder {
		if r == root {
			e.orphanOrder = append(e.orphanOrder[:i], e.orphanOrder[i+1:]...)
			return
		}
	}
}

// evictExpiredOrphans drops buffered blocks that have waited longer
// than OrphanTTL slots for their parent.
func (e *Engine) evictExpiredOrphans(currentSlot primitives.Slot) {
	var expired []hash.Hash
	for root, entry := range e.orphans {
		if uint64(currentSlot-entry.bufferedAt) > e.cfg.OrphanTTL {
			expired = append(expired, root)
		}
	}
	for _, root := range expired {
		delete(e.orphans, root)
		e.removeFromOrphanOrder(root)
	}
}
