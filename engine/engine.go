// Package engine implements the consensus engine orchestrator: the slot clock, block/attestation ingestion
// pipeline, and the local node's own proposer/attester duties, wired
// on top of validatorset, committee, forkchoice, finality, and
// slashing.
//
// Grounded on beacon-chain/blockchain's service shape: receive_block.go
// and receive_attestation.go's validate-then-apply pipelines, head.go's
// "head" accessor, and log.go's logrus.WithField("prefix", ...)
// convention, scaled down to this module's single-owner event loop
// instead of Prysm's cache/mutex-per-subsystem design.
package engine

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/republic-chain/proof-of-stake/async"
	"github.com/republic-chain/proof-of-stake/committee"
	"github.com/republic-chain/proof-of-stake/config"
	"github.com/republic-chain/proof-of-stake/consensuserr"
	"github.com/republic-chain/proof-of-stake/crypto/hash"
	"github.com/republic-chain/proof-of-stake/crypto/signing"
	"github.com/republic-chain/proof-of-stake/finality"
	"github.com/republic-chain/proof-of-stake/forkchoice"
	"github.com/republic-chain/proof-of-stake/iface"
	"github.com/republic-chain/proof-of-stake/monitoring/metrics"
	"github.com/republic-chain/proof-of-stake/primitives"
	"github.com/republic-chain/proof-of-stake/slashing"
	"github.com/republic-chain/proof-of-stake/types"
	"github.com/republic-chain/proof-of-stake/validatorset"
)

// Origin records where an ingested block or attestation came from, so
// ingest_block can skip the network round-trip (the orphan parent
// request) for the node's own productions.
type Origin int

const (
	OriginNetwork Origin = iota
	OriginSelf
)

// defaultBlockGasLimit bounds how many pending transactions a proposal
// pulls when the host's mempool interface has no slot-specific limit
// of its own.
const defaultBlockGasLimit = 30_000_000

// Engine is the single-owner consensus authority:
// : every field below is mutated exclusively from the goroutine
// that calls OnSlot/IngestBlock/IngestAttestation. The host is
// responsible for serializing those calls (e.g. by running them from
// one event loop goroutine fed by channels).
type Engine struct {
	cfg *config.Config

	validators      *validatorset.Set
	store           *forkchoice.Store
	finalityTracker *finality.Tracker
	detector        *slashing.Detector

	db  iface.Database
	net iface.Network
	st  iface.StateEngine

	verifyPool *async.VerifyPool

	genesisAt   time.Time
	currentSlot primitives.Slot

	localKeys map[signing.Address]signing.PrivateKey

	heights map[hash.Hash]uint64

	orphans     map[hash.Hash]*orphanEntry
	orphanOrder []hash.Hash

	evidence []slashing.Evidence
}

type orphanEntry struct {
	block      *types.Block
	bufferedAt primitives.Slot
	origin     Origin
}

// New constructs an Engine rooted at genesisBlock, whose hash seeds
// both the fork store and the justified/finalized checkpoints.
// genesisBlock is persisted immediately so later height/body lookups
// never need a special case for slot 0.
func New(ctx context.Context, cfg *config.Config, genesisBlock *types.Block, genesisAt time.Time, db iface.Database, net iface.Network, st iface.StateEngine, verifyWorkers int) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "engine: invalid config")
	}
	root := genesisBlock.Hash()
	e := &Engine{
		cfg:             cfg,
		validators:      validatorset.New(cfg),
		store:           forkchoice.New(cfg, root, genesisBlock.Header.Slot),
		finalityTracker: finality.New(types.Checkpoint{Epoch: 0, Root: root}),
		detector:        slashing.New(),
		db:              db,
		net:             net,
		st:              st,
		verifyPool:      async.NewVerifyPool(verifyWorkers, 256),
		genesisAt:       genesisAt,
		localKeys:       make(map[signing.Address]signing.PrivateKey),
		heights:         map[hash.Hash]uint64{root: genesisBlock.Header.Height},
		orphans:         make(map[hash.Hash]*orphanEntry),
	}
	if err := db.PutBlock(ctx, genesisBlock); err != nil {
		return nil, errors.Wrap(err, "engine: persist genesis block")
	}
	if err := db.PutCheckpoint(ctx, "justified", e.finalityTracker.Justified()); err != nil {
		return nil, errors.Wrap(err, "engine: persist genesis justified checkpoint")
	}
	if err := db.PutCheckpoint(ctx, "finalized", e.finalityTracker.Finalized()); err != nil {
		return nil, errors.Wrap(err, "engine: persist genesis finalized checkpoint")
	}
	return e, nil
}

// Close drains the verification pool. The fork store, validator set,
// and finality tracker are plain in-memory values with no separate
// lifecycle to stop.
func (e *Engine) Close() {
	e.verifyPool.Close()
}

// Validators exposes the validator registry for host-side registration
// and administrative queries.
func (e *Engine) Validators() *validatorset.Set { return e.validators }

// SetLocalKey enables proposer/attester duties for addr, whose keypair
// the host holds.
func (e *Engine) SetLocalKey(addr signing.Address, sk signing.PrivateKey) {
	e.localKeys[addr] = sk
}

// Head returns the current canonical head per LMD-GHOST.
func (e *Engine) Head(epoch primitives.Epoch) (hash.Hash, error) {
	return e.store.Head(e.validators.TotalActiveEffectiveBalance(epoch))
}

// Justified returns the current justified checkpoint.
func (e *Engine) Justified() types.Checkpoint { return e.finalityTracker.Justified() }

// Finalized returns the current finalized checkpoint.
func (e *Engine) Finalized() types.Checkpoint { return e.finalityTracker.Finalized() }

// Evidence returns a snapshot of every slashing evidence record
// collected so far.
func (e *Engine) Evidence() []slashing.Evidence {
	out := make([]slashing.Evidence, len(e.evidence))
	copy(out, e.evidence)
	return out
}

// CurrentSlot returns the slot most recently advanced to by OnSlot.
func (e *Engine) CurrentSlot() primitives.Slot { return e.currentSlot }

// OnSlot advances the engine's clock to slot, activates validators
// whose activation epoch has arrived, evicts expired orphans, and —
// if the host holds a key for this slot's duties — proposes and
// attests.
func (e *Engine) OnSlot(ctx context.Context, slot primitives.Slot) {
	e.currentSlot = slot
	epoch := primitives.EpochOf(slot, e.cfg.SlotsPerEpoch)
	if primitives.SlotIndexInEpoch(slot, e.cfg.SlotsPerEpoch) == 0 {
		e.validators.Activate(epoch)
	}
	e.evictExpiredOrphans(slot)

	metrics.CurrentSlot.Set(float64(slot))
	metrics.ActiveValidators.Set(float64(len(e.validators.IterActive(epoch))))
	metrics.JustifiedEpoch.Set(float64(e.finalityTracker.Justified().Epoch))
	metrics.FinalizedEpoch.Set(float64(e.finalityTracker.Finalized().Epoch))
	metrics.OrphansBuffered.Set(float64(len(e.orphans)))

	if len(e.localKeys) == 0 {
		return
	}
	if err := e.maybePropose(ctx, slot, epoch); err != nil {
		log.WithField("slot", slot).WithError(err).Debug("slot: no block proposed")
	}
	if err := e.maybeAttest(ctx, slot, epoch); err != nil {
		log.WithField("slot", slot).WithError(err).Debug("slot: no attestation produced")
	}
}

func (e *Engine) maybePropose(ctx context.Context, slot primitives.Slot, epoch primitives.Epoch) error {
	active := e.validators.IterActive(epoch)
	if len(active) == 0 {
		return errors.New("no active validators")
	}
	proposer, err := committee.ComputeProposer(active, committee.SlotSeed(e.cfg.GenesisSeed, slot, e.cfg.SlotsPerEpoch))
	if err != nil {
		return err
	}
	sk, ours := e.localKeys[proposer.Address]
	if !ours {
		return nil
	}

	head, err := e.Head(epoch)
	if err != nil {
		return errors.Wrap(err, "compute head for proposal")
	}

	applyDeadline := e.slotStart(slot).Add(e.cfg.SlotDuration - 2*time.Second)
	txs, err := e.st.PendingTransactions(ctx, defaultBlockGasLimit)
	if err != nil {
		return errors.Wrap(err, "pull pending transactions")
	}
	block := &types.Block{
		Header: types.Header{
			Height:       e.heights[head] + 1,
			PreviousHash: head,
			Slot:         slot,
			Epoch:        epoch,
			Proposer:     proposer.Address,
			Timestamp:    time.Now().Unix(),
			GasLimit:     defaultBlockGasLimit,
		},
		Transactions: txs,
	}
	block.Header.MerkleRoot = block.ComputeMerkleRoot()
	if time.Now().After(applyDeadline) {
		return errors.New("state-apply deadline exceeded, slot missed")
	}
	stateRoot, err := e.st.ApplyBlock(ctx, block)
	if err != nil {
		return consensuserr.Wrap(err, consensuserr.KindState, "apply proposed block")
	}
	block.Header.StateRoot = stateRoot
	block.Header.ProposerSignature = signing.Sign(sk, block.SigningRoot().Bytes())

	if err := e.net.BroadcastBlock(ctx, block); err != nil {
		log.WithError(err).Warn("broadcast block failed")
	}
	proposer.Performance.Proposed++
	return e.IngestBlock(ctx, block, OriginSelf)
}

func (e *Engine) maybeAttest(ctx context.Context, slot primitives.Slot, epoch primitives.Epoch) error {
	active := e.validators.IterActive(epoch)
	if len(active) == 0 {
		return errors.New("no active validators")
	}
	committees, err := committee.ComputeCommittees(active, slot, e.cfg.CommitteesPerSlot, committee.SlotSeed(e.cfg.GenesisSeed, slot, e.cfg.SlotsPerEpoch))
	if err != nil {
		return err
	}

	attestDeadline := e.slotStart(slot).Add(2 * e.cfg.SlotDuration / 3)
	if time.Now().After(attestDeadline) {
		return errors.New("attestation deadline passed, vote skipped (missed)")
	}

	head, err := e.Head(epoch)
	if err != nil {
		return errors.Wrap(err, "compute head for attestation")
	}
	targetRoot, err := e.store.CheckpointRoot(head, epoch, e.cfg.SlotsPerEpoch)
	if err != nil {
		return errors.Wrap(err, "compute target checkpoint")
	}
	target := types.Checkpoint{Epoch: epoch, Root: targetRoot}
	source := e.finalityTracker.Justified()

	for _, c := range committees {
		for _, v := range c.Members {
			sk, ours := e.localKeys[v.Address]
			if !ours {
				continue
			}
			att := types.Attestation{
				Slot:            slot,
				CommitteeIndex:  c.Index,
				ValidatorIndex:  v.Index,
				BeaconBlockRoot: head,
				Source:          source,
				Target:          target,
			}
			att.Signature = signing.Sign(sk, att.SigningRoot().Bytes())
			if err := e.net.BroadcastAttestation(ctx, &att); err != nil {
				log.WithError(err).Warn("broadcast attestation failed")
			}
			v.Performance.Attested++
			if err := e.IngestAttestation(ctx, att, OriginSelf); err != nil {
				log.WithError(err).WithField("validator", v.Index).Warn("self attestation rejected")
			}
		}
	}
	return nil
}

// verifySignature offloads an Ed25519 check to the verification
// worker pool and blocks for its result: "Ed25519 verification may
// be offloaded to a worker pool for throughput with a bounded queue;
// results re-enter the consensus task via a channel."
func (e *Engine) verifySignature(pk signing.PublicKey, msg []byte, sig signing.Signature) bool {
	result := <-e.verifyPool.Submit(0, func() bool {
		return signing.Verify(pk, msg, sig)
	})
	return result.Ok
}

func (e *Engine) slotStart(slot primitives.Slot) time.Time {
	return e.genesisAt.Add(time.Duration(slot) * e.cfg.SlotDuration)
}

func (e *Engine) recordEvidence(ev slashing.Evidence) {
	e.evidence = append(e.evidence, ev)
	metrics.SlashingEvidenceTotal.WithLabelValues(string(ev.Offense)).Inc()
	log.WithFields(map[string]interface{}{
		"offender": ev.Offender.String(),
		"offense":  ev.Offense,
		"epoch":    ev.At,
	}).Warn("slashing evidence recorded")
}
