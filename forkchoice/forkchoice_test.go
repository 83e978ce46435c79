package forkchoice_test

import (
	"testing"

	"github.com/republic-chain/proof-of-stake/config"
	"github.com/republic-chain/proof-of-stake/crypto/hash"
	"github.com/republic-chain/proof-of-stake/forkchoice"
	"github.com/stretchr/testify/require"
)

func root(b byte) hash.Hash {
	var h hash.Hash
	h[31] = b
	return h
}

func TestHead_StraightChain(t *testing.T) {
	cfg := config.Default()
	cfg.ProposerScoreBoostBps = 0
	genesis := root(0)
	store := forkchoice.New(cfg, genesis, 0)

	require.NoError(t, store.InsertBlock(root(1), genesis, 1))
	require.NoError(t, store.InsertBlock(root(2), root(1), 2))

	head, err := store.Head(0)
	require.NoError(t, err)
	require.Equal(t, root(2), head)
}

func TestHead_PicksHeavierFork(t *testing.T) {
	cfg := config.Default()
	cfg.ProposerScoreBoostBps = 0
	genesis := root(0)
	store := forkchoice.New(cfg, genesis, 0)

	require.NoError(t, store.InsertBlock(root(1), genesis, 1))
	require.NoError(t, store.InsertBlock(root(2), genesis, 1))

	require.NoError(t, store.InsertAttestation(0, root(1), 1, 100))
	require.NoError(t, store.InsertAttestation(1, root(2), 1, 50))

	head, err := store.Head(150)
	require.NoError(t, err)
	require.Equal(t, root(1), head)
}

func TestInsertAttestation_RewindsPriorVote(t *testing.T) {
	cfg := config.Default()
	genesis := root(0)
	store := forkchoice.New(cfg, genesis, 0)
	require.NoError(t, store.InsertBlock(root(1), genesis, 1))
	require.NoError(t, store.InsertBlock(root(2), genesis, 1))

	require.NoError(t, store.InsertAttestation(0, root(1), 1, 100))
	w1, err := store.SubtreeWeight(root(1))
	require.NoError(t, err)
	require.Equal(t, uint64(100), w1)

	// Same validator switches its vote to root(2) at a later slot:
	// root(1) must lose the weight it previously carried.
	require.NoError(t, store.InsertAttestation(0, root(2), 2, 100))
	w1, err = store.SubtreeWeight(root(1))
	require.NoError(t, err)
	require.Equal(t, uint64(0), w1)
	w2, err := store.SubtreeWeight(root(2))
	require.NoError(t, err)
	require.Equal(t, uint64(100), w2)
}

func TestInsertAttestation_IgnoresStaleSlot(t *testing.T) {
	cfg := config.Default()
	genesis := root(0)
	store := forkchoice.New(cfg, genesis, 0)
	require.NoError(t, store.InsertBlock(root(1), genesis, 1))
	require.NoError(t, store.InsertBlock(root(2), genesis, 1))

	require.NoError(t, store.InsertAttestation(0, root(1), 5, 100))
	w1, err := store.SubtreeWeight(root(1))
	require.NoError(t, err)
	require.Equal(t, uint64(100), w1)

	// A delayed attestation for an older slot arrives after the newer
	// vote was already applied: it must be ignored, not overwrite the
	// recorded vote.
	err = store.InsertAttestation(0, root(2), 4, 100)
	require.ErrorIs(t, err, forkchoice.ErrStaleSlot)

	w1, err = store.SubtreeWeight(root(1))
	require.NoError(t, err)
	require.Equal(t, uint64(100), w1)
	w2, err := store.SubtreeWeight(root(2))
	require.NoError(t, err)
	require.Equal(t, uint64(0), w2)

	// A same-slot attestation for a different root is likewise stale:
	// equal-or-older never displaces the recorded vote.
	err = store.InsertAttestation(0, root(2), 5, 100)
	require.ErrorIs(t, err, forkchoice.ErrStaleSlot)

	w1, err = store.SubtreeWeight(root(1))
	require.NoError(t, err)
	require.Equal(t, uint64(100), w1)
	w2, err = store.SubtreeWeight(root(2))
	require.NoError(t, err)
	require.Equal(t, uint64(0), w2)
}

func TestInsertBlock_UnknownParent(t *testing.T) {
	cfg := config.Default()
	store := forkchoice.New(cfg, root(0), 0)
	err := store.InsertBlock(root(1), root(9), 1)
	require.ErrorIs(t, err, forkchoice.ErrUnknownParent)
}

func TestInsertBlock_DuplicateRoot(t *testing.T) {
	cfg := config.Default()
	genesis := root(0)
	store := forkchoice.New(cfg, genesis, 0)
	require.NoError(t, store.InsertBlock(root(1), genesis, 1))
	err := store.InsertBlock(root(1), genesis, 1)
	require.ErrorIs(t, err, forkchoice.ErrDuplicateBlock)
}

func TestIsDescendant(t *testing.T) {
	cfg := config.Default()
	genesis := root(0)
	store := forkchoice.New(cfg, genesis, 0)
	require.NoError(t, store.InsertBlock(root(1), genesis, 1))
	require.NoError(t, store.InsertBlock(root(2), root(1), 2))

	require.True(t, store.IsDescendant(root(2), genesis))
	require.True(t, store.IsDescendant(root(2), root(1)))
	require.False(t, store.IsDescendant(root(1), root(2)))
}

func TestLCA_DivergingForks(t *testing.T) {
	cfg := config.Default()
	genesis := root(0)
	store := forkchoice.New(cfg, genesis, 0)
	require.NoError(t, store.InsertBlock(root(1), genesis, 1))
	require.NoError(t, store.InsertBlock(root(2), root(1), 2))
	require.NoError(t, store.InsertBlock(root(3), root(1), 2))

	lca, err := store.LCA(root(2), root(3))
	require.NoError(t, err)
	require.Equal(t, root(1), lca)
}

func TestPruneTo_DropsNonDescendants(t *testing.T) {
	cfg := config.Default()
	genesis := root(0)
	store := forkchoice.New(cfg, genesis, 0)
	require.NoError(t, store.InsertBlock(root(1), genesis, 1))
	require.NoError(t, store.InsertBlock(root(2), root(1), 2))
	require.NoError(t, store.InsertBlock(root(3), root(1), 2))

	require.NoError(t, store.PruneTo(root(1)))
	require.True(t, store.Has(root(1)))
	require.True(t, store.Has(root(2)))
	require.True(t, store.Has(root(3)))
	require.False(t, store.Has(genesis))
	require.Equal(t, root(1), store.FinalizedRoot())
}

func TestHead_ReorgBelowJustifiedIsForbidden(t *testing.T) {
	cfg := config.Default()
	cfg.ProposerScoreBoostBps = 0
	cfg.SlotsPerEpoch = 8
	genesis := root(0)
	store := forkchoice.New(cfg, genesis, 0)

	// Two competing first-epoch blocks, both children of genesis.
	justifiedBlock := root(1)
	rivalBlock := root(2)
	require.NoError(t, store.InsertBlock(justifiedBlock, genesis, 8))
	require.NoError(t, store.InsertBlock(rivalBlock, genesis, 8))

	// justifiedBlock extends one more block; rivalBlock accumulates far
	// more attester weight but was never justified.
	descendant := root(3)
	require.NoError(t, store.InsertBlock(descendant, justifiedBlock, 9))
	require.NoError(t, store.InsertAttestation(0, rivalBlock, 8, 1000))

	// Before justifiedBlock is recorded as the justified checkpoint,
	// the heavier rival fork legitimately wins.
	head, err := store.Head(1000)
	require.NoError(t, err)
	require.Equal(t, rivalBlock, head)

	// Once justifiedBlock becomes the justified checkpoint, Head must
	// only ever descend from it, regardless of how much weight the
	// rival fork below it carries.
	store.SetJustifiedCheckpoint(justifiedBlock, 1)
	head, err = store.Head(1000)
	require.NoError(t, err)
	require.Equal(t, descendant, head)
}

func TestProposerBoost_TiltsHeadTowardBoostedBlock(t *testing.T) {
	cfg := config.Default()
	cfg.ProposerScoreBoostBps = 4000 // 40%
	genesis := root(0)
	store := forkchoice.New(cfg, genesis, 0)

	require.NoError(t, store.InsertBlock(root(1), genesis, 1))
	require.NoError(t, store.InsertBlock(root(2), genesis, 1))
	require.NoError(t, store.InsertAttestation(0, root(2), 1, 30))

	// Without the boost, root(2)'s 30 direct weight would beat root(1)'s
	// 0. With a 40% boost of the 100 total active weight applied to
	// root(1), it should win instead.
	store.SetProposerBoost(root(1), 1)
	head, err := store.Head(100)
	require.NoError(t, err)
	require.Equal(t, root(1), head)
}
