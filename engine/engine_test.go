package engine_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/republic-chain/proof-of-stake/config"
	"github.com/republic-chain/proof-of-stake/crypto/hash"
	"github.com/republic-chain/proof-of-stake/crypto/signing"
	"github.com/republic-chain/proof-of-stake/engine"
	"github.com/republic-chain/proof-of-stake/primitives"
	"github.com/republic-chain/proof-of-stake/types"
	"github.com/republic-chain/proof-of-stake/validatorset"
	"github.com/stretchr/testify/require"
)

// memDB is a minimal in-memory iface.Database stand-in: this module's
// tests exercise the engine's state machine, not bbolt's durability.
type memDB struct {
	mu          sync.Mutex
	blocks      map[hash.Hash]*types.Block
	checkpoints map[string]types.Checkpoint
	attestions  map[hash.Hash][]types.Attestation
}

func newMemDB() *memDB {
	return &memDB{
		blocks:      make(map[hash.Hash]*types.Block),
		checkpoints: make(map[string]types.Checkpoint),
		attestions:  make(map[hash.Hash][]types.Attestation),
	}
}

func (m *memDB) Block(_ context.Context, root hash.Hash) (*types.Block, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.blocks[root], nil
}

func (m *memDB) HasBlock(_ context.Context, root hash.Hash) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blocks[root]
	return ok, nil
}

func (m *memDB) Checkpoint(_ context.Context, name string) (types.Checkpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checkpoints[name], nil
}

func (m *memDB) Attestations(_ context.Context, root hash.Hash) ([]types.Attestation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attestions[root], nil
}

func (m *memDB) PutBlock(_ context.Context, block *types.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blocks[block.Hash()] = block
	return nil
}

func (m *memDB) PutCheckpoint(_ context.Context, name string, c types.Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkpoints[name] = c
	return nil
}

func (m *memDB) PutAttestations(_ context.Context, root hash.Hash, atts []types.Attestation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attestions[root] = atts
	return nil
}

func (m *memDB) Close() error { return nil }

// recordingNet captures every broadcast block so tests can assert on
// the proposer sequence without re-deriving it from the store.
type recordingNet struct {
	mu     sync.Mutex
	blocks []*types.Block
}

func (n *recordingNet) BroadcastBlock(_ context.Context, b *types.Block) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.blocks = append(n.blocks, b)
	return nil
}
func (n *recordingNet) BroadcastAttestation(context.Context, *types.Attestation) error { return nil }
func (n *recordingNet) RequestBlock(context.Context, hash.Hash) (*types.Block, error) {
	return nil, nil
}

// zeroStateEngine applies every block to the same fixed state root, so
// tests don't need a real execution layer to satisfy ingest_block's
// state-root check.
type zeroStateEngine struct{}

func (zeroStateEngine) ApplyBlock(context.Context, *types.Block) (hash.Hash, error) {
	return hash.Zero, nil
}
func (zeroStateEngine) PendingTransactions(context.Context, int) ([]types.Transaction, error) {
	return nil, nil
}

func genesisBlock() *types.Block {
	return &types.Block{Header: types.Header{Height: 0}}
}

func newTestEngine(t *testing.T, cfg *config.Config) (*engine.Engine, *recordingNet) {
	t.Helper()
	return newTestEngineAt(t, cfg, time.Unix(0, 0))
}

func newTestEngineAt(t *testing.T, cfg *config.Config, genesisAt time.Time) (*engine.Engine, *recordingNet) {
	t.Helper()
	net := &recordingNet{}
	e, err := engine.New(context.Background(), cfg, genesisBlock(), genesisAt, newMemDB(), net, zeroStateEngine{}, 2)
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e, net
}

// liveSlotConfig returns a config whose genesis is anchored to the
// real clock with a generous skew tolerance, for tests that drive the
// engine's own proposer/attester duties through OnSlot: both
// checkSlotSkew's upper bound and maybePropose's apply-by deadline are
// evaluated against wall-clock time, so a genesis anchored decades in
// the past (as the other tests use for their fixed-in-time blocks)
// would make every slot's deadline already expired.
func liveSlotConfig() (*config.Config, time.Time) {
	cfg := config.Default()
	cfg.ActivationDelay = 0
	cfg.ClockSkewTolerance = time.Hour
	return cfg, time.Now()
}

func registerActive(t *testing.T, e *engine.Engine, stake uint64) (signing.Address, signing.PrivateKey) {
	t.Helper()
	pk, sk, err := signing.GenerateKey()
	require.NoError(t, err)
	addr, err := e.Validators().Register(pk, stake, 0, nil, 0)
	require.NoError(t, err)
	return addr, sk
}

// TestStraightChain_SingleProposerPerSlot exercises the single-proposer
// straight-chain scenario: every slot tick should produce
// exactly one new head block, chained from the previous one, and the
// store's head after the run must be the last proposed block.
func TestStraightChain_SingleProposerPerSlot(t *testing.T) {
	cfg, genesisAt := liveSlotConfig()
	cfg.CommitteesPerSlot = 1
	e, net := newTestEngineAt(t, cfg, genesisAt)

	addrA, skA := registerActive(t, e, 100)
	addrB, skB := registerActive(t, e, 300)
	e.Validators().Activate(0)
	e.SetLocalKey(addrA, skA)
	e.SetLocalKey(addrB, skB)

	ctx := context.Background()
	for slot := primitives.Slot(1); slot <= 7; slot++ {
		e.OnSlot(ctx, slot)
	}

	require.Len(t, net.blocks, 7, "one block proposed per slot")

	head, err := e.Head(primitives.EpochOf(7, cfg.SlotsPerEpoch))
	require.NoError(t, err)
	require.Equal(t, net.blocks[len(net.blocks)-1].Hash(), head)

	for i := 1; i < len(net.blocks); i++ {
		require.Equal(t, net.blocks[i-1].Hash(), net.blocks[i].Header.PreviousHash, "block %d must chain from block %d", i, i-1)
	}
}

// TestStraightChain_ProposerSelectionDeterministic reruns the same
// slot range twice over fresh engines sharing the same genesis seed,
// validator keys and stakes, and requires an identical proposer
// sequence both times.
func TestStraightChain_ProposerSelectionDeterministic(t *testing.T) {
	pkA, skA, err := signing.GenerateKey()
	require.NoError(t, err)
	pkB, skB, err := signing.GenerateKey()
	require.NoError(t, err)

	run := func() []signing.Address {
		cfg, genesisAt := liveSlotConfig()
		e, net := newTestEngineAt(t, cfg, genesisAt)
		addrA, err := e.Validators().Register(pkA, 100, 0, nil, 0)
		require.NoError(t, err)
		addrB, err := e.Validators().Register(pkB, 300, 0, nil, 0)
		require.NoError(t, err)
		e.Validators().Activate(0)
		e.SetLocalKey(addrA, skA)
		e.SetLocalKey(addrB, skB)

		ctx := context.Background()
		for slot := primitives.Slot(1); slot <= 7; slot++ {
			e.OnSlot(ctx, slot)
		}
		proposers := make([]signing.Address, len(net.blocks))
		for i, b := range net.blocks {
			proposers[i] = b.Header.Proposer
		}
		return proposers
	}

	first := run()
	second := run()
	require.Equal(t, first, second)
}

// TestDoubleProposal_RecordsEvidenceAndSlashes covers the scenario where a
// double-proposal variant: a validator who signs two different blocks
// for the same slot must be slashed on the second ingestion.
func TestDoubleProposal_RecordsEvidenceAndSlashes(t *testing.T) {
	cfg := config.Default()
	cfg.ActivationDelay = 0
	e, _ := newTestEngine(t, cfg)
	addr, sk := registerActive(t, e, 100)
	e.Validators().Activate(0)

	genesisRoot := genesisBlock().Hash()

	mkBlock := func(timestamp int64) *types.Block {
		b := &types.Block{
			Header: types.Header{
				Height:       1,
				PreviousHash: genesisRoot,
				Slot:         1,
				Epoch:        0,
				Proposer:     addr,
				Timestamp:    timestamp,
			},
		}
		b.Header.MerkleRoot = b.ComputeMerkleRoot()
		b.Header.StateRoot = hash.Zero // matches zeroStateEngine
		b.Header.ProposerSignature = signing.Sign(sk, b.SigningRoot().Bytes())
		return b
	}

	ctx := context.Background()
	require.NoError(t, e.IngestBlock(ctx, mkBlock(100), engine.OriginNetwork))
	require.Empty(t, e.Evidence())

	// The conflicting second block is still accepted as a sibling fork:
	// double-proposal detection records evidence and slashes the
	// validator, but it is not itself a validation failure.
	require.NoError(t, e.IngestBlock(ctx, mkBlock(200), engine.OriginNetwork))

	evidence := e.Evidence()
	require.Len(t, evidence, 1)
	require.Equal(t, addr, evidence[0].Offender)
	require.Equal(t, validatorset.OffenseDoubleProposal, evidence[0].Offense)

	v, ok := e.Validators().Get(addr)
	require.True(t, ok)
	require.Equal(t, types.StatusSlashed, v.Status)
}

// TestIngestBlock_OrphanBuffersUntilParentArrives covers the case where
// a block whose parent is unknown is buffered rather than rejected
// outright, and is replayed once the parent is later ingested.
func TestIngestBlock_OrphanBuffersUntilParentArrives(t *testing.T) {
	cfg := config.Default()
	cfg.ActivationDelay = 0
	e, _ := newTestEngine(t, cfg)
	addr, sk := registerActive(t, e, 100)
	e.Validators().Activate(0)

	genesisRoot := genesisBlock().Hash()
	parent := &types.Block{
		Header: types.Header{Height: 1, PreviousHash: genesisRoot, Slot: 1, Epoch: 0, Proposer: addr},
	}
	parent.Header.MerkleRoot = parent.ComputeMerkleRoot()
	parent.Header.StateRoot = hash.Zero
	parent.Header.ProposerSignature = signing.Sign(sk, parent.SigningRoot().Bytes())

	child := &types.Block{
		Header: types.Header{Height: 2, PreviousHash: parent.Hash(), Slot: 2, Epoch: 0, Proposer: addr},
	}
	child.Header.MerkleRoot = child.ComputeMerkleRoot()
	child.Header.StateRoot = hash.Zero
	child.Header.ProposerSignature = signing.Sign(sk, child.SigningRoot().Bytes())

	ctx := context.Background()
	err := e.IngestBlock(ctx, child, engine.OriginNetwork)
	require.Error(t, err) // orphaned: parent not yet known

	require.NoError(t, e.IngestBlock(ctx, parent, engine.OriginNetwork))

	head, err := e.Head(0)
	require.NoError(t, err)
	require.Equal(t, child.Hash(), head, "buffered child should resolve once its parent arrives")
}
