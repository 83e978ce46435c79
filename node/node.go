// Package node wires the consensus engine, its storage, and the
// ambient HTTP/metrics surface into a single long-running process,
// following the lifecycle shape of the teacher's beacon-chain/node
// package: a constructor that builds every collaborator from CLI
// flags, and a Start method that blocks until a shutdown signal.
//
// P2P transport and transaction execution are host responsibilities
// this module only declares interfaces for: LoopbackNetwork and
// NullStateEngine below are the standalone-mode stand-ins a
// single-node deployment uses in their place, not a reference
// implementation of either concern.
package node

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/republic-chain/proof-of-stake/config"
	"github.com/republic-chain/proof-of-stake/crypto/hash"
	"github.com/republic-chain/proof-of-stake/engine"
	"github.com/republic-chain/proof-of-stake/iface"
	"github.com/republic-chain/proof-of-stake/keystore"
	"github.com/republic-chain/proof-of-stake/monitoring/metrics"
	"github.com/republic-chain/proof-of-stake/primitives"
	"github.com/republic-chain/proof-of-stake/storage/boltdb"
	"github.com/republic-chain/proof-of-stake/time/slots"
	"github.com/republic-chain/proof-of-stake/types"
)

var (
	_ iface.Network     = LoopbackNetwork{}
	_ iface.StateEngine = NullStateEngine{}
)

// Node owns every long-lived collaborator of a running consensus
// process and their shutdown order.
type Node struct {
	cfg *config.Config
	db  *boltdb.Store
	eng *engine.Engine

	ticker      *slots.Ticker
	metricsAddr string
	metricsSrv  *http.Server

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	stopped bool
}

// New builds a Node from CLI flags. The genesis block is the trivial
// empty-body block at height 0; a real deployment supplies its actual
// genesis payload out of band (e.g. a loaded snapshot) through the
// same iface.Database the engine is constructed with.
func New(cliCtx *cli.Context) (*Node, error) {
	cfg := config.Default()
	if p := cliCtx.String(ChainConfigFileFlag.Name); p != "" {
		loaded, err := config.LoadFromFile(p)
		if err != nil {
			return nil, errors.Wrap(err, "node: load chain config")
		}
		cfg = loaded
	}

	dataDir := cliCtx.String(DataDirFlag.Name)
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, errors.Wrap(err, "node: create data dir")
	}
	store, err := boltdb.Open(filepath.Join(dataDir, "consensus.db"))
	if err != nil {
		return nil, errors.Wrap(err, "node: open database")
	}

	genesisAt := time.Unix(cliCtx.Int64(GenesisTimeFlag.Name), 0)
	genesis := &types.Block{Header: types.Header{Height: 0}}

	ctx, cancel := context.WithCancel(context.Background())

	verifyWorkers := cliCtx.Int(VerifyWorkersFlag.Name)
	eng, err := engine.New(ctx, cfg, genesis, genesisAt, store, LoopbackNetwork{}, NullStateEngine{}, verifyWorkers)
	if err != nil {
		cancel()
		_ = store.Close()
		return nil, errors.Wrap(err, "node: construct engine")
	}

	n := &Node{
		cfg:         cfg,
		db:          store,
		eng:         eng,
		metricsAddr: cliCtx.String(MetricsAddrFlag.Name),
		ctx:         ctx,
		cancel:      cancel,
	}

	if keyPath := cliCtx.String(ValidatorKeyFileFlag.Name); keyPath != "" {
		if err := n.registerLocalValidator(keyPath, cliCtx.Uint64(ValidatorStakeFlag.Name)); err != nil {
			n.Close()
			return nil, errors.Wrap(err, "node: register local validator")
		}
	}

	n.ticker = slots.NewTicker(genesisAt, cfg.SlotDuration)
	return n, nil
}

// Engine exposes the underlying consensus engine, primarily for tests
// and debug tooling that need to inspect engine state directly.
func (n *Node) Engine() *engine.Engine { return n.eng }

func (n *Node) registerLocalValidator(keyPath string, stake uint64) error {
	pk, sk, err := keystore.Load(keyPath)
	if err != nil {
		return err
	}
	currentEpoch := primitives.EpochOf(n.eng.CurrentSlot(), n.cfg.SlotsPerEpoch)
	addr, err := n.eng.Validators().Register(pk, stake, 0, nil, currentEpoch)
	if err != nil {
		return err
	}
	n.eng.SetLocalKey(addr, sk)
	log.WithField("prefix", "node").WithField("address", addr.String()).Info("registered local validator")
	return nil
}

// Start serves metrics and drives the engine's slot loop until the
// process receives SIGINT/SIGTERM or ctx is cancelled.
func (n *Node) Start() error {
	log.WithField("prefix", "node").WithField("addr", n.metricsAddr).Info("starting metrics server")
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	n.metricsSrv = &http.Server{Addr: n.metricsAddr, Handler: mux}
	go func() {
		if err := n.metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithField("prefix", "node").WithError(err).Error("metrics server exited")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case slot := <-n.ticker.C():
			n.eng.OnSlot(n.ctx, slot)
			n.recordMetrics(slot)
		case <-sigCh:
			log.WithField("prefix", "node").Info("shutdown signal received")
			n.Close()
			return nil
		case <-n.ctx.Done():
			return nil
		}
	}
}

// recordMetrics updates the gauges driven purely by slot ticks; the
// engine itself logs per-slot detail and bumps the event counters.
func (n *Node) recordMetrics(slot primitives.Slot) {
	metrics.CurrentSlot.Set(float64(slot))
	justified := n.eng.Justified()
	finalized := n.eng.Finalized()
	metrics.JustifiedEpoch.Set(float64(justified.Epoch))
	metrics.FinalizedEpoch.Set(float64(finalized.Epoch))
}

// Close releases every owned resource exactly once.
func (n *Node) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.stopped {
		return
	}
	n.stopped = true

	n.cancel()
	if n.ticker != nil {
		n.ticker.Done()
	}
	if n.metricsSrv != nil {
		_ = n.metricsSrv.Close()
	}
	n.eng.Close()
	if err := n.db.Close(); err != nil {
		log.WithField("prefix", "node").WithError(err).Error("closing database")
	}
}

// LoopbackNetwork is the standalone-mode iface.Network: it logs every
// broadcast instead of putting bytes on a wire, and never finds a
// remote peer to request a block from.
type LoopbackNetwork struct{}

func (LoopbackNetwork) BroadcastBlock(_ context.Context, b *types.Block) error {
	log.WithField("prefix", "network").WithField("root", b.Hash().String()).Debug("broadcast block")
	return nil
}

func (LoopbackNetwork) BroadcastAttestation(_ context.Context, a *types.Attestation) error {
	log.WithField("prefix", "network").Debug("broadcast attestation")
	return nil
}

func (LoopbackNetwork) RequestBlock(context.Context, hash.Hash) (*types.Block, error) {
	return nil, errors.New("network: no peers in standalone mode")
}

// NullStateEngine is the standalone-mode iface.StateEngine: every
// block applies to the same fixed state root and no transactions are
// ever pending, since this module owns no execution layer.
type NullStateEngine struct{}

func (NullStateEngine) ApplyBlock(context.Context, *types.Block) (hash.Hash, error) {
	return hash.Zero, nil
}

func (NullStateEngine) PendingTransactions(context.Context, int) ([]types.Transaction, error) {
	return nil, nil
}
