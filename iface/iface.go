// Package iface defines the capability-set interfaces the consensus
// orchestrator depends on for persistence, networking, and
// transaction execution: Database, Network, and
// StateEngine. Concrete implementations live in sibling packages
// (storage/boltdb for Database); Network and StateEngine are host
// responsibilities this module only declares the contract for.
//
// Grounded on beacon-chain/db/iface/interface.go's split between a
// read-only interface and a read-write superset, and its
// context.Context-per-method convention for cancellation and tracing.
package iface

import (
	"context"

	"github.com/republic-chain/proof-of-stake/crypto/hash"
	"github.com/republic-chain/proof-of-stake/types"
)

// ReadOnlyDatabase exposes lookups needed by fork-choice replay and
// RPC/debug endpoints without granting write access.
type ReadOnlyDatabase interface {
	Block(ctx context.Context, root hash.Hash) (*types.Block, error)
	HasBlock(ctx context.Context, root hash.Hash) (bool, error)
	Checkpoint(ctx context.Context, name string) (types.Checkpoint, error)
	Attestations(ctx context.Context, blockRoot hash.Hash) ([]types.Attestation, error)
}

// Database is the full persistence contract the orchestrator depends
// on.
type Database interface {
	ReadOnlyDatabase

	PutBlock(ctx context.Context, block *types.Block) error
	PutCheckpoint(ctx context.Context, name string, c types.Checkpoint) error
	PutAttestations(ctx context.Context, blockRoot hash.Hash, atts []types.Attestation) error

	Close() error
}

// Network abstracts gossip/req-resp transport
// collaborator boundary: consensus only needs to broadcast what it
// decided and ask for what it is missing, never how bytes reach peers.
type Network interface {
	BroadcastBlock(ctx context.Context, block *types.Block) error
	BroadcastAttestation(ctx context.Context, att *types.Attestation) error
	RequestBlock(ctx context.Context, root hash.Hash) (*types.Block, error)
}

// StateEngine abstracts the external execution/mempool layer: applying
// a block's transactions to produce a new state root, and supplying
// pending transactions for the next proposal.
type StateEngine interface {
	ApplyBlock(ctx context.Context, block *types.Block) (stateRoot hash.Hash, err error)
	PendingTransactions(ctx context.Context, max int) ([]types.Transaction, error)
}
