// Package boltdb implements iface.Database over go.etcd.io/bbolt, the
// embedded KV store the teacher's later db/kv package migrated to from
// boltdb/bolt. Bucket layout and the View/Update transaction idiom are
// grounded on beacon-chain/db/kv/validators.go; trace spans follow the
// same file's go.opencensus.io/trace.StartSpan convention.
package boltdb

import (
	"context"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
	"go.opencensus.io/trace"

	"github.com/republic-chain/proof-of-stake/crypto/hash"
	"github.com/republic-chain/proof-of-stake/iface"
	"github.com/republic-chain/proof-of-stake/types"
)

var (
	blocksBucket       = []byte("blocks")
	checkpointsBucket  = []byte("checkpoints")
	attestationsBucket = []byte("attestations")
)

// ErrNotFound is returned when a lookup finds no record.
var ErrNotFound = errors.New("boltdb: not found")

// Store is the bbolt-backed iface.Database implementation.
type Store struct {
	db *bolt.DB
}

// Open creates or opens the database file at path and ensures all
// three top-level buckets exist.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, errors.Wrap(err, "boltdb: open")
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{blocksBucket, checkpointsBucket, attestationsBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "boltdb: create buckets")
	}
	return &Store{db: db}, nil
}

// Close releases the underlying file handle.
func (s *Store) Close() error {
	return s.db.Close()
}

var _ iface.Database = (*Store)(nil)

// Block returns the block stored under root.
func (s *Store) Block(ctx context.Context, root hash.Hash) (*types.Block, error) {
	_, span := trace.StartSpan(ctx, "boltdb.Block")
	defer span.End()

	var block *types.Block
	err := s.db.View(func(tx *bolt.Tx) error {
		enc := tx.Bucket(blocksBucket).Get(root.Bytes())
		if enc == nil {
			return nil
		}
		b, err := decodeBlock(enc)
		if err != nil {
			return err
		}
		block = b
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "boltdb: get block")
	}
	if block == nil {
		return nil, ErrNotFound
	}
	return block, nil
}

// HasBlock reports whether root is stored.
func (s *Store) HasBlock(ctx context.Context, root hash.Hash) (bool, error) {
	_, span := trace.StartSpan(ctx, "boltdb.HasBlock")
	defer span.End()

	exists := false
	err := s.db.View(func(tx *bolt.Tx) error {
		exists = tx.Bucket(blocksBucket).Get(root.Bytes()) != nil
		return nil
	})
	return exists, err
}

// PutBlock stores block under its own hash, in a single atomic
// transaction.
func (s *Store) PutBlock(ctx context.Context, block *types.Block) error {
	_, span := trace.StartSpan(ctx, "boltdb.PutBlock")
	defer span.End()

	enc, err := encodeBlock(block)
	if err != nil {
		return errors.Wrap(err, "boltdb: encode block")
	}
	root := block.Hash()
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(blocksBucket).Put(root.Bytes(), enc)
	})
}

// Checkpoint returns the named checkpoint (e.g. "justified",
// "finalized").
func (s *Store) Checkpoint(ctx context.Context, name string) (types.Checkpoint, error) {
	_, span := trace.StartSpan(ctx, "boltdb.Checkpoint")
	defer span.End()

	var cp types.Checkpoint
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		enc := tx.Bucket(checkpointsBucket).Get([]byte(name))
		if enc == nil {
			return nil
		}
		c, err := decodeCheckpoint(enc)
		if err != nil {
			return err
		}
		cp = c
		found = true
		return nil
	})
	if err != nil {
		return types.Checkpoint{}, errors.Wrap(err, "boltdb: get checkpoint")
	}
	if !found {
		return types.Checkpoint{}, ErrNotFound
	}
	return cp, nil
}

// PutCheckpoint stores c under name.
func (s *Store) PutCheckpoint(ctx context.Context, name string, c types.Checkpoint) error {
	_, span := trace.StartSpan(ctx, "boltdb.PutCheckpoint")
	defer span.End()

	enc := encodeCheckpoint(c)
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(checkpointsBucket).Put([]byte(name), enc)
	})
}

// Attestations returns the attestation vector embedded by the block at
// blockRoot.
func (s *Store) Attestations(ctx context.Context, blockRoot hash.Hash) ([]types.Attestation, error) {
	_, span := trace.StartSpan(ctx, "boltdb.Attestations")
	defer span.End()

	var atts []types.Attestation
	err := s.db.View(func(tx *bolt.Tx) error {
		enc := tx.Bucket(attestationsBucket).Get(blockRoot.Bytes())
		if enc == nil {
			return nil
		}
		a, err := decodeAttestations(enc)
		if err != nil {
			return err
		}
		atts = a
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "boltdb: get attestations")
	}
	return atts, nil
}

// PutAttestations stores the attestation vector associated with
// blockRoot.
func (s *Store) PutAttestations(ctx context.Context, blockRoot hash.Hash, atts []types.Attestation) error {
	_, span := trace.StartSpan(ctx, "boltdb.PutAttestations")
	defer span.End()

	enc := encodeAttestations(atts)
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(attestationsBucket).Put(blockRoot.Bytes(), enc)
	})
}

