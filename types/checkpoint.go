package types

import (
	"github.com/republic-chain/proof-of-stake/crypto/hash"
	"github.com/republic-chain/proof-of-stake/primitives"
)

// Checkpoint is an (epoch, root) pair where root is the first-slot block
// hash of that epoch on the chain under consideration, or the nearest
// earlier ancestor if that slot was empty.
type Checkpoint struct {
	Epoch primitives.Epoch
	Root  hash.Hash
}

// Equal reports whether two checkpoints refer to the same epoch and
// root.
func (c Checkpoint) Equal(other Checkpoint) bool {
	return c.Epoch == other.Epoch && c.Root == other.Root
}

func (c Checkpoint) canonicalBytes() []byte {
	w := newEncoder()
	w.uint64(uint64(c.Epoch))
	w.hash(c.Root)
	return w.bytes()
}
