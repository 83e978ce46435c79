package forkchoice

import (
	"github.com/republic-chain/proof-of-stake/crypto/hash"
	"github.com/republic-chain/proof-of-stake/primitives"
)

// Slot returns the slot recorded for root.
func (s *Store) Slot(root hash.Hash) (primitives.Slot, error) {
	n, ok := s.nodes[root]
	if !ok {
		return 0, ErrUnknownRoot
	}
	return n.slot, nil
}

// CheckpointRoot returns the checkpoint root for epoch along the chain
// ending at head: the first-slot block of that epoch, or the nearest
// earlier ancestor if that slot was empty.
func (s *Store) CheckpointRoot(head hash.Hash, epoch primitives.Epoch, slotsPerEpoch uint64) (hash.Hash, error) {
	target := epoch.StartSlot(slotsPerEpoch)
	cur, ok := s.nodes[head]
	if !ok {
		return hash.Hash{}, ErrUnknownRoot
	}
	for {
		if cur.slot <= target || cur.root == s.finalizedRoot {
			return cur.root, nil
		}
		cur = s.nodes[cur.parent]
	}
}
