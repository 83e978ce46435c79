package forkchoice

import (
	"github.com/republic-chain/proof-of-stake/crypto/hash"
	"github.com/republic-chain/proof-of-stake/primitives"
)

// Head descends from the store's justified checkpoint, not the
// (older) finalized root: at each fork it repeatedly takes the
// heaviest child whose epoch is at or after the justified checkpoint's
// epoch, until a leaf is reached (the LMD-GHOST rule). Ties are
// broken by the child root's big-endian ordering, matching
// hash.Hash.Less, so that every honest node resolves ties identically.
//
// Rooting the walk at the justified checkpoint, rather than at
// finalizedRoot, keeps a heavier sibling branch that forked below the
// justified checkpoint from ever winning head: that branch is simply
// never visited, since it isn't reachable by descending from
// justifiedRoot. This is the normal window between justifying epoch e
// and finalizing e-1, where finalizedRoot and justifiedRoot differ.
//
// Grounded on doubly-linked-tree/proposer_boost.go's applyProposerBoostScore:
// the currently boosted root's effective weight is inflated by
// ProposerScoreBoostBps/10000 of the total active committee weight for
// its slot, for exactly as long as it remains the most recently seen
// block from its proposer.
func (s *Store) Head(totalActiveWeight uint64) (hash.Hash, error) {
	cur := s.justifiedRoot
	if _, ok := s.nodes[cur]; !ok {
		return hash.Hash{}, ErrUnknownRoot
	}
	for {
		children, err := s.Children(cur)
		if err != nil {
			return hash.Hash{}, err
		}
		var best hash.Hash
		var bestWeight uint64
		found := false
		for _, c := range children {
			n, ok := s.nodes[c]
			if !ok || primitives.EpochOf(n.slot, s.cfg.SlotsPerEpoch) < s.justifiedEpoch {
				continue
			}
			w := s.effectiveWeight(c, totalActiveWeight)
			if !found || w > bestWeight || (w == bestWeight && best.Less(c)) {
				best = c
				bestWeight = w
				found = true
			}
		}
		if !found {
			return cur, nil
		}
		cur = best
	}
}

// effectiveWeight returns root's subtree weight, plus the proposer
// boost if root is the currently boosted block.
func (s *Store) effectiveWeight(root hash.Hash, totalActiveWeight uint64) uint64 {
	n, ok := s.nodes[root]
	if !ok {
		return 0
	}
	w := n.weight
	if s.proposerBoostRoot != hash.Zero && s.proposerBoostRoot == root {
		w += totalActiveWeight * s.cfg.ProposerScoreBoostBps / 10_000
	}
	return w
}
