// Package forkchoice maintains the block tree and LMD-GHOST head
// computation.
//
// Grounded on protoarray/forkchoice.go's Store.Insert and
// ProcessAttestation entry points (arena-of-nodes plus a per-validator
// latest-vote table), and on doubly-linked-tree/proposer_boost.go for
// the proposer-boost weighting applied at head-selection time. Unlike
// protoarray, which defers vote application to the next epoch
// boundary, this store applies each attestation's weight delta
// immediately on insertion, following
// original_source/src/consensus/fork_choice.rs's eager update model.
package forkchoice

import (
	"github.com/pkg/errors"
	"github.com/republic-chain/proof-of-stake/config"
	"github.com/republic-chain/proof-of-stake/crypto/hash"
	"github.com/republic-chain/proof-of-stake/primitives"
)

// ErrUnknownRoot is returned when an operation references a root not
// present in the store.
var ErrUnknownRoot = errors.New("forkchoice: unknown root")

// ErrDuplicateBlock is returned by InsertBlock when root is already
// present.
var ErrDuplicateBlock = errors.New("forkchoice: duplicate block")

// ErrUnknownParent is returned by InsertBlock when the parent root has
// not been inserted.
var ErrUnknownParent = errors.New("forkchoice: unknown parent")

// ErrStaleSlot is returned by InsertAttestation when the incoming vote's
// slot is not strictly newer than the validator's already-recorded
// vote; the store ignores it and leaves the recorded vote untouched.
var ErrStaleSlot = errors.New("forkchoice: attestation slot not newer than recorded vote")

// node is one arena entry: a block plus the accumulated attester
// weight rooted at it (own votes plus every descendant's).
type node struct {
	root     hash.Hash
	parent   hash.Hash
	slot     primitives.Slot
	children []hash.Hash
	weight   uint64 // votes for this root plus all its descendants
}

// vote is a validator's latest LMD-GHOST head vote: the block root it
// last attested to, the attestation slot that cast it (so a later
// out-of-order arrival for an older slot can be told apart from a
// genuine newer vote), weighted by its effective balance at cast time.
type vote struct {
	root   hash.Hash
	slot   primitives.Slot
	weight uint64
}

// Store is the full fork-choice state: every known block since the
// last finalized root, plus the latest vote per validator.
type Store struct {
	cfg *config.Config

	nodes map[hash.Hash]*node
	votes map[uint64]vote // validatorIndex -> latest vote

	finalizedRoot hash.Hash

	// justifiedRoot/justifiedEpoch anchor Head: LMD-GHOST descends only
	// from the justified checkpoint, never from the (older) finalized
	// root directly, so a heavier sibling branch below the justified
	// checkpoint can never win head before finalization catches up.
	justifiedRoot  hash.Hash
	justifiedEpoch primitives.Epoch

	proposerBoostRoot hash.Hash
	proposerBoostSlot primitives.Slot
}

// New constructs a store rooted at the given finalized block, matching
// protoarray.New's pattern of seeding the arena with a single root
// node before any other block can be inserted. The justified
// checkpoint starts out equal to the finalized root, mirroring
// finality.New's seeding of justified == finalized == genesis.
func New(cfg *config.Config, finalizedRoot hash.Hash, finalizedSlot primitives.Slot) *Store {
	s := &Store{
		cfg:            cfg,
		nodes:          make(map[hash.Hash]*node),
		votes:          make(map[uint64]vote),
		finalizedRoot:  finalizedRoot,
		justifiedRoot:  finalizedRoot,
		justifiedEpoch: primitives.EpochOf(finalizedSlot, cfg.SlotsPerEpoch),
	}
	s.nodes[finalizedRoot] = &node{root: finalizedRoot, slot: finalizedSlot}
	return s
}

// SetJustifiedCheckpoint updates the checkpoint Head descends from.
// The caller is responsible for keeping this in step with the
// finality tracker's current justified checkpoint.
func (s *Store) SetJustifiedCheckpoint(root hash.Hash, epoch primitives.Epoch) {
	s.justifiedRoot = root
	s.justifiedEpoch = epoch
}

// JustifiedRoot returns the root Head currently descends from.
func (s *Store) JustifiedRoot() hash.Hash { return s.justifiedRoot }

// InsertBlock adds a new block to the tree as a child of parent. The
// block starts with zero direct weight; it only gains weight as
// attestations naming it (or a descendant) arrive.
func (s *Store) InsertBlock(root, parent hash.Hash, slot primitives.Slot) error {
	if _, exists := s.nodes[root]; exists {
		return ErrDuplicateBlock
	}
	p, ok := s.nodes[parent]
	if !ok {
		return ErrUnknownParent
	}
	s.nodes[root] = &node{root: root, parent: parent, slot: slot}
	p.children = append(p.children, root)
	return nil
}

// InsertAttestation records validatorIndex's vote for root at slot,
// weighted by weight (its effective balance). If the validator had a
// prior vote for an older slot, that vote's weight is first rewound
// from its former path before the new weight is applied to root's
// path. A vote for a slot that is not strictly newer than the
// validator's already-recorded vote is ignored entirely: out-of-order
// delivery of a delayed attestation must never overwrite a newer vote
// already applied.
func (s *Store) InsertAttestation(validatorIndex uint64, root hash.Hash, slot primitives.Slot, weight uint64) error {
	if _, ok := s.nodes[root]; !ok {
		return ErrUnknownRoot
	}
	if prior, had := s.votes[validatorIndex]; had {
		if prior.root == root {
			return nil // identical vote, no-op
		}
		if prior.slot >= slot {
			return ErrStaleSlot
		}
		s.addWeight(prior.root, -int64(prior.weight))
	}
	s.votes[validatorIndex] = vote{root: root, slot: slot, weight: weight}
	s.addWeight(root, int64(weight))
	return nil
}

// addWeight walks from root up to the store's finalized root, applying
// delta to each ancestor's weight field, so every node's weight already
// is its subtree weight and SubtreeWeight just reads it. This keeps
// InsertAttestation O(depth) without needing a separate subtree-weight
// cache invalidation pass.
func (s *Store) addWeight(root hash.Hash, delta int64) {
	cur, ok := s.nodes[root]
	for ok {
		if delta < 0 && uint64(-delta) > cur.weight {
			cur.weight = 0
		} else {
			cur.weight = uint64(int64(cur.weight) + delta)
		}
		if cur.root == s.finalizedRoot {
			break
		}
		cur, ok = s.nodes[cur.parent]
	}
}

// SetProposerBoost records root as the most recently seen block from
// its proposer, for the current slot. Head computation adds a boost
// weight to this root's own subtree score until it is overwritten or
// ClearProposerBoost is called; the recorded slot does not expire it.
func (s *Store) SetProposerBoost(root hash.Hash, slot primitives.Slot) {
	s.proposerBoostRoot = root
	s.proposerBoostSlot = slot
}

// ClearProposerBoost removes any active boost, e.g. once the slot in
// which it was set has fully elapsed.
func (s *Store) ClearProposerBoost() {
	s.proposerBoostRoot = hash.Zero
	s.proposerBoostSlot = 0
}

// SubtreeWeight returns the total attester weight supporting root:
// root's own direct weight already includes every descendant's
// contribution, by construction of addWeight.
func (s *Store) SubtreeWeight(root hash.Hash) (uint64, error) {
	n, ok := s.nodes[root]
	if !ok {
		return 0, ErrUnknownRoot
	}
	return n.weight, nil
}

// Children returns the direct child roots of root.
func (s *Store) Children(root hash.Hash) ([]hash.Hash, error) {
	n, ok := s.nodes[root]
	if !ok {
		return nil, ErrUnknownRoot
	}
	return n.children, nil
}

// Parent returns the direct parent root of root, or false if root is
// the store's finalized root.
func (s *Store) Parent(root hash.Hash) (hash.Hash, bool, error) {
	n, ok := s.nodes[root]
	if !ok {
		return hash.Hash{}, false, ErrUnknownRoot
	}
	if root == s.finalizedRoot {
		return hash.Hash{}, false, nil
	}
	return n.parent, true, nil
}

// Ancestors returns every ancestor of root from its immediate parent
// up to and including the store's finalized root.
func (s *Store) Ancestors(root hash.Hash) ([]hash.Hash, error) {
	n, ok := s.nodes[root]
	if !ok {
		return nil, ErrUnknownRoot
	}
	var out []hash.Hash
	for n.root != s.finalizedRoot {
		out = append(out, n.parent)
		n = s.nodes[n.parent]
	}
	return out, nil
}

// IsDescendant reports whether root descends from (or equals) ancestor.
func (s *Store) IsDescendant(root, ancestor hash.Hash) bool {
	n, ok := s.nodes[root]
	if !ok {
		return false
	}
	for {
		if n.root == ancestor {
			return true
		}
		if n.root == s.finalizedRoot {
			return false
		}
		n, ok = s.nodes[n.parent]
		if !ok {
			return false
		}
	}
}

// LCA returns the lowest common ancestor of a and b by walking both
// ancestor chains (including the finalized root) and picking the
// deepest shared root.
func (s *Store) LCA(a, b hash.Hash) (hash.Hash, error) {
	aChain, err := s.chainToRoot(a)
	if err != nil {
		return hash.Hash{}, err
	}
	bChain, err := s.chainToRoot(b)
	if err != nil {
		return hash.Hash{}, err
	}
	bSet := make(map[hash.Hash]bool, len(bChain))
	for _, r := range bChain {
		bSet[r] = true
	}
	for _, r := range aChain {
		if bSet[r] {
			return r, nil
		}
	}
	return s.finalizedRoot, nil
}

func (s *Store) chainToRoot(root hash.Hash) ([]hash.Hash, error) {
	n, ok := s.nodes[root]
	if !ok {
		return nil, ErrUnknownRoot
	}
	chain := []hash.Hash{n.root}
	for n.root != s.finalizedRoot {
		n = s.nodes[n.parent]
		chain = append(chain, n.root)
	}
	return chain, nil
}

// Has reports whether root is known to the store.
func (s *Store) Has(root hash.Hash) bool {
	_, ok := s.nodes[root]
	return ok
}

// FinalizedRoot returns the store's current finalized root: the base
// of the retained tree.
func (s *Store) FinalizedRoot() hash.Hash { return s.finalizedRoot }

// PruneTo discards every node not descended from newFinalized, and
// re-roots the store there.
func (s *Store) PruneTo(newFinalized hash.Hash) error {
	if _, ok := s.nodes[newFinalized]; !ok {
		return ErrUnknownRoot
	}
	kept := make(map[hash.Hash]*node)
	for root, n := range s.nodes {
		if root == newFinalized || s.IsDescendant(root, newFinalized) {
			kept[root] = n
		}
	}
	for idx, v := range s.votes {
		if _, ok := kept[v.root]; !ok {
			delete(s.votes, idx)
		}
	}
	s.nodes = kept
	s.finalizedRoot = newFinalized
	return nil
}
