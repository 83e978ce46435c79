// Package validatorset implements registration, activation, slashing,
// and deterministic-order iteration of the validator registry.
//
// Grounded on beacon-chain/core/validators' status-transition shape
// (activate/exit/penalize operating on a flat registry) and on
// core/helpers/validators.go's IsActiveValidator/ComputeProposerIndex
// predicates, adapted from the teacher's epoch-indexed
// ActivationSlot/ExitSlot fields to this spec's explicit Status enum
// and Address-keyed map.
package validatorset

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/republic-chain/proof-of-stake/config"
	"github.com/republic-chain/proof-of-stake/crypto/signing"
	"github.com/republic-chain/proof-of-stake/primitives"
	"github.com/republic-chain/proof-of-stake/types"
)

var (
	// ErrDuplicateAddress is returned by Register when the derived
	// address already has a registered validator.
	ErrDuplicateAddress = errors.New("validatorset: duplicate address")
	// ErrInsufficientStake is returned by Register when stake is below
	// the configured minimum.
	ErrInsufficientStake = errors.New("validatorset: stake below minimum")
	// ErrUnknownValidator is returned when an address has no registered
	// validator.
	ErrUnknownValidator = errors.New("validatorset: unknown validator")
	// ErrNotSlashable is returned by Slash when the validator is
	// already Slashed or Exited.
	ErrNotSlashable = errors.New("validatorset: validator not slashable")
)

// Offense names why a validator was slashed, for logging and evidence.
type Offense string

const (
	OffenseDoubleVote     Offense = "double_vote"
	OffenseSurroundVote   Offense = "surround_vote"
	OffenseDoubleProposal Offense = "double_proposal"
)

// Set is the validator registry: an address-keyed map plus the
// bookkeeping needed to iterate active validators deterministically.
type Set struct {
	cfg        *config.Config
	validators map[signing.Address]*types.Validator
	byIndex    map[uint64]*types.Validator
	nextIndex  uint64
}

// New constructs an empty validator set bound to cfg.
func New(cfg *config.Config) *Set {
	return &Set{
		cfg:        cfg,
		validators: make(map[signing.Address]*types.Validator),
		byIndex:    make(map[uint64]*types.Validator),
	}
}

// Register enrolls a new validator at Pending status, eligible for
// activation at currentEpoch + ActivationDelay.
func (s *Set) Register(pubkey signing.PublicKey, stake uint64, commissionBps uint32, metadata []byte, currentEpoch primitives.Epoch) (signing.Address, error) {
	if stake < s.cfg.MinStake {
		return signing.Address{}, ErrInsufficientStake
	}
	addr := signing.DeriveAddress(pubkey)
	if _, exists := s.validators[addr]; exists {
		return signing.Address{}, ErrDuplicateAddress
	}
	v := &types.Validator{
		Index:            s.nextIndex,
		Address:          addr,
		PubKey:           pubkey,
		EffectiveBalance: effectiveBalance(stake, 0, s.cfg.EffectiveBalanceGranularity),
		DelegatedStake:   0,
		CommissionBps:    commissionBps,
		Status:           types.StatusPending,
		ActivationEpoch:  currentEpoch + primitives.Epoch(s.cfg.ActivationDelay),
		ExitEpoch:        types.FarFutureEpoch,
		Metadata:         metadata,
	}
	s.validators[addr] = v
	s.byIndex[v.Index] = v
	s.nextIndex++
	return addr, nil
}

// ByIndex returns the validator registered under idx, the stable
// identifier Attestation.ValidatorIndex refers to (assigned in
// registration order, independent of the address-sorted iteration
// order used elsewhere in this package).
func (s *Set) ByIndex(idx uint64) (*types.Validator, bool) {
	v, ok := s.byIndex[idx]
	return v, ok
}

// Activate promotes every Pending validator whose ActivationEpoch has
// arrived, in deterministic ascending-address order.
func (s *Set) Activate(epoch primitives.Epoch) {
	for _, addr := range s.sortedAddresses() {
		v := s.validators[addr]
		if v.Status == types.StatusPending && v.ActivationEpoch <= epoch {
			v.Status = types.StatusActive
		}
		if v.Status == types.StatusExiting && v.ExitEpoch <= epoch {
			v.Status = types.StatusExited
		}
	}
}

// Slash marks a validator Slashed, reduces its effective balance by
// max(MinSlash, balance/32), and schedules its exit.
// penalty lets callers apply a correlation-penalty hook on top of the
// base reduction; pass nil to apply the base reduction alone.
func (s *Set) Slash(addr signing.Address, offense Offense, currentEpoch primitives.Epoch, penalty CorrelationPenaltyFunc) error {
	v, ok := s.validators[addr]
	if !ok {
		return ErrUnknownValidator
	}
	if v.Status == types.StatusSlashed || v.Status == types.StatusExited {
		return ErrNotSlashable
	}
	reduction := v.EffectiveBalance / 32
	if reduction < s.cfg.MinSlash {
		reduction = s.cfg.MinSlash
	}
	if penalty != nil {
		if extra := penalty(s.countSlashed(), v.EffectiveBalance); extra > reduction {
			reduction = extra
		}
	}
	if reduction > v.EffectiveBalance {
		reduction = v.EffectiveBalance
	}
	v.EffectiveBalance -= reduction
	v.Status = types.StatusSlashed
	v.ExitEpoch = currentEpoch + primitives.Epoch(s.cfg.ExitDelay)
	_ = offense // recorded by the caller as slashing.Evidence
	return nil
}

// CorrelationPenaltyFunc computes an additional slashing penalty as a
// function of how many validators are already slashed and the
// offending validator's balance. The exact formula is left as a
// configurable hook rather than fixed in this package.
type CorrelationPenaltyFunc func(totalSlashed int, balance uint64) uint64

func (s *Set) countSlashed() int {
	n := 0
	for _, v := range s.validators {
		if v.Status == types.StatusSlashed {
			n++
		}
	}
	return n
}

// Get returns the validator at addr, if any.
func (s *Set) Get(addr signing.Address) (*types.Validator, bool) {
	v, ok := s.validators[addr]
	return v, ok
}

// IterActive yields active validators at epoch in deterministic
// ascending-address order, with their effective-balance snapshot
//.
func (s *Set) IterActive(epoch primitives.Epoch) []*types.Validator {
	var out []*types.Validator
	for _, addr := range s.sortedAddresses() {
		v := s.validators[addr]
		if isActive(v, epoch) {
			out = append(out, v)
		}
	}
	return out
}

// TotalActiveEffectiveBalance sums effective balances of all validators
// active at epoch.
func (s *Set) TotalActiveEffectiveBalance(epoch primitives.Epoch) uint64 {
	var total uint64
	for _, v := range s.IterActive(epoch) {
		total += v.EffectiveBalance
	}
	return total
}

func isActive(v *types.Validator, epoch primitives.Epoch) bool {
	return v.Status == types.StatusActive && v.ActivationEpoch <= epoch
}

func (s *Set) sortedAddresses() []signing.Address {
	addrs := make([]signing.Address, 0, len(s.validators))
	for a := range s.validators {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i].Less(addrs[j]) })
	return addrs
}

// effectiveBalance floors ownStake to the configured granularity and
// adds delegatedStake"Effective balance" definition.
func effectiveBalance(ownStake, delegatedStake, granularity uint64) uint64 {
	if granularity == 0 {
		granularity = 1
	}
	floored := (ownStake / granularity) * granularity
	return floored + delegatedStake
}

// Len returns the number of registered validators, regardless of
// status.
func (s *Set) Len() int {
	return len(s.validators)
}
