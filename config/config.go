// Package config defines the consensus-recognized configuration table,
// following the teacher's BeaconChainConfig idiom: a
// plain struct with a package-level default and explicit overrides,
// rather than a global mutable singleton (no package-level "current
// config" is exposed — callers thread *Config through explicitly).
package config

import (
	"time"

	"github.com/pkg/errors"
	"github.com/republic-chain/proof-of-stake/crypto/hash"
)

// Config holds every tunable governing slot timing, staking, and
// finality.
type Config struct {
	SlotsPerEpoch uint64        `yaml:"SLOTS_PER_EPOCH"`
	SlotDuration  time.Duration `yaml:"SLOT_DURATION_MS"`

	MinStake          uint64 `yaml:"MIN_STAKE"`
	ActivationDelay   uint64 `yaml:"ACTIVATION_DELAY"` // epochs
	ExitDelay         uint64 `yaml:"EXIT_DELAY"`       // epochs
	CommitteesPerSlot uint64 `yaml:"COMMITTEES_PER_SLOT"`

	GenesisSeed hash.Hash `yaml:"GENESIS_SEED"`

	OrphanTTL          uint64        `yaml:"ORPHAN_TTL"` // slots
	ClockSkewTolerance time.Duration `yaml:"CLOCK_SKEW_TOLERANCE_MS"`

	// EffectiveBalanceGranularity floors a validator's own stake before
	// adding delegated stake, bounding granularity-dependent churn in
	// selection weight (glossary: "Effective balance").
	EffectiveBalanceGranularity uint64

	// MinSlash is the floor applied by the slashing penalty:
	// max(MinSlash, balance/32).
	MinSlash uint64

	// ProposerScoreBoostBps is the fork-choice proposer-boost strength,
	// expressed in basis points of committee weight for the slot (0
	// disables it).
	ProposerScoreBoostBps uint64

	// EvidenceRetention is the number of epochs after a slashed
	// validator's ExitEpoch before its evidence may be pruned.
	EvidenceRetention uint64

	// MaxOrphans bounds the orphan buffer: oldest-by-arrival
	// entries are evicted on overflow.
	MaxOrphans int
}

// Default returns the baseline configuration used by tests and the
// reference deployment, mirroring the teacher's MainnetConfig pattern.
func Default() *Config {
	return &Config{
		SlotsPerEpoch:               32,
		SlotDuration:                12 * time.Second,
		MinStake:                    100,
		ActivationDelay:             1,
		ExitDelay:                   4,
		CommitteesPerSlot:           1,
		GenesisSeed:                 hash.Zero,
		OrphanTTL:                   8,
		ClockSkewTolerance:          500 * time.Millisecond,
		EffectiveBalanceGranularity: 1,
		MinSlash:                    1,
		ProposerScoreBoostBps:       4000,
		EvidenceRetention:           256,
		MaxOrphans:                  1024,
	}
}

// Validate bounds-checks the configuration at startup.
func (c *Config) Validate() error {
	if c.SlotsPerEpoch == 0 {
		return errors.New("slots_per_epoch must be > 0")
	}
	if c.SlotDuration <= 0 {
		return errors.New("slot_duration_ms must be > 0")
	}
	if c.MinStake == 0 {
		return errors.New("min_stake must be > 0")
	}
	if c.CommitteesPerSlot == 0 {
		return errors.New("committees_per_slot must be > 0")
	}
	if c.EffectiveBalanceGranularity == 0 {
		return errors.New("effective_balance_granularity must be > 0")
	}
	if c.ProposerScoreBoostBps > 10_000 {
		return errors.New("proposer_score_boost_bps must be <= 10000")
	}
	return nil
}
