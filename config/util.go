package config

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/republic-chain/proof-of-stake/crypto/hash"
)

// fileOverrides mirrors Config's overridable fields for YAML decoding,
// using a plain hex-string scalar for the genesis seed rather than
// requiring GenesisSeed's 32-byte array to be spelled out as a YAML
// sequence. Every field is a pointer so an absent key in the file
// leaves the corresponding Default() field untouched.
type fileOverrides struct {
	SlotsPerEpoch               *uint64        `yaml:"SLOTS_PER_EPOCH"`
	SlotDurationMS              *int64         `yaml:"SLOT_DURATION_MS"`
	MinStake                    *uint64        `yaml:"MIN_STAKE"`
	ActivationDelay             *uint64        `yaml:"ACTIVATION_DELAY"`
	ExitDelay                   *uint64        `yaml:"EXIT_DELAY"`
	CommitteesPerSlot           *uint64        `yaml:"COMMITTEES_PER_SLOT"`
	GenesisSeed                 *string        `yaml:"GENESIS_SEED"`
	OrphanTTL                   *uint64        `yaml:"ORPHAN_TTL"`
	ClockSkewToleranceMS        *int64         `yaml:"CLOCK_SKEW_TOLERANCE_MS"`
	EffectiveBalanceGranularity *uint64        `yaml:"EFFECTIVE_BALANCE_GRANULARITY"`
	MinSlash                    *uint64        `yaml:"MIN_SLASH"`
	ProposerScoreBoostBps       *uint64        `yaml:"PROPOSER_SCORE_BOOST_BPS"`
	EvidenceRetention           *uint64        `yaml:"EVIDENCE_RETENTION"`
	MaxOrphans                  *int           `yaml:"MAX_ORPHANS"`
}

// LoadFromFile reads a YAML file at path and overlays its fields onto
// a copy of Default(), following the teacher's UnmarshalFromFile
// pattern (read the whole file, then unmarshal) but decoding with
// gopkg.in/yaml.v3 directly rather than the teacher's
// k8s.io/apimachinery yaml shim: that package only reaches the corpus
// transitively through a Kubernetes client nothing here depends on,
// while yaml.v3 is already part of this module's own dependency graph.
//
// Fields absent from the file keep their Default() value, so operators
// only need to override what they're changing.
func LoadFromFile(path string) (*Config, error) {
	cleaned := filepath.Clean(path)
	b, err := os.ReadFile(cleaned)
	if err != nil {
		return nil, errors.Wrap(err, "config: read file")
	}

	var o fileOverrides
	if err := yaml.Unmarshal(b, &o); err != nil {
		return nil, errors.Wrap(err, "config: unmarshal yaml")
	}

	cfg := Default()
	if o.SlotsPerEpoch != nil {
		cfg.SlotsPerEpoch = *o.SlotsPerEpoch
	}
	if o.SlotDurationMS != nil {
		cfg.SlotDuration = time.Duration(*o.SlotDurationMS) * time.Millisecond
	}
	if o.MinStake != nil {
		cfg.MinStake = *o.MinStake
	}
	if o.ActivationDelay != nil {
		cfg.ActivationDelay = *o.ActivationDelay
	}
	if o.ExitDelay != nil {
		cfg.ExitDelay = *o.ExitDelay
	}
	if o.CommitteesPerSlot != nil {
		cfg.CommitteesPerSlot = *o.CommitteesPerSlot
	}
	if o.GenesisSeed != nil {
		seed, err := decodeSeed(*o.GenesisSeed)
		if err != nil {
			return nil, errors.Wrap(err, "config: genesis_seed")
		}
		cfg.GenesisSeed = seed
	}
	if o.OrphanTTL != nil {
		cfg.OrphanTTL = *o.OrphanTTL
	}
	if o.ClockSkewToleranceMS != nil {
		cfg.ClockSkewTolerance = time.Duration(*o.ClockSkewToleranceMS) * time.Millisecond
	}
	if o.EffectiveBalanceGranularity != nil {
		cfg.EffectiveBalanceGranularity = *o.EffectiveBalanceGranularity
	}
	if o.MinSlash != nil {
		cfg.MinSlash = *o.MinSlash
	}
	if o.ProposerScoreBoostBps != nil {
		cfg.ProposerScoreBoostBps = *o.ProposerScoreBoostBps
	}
	if o.EvidenceRetention != nil {
		cfg.EvidenceRetention = *o.EvidenceRetention
	}
	if o.MaxOrphans != nil {
		cfg.MaxOrphans = *o.MaxOrphans
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config: validate")
	}
	return cfg, nil
}

func decodeSeed(s string) (hash.Hash, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return hash.Hash{}, errors.Wrap(err, "decode hex")
	}
	if len(b) != 32 {
		return hash.Hash{}, errors.Errorf("must decode to 32 bytes, got %d", len(b))
	}
	return hash.FromBytes(b), nil
}
