// Package metrics exposes the Prometheus series the consensus engine
// updates as it processes slots, blocks, and attestations.
//
// Grounded on monitoring/prometheus/logrus_collector.go's promauto
// registration idiom: package-level vars created once via
// promauto.New*, updated from call sites with no explicit registry
// plumbing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CurrentSlot is the engine's current_slot.
	CurrentSlot = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "consensus_current_slot",
		Help: "Most recently advanced slot.",
	})

	// ActiveValidators is the size of the active set at the last
	// epoch boundary.
	ActiveValidators = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "consensus_active_validators",
		Help: "Number of validators with status Active.",
	})

	// JustifiedEpoch and FinalizedEpoch track the checkpoint tracker's
	// state.
	JustifiedEpoch = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "consensus_justified_epoch",
		Help: "Epoch of the current justified checkpoint.",
	})
	FinalizedEpoch = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "consensus_finalized_epoch",
		Help: "Epoch of the current finalized checkpoint.",
	})

	// BlocksProcessed and AttestationsProcessed count successful
	// ingest_block/ingest_attestation calls.
	BlocksProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "consensus_blocks_processed_total",
		Help: "Blocks successfully ingested into the fork store.",
	})
	AttestationsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "consensus_attestations_processed_total",
		Help: "Attestations successfully ingested into the fork store.",
	})

	// OrphansBuffered tracks the orphan buffer's current occupancy
	//.
	OrphansBuffered = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "consensus_orphans_buffered",
		Help: "Blocks currently waiting on a missing parent.",
	})

	// SlashingEvidenceTotal counts detected slashable offenses,
	// labeled by offense kind.
	SlashingEvidenceTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "consensus_slashing_evidence_total",
		Help: "Slashing evidence records emitted, by offense kind.",
	}, []string{"offense"})
)
