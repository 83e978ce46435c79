package types

import (
	"github.com/republic-chain/proof-of-stake/crypto/signing"
	"github.com/republic-chain/proof-of-stake/primitives"
)

// Status is a validator's lifecycle state.
type Status int

const (
	StatusPending Status = iota
	StatusActive
	StatusJailed
	StatusExiting
	StatusExited
	StatusSlashed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusActive:
		return "active"
	case StatusJailed:
		return "jailed"
	case StatusExiting:
		return "exiting"
	case StatusExited:
		return "exited"
	case StatusSlashed:
		return "slashed"
	default:
		return "unknown"
	}
}

// Performance tracks a validator's proposing/attesting track record.
// Consulted by the host for off-chain reward computation; consensus
// logic itself only increments these counters.
type Performance struct {
	Proposed           uint64
	Missed             uint64
	Attested           uint64
	MissedAttestations uint64
}

// Validator is the full record maintained by the validator set. CommissionBps and Metadata are carried for the host's reward
// distribution and are never read by consensus decision logic.
type Validator struct {
	Index            uint64
	Address          signing.Address
	PubKey           signing.PublicKey
	EffectiveBalance uint64
	DelegatedStake   uint64
	CommissionBps    uint32
	Status           Status
	ActivationEpoch  primitives.Epoch
	ExitEpoch        primitives.Epoch
	Performance      Performance
	Metadata         []byte
}

// FarFutureEpoch marks "never" for ActivationEpoch/ExitEpoch fields,
// matching the teacher's FAR_FUTURE_EPOCH sentinel.
const FarFutureEpoch primitives.Epoch = ^primitives.Epoch(0)
