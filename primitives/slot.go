// Package primitives defines the scalar time units consensus is built
// on: Slot and Epoch. Both are plain uint64 counters from genesis;
// epoch arithmetic takes slots-per-epoch explicitly so no package-level
// configuration state is required (the host threads its config.Config
// through call sites instead).
package primitives

import "encoding/binary"

// Slot is a monotonically increasing counter of fixed-duration wall-time
// intervals since genesis. At most one block may be proposed per slot.
type Slot uint64

// Epoch groups SlotsPerEpoch consecutive slots; justification and
// finalization decisions are made at epoch boundaries.
type Epoch uint64

// EpochOf returns the epoch containing s under the given slots-per-epoch
// granularity.
func EpochOf(s Slot, slotsPerEpoch uint64) Epoch {
	if slotsPerEpoch == 0 {
		slotsPerEpoch = 1
	}
	return Epoch(uint64(s) / slotsPerEpoch)
}

// StartSlot returns the first slot of epoch e.
func (e Epoch) StartSlot(slotsPerEpoch uint64) Slot {
	return Slot(uint64(e) * slotsPerEpoch)
}

// SlotIndexInEpoch returns the zero-based position of s within its
// epoch.
func SlotIndexInEpoch(s Slot, slotsPerEpoch uint64) uint64 {
	if slotsPerEpoch == 0 {
		slotsPerEpoch = 1
	}
	return uint64(s) % slotsPerEpoch
}

// LittleEndianBytes encodes s as an 8-byte little-endian slice, the
// form used when deriving the per-slot randomness seed.
func (s Slot) LittleEndianBytes() []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(s))
	return b
}

// LittleEndianBytes encodes e as an 8-byte little-endian slice.
func (e Epoch) LittleEndianBytes() []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(e))
	return b
}
