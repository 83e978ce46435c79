package primitives_test

import (
	"testing"

	"github.com/republic-chain/proof-of-stake/primitives"
	"github.com/stretchr/testify/require"
)

func TestEpochOf(t *testing.T) {
	cases := []struct {
		slot  primitives.Slot
		epoch primitives.Epoch
	}{
		{0, 0},
		{31, 0},
		{32, 1},
		{63, 1},
		{64, 2},
	}
	for _, c := range cases {
		require.Equal(t, c.epoch, primitives.EpochOf(c.slot, 32), "slot %d", c.slot)
	}
}

func TestStartSlot(t *testing.T) {
	require.Equal(t, primitives.Slot(0), primitives.Epoch(0).StartSlot(32))
	require.Equal(t, primitives.Slot(32), primitives.Epoch(1).StartSlot(32))
	require.Equal(t, primitives.Slot(64), primitives.Epoch(2).StartSlot(32))
}

func TestSlotIndexInEpoch(t *testing.T) {
	require.Equal(t, uint64(0), primitives.SlotIndexInEpoch(32, 32))
	require.Equal(t, uint64(31), primitives.SlotIndexInEpoch(63, 32))
}

func TestLittleEndianBytes_RoundTripsLength(t *testing.T) {
	require.Len(t, primitives.Slot(42).LittleEndianBytes(), 8)
	require.Len(t, primitives.Epoch(42).LittleEndianBytes(), 8)
}
