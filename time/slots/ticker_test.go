package slots

import (
	"testing"
	"time"

	"github.com/republic-chain/proof-of-stake/primitives"
	"github.com/stretchr/testify/require"
)

func TestTicker_DeliversCurrentSlotImmediately(t *testing.T) {
	tk := &Ticker{c: make(chan primitives.Slot), done: make(chan struct{})}
	defer tk.Done()

	since := func(time.Time) time.Duration { return 20 * time.Second } // mid-slot-2 of an 8s slot
	until := func(time.Time) time.Duration { return 0 }
	tick := make(chan time.Time, 4)
	after := func(time.Duration) <-chan time.Time { return tick }

	tk.start(time.Unix(0, 0), 8*time.Second, since, until, after)

	require.Equal(t, primitives.Slot(2), <-tk.C())

	tick <- time.Now()
	require.Equal(t, primitives.Slot(3), <-tk.C())

	tick <- time.Now()
	require.Equal(t, primitives.Slot(4), <-tk.C())
}

func TestTicker_WaitsForFutureGenesis(t *testing.T) {
	tk := &Ticker{c: make(chan primitives.Slot), done: make(chan struct{})}
	defer tk.Done()

	since := func(time.Time) time.Duration { return -5 * time.Second }
	until := func(time.Time) time.Duration { return 0 }
	tick := make(chan time.Time, 4)
	after := func(time.Duration) <-chan time.Time { return tick }

	tk.start(time.Unix(0, 0), 8*time.Second, since, until, after)

	// First after() call is the wait-for-genesis sleep; firing it unblocks
	// delivery of slot 0.
	tick <- time.Now()
	require.Equal(t, primitives.Slot(0), <-tk.C())

	tick <- time.Now()
	require.Equal(t, primitives.Slot(1), <-tk.C())
}

func TestTicker_DoneStopsDelivery(t *testing.T) {
	tk := &Ticker{c: make(chan primitives.Slot), done: make(chan struct{})}

	since := func(time.Time) time.Duration { return 0 }
	until := func(time.Time) time.Duration { return 0 }
	tick := make(chan time.Time)
	after := func(time.Duration) <-chan time.Time { return tick }

	tk.start(time.Unix(0, 0), 8*time.Second, since, until, after)
	require.Equal(t, primitives.Slot(0), <-tk.C())

	tk.Done()
	select {
	case s := <-tk.C():
		t.Fatalf("slot %d delivered after Done", s)
	case <-time.After(50 * time.Millisecond):
	}
	// A second Done would panic on an already-closed channel; callers
	// must only ever call it once, same as the underlying close().
}

func TestNewTicker_UsesWallClock(t *testing.T) {
	tk := NewTicker(time.Now().Add(-100*time.Millisecond), 50*time.Millisecond)
	defer tk.Done()

	select {
	case slot := <-tk.C():
		require.True(t, slot >= 0)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for first slot tick")
	}
}
