// Package slots provides a wall-clock ticker that emits the current
// primitives.Slot as each slot boundary is crossed, for driving
// engine.Engine.OnSlot from a long-running process.
//
// Grounded on the teacher's time/slots slot ticker: genesis-relative
// since/until/after injection points keep the boundary arithmetic
// testable without sleeping in tests.
package slots

import (
	"time"

	"github.com/republic-chain/proof-of-stake/primitives"
)

// Ticker emits one primitives.Slot value per slot boundary crossed
// since genesis, starting from the slot current at the moment NewTicker
// is called (skipping any slots that elapsed before that).
type Ticker struct {
	c    chan primitives.Slot
	done chan struct{}
}

// NewTicker starts a Ticker anchored at genesisAt with the given
// slot duration.
func NewTicker(genesisAt time.Time, slotDuration time.Duration) *Ticker {
	t := &Ticker{
		c:    make(chan primitives.Slot),
		done: make(chan struct{}),
	}
	t.start(genesisAt, slotDuration, time.Since, time.Until, time.After)
	return t
}

// C returns the channel slots are delivered on.
func (t *Ticker) C() <-chan primitives.Slot {
	return t.c
}

// Done stops the ticker's background goroutine.
func (t *Ticker) Done() {
	close(t.done)
}

func (t *Ticker) start(
	genesisAt time.Time,
	slotDuration time.Duration,
	since func(time.Time) time.Duration,
	until func(time.Time) time.Duration,
	after func(time.Duration) <-chan time.Time,
) {
	go func() {
		elapsed := since(genesisAt)
		if elapsed < 0 {
			// Genesis is still in the future: wait for it, then start at slot 0.
			select {
			case <-after(-elapsed):
			case <-t.done:
				return
			}
			elapsed = 0
		}

		slot := primitives.Slot(uint64(elapsed) / uint64(slotDuration))
		nextBoundary := genesisAt.Add(time.Duration(uint64(slot)+1) * slotDuration)

		// The slot already under way when the ticker starts is delivered
		// right away; every subsequent slot is delivered as its boundary
		// is crossed.
		if !t.deliver(slot) {
			return
		}

		for {
			select {
			case <-after(until(nextBoundary)):
				slot++
				nextBoundary = nextBoundary.Add(slotDuration)
				if !t.deliver(slot) {
					return
				}
			case <-t.done:
				return
			}
		}
	}()
}

func (t *Ticker) deliver(slot primitives.Slot) bool {
	select {
	case t.c <- slot:
		return true
	case <-t.done:
		return false
	}
}
