package engine

import (
	"context"
	"sync/atomic"
)

// signal is the coordination state shared by ingestion and matching for one run.
// appended only grows. exhausted is set after the final append, and every
// change is followed by a wake so a waiting consumer never misses it.
type signal struct {
	appended  atomic.Uint64
	exhausted atomic.Bool
	notify    chan struct{}
}

func newSignal() *signal {
	return &signal{notify: make(chan struct{}, 1)}
}

// publish records that count orders are visible in the ledger.
func (s *signal) publish(count uint64) {
	s.appended.Store(count)
	s.wake()
}

// exhaust records that no further orders will be appended.
func (s *signal) exhaust() {
	s.exhausted.Store(true)
	s.wake()
}

func (s *signal) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// wait blocks until an order at or after cursor is available or the feed is
// exhausted with nothing left to drain. It returns the number of appended
// orders and whether the consumer should terminate.
func (s *signal) wait(ctx context.Context, cursor uint64) (uint64, bool, error) {
	for {
		// exhausted is read before appended so a true flag always sees the final count.
		exhausted := s.exhausted.Load()
		appended := s.appended.Load()

		if cursor < appended {
			return appended, false, nil
		}
		if exhausted {
			return appended, true, nil
		}

		select {
		case <-s.notify:
		case <-ctx.Done():
			return appended, false, ctx.Err()
		}
	}
}
