package service

import (
	"sync"
	"time"

	"github.com/aussiebroadwan/presence/internal/presence/clock"
	"github.com/aussiebroadwan/presence/internal/presence/store"
)

// Feed is a live view derived from a store subscription. Each value received
// from Updates replaces the previous one. A consumer that falls behind skips
// straight to the newest value. The channel is closed when the feed is
// released.
type Feed[T any] struct {
	sub  *store.Subscription
	out  chan T
	stop chan struct{}
	once sync.Once

	release func()
}

// feedSpec describes how snapshots become values.
type feedSpec[T any] struct {
	// transform derives the next value. last is the most recently delivered
	// value and delivered reports whether there was one. Returning false
	// skips the snapshot.
	transform func(last T, delivered bool, snap store.Snapshot) (T, bool)

	// wake, if set, returns when the value derived from snap goes stale on
	// its own (an expiry passing). The snapshot is transformed again then.
	wake func(snap store.Snapshot) (time.Time, bool)
}

func newFeed[T any](sub *store.Subscription, clk clock.Clock, spec feedSpec[T], release func()) *Feed[T] {
	f := &Feed[T]{
		sub:     sub,
		out:     make(chan T),
		stop:    make(chan struct{}),
		release: release,
	}
	go f.run(clk, spec)
	return f
}

// Updates returns the delivery channel.
func (f *Feed[T]) Updates() <-chan T { return f.out }

// Close releases the feed and its subscription. Safe to call more than once.
func (f *Feed[T]) Close() {
	f.once.Do(func() {
		close(f.stop)
		f.sub.Close()
		if f.release != nil {
			f.release()
		}
	})
}

func (f *Feed[T]) run(clk clock.Clock, spec feedSpec[T]) {
	defer close(f.out)
	defer f.Close()

	var (
		last      T
		delivered bool
		pending   T
		hasNext   bool
		snap      store.Snapshot
		hasSnap   bool
		timer     clock.Timer
	)
	wakeCh := make(chan struct{}, 1)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	arm := func() {
		if timer != nil {
			timer.Stop()
			timer = nil
		}
		if spec.wake == nil {
			return
		}
		at, ok := spec.wake(snap)
		if !ok {
			return
		}
		timer = clk.AfterFunc(at.Sub(clk.Now()), func() {
			select {
			case wakeCh <- struct{}{}:
			default:
			}
		})
	}

	derive := func() {
		if v, ok := spec.transform(last, delivered, snap); ok {
			pending, hasNext = v, true
		} else {
			hasNext = false
		}
	}

	in := f.sub.Updates()
	for {
		var out chan T
		if hasNext {
			out = f.out
		}

		select {
		case <-f.stop:
			return
		case s, ok := <-in:
			if !ok {
				return
			}
			snap, hasSnap = s, true
			derive()
			arm()
		case <-wakeCh:
			if hasSnap {
				derive()
				arm()
			}
		case out <- pending:
			last, delivered, hasNext = pending, true, false
		}
	}
}
