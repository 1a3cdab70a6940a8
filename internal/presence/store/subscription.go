package store

import "sync"

// Subscription delivers the snapshot at a path, first the current value and
// then one per change. Updates are coalesced: a consumer that falls behind
// receives only the newest snapshot. The channel is closed by Close or when
// the context passed to Subscribe is cancelled.
type Subscription struct {
	path string

	mu     sync.Mutex
	ch     chan Snapshot
	done   chan struct{}
	closed bool
	once   sync.Once

	release func(*Subscription)
}

func newSubscription(path string, release func(*Subscription)) *Subscription {
	return &Subscription{
		path:    path,
		ch:      make(chan Snapshot, 1),
		done:    make(chan struct{}),
		release: release,
	}
}

func (s *Subscription) Path() string { return s.path }

// Updates returns the delivery channel.
func (s *Subscription) Updates() <-chan Snapshot { return s.ch }

// Done is closed once the subscription is released.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Close releases the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.ch)
		close(s.done)
		s.mu.Unlock()

		if s.release != nil {
			s.release(s)
		}
	})
}

// offer replaces any undelivered snapshot with snap.
func (s *Subscription) offer(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	select {
	case <-s.ch:
	default:
	}
	s.ch <- snap
}
