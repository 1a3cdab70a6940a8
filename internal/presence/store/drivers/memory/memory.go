// Package memory is an in-process store backend. Nothing survives a restart.
package memory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/aussiebroadwan/presence/internal/presence/store"
)

type Backend struct {
	mu     sync.RWMutex
	leaves map[string]json.RawMessage
	closed bool

	failMu   sync.Mutex
	failNext error
}

func New() *Backend {
	return &Backend{leaves: make(map[string]json.RawMessage)}
}

// NewStore returns a Tree over a fresh memory backend.
func NewStore(opts ...store.Option) *store.Tree {
	return store.New(New(), opts...)
}

// FailNextApply makes the next Apply fail with err.
func (b *Backend) FailNextApply(err error) {
	b.failMu.Lock()
	b.failNext = err
	b.failMu.Unlock()
}

func (b *Backend) takeFailure() error {
	b.failMu.Lock()
	defer b.failMu.Unlock()
	err := b.failNext
	b.failNext = nil
	return err
}

func (b *Backend) Apply(_ context.Context, ops []store.Op) error {
	if err := b.takeFailure(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return store.ErrClosed
	}

	for _, op := range ops {
		for p := range b.leaves {
			if store.Within(p, op.Path) {
				delete(b.leaves, p)
			}
		}
		for _, a := range store.Ancestors(op.Path) {
			delete(b.leaves, a)
		}
		for p, raw := range op.Leaves {
			b.leaves[p] = append(json.RawMessage(nil), raw...)
		}
	}
	return nil
}

func (b *Backend) Leaves(_ context.Context, path string) (store.Leaves, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, store.ErrClosed
	}

	out := store.Leaves{}
	for p, raw := range b.leaves {
		if store.Within(p, path) {
			out[p] = raw
		}
	}
	return out, nil
}

func (b *Backend) Ping(context.Context) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return store.ErrClosed
	}
	return nil
}

func (b *Backend) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	return nil
}
