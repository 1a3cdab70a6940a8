package store

import (
	"context"
	"errors"
)

var (
	ErrNotFound    = errors.New("store: not found")
	ErrInvalidPath = errors.New("store: invalid path")
	ErrClosed      = errors.New("store: closed")
	ErrConflict    = errors.New("store: already exists")
)

// Op replaces the subtree at Path with Leaves. Every key in Leaves is Path
// itself or lies below it; empty Leaves removes the subtree.
type Op struct {
	Path   string
	Leaves Leaves
}

// Backend persists leaves. Apply must, for each op in order, delete the leaf
// at Path, every leaf below it and any leaf at a strict ancestor of Path,
// then insert the op's leaves. Backends that can should apply the whole
// batch atomically.
type Backend interface {
	Apply(ctx context.Context, ops []Op) error
	Leaves(ctx context.Context, path string) (Leaves, error)
	Ping(ctx context.Context) error
	Close() error
}

// ChangeFeed is implemented by backends shared between processes. Watch
// blocks until ctx is done, calling publish with the paths changed by other
// writers.
type ChangeFeed interface {
	Watch(ctx context.Context, publish func(ctx context.Context, paths []string)) error
}

// SubscriptionObserver is told when subscriptions open and close.
type SubscriptionObserver interface {
	SubscriptionOpened()
	SubscriptionClosed()
}
