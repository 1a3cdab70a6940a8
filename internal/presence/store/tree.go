package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aussiebroadwan/presence/pkg/idx"
)

// Tree is the real-time store: a tree of JSON values addressed by slash
// separated paths, with subscriptions that see every change.
type Tree struct {
	backend Backend
	ids     *idx.Generator
	log     *slog.Logger
	obs     SubscriptionObserver

	// mu serialises subscription registration against fan-out so that every
	// subscriber sees snapshots in the order the store reached them.
	mu   sync.Mutex
	subs map[*Subscription]struct{}

	closed      atomic.Bool
	closeOnce   sync.Once
	stopWatch   context.CancelFunc
	watchDoneCh chan struct{}
}

type Option func(*Tree)

func WithLogger(l *slog.Logger) Option {
	return func(t *Tree) { t.log = l }
}

func WithObserver(o SubscriptionObserver) Option {
	return func(t *Tree) { t.obs = o }
}

func WithIDGenerator(g *idx.Generator) Option {
	return func(t *Tree) { t.ids = g }
}

// New wraps a backend. If the backend is a ChangeFeed, changes made by other
// processes are fanned out to local subscribers as well.
func New(b Backend, opts ...Option) *Tree {
	t := &Tree{
		backend: b,
		ids:     idx.NewGenerator(),
		log:     slog.Default(),
		subs:    make(map[*Subscription]struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}

	if feed, ok := b.(ChangeFeed); ok {
		ctx, cancel := context.WithCancel(context.Background())
		t.stopWatch = cancel
		t.watchDoneCh = make(chan struct{})
		go func() {
			defer close(t.watchDoneCh)
			if err := feed.Watch(ctx, t.publish); err != nil && !errors.Is(err, context.Canceled) {
				t.log.Error("store change feed stopped", slog.Any("error", err))
			}
		}()
	}
	return t
}

// Read returns the snapshot at path.
func (t *Tree) Read(ctx context.Context, path string) (Snapshot, error) {
	if err := ValidatePath(path); err != nil {
		return Snapshot{}, err
	}
	if t.closed.Load() {
		return Snapshot{}, ErrClosed
	}
	return t.read(ctx, path)
}

func (t *Tree) read(ctx context.Context, path string) (Snapshot, error) {
	leaves, err := t.backend.Leaves(ctx, path)
	if err != nil {
		return Snapshot{}, err
	}
	v, err := Unflatten(path, leaves)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{path: path, value: v}, nil
}

// Write replaces the value at path. A nil value removes it.
func (t *Tree) Write(ctx context.Context, path string, value any) error {
	op, err := replaceOp(path, value)
	if err != nil {
		return err
	}
	return t.apply(ctx, []Op{op})
}

// Merge upserts the given fields below path. A nil field value removes that
// field; fields not named are untouched.
func (t *Tree) Merge(ctx context.Context, path string, fields map[string]any) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}

	values := make(map[string]any, len(fields))
	for k, v := range fields {
		if err := ValidateKey(k); err != nil {
			return err
		}
		values[path+"/"+k] = v
	}
	return t.Update(ctx, values)
}

// Update replaces several paths in one backend call. Paths may not overlap.
func (t *Tree) Update(ctx context.Context, values map[string]any) error {
	if len(values) == 0 {
		return nil
	}

	paths := make([]string, 0, len(values))
	for p := range values {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for i := range paths {
		for j := i + 1; j < len(paths); j++ {
			if Related(paths[i], paths[j]) {
				return fmt.Errorf("%w: %q overlaps %q", ErrInvalidPath, paths[i], paths[j])
			}
		}
	}

	ops := make([]Op, 0, len(paths))
	for _, p := range paths {
		op, err := replaceOp(p, values[p])
		if err != nil {
			return err
		}
		ops = append(ops, op)
	}
	return t.apply(ctx, ops)
}

// Remove deletes the subtree at path.
func (t *Tree) Remove(ctx context.Context, path string) error {
	return t.Write(ctx, path, nil)
}

// Push stores value under a new child of path and returns the child key.
// Keys sort in generation order.
func (t *Tree) Push(ctx context.Context, path string, value any) (string, error) {
	key := t.NewKey()
	if err := t.Write(ctx, path+"/"+key, value); err != nil {
		return "", err
	}
	return key, nil
}

// NewKey returns a fresh generation-ordered child key.
func (t *Tree) NewKey() string {
	return t.ids.New().String()
}

// NewKeyAt is NewKey stamped with at. Keys from every caller of one Tree
// share a generator, so equal stamps still sort in generation order.
func (t *Tree) NewKeyAt(at time.Time) string {
	return t.ids.NewAt(at).String()
}

// Subscribe starts delivering the snapshot at path. The current value is
// queued before Subscribe returns.
func (t *Tree) Subscribe(ctx context.Context, path string) (*Subscription, error) {
	if err := ValidatePath(path); err != nil {
		return nil, err
	}
	if t.closed.Load() {
		return nil, ErrClosed
	}

	sub := newSubscription(path, t.release)

	t.mu.Lock()
	t.subs[sub] = struct{}{}
	snap, err := t.read(ctx, path)
	if err != nil {
		delete(t.subs, sub)
		t.mu.Unlock()
		return nil, err
	}
	sub.offer(snap)
	t.mu.Unlock()

	if t.obs != nil {
		t.obs.SubscriptionOpened()
	}

	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.Done():
		}
	}()

	return sub, nil
}

func (t *Tree) release(sub *Subscription) {
	t.mu.Lock()
	_, ok := t.subs[sub]
	delete(t.subs, sub)
	t.mu.Unlock()

	if ok && t.obs != nil {
		t.obs.SubscriptionClosed()
	}
}

// Ping checks the backend.
func (t *Tree) Ping(ctx context.Context) error {
	if t.closed.Load() {
		return ErrClosed
	}
	return t.backend.Ping(ctx)
}

// Close releases every subscription, stops the change feed and closes the
// backend.
func (t *Tree) Close() error {
	var err error
	t.closeOnce.Do(func() {
		t.closed.Store(true)

		if t.stopWatch != nil {
			t.stopWatch()
			<-t.watchDoneCh
		}

		t.mu.Lock()
		subs := make([]*Subscription, 0, len(t.subs))
		for s := range t.subs {
			subs = append(subs, s)
		}
		t.mu.Unlock()

		for _, s := range subs {
			s.Close()
		}
		err = t.backend.Close()
	})
	return err
}

func (t *Tree) apply(ctx context.Context, ops []Op) error {
	if t.closed.Load() {
		return ErrClosed
	}
	if err := t.backend.Apply(ctx, ops); err != nil {
		return err
	}

	paths := make([]string, len(ops))
	for i, op := range ops {
		paths[i] = op.Path
	}
	t.publish(context.WithoutCancel(ctx), paths)
	return nil
}

// publish re-reads the path of every subscription related to a changed path
// and offers the result. Reads happen under mu, so a later publish always
// offers a snapshot at least as new as an earlier one.
func (t *Tree) publish(ctx context.Context, paths []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cache := make(map[string]Snapshot)
	for sub := range t.subs {
		if !touches(paths, sub.path) {
			continue
		}

		snap, ok := cache[sub.path]
		if !ok {
			var err error
			snap, err = t.read(ctx, sub.path)
			if err != nil {
				t.log.Error("store fan-out read failed",
					slog.String("path", sub.path),
					slog.Any("error", err),
				)
				continue
			}
			cache[sub.path] = snap
		}
		sub.offer(snap)
	}
}

func touches(changed []string, path string) bool {
	for _, c := range changed {
		if Related(c, path) {
			return true
		}
	}
	return false
}

func replaceOp(path string, value any) (Op, error) {
	if err := ValidatePath(path); err != nil {
		return Op{}, err
	}
	leaves, err := Flatten(path, value)
	if err != nil {
		return Op{}, err
	}
	return Op{Path: path, Leaves: leaves}, nil
}
