package service

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/presence/internal/presence/clock/clocktest"
	"github.com/aussiebroadwan/presence/internal/presence/domain"
	"github.com/aussiebroadwan/presence/internal/presence/store"
	"github.com/aussiebroadwan/presence/internal/presence/store/drivers/memory"
	"github.com/aussiebroadwan/presence/pkg/slogx"
	"github.com/stretchr/testify/require"
)

var epoch = time.UnixMilli(1_700_000_000_000).UTC()

type fixture struct {
	tree    *store.Tree
	backend *memory.Backend
	clock   *clocktest.Fake
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	b := memory.New()
	tree := store.New(b)
	t.Cleanup(func() { _ = tree.Close() })
	return &fixture{tree: tree, backend: b, clock: clocktest.NewFake(epoch)}
}

func (f *fixture) env(t *testing.T, uid string) Env {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return Env{
		Store:  f.tree,
		UserID: uid,
		Clock:  f.clock,
		Logger: slogx.Discard(),
		Scope:  ctx,
	}
}

// addUser writes a fresh record and optionally puts it in a team.
func (f *fixture) addUser(t *testing.T, uid, team string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.tree.Users().Create(ctx, domain.NewMember(uid, uid+"@example.com", f.clock.Now())))
	if team != "" {
		require.NoError(t, f.tree.Users().SetTeam(ctx, uid, team))
	}
}

func (f *fixture) record(t *testing.T, uid string) domain.Member {
	t.Helper()
	m, err := f.tree.Users().Get(context.Background(), uid)
	require.NoError(t, err)
	return m
}

func next[T any](t *testing.T, feed *Feed[T]) T {
	t.Helper()
	select {
	case v, ok := <-feed.Updates():
		require.True(t, ok, "feed closed")
		return v
	case <-time.After(time.Second):
		t.Fatal("no delivery")
		var zero T
		return zero
	}
}

func quiet[T any](t *testing.T, feed *Feed[T]) {
	t.Helper()
	select {
	case v := <-feed.Updates():
		t.Fatalf("unexpected delivery: %+v", v)
	case <-time.After(30 * time.Millisecond):
	}
}
