package store_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aussiebroadwan/presence/internal/presence/store"
	"github.com/aussiebroadwan/presence/internal/presence/store/drivers/memory"
	"github.com/stretchr/testify/require"
)

func newTree(t *testing.T) *store.Tree {
	t.Helper()
	tree := memory.NewStore()
	t.Cleanup(func() { _ = tree.Close() })
	return tree
}

func recv(t *testing.T, sub *store.Subscription) store.Snapshot {
	t.Helper()
	select {
	case snap, ok := <-sub.Updates():
		require.True(t, ok, "subscription closed")
		return snap
	case <-time.After(time.Second):
		t.Fatal("no delivery")
		return store.Snapshot{}
	}
}

func TestWriteAndRead(t *testing.T) {
	ctx := context.Background()
	tree := newTree(t)

	require.NoError(t, tree.Write(ctx, "users/u1", map[string]any{
		"name":   "ann",
		"status": "busy",
		"nested": map[string]any{"n": 3, "ok": true},
	}))

	snap, err := tree.Read(ctx, "users/u1")
	require.NoError(t, err)
	require.True(t, snap.Exists())
	require.Equal(t, "u1", snap.Key())
	require.Equal(t, "busy", snap.Child("status").Value())
	require.Equal(t, json.Number("3"), snap.Child("nested").Child("n").Value())

	missing, err := tree.Read(ctx, "users/u2")
	require.NoError(t, err)
	require.False(t, missing.Exists())
}

func TestWriteReplacesWhole(t *testing.T) {
	ctx := context.Background()
	tree := newTree(t)

	require.NoError(t, tree.Write(ctx, "x", map[string]any{"a": 1, "b": 2}))
	require.NoError(t, tree.Write(ctx, "x", map[string]any{"c": 3}))

	snap, err := tree.Read(ctx, "x")
	require.NoError(t, err)
	require.Equal(t, map[string]any{"c": json.Number("3")}, snap.Value())
}

func TestMergeIsFieldLevel(t *testing.T) {
	ctx := context.Background()
	tree := newTree(t)

	require.NoError(t, tree.Write(ctx, "users/u1", map[string]any{"status": "busy", "message": "hi", "expiresAt": 10}))
	require.NoError(t, tree.Merge(ctx, "users/u1", map[string]any{"status": "away", "expiresAt": nil}))

	snap, err := tree.Read(ctx, "users/u1")
	require.NoError(t, err)
	require.Equal(t, map[string]any{"status": "away", "message": "hi"}, snap.Value())
}

func TestMergeEmptyIsNoop(t *testing.T) {
	tree := newTree(t)
	require.NoError(t, tree.Merge(context.Background(), "users/u1", nil))
}

func TestUpdateMultiPath(t *testing.T) {
	ctx := context.Background()
	tree := newTree(t)

	require.NoError(t, tree.Update(ctx, map[string]any{
		"n/u1/a/read": true,
		"n/u1/b/read": true,
		"teams/T":     map[string]any{"name": "x"},
	}))

	snap, err := tree.Read(ctx, "n/u1")
	require.NoError(t, err)
	require.Len(t, snap.Children(), 2)

	t.Run("overlapping paths rejected", func(t *testing.T) {
		err := tree.Update(ctx, map[string]any{"a": 1, "a-b": 1, "a/b": 2})
		require.ErrorIs(t, err, store.ErrInvalidPath)
	})
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	tree := newTree(t)

	require.NoError(t, tree.Write(ctx, "n/u1/a", map[string]any{"t": 1}))
	require.NoError(t, tree.Remove(ctx, "n/u1"))

	snap, err := tree.Read(ctx, "n")
	require.NoError(t, err)
	require.False(t, snap.Exists())
}

func TestPushKeysSortInGenerationOrder(t *testing.T) {
	ctx := context.Background()
	tree := newTree(t)

	var keys []string
	for i := range 20 {
		k, err := tree.Push(ctx, "log", map[string]any{"i": i})
		require.NoError(t, err)
		keys = append(keys, k)
	}

	snap, err := tree.Read(ctx, "log")
	require.NoError(t, err)
	children := snap.Children()
	require.Len(t, children, 20)
	for i, c := range children {
		require.Equal(t, keys[i], c.Key())
	}
}

func TestInvalidPaths(t *testing.T) {
	ctx := context.Background()
	tree := newTree(t)

	require.ErrorIs(t, tree.Write(ctx, "a.b", 1), store.ErrInvalidPath)
	require.ErrorIs(t, tree.Merge(ctx, "a", map[string]any{"x#": 1}), store.ErrInvalidPath)
	require.ErrorIs(t, tree.Write(ctx, "a", map[string]any{"bad$key": 1}), store.ErrInvalidPath)
	_, err := tree.Subscribe(ctx, "")
	require.ErrorIs(t, err, store.ErrInvalidPath)
}

func TestSubscribeDeliversCurrentThenChanges(t *testing.T) {
	ctx := context.Background()
	tree := newTree(t)

	require.NoError(t, tree.Write(ctx, "users/u1", map[string]any{"status": "busy"}))

	sub, err := tree.Subscribe(ctx, "users")
	require.NoError(t, err)
	defer sub.Close()

	first := recv(t, sub)
	require.Len(t, first.Children(), 1)

	require.NoError(t, tree.Merge(ctx, "users/u2", map[string]any{"status": "away"}))
	second := recv(t, sub)
	require.Len(t, second.Children(), 2)

	// Unrelated paths do not wake the subscription.
	require.NoError(t, tree.Write(ctx, "teams/T", map[string]any{"name": "x"}))
	select {
	case <-sub.Updates():
		t.Fatal("unexpected delivery for unrelated path")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestSubscribeSeesAncestorWrites(t *testing.T) {
	ctx := context.Background()
	tree := newTree(t)

	sub, err := tree.Subscribe(ctx, "users/u1/status")
	require.NoError(t, err)
	defer sub.Close()
	require.False(t, recv(t, sub).Exists())

	require.NoError(t, tree.Write(ctx, "users/u1", map[string]any{"status": "meeting"}))
	require.Equal(t, "meeting", recv(t, sub).Value())
}

func TestSubscribeCoalescesToLatest(t *testing.T) {
	ctx := context.Background()
	tree := newTree(t)

	sub, err := tree.Subscribe(ctx, "counter")
	require.NoError(t, err)
	defer sub.Close()

	for i := 1; i <= 5; i++ {
		require.NoError(t, tree.Write(ctx, "counter", i))
	}

	require.Equal(t, json.Number("5"), recv(t, sub).Value())
	select {
	case snap := <-sub.Updates():
		t.Fatalf("expected a single coalesced delivery, got %v", snap.Value())
	default:
	}
}

func TestSubscriptionCloseAndCancel(t *testing.T) {
	ctx := context.Background()
	tree := newTree(t)

	t.Run("close", func(t *testing.T) {
		sub, err := tree.Subscribe(ctx, "x")
		require.NoError(t, err)
		recv(t, sub)

		sub.Close()
		sub.Close()
		_, ok := <-sub.Updates()
		require.False(t, ok)

		require.NoError(t, tree.Write(ctx, "x", 1), "writes after close must not panic")
	})

	t.Run("context cancel", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		sub, err := tree.Subscribe(cctx, "x")
		require.NoError(t, err)
		recv(t, sub)

		cancel()
		select {
		case <-sub.Done():
		case <-time.After(time.Second):
			t.Fatal("subscription not released on cancel")
		}
	})
}

type countingObserver struct{ open int }

func (c *countingObserver) SubscriptionOpened() { c.open++ }
func (c *countingObserver) SubscriptionClosed() { c.open-- }

func TestTreeCloseReleasesSubscriptions(t *testing.T) {
	obs := &countingObserver{}
	tree := memory.NewStore(store.WithObserver(obs))

	sub, err := tree.Subscribe(context.Background(), "x")
	require.NoError(t, err)
	require.Equal(t, 1, obs.open)

	require.NoError(t, tree.Close())
	<-sub.Done()
	require.Equal(t, 0, obs.open)

	require.ErrorIs(t, tree.Write(context.Background(), "x", 1), store.ErrClosed)
	_, err = tree.Subscribe(context.Background(), "x")
	require.ErrorIs(t, err, store.ErrClosed)
}
