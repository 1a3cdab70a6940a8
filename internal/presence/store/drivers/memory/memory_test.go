package memory_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aussiebroadwan/presence/internal/presence/store"
	"github.com/aussiebroadwan/presence/internal/presence/store/drivers/memory"
	"github.com/stretchr/testify/require"
)

func TestApplyReplacesSubtreeAndAncestors(t *testing.T) {
	ctx := context.Background()
	b := memory.New()

	require.NoError(t, b.Apply(ctx, []store.Op{{Path: "a", Leaves: store.Leaves{"a": json.RawMessage(`1`)}}}))
	require.NoError(t, b.Apply(ctx, []store.Op{{
		Path:   "a/b",
		Leaves: store.Leaves{"a/b/c": json.RawMessage(`"x"`), "a/b/d": json.RawMessage(`true`)},
	}}))

	leaves, err := b.Leaves(ctx, "a")
	require.NoError(t, err)
	require.Len(t, leaves, 2, "scalar at ancestor must be dropped")

	require.NoError(t, b.Apply(ctx, []store.Op{{Path: "a/b"}}))
	leaves, err = b.Leaves(ctx, "a")
	require.NoError(t, err)
	require.Empty(t, leaves)
}

func TestLeavesDoesNotMatchSiblingPrefix(t *testing.T) {
	ctx := context.Background()
	b := memory.New()

	require.NoError(t, b.Apply(ctx, []store.Op{
		{Path: "users/u1", Leaves: store.Leaves{"users/u1/name": json.RawMessage(`"a"`)}},
		{Path: "users/u10", Leaves: store.Leaves{"users/u10/name": json.RawMessage(`"b"`)}},
	}))

	leaves, err := b.Leaves(ctx, "users/u1")
	require.NoError(t, err)
	require.Len(t, leaves, 1)
}

func TestFailNextApply(t *testing.T) {
	ctx := context.Background()
	b := memory.New()
	boom := errors.New("boom")

	b.FailNextApply(boom)
	require.ErrorIs(t, b.Apply(ctx, nil), boom)
	require.NoError(t, b.Apply(ctx, nil), "failure is one-shot")
}

func TestClosed(t *testing.T) {
	b := memory.New()
	require.NoError(t, b.Close())
	require.ErrorIs(t, b.Ping(context.Background()), store.ErrClosed)
	_, err := b.Leaves(context.Background(), "x")
	require.ErrorIs(t, err, store.ErrClosed)
}
