package idx_test

import (
	"sort"
	"testing"
	"time"

	"github.com/aussiebroadwan/presence/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestNewAndParse(t *testing.T) {
	id := idx.New()
	require.NotEmpty(t, id.String())

	parsed, err := idx.Parse(id.String())
	require.NoError(t, err)
	require.Equal(t, id, parsed)
	require.False(t, id.IsZero())
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "   ", "not-a-ulid", "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3Z"} {
		_, err := idx.Parse(in)
		require.ErrorIs(t, err, idx.ErrInvalid, in)
	}
}

func TestOrdering(t *testing.T) {
	a := idx.NewAt(time.Unix(1, 0).UTC())
	b := idx.NewAt(time.Unix(2, 0).UTC())

	require.Equal(t, -1, idx.Compare(a, b))
	require.Equal(t, 1, idx.Compare(b, a))
	require.Equal(t, 0, idx.Compare(a, a))
}

func TestGenerationOrderWithinSameMillisecond(t *testing.T) {
	g := idx.NewGenerator()
	at := time.UnixMilli(1_700_000_000_000).UTC()

	ids := make([]string, 0, 50)
	for range 50 {
		ids = append(ids, g.NewAt(at).String())
	}

	require.True(t, sort.StringsAreSorted(ids), "ids must sort in generation order")
}

func TestGenerationOrderSurvivesClockGoingBackwards(t *testing.T) {
	g := idx.NewGenerator()

	first := g.NewAt(time.UnixMilli(2_000))
	second := g.NewAt(time.UnixMilli(1_000))

	require.Equal(t, -1, idx.Compare(first, second))
}

func TestTimeExtraction(t *testing.T) {
	tm := time.Unix(1700000000, 0).UTC()
	id := idx.NewAt(tm)

	require.WithinDuration(t, tm, id.Time(), time.Millisecond)
	require.True(t, idx.Zero.Time().IsZero())
}

func TestMustParse(t *testing.T) {
	require.NotPanics(t, func() { _ = idx.MustParse("01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV") })
	require.Panics(t, func() { _ = idx.MustParse("nope") })
}
