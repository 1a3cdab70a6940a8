package service

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/presence/internal/presence/domain"
	"github.com/stretchr/testify/require"
)

type revertCall struct{ armed time.Time }

func recordingRevert(calls *[]revertCall) RevertFunc {
	return func(_ context.Context, armed time.Time) (bool, error) {
		*calls = append(*calls, revertCall{armed: armed})
		return true, nil
	}
}

func expiring(at time.Time) domain.StatusRecord {
	return domain.StatusRecord{Status: domain.StatusBusy, ExpiresAt: &at}
}

func TestSchedulerLastWriteWins(t *testing.T) {
	f := newFixture(t)
	var calls []revertCall
	s := NewExpiryScheduler(f.env(t, "a"), recordingRevert(&calls))

	first := epoch.Add(time.Minute)
	second := epoch.Add(5 * time.Minute)
	s.Observe(expiring(first))
	s.Observe(expiring(second))

	require.Equal(t, 1, f.clock.Pending(), "exactly one pending timer")
	at, ok := s.ArmedAt()
	require.True(t, ok)
	require.Equal(t, second, at)

	f.clock.Advance(time.Minute)
	require.Empty(t, calls, "superseded timer must not fire")

	f.clock.Advance(4 * time.Minute)
	require.Equal(t, []revertCall{{armed: second}}, calls)

	_, ok = s.ArmedAt()
	require.False(t, ok)
}

func TestSchedulerTransitions(t *testing.T) {
	f := newFixture(t)
	var calls []revertCall
	s := NewExpiryScheduler(f.env(t, "a"), recordingRevert(&calls))
	at := epoch.Add(time.Minute)

	t.Run("same instant keeps the timer", func(t *testing.T) {
		s.Observe(expiring(at))
		s.Observe(expiring(at))
		require.Equal(t, 1, f.clock.Pending())
	})

	t.Run("no expiry disarms", func(t *testing.T) {
		s.Observe(domain.StatusRecord{Status: domain.StatusBusy})
		require.Equal(t, 0, f.clock.Pending())
		f.clock.Advance(2 * time.Minute)
		require.Empty(t, calls)
	})

	t.Run("passed expiry fires at once", func(t *testing.T) {
		past := f.clock.Now().Add(-time.Second)
		s.Observe(expiring(past))
		f.clock.Advance(0)
		require.Equal(t, []revertCall{{armed: past}}, calls)
	})

	t.Run("stop disarms and ignores later records", func(t *testing.T) {
		s.Observe(expiring(f.clock.Now().Add(time.Minute)))
		s.Stop()
		require.Equal(t, 0, f.clock.Pending())

		s.Observe(expiring(f.clock.Now().Add(time.Minute)))
		require.Equal(t, 0, f.clock.Pending())
	})
}

func newWiredController(t *testing.T, f *fixture, uid string) (*StatusController, *ExpiryScheduler) {
	t.Helper()
	env := f.env(t, uid)
	c := NewStatusController(env)
	s := NewExpiryScheduler(env, c.RevertExpired)
	c.OnWrite(s.Observe)
	_, err := c.Load(context.Background())
	require.NoError(t, err)
	return c, s
}

func TestExpiryRevertsToAvailable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addUser(t, "a", "")
	require.NoError(t, f.tree.Users().ApplyStatus(ctx, "a", domain.StatusPatch{
		Status: domain.StatusAvailable, UpdatedAt: epoch, Message: ptr("lunch"),
	}))
	c, _ := newWiredController(t, f, "a")

	require.NoError(t, c.SetStatus(ctx, domain.StatusBusy, WithExpiry(epoch.Add(2000*time.Millisecond))))
	require.Equal(t, domain.StatusBusy, f.record(t, "a").Status)

	f.clock.Advance(1999 * time.Millisecond)
	require.Equal(t, domain.StatusBusy, f.record(t, "a").Status)

	f.clock.Advance(time.Millisecond)
	m := f.record(t, "a")
	require.Equal(t, domain.StatusAvailable, m.Status)
	require.Nil(t, m.ExpiresAt)
	require.Equal(t, "lunch", m.Message)
	require.Equal(t, 0, f.clock.Pending())
}

func TestStaleTimerDoesNotClobberNewerExpiry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addUser(t, "a", "")
	c, s := newWiredController(t, f, "a")

	first := epoch.Add(time.Minute)
	require.NoError(t, c.SetStatus(ctx, domain.StatusBusy, WithExpiry(first)))

	// The user moved the expiry from another device; this client's scheduler
	// has not heard about it.
	later := epoch.Add(10 * time.Minute)
	require.NoError(t, f.tree.Users().ApplyStatus(ctx, "a", domain.StatusPatch{
		Status: domain.StatusBusy, UpdatedAt: epoch.Add(time.Second), ExpiresAt: &later,
	}))
	before := f.record(t, "a")

	f.clock.Advance(time.Minute)
	after := f.record(t, "a")
	require.Equal(t, before, after, "no write may happen")
	_, armed := s.ArmedAt()
	require.False(t, armed)
}

func TestRevertAbortsWhenExpiryCleared(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addUser(t, "a", "")
	c, _ := newWiredController(t, f, "a")

	at := epoch.Add(time.Minute)
	require.NoError(t, c.SetStatus(ctx, domain.StatusBusy, WithExpiry(at)))
	require.NoError(t, f.tree.Users().ApplyStatus(ctx, "a", domain.StatusPatch{
		Status: domain.StatusMeeting, UpdatedAt: epoch.Add(time.Second), ClearExpiry: true,
	}))

	f.clock.Advance(time.Minute)
	reverted, err := c.RevertExpired(ctx, at)
	require.NoError(t, err)
	require.False(t, reverted)
	require.Equal(t, domain.StatusMeeting, f.record(t, "a").Status)
}

func TestRunArmsExpiryFromEarlierSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addUser(t, "a", "")

	at := epoch.Add(time.Minute)
	require.NoError(t, f.tree.Users().ApplyStatus(ctx, "a", domain.StatusPatch{
		Status: domain.StatusAway, UpdatedAt: epoch, ExpiresAt: &at,
	}))

	c, s := newWiredController(t, f, "a")
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- c.Run(runCtx) }()

	require.Eventually(t, func() bool {
		got, ok := s.ArmedAt()
		return ok && got.Equal(at)
	}, time.Second, 5*time.Millisecond)

	f.clock.Advance(time.Minute)
	require.Equal(t, domain.StatusAvailable, f.record(t, "a").Status)
	require.Eventually(t, func() bool {
		return c.Current().Status == domain.StatusAvailable && c.Current().ExpiresAt == nil
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func ptr[T any](v T) *T { return &v }
