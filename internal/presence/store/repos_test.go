package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/presence/internal/presence/domain"
	"github.com/aussiebroadwan/presence/internal/presence/store"
	"github.com/aussiebroadwan/presence/pkg/identity"
	"github.com/stretchr/testify/require"
)

func TestUsersRoundTrip(t *testing.T) {
	ctx := context.Background()
	tree := newTree(t)
	users := tree.Users()

	now := time.UnixMilli(1_700_000_000_000).UTC()
	require.NoError(t, users.Create(ctx, domain.NewMember("u1", "ann@example.com", now)))

	m, err := users.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "ann", m.Name)
	require.Equal(t, domain.StatusAvailable, m.Status)
	require.Equal(t, now, m.CreatedAt)

	exp := now.Add(time.Hour)
	msg := "heads down"
	require.NoError(t, users.ApplyStatus(ctx, "u1", domain.StatusPatch{
		Status: domain.StatusBusy, UpdatedAt: now.Add(time.Second), Message: &msg, ExpiresAt: &exp,
	}))
	require.NoError(t, users.ApplyStatus(ctx, "u1", domain.StatusPatch{
		Status: domain.StatusMeeting, UpdatedAt: now.Add(2 * time.Second),
	}))

	m, err = users.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusMeeting, m.Status)
	require.Equal(t, "heads down", m.Message, "omitted message is kept")
	require.True(t, domain.SameInstant(&exp, m.ExpiresAt), "omitted expiry is kept")

	require.NoError(t, users.ApplyStatus(ctx, "u1", domain.StatusPatch{
		Status: domain.StatusAvailable, UpdatedAt: now.Add(3 * time.Second), ClearExpiry: true,
	}))
	m, err = users.Get(ctx, "u1")
	require.NoError(t, err)
	require.Nil(t, m.ExpiresAt)

	require.NoError(t, users.SetTeam(ctx, "u1", "TEAM-ABC123"))
	m, err = users.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "TEAM-ABC123", m.TeamCode)

	_, err = users.Get(ctx, "ghost")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestDecodeMemberAppliesDefaults(t *testing.T) {
	snap := store.NewSnapshot("users/u9", map[string]any{"name": "sparse"})
	m, err := store.DecodeMember(snap)
	require.NoError(t, err)
	require.Equal(t, "u9", m.ID)
	require.Equal(t, domain.StatusAvailable, m.Status)
	require.Empty(t, m.Message)
	require.Nil(t, m.ExpiresAt)
	require.Empty(t, m.TeamCode)
}

func TestDecodeMembersSkipsCorrupt(t *testing.T) {
	snap := store.NewSnapshot("users", map[string]any{
		"a": map[string]any{"name": "ok"},
		"b": "not-a-record",
	})
	members, err := store.DecodeMembers(snap)
	require.Error(t, err)
	require.Len(t, members, 1)
	require.Equal(t, "a", members[0].ID)
}

func TestTeams(t *testing.T) {
	ctx := context.Background()
	tree := newTree(t)

	team := domain.Team{Code: "TEAM-ABC123", Name: "Design", CreatedAt: time.UnixMilli(1000).UTC(), CreatedBy: "u1"}
	require.NoError(t, tree.Teams().Create(ctx, team))

	got, err := tree.Teams().Get(ctx, "TEAM-ABC123")
	require.NoError(t, err)
	require.Equal(t, team, got)

	_, err = tree.Teams().Get(ctx, "TEAM-ZZZZZZ")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestNotifications(t *testing.T) {
	ctx := context.Background()
	tree := newTree(t)
	notes := tree.Notifications()

	ts := time.UnixMilli(5000).UTC()
	require.NoError(t, notes.Add(ctx, "u1", domain.Notification{
		ID: "01A", Type: domain.NotificationStatusRequest, Title: "t", Message: "m",
		From: &domain.Sender{ID: "u2", Name: "bob"}, Timestamp: ts,
	}))
	require.NoError(t, notes.Add(ctx, "u1", domain.Notification{
		ID: "01B", Type: domain.NotificationReminder, Title: "r", Timestamp: ts,
	}))

	list, err := notes.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "01A", list[0].ID)
	require.Equal(t, "bob", list[0].From.Name)
	require.Nil(t, list[1].From)

	require.NoError(t, notes.MarkRead(ctx, "u1", "01A", "01B"))
	list, err = notes.List(ctx, "u1")
	require.NoError(t, err)
	require.Zero(t, domain.CountUnread(list))

	require.NoError(t, notes.Delete(ctx, "u1", "01A"))
	_, err = notes.Get(ctx, "u1", "01A")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, notes.Clear(ctx, "u1"))
	list, err = notes.List(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestDecodeInboxSkipsPartialEntries(t *testing.T) {
	snap := store.NewSnapshot("notifications/u1", map[string]any{
		"01A": map[string]any{"read": true},
		"01B": map[string]any{"type": "reminder", "title": "x", "timestamp": 1},
	})
	list := store.DecodeInbox(snap)
	require.Len(t, list, 1)
	require.Equal(t, "01B", list[0].ID)
}

func TestAccounts(t *testing.T) {
	ctx := context.Background()
	tree := newTree(t)
	accts := tree.Accounts()

	acct := identity.Account{UID: "u1", Email: "ann@example.com", PasswordHash: "h", CreatedAt: time.UnixMilli(1).UTC()}
	require.NoError(t, accts.CreateAccount(ctx, acct))
	require.ErrorIs(t, accts.CreateAccount(ctx, acct), identity.ErrEmailInUse)

	got, err := accts.AccountByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	require.Equal(t, acct, got)

	_, err = accts.AccountByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, identity.ErrAccountNotFound)

	require.NoError(t, accts.SetPasswordHash(ctx, "ann@example.com", "h2"))
	got, err = accts.AccountByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	require.Equal(t, "h2", got.PasswordHash)

	t.Run("resets are single use", func(t *testing.T) {
		exp := time.UnixMilli(10_000).UTC()
		require.NoError(t, accts.SaveReset(ctx, "fp1", "ann@example.com", exp))

		email, gotExp, err := accts.TakeReset(ctx, "fp1")
		require.NoError(t, err)
		require.Equal(t, "ann@example.com", email)
		require.Equal(t, exp, gotExp)

		_, _, err = accts.TakeReset(ctx, "fp1")
		require.ErrorIs(t, err, identity.ErrInvalidToken)
	})

	t.Run("revocations and purge", func(t *testing.T) {
		require.NoError(t, accts.RevokeSession(ctx, "old", time.UnixMilli(1_000)))
		require.NoError(t, accts.RevokeSession(ctx, "new", time.UnixMilli(100_000)))

		revoked, err := accts.SessionRevoked(ctx, "old")
		require.NoError(t, err)
		require.True(t, revoked)

		n, err := accts.PurgeExpired(ctx, time.UnixMilli(50_000))
		require.NoError(t, err)
		require.Equal(t, 1, n)

		revoked, err = accts.SessionRevoked(ctx, "old")
		require.NoError(t, err)
		require.False(t, revoked)

		revoked, err = accts.SessionRevoked(ctx, "new")
		require.NoError(t, err)
		require.True(t, revoked)
	})
}
