package service

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/presence/internal/presence/domain"
	"github.com/stretchr/testify/require"
)

func unread(t *testing.T, n *NotificationCenter) int {
	t.Helper()
	c, err := n.UnreadCount(context.Background())
	require.NoError(t, err)
	return c
}

func TestStatusRequestScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addUser(t, "alice", "T")
	f.addUser(t, "bob", "T")

	bob := NewNotificationCenter(f.env(t, "bob"))
	alice := NewNotificationCenter(f.env(t, "alice"))

	id, err := bob.RequestStatus(ctx, "alice")
	require.NoError(t, err)

	list, err := alice.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	n := list[0]
	require.Equal(t, id, n.ID)
	require.Equal(t, domain.NotificationStatusRequest, n.Type)
	require.Equal(t, "Status request", n.Title)
	require.Equal(t, "bob would like to know your current status", n.Message)
	require.Equal(t, &domain.Sender{ID: "bob", Name: "bob"}, n.From)
	require.False(t, n.Read)
	require.Equal(t, epoch, n.Timestamp)

	require.NoError(t, alice.MarkRead(ctx, id))
	list, err = alice.List(ctx)
	require.NoError(t, err)
	require.True(t, list[0].Read)
	require.Zero(t, unread(t, alice))
}

func TestUnreadCountProperties(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addUser(t, "a", "")
	inbox := NewNotificationCenter(f.env(t, "a"))

	var ids []string
	for i := range 3 {
		before := unread(t, inbox)
		id, err := inbox.Send(ctx, "a", domain.NotificationReminder, "r", "", nil)
		require.NoError(t, err)
		ids = append(ids, id)
		require.Equal(t, before+1, unread(t, inbox), "send %d", i)
	}

	require.NoError(t, inbox.MarkRead(ctx, ids[0]))
	require.Equal(t, 2, unread(t, inbox))

	require.NoError(t, inbox.MarkRead(ctx, ids[0]), "already read is a no-op")
	require.Equal(t, 2, unread(t, inbox))

	require.NoError(t, inbox.MarkRead(ctx, "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV"), "absent id is a no-op")
	require.Equal(t, 2, unread(t, inbox))

	n, err := inbox.MarkAllRead(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Zero(t, unread(t, inbox))

	n, err = inbox.MarkAllRead(ctx)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestMarkReadAfterDeleteLeavesNoEntry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inbox := NewNotificationCenter(f.env(t, "a"))

	id, err := inbox.Send(ctx, "a", domain.NotificationReminder, "r", "", nil)
	require.NoError(t, err)
	require.NoError(t, inbox.Delete(ctx, id))
	require.NoError(t, inbox.MarkRead(ctx, id))

	list, err := inbox.List(ctx)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestListOrdering(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inbox := NewNotificationCenter(f.env(t, "a"))

	first, err := inbox.Send(ctx, "a", domain.NotificationReminder, "first", "", nil)
	require.NoError(t, err)
	second, err := inbox.Send(ctx, "a", domain.NotificationReminder, "second", "", nil)
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	third, err := inbox.Send(ctx, "a", domain.NotificationTeamInvite, "third", "", nil)
	require.NoError(t, err)

	list, err := inbox.List(ctx)
	require.NoError(t, err)
	got := []string{list[0].ID, list[1].ID, list[2].ID}
	require.Equal(t, []string{third, first, second}, got, "newest first, ties in generation order")
}

func TestListOrderingAcrossSenders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inbox := NewNotificationCenter(f.env(t, "a"))
	senders := []*NotificationCenter{
		NewNotificationCenter(f.env(t, "b")),
		NewNotificationCenter(f.env(t, "c")),
	}

	var sent []string
	for i := range 10 {
		id, err := senders[i%2].Send(ctx, "a", domain.NotificationStatusRequest, "ping", "", nil)
		require.NoError(t, err)
		sent = append(sent, id)
	}

	list, err := inbox.List(ctx)
	require.NoError(t, err)
	got := make([]string, 0, len(list))
	for _, note := range list {
		got = append(got, note.ID)
	}
	require.Equal(t, sent, got, "same-instant entries from different senders keep send order")
}

func TestSendValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inbox := NewNotificationCenter(f.env(t, "a"))

	_, err := inbox.Send(ctx, " ", domain.NotificationReminder, "t", "m", nil)
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = inbox.Send(ctx, "a/b", domain.NotificationReminder, "t", "m", nil)
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = inbox.Send(ctx, "b", "shout", "t", "m", nil)
	require.ErrorIs(t, err, domain.ErrValidation)

	require.ErrorIs(t, inbox.MarkRead(ctx, ""), domain.ErrValidation)
}

func TestDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inbox := NewNotificationCenter(f.env(t, "a"))
	other := NewNotificationCenter(f.env(t, "b"))

	id, err := inbox.Send(ctx, "a", domain.NotificationReminder, "1", "", nil)
	require.NoError(t, err)
	_, err = inbox.Send(ctx, "a", domain.NotificationReminder, "2", "", nil)
	require.NoError(t, err)
	_, err = inbox.Send(ctx, "b", domain.NotificationReminder, "b's", "", nil)
	require.NoError(t, err)

	require.NoError(t, inbox.Delete(ctx, id))
	list, err := inbox.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, inbox.ClearAll(ctx))
	list, err = inbox.List(ctx)
	require.NoError(t, err)
	require.Empty(t, list)

	list, err = other.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1, "clearing one inbox leaves others alone")
}

func TestNextUnread(t *testing.T) {
	tests := []struct {
		name      string
		last      UnreadState
		delivered bool
		count     int
		want      UnreadState
		ok        bool
	}{
		{"first observation never alerts", UnreadState{}, false, 4, UnreadState{Count: 4}, true},
		{"rise alerts once for the whole jump", UnreadState{Count: 1}, true, 4, UnreadState{Count: 4, Alert: true}, true},
		{"fall does not alert", UnreadState{Count: 4, Alert: true}, true, 0, UnreadState{Count: 0}, true},
		{"unchanged is skipped", UnreadState{Count: 2}, true, 2, UnreadState{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := nextUnread(tt.last, tt.delivered, tt.count)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestWatchUnread(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inbox := NewNotificationCenter(f.env(t, "a"))

	feed, err := inbox.WatchUnread(ctx)
	require.NoError(t, err)
	defer feed.Close()

	require.Equal(t, UnreadState{Count: 0}, next(t, feed), "first delivery never alerts")

	// A burst may be observed in one or more steps; every step that rises
	// alerts and the last one shows the full count.
	for range 3 {
		_, err := inbox.Send(ctx, "a", domain.NotificationStatusRequest, "t", "m", nil)
		require.NoError(t, err)
	}
	prev := 0
	for prev < 3 {
		s := next(t, feed)
		require.True(t, s.Alert)
		require.Greater(t, s.Count, prev)
		prev = s.Count
	}
	quiet(t, feed)

	_, err = inbox.MarkAllRead(ctx)
	require.NoError(t, err)
	require.Equal(t, UnreadState{Count: 0}, next(t, feed))

	_, err = inbox.Send(ctx, "a", domain.NotificationReminder, "t", "m", nil)
	require.NoError(t, err)
	require.Equal(t, UnreadState{Count: 1, Alert: true}, next(t, feed))
}

func TestWatchInbox(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inbox := NewNotificationCenter(f.env(t, "a"))

	feed, err := inbox.Watch(ctx)
	require.NoError(t, err)
	defer feed.Close()
	require.Empty(t, next(t, feed))

	_, err = inbox.Send(ctx, "a", domain.NotificationReminder, "t", "m", nil)
	require.NoError(t, err)
	list := next(t, feed)
	require.Len(t, list, 1)
	require.Equal(t, "t", list[0].Title)
}
