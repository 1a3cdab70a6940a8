package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/aussiebroadwan/presence/internal/presence/domain"
	"github.com/aussiebroadwan/presence/internal/presence/store"
)

// UnreadState is one observation of the unread badge. Alert is set when the
// count rose since the previous observation of the same feed.
type UnreadState struct {
	Count int
	Alert bool
}

// NotificationCenter manages the signed-in user's inbox and sends to other
// users' inboxes.
type NotificationCenter struct {
	env   Env
	notes *store.Notifications
	users *store.Users
}

func NewNotificationCenter(env Env) *NotificationCenter {
	env = env.withDefaults()
	return &NotificationCenter{
		env:   env,
		notes: env.Store.Notifications(),
		users: env.Store.Users(),
	}
}

// Send appends an unread entry to recipientID's inbox and returns its id.
// Ids sort in generation order.
func (n *NotificationCenter) Send(ctx context.Context, recipientID string, kind domain.NotificationType, title, message string, from *domain.Sender) (string, error) {
	recipientID = strings.TrimSpace(recipientID)
	if recipientID == "" {
		return "", domain.NewValidationError("recipientId", "required")
	}
	if err := store.ValidateKey(recipientID); err != nil {
		return "", domain.NewValidationError("recipientId", "invalid")
	}
	if !kind.Valid() {
		return "", domain.NewValidationError("type", "must be one of status_request, team_invite, status_change, reminder")
	}

	now := n.env.Clock.Now()
	note := domain.Notification{
		ID:        n.env.Store.NewKeyAt(now),
		Type:      kind,
		Title:     title,
		Message:   message,
		From:      from,
		Timestamp: now,
	}
	if err := n.notes.Add(ctx, recipientID, note); err != nil {
		n.env.Logger.Error("notification send failed",
			slog.String("recipient_id", recipientID),
			slog.String("type", string(kind)),
			slog.Any("error", err),
		)
		return "", domain.Persistence("send notification", store.InboxPath(recipientID), err)
	}

	n.env.Metrics.NotificationSent(string(kind))
	return note.ID, nil
}

// RequestStatus asks memberID for their current status on behalf of the
// caller.
func (n *NotificationCenter) RequestStatus(ctx context.Context, memberID string) (string, error) {
	name := n.senderName(ctx)
	return n.Send(ctx, memberID,
		domain.NotificationStatusRequest,
		"Status request",
		fmt.Sprintf("%s would like to know your current status", name),
		&domain.Sender{ID: n.env.UserID, Name: name},
	)
}

func (n *NotificationCenter) senderName(ctx context.Context) string {
	m, err := n.users.Get(ctx, n.env.UserID)
	if err == nil && m.Name != "" {
		return m.Name
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		n.env.Logger.Warn("sender record unavailable", slog.Any("error", err))
	}
	return n.env.UserID
}

// List returns the caller's inbox, most recent first. Entries with the same
// timestamp keep generation order.
func (n *NotificationCenter) List(ctx context.Context) ([]domain.Notification, error) {
	list, err := n.notes.List(ctx, n.env.UserID)
	if err != nil {
		return nil, domain.Persistence("list notifications", store.InboxPath(n.env.UserID), err)
	}
	sortForDisplay(list)
	return list, nil
}

// UnreadCount counts the caller's unread entries.
func (n *NotificationCenter) UnreadCount(ctx context.Context) (int, error) {
	list, err := n.notes.List(ctx, n.env.UserID)
	if err != nil {
		return 0, domain.Persistence("count unread", store.InboxPath(n.env.UserID), err)
	}
	return domain.CountUnread(list), nil
}

// MarkRead flags one entry as read. Absent or already read entries are left
// alone.
func (n *NotificationCenter) MarkRead(ctx context.Context, id string) error {
	if err := validateNotificationID(id); err != nil {
		return err
	}

	note, err := n.notes.Get(ctx, n.env.UserID, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return domain.Persistence("mark read", store.NotificationPath(n.env.UserID, id), err)
	}
	if note.Read {
		return nil
	}

	if err := n.notes.MarkRead(ctx, n.env.UserID, id); err != nil {
		return domain.Persistence("mark read", store.NotificationPath(n.env.UserID, id), err)
	}
	return nil
}

// MarkAllRead flags every entry unread at call time in one batch and returns
// how many it flagged. Entries arriving meanwhile may stay unread.
func (n *NotificationCenter) MarkAllRead(ctx context.Context) (int, error) {
	list, err := n.notes.List(ctx, n.env.UserID)
	if err != nil {
		return 0, domain.Persistence("mark all read", store.InboxPath(n.env.UserID), err)
	}

	var ids []string
	for _, note := range list {
		if !note.Read {
			ids = append(ids, note.ID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}

	if err := n.notes.MarkRead(ctx, n.env.UserID, ids...); err != nil {
		return 0, domain.Persistence("mark all read", store.InboxPath(n.env.UserID), err)
	}
	return len(ids), nil
}

// Delete removes one entry. Deleting an absent entry is not an error.
func (n *NotificationCenter) Delete(ctx context.Context, id string) error {
	if err := validateNotificationID(id); err != nil {
		return err
	}
	if err := n.notes.Delete(ctx, n.env.UserID, id); err != nil {
		return domain.Persistence("delete notification", store.NotificationPath(n.env.UserID, id), err)
	}
	return nil
}

// ClearAll empties the caller's inbox.
func (n *NotificationCenter) ClearAll(ctx context.Context) error {
	if err := n.notes.Clear(ctx, n.env.UserID); err != nil {
		return domain.Persistence("clear notifications", store.InboxPath(n.env.UserID), err)
	}
	return nil
}

// Watch delivers the inbox in display order on every change.
func (n *NotificationCenter) Watch(ctx context.Context) (*Feed[[]domain.Notification], error) {
	ctx, cancel := n.env.bind(ctx)
	sub, err := n.notes.Watch(ctx, n.env.UserID)
	if err != nil {
		cancel()
		return nil, domain.Persistence("watch notifications", store.InboxPath(n.env.UserID), err)
	}

	return newFeed(sub, n.env.Clock, feedSpec[[]domain.Notification]{
		transform: func(_ []domain.Notification, _ bool, snap store.Snapshot) ([]domain.Notification, bool) {
			list := store.DecodeInbox(snap)
			sortForDisplay(list)
			return list, true
		},
	}, cancel), nil
}

// WatchUnread delivers the unread count whenever it changes. The first
// delivery never alerts.
func (n *NotificationCenter) WatchUnread(ctx context.Context) (*Feed[UnreadState], error) {
	ctx, cancel := n.env.bind(ctx)
	sub, err := n.notes.Watch(ctx, n.env.UserID)
	if err != nil {
		cancel()
		return nil, domain.Persistence("watch unread", store.InboxPath(n.env.UserID), err)
	}

	return newFeed(sub, n.env.Clock, feedSpec[UnreadState]{
		transform: func(last UnreadState, delivered bool, snap store.Snapshot) (UnreadState, bool) {
			return nextUnread(last, delivered, domain.CountUnread(store.DecodeInbox(snap)))
		},
	}, cancel), nil
}

// nextUnread derives the state following last. Unchanged counts are not
// delivered again.
func nextUnread(last UnreadState, delivered bool, count int) (UnreadState, bool) {
	if delivered && count == last.Count {
		return UnreadState{}, false
	}
	return UnreadState{Count: count, Alert: delivered && count > last.Count}, true
}

func sortForDisplay(list []domain.Notification) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Timestamp.After(list[j].Timestamp)
	})
}

func validateNotificationID(id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.NewValidationError("id", "required")
	}
	if err := store.ValidateKey(id); err != nil {
		return domain.NewValidationError("id", "invalid")
	}
	return nil
}
