package store

import (
	"context"

	"github.com/aussiebroadwan/presence/internal/presence/domain"
)

const notificationsRoot = "notifications"

type notificationDoc struct {
	Type         string `json:"type"`
	Title        string `json:"title"`
	Message      string `json:"message"`
	FromUserID   string `json:"fromUserId,omitempty"`
	FromUserName string `json:"fromUserName,omitempty"`
	Timestamp    int64  `json:"timestamp"`
	Read         bool   `json:"read"`
}

// Notifications is the notifications/{recipient}/{id} collection.
type Notifications struct{ t *Tree }

func (t *Tree) Notifications() *Notifications { return &Notifications{t: t} }

// InboxPath returns the inbox of recipient.
func InboxPath(recipient string) string { return Join(notificationsRoot, recipient) }

// NotificationPath returns one inbox entry.
func NotificationPath(recipient, id string) string { return Join(notificationsRoot, recipient, id) }

// Add stores n under its ID in the recipient's inbox.
func (r *Notifications) Add(ctx context.Context, recipient string, n domain.Notification) error {
	doc := notificationDoc{
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		Timestamp: Millis(n.Timestamp),
		Read:      n.Read,
	}
	if n.From != nil {
		doc.FromUserID = n.From.ID
		doc.FromUserName = n.From.Name
	}
	return r.t.Write(ctx, NotificationPath(recipient, n.ID), doc)
}

// Get returns ErrNotFound when the entry is absent.
func (r *Notifications) Get(ctx context.Context, recipient, id string) (domain.Notification, error) {
	snap, err := r.t.Read(ctx, NotificationPath(recipient, id))
	if err != nil {
		return domain.Notification{}, err
	}
	n, ok := DecodeNotification(snap)
	if !ok {
		return domain.Notification{}, ErrNotFound
	}
	return n, nil
}

// List returns the inbox in storage (generation) order.
func (r *Notifications) List(ctx context.Context, recipient string) ([]domain.Notification, error) {
	snap, err := r.t.Read(ctx, InboxPath(recipient))
	if err != nil {
		return nil, err
	}
	return DecodeInbox(snap), nil
}

// MarkRead flips read on every id in one backend call.
func (r *Notifications) MarkRead(ctx context.Context, recipient string, ids ...string) error {
	values := make(map[string]any, len(ids))
	for _, id := range ids {
		values[Join(NotificationPath(recipient, id), "read")] = true
	}
	return r.t.Update(ctx, values)
}

func (r *Notifications) Delete(ctx context.Context, recipient, id string) error {
	return r.t.Remove(ctx, NotificationPath(recipient, id))
}

// Clear empties the inbox.
func (r *Notifications) Clear(ctx context.Context, recipient string) error {
	return r.t.Remove(ctx, InboxPath(recipient))
}

func (r *Notifications) Watch(ctx context.Context, recipient string) (*Subscription, error) {
	return r.t.Subscribe(ctx, InboxPath(recipient))
}

// DecodeNotification decodes one entry. Entries without a type are partial
// leftovers of a racing delete and are reported as absent.
func DecodeNotification(snap Snapshot) (domain.Notification, bool) {
	var doc notificationDoc
	if err := snap.Decode(&doc); err != nil || doc.Type == "" {
		return domain.Notification{}, false
	}
	n := domain.Notification{
		ID:        snap.Key(),
		Type:      domain.NotificationType(doc.Type),
		Title:     doc.Title,
		Message:   doc.Message,
		Timestamp: FromMillis(doc.Timestamp),
		Read:      doc.Read,
	}
	if doc.FromUserID != "" || doc.FromUserName != "" {
		n.From = &domain.Sender{ID: doc.FromUserID, Name: doc.FromUserName}
	}
	return n, true
}

// DecodeInbox decodes an inbox snapshot in key order.
func DecodeInbox(snap Snapshot) []domain.Notification {
	children := snap.Children()
	out := make([]domain.Notification, 0, len(children))
	for _, c := range children {
		if n, ok := DecodeNotification(c); ok {
			out = append(out, n)
		}
	}
	return out
}
