package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/presence/internal/presence/domain"
)

const usersRoot = "users"

type userDoc struct {
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	CreatedAt int64  `json:"createdAt,omitempty"`
	Status    string `json:"status,omitempty"`
	Message   string `json:"message"`
	ExpiresAt *int64 `json:"expiresAt,omitempty"`
	UpdatedAt int64  `json:"updatedAt,omitempty"`
	TeamCode  string `json:"teamCode,omitempty"`
}

// Users is the users/{uid} collection.
type Users struct{ t *Tree }

func (t *Tree) Users() *Users { return &Users{t: t} }

// UserPath returns the record path of uid.
func UserPath(uid string) string { return Join(usersRoot, uid) }

// Get returns the stored record with defaults applied but not normalized.
func (u *Users) Get(ctx context.Context, uid string) (domain.Member, error) {
	snap, err := u.t.Read(ctx, UserPath(uid))
	if err != nil {
		return domain.Member{}, err
	}
	return DecodeMember(snap)
}

// Create writes the initial record for a new account.
func (u *Users) Create(ctx context.Context, m domain.Member) error {
	doc := userDoc{
		Name:      m.Name,
		Email:     m.Email,
		CreatedAt: Millis(m.CreatedAt),
		Status:    string(m.WithDefaults().Status),
		Message:   m.Message,
		ExpiresAt: OptionalMillis(m.ExpiresAt),
		UpdatedAt: Millis(m.UpdatedAt),
		TeamCode:  m.TeamCode,
	}
	return u.t.Write(ctx, UserPath(m.ID), doc)
}

// ApplyStatus merges a status patch. Fields the patch omits are untouched.
func (u *Users) ApplyStatus(ctx context.Context, uid string, p domain.StatusPatch) error {
	fields := map[string]any{
		"status":    string(p.Status),
		"updatedAt": Millis(p.UpdatedAt),
	}
	if p.Message != nil {
		fields["message"] = *p.Message
	}
	switch {
	case p.ClearExpiry:
		fields["expiresAt"] = nil
	case p.ExpiresAt != nil:
		fields["expiresAt"] = Millis(*p.ExpiresAt)
	}
	return u.t.Merge(ctx, UserPath(uid), fields)
}

// SetTeam points uid at a team code.
func (u *Users) SetTeam(ctx context.Context, uid, code string) error {
	return u.t.Merge(ctx, UserPath(uid), map[string]any{"teamCode": code})
}

// Watch subscribes to one record.
func (u *Users) Watch(ctx context.Context, uid string) (*Subscription, error) {
	return u.t.Subscribe(ctx, UserPath(uid))
}

// WatchAll subscribes to the whole collection.
func (u *Users) WatchAll(ctx context.Context) (*Subscription, error) {
	return u.t.Subscribe(ctx, usersRoot)
}

// DecodeMember decodes a users/{uid} snapshot. Missing optional fields take
// their defaults.
func DecodeMember(snap Snapshot) (domain.Member, error) {
	var doc userDoc
	if err := snap.Decode(&doc); err != nil {
		return domain.Member{}, err
	}
	m := domain.Member{
		ID:        snap.Key(),
		Name:      doc.Name,
		Email:     doc.Email,
		CreatedAt: FromMillis(doc.CreatedAt),
		StatusRecord: domain.StatusRecord{
			Status:    domain.Status(doc.Status),
			Message:   doc.Message,
			ExpiresAt: FromOptionalMillis(doc.ExpiresAt),
			UpdatedAt: FromMillis(doc.UpdatedAt),
			TeamCode:  doc.TeamCode,
		},
	}
	m.StatusRecord = m.WithDefaults()
	return m, nil
}

// DecodeMembers decodes the users collection in key order. Records that
// fail to decode are skipped and reported through the returned error.
func DecodeMembers(snap Snapshot) ([]domain.Member, error) {
	children := snap.Children()
	out := make([]domain.Member, 0, len(children))
	var errs []error
	for _, c := range children {
		m, err := DecodeMember(c)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, m)
	}
	return out, errors.Join(errs...)
}
