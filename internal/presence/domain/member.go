package domain

import (
	"strings"
	"time"
)

// Member is a user's profile plus their status record, as stored under
// users/{id}.
type Member struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time

	StatusRecord
}

// NewMember builds the record written on account creation. The display name
// is the local part of the email address.
func NewMember(id, email string, now time.Time) Member {
	return Member{
		ID:        id,
		Name:      DisplayNameFromEmail(email),
		Email:     email,
		CreatedAt: now,
		StatusRecord: StatusRecord{
			Status:    DefaultStatus,
			UpdatedAt: now,
		},
	}
}

// DisplayNameFromEmail returns everything before the @.
func DisplayNameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

// Team groups members sharing a code. Immutable once created.
type Team struct {
	Code      string
	Name      string
	CreatedAt time.Time
	CreatedBy string
}
