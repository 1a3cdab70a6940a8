package domain

import "time"

// Status is a user's published availability.
type Status string

const (
	StatusAvailable Status = "available"
	StatusBusy      Status = "busy"
	StatusMeeting   Status = "meeting"
	StatusAway      Status = "away"
)

// DefaultStatus applies to new records and to expired ones.
const DefaultStatus = StatusAvailable

var statuses = []Status{StatusAvailable, StatusBusy, StatusMeeting, StatusAway}

// Statuses lists every valid status in display order.
func Statuses() []Status {
	return append([]Status(nil), statuses...)
}

func (s Status) Valid() bool {
	for _, v := range statuses {
		if s == v {
			return true
		}
	}
	return false
}

// ParseStatus validates a wire value.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", NewValidationError("status", "must be one of available, busy, meeting, away")
	}
	return st, nil
}

// StatusRecord is the presence half of a user record.
type StatusRecord struct {
	Status    Status
	Message   string
	ExpiresAt *time.Time
	UpdatedAt time.Time
	TeamCode  string
}

// HasExpiry reports whether an auto-revert instant is set.
func (r StatusRecord) HasExpiry() bool {
	return r.ExpiresAt != nil
}

// Expired reports whether the expiry instant is at or before now.
func (r StatusRecord) Expired(now time.Time) bool {
	return r.ExpiresAt != nil && !r.ExpiresAt.After(now)
}

// WithDefaults fills in the fields a sparse stored record may be missing.
func (r StatusRecord) WithDefaults() StatusRecord {
	if !r.Status.Valid() {
		r.Status = DefaultStatus
	}
	return r
}

// Normalize returns the record as an observer at now must see it: defaults
// applied and a passed expiry collapsed to the default status. The message is
// kept.
func (r StatusRecord) Normalize(now time.Time) StatusRecord {
	r = r.WithDefaults()
	if r.Expired(now) {
		r.Status = DefaultStatus
		r.ExpiresAt = nil
	}
	return r
}

// Equal compares records field by field, instants at millisecond precision.
func (r StatusRecord) Equal(o StatusRecord) bool {
	if r.Status != o.Status || r.Message != o.Message || r.TeamCode != o.TeamCode {
		return false
	}
	if r.UpdatedAt.UnixMilli() != o.UpdatedAt.UnixMilli() {
		return false
	}
	return SameInstant(r.ExpiresAt, o.ExpiresAt)
}

// SameInstant compares two optional instants at millisecond precision.
func SameInstant(a, b *time.Time) bool {
	switch {
	case a == nil && b == nil:
		return true
	case a == nil || b == nil:
		return false
	default:
		return a.UnixMilli() == b.UnixMilli()
	}
}

// StatusPatch is a partial update. Status and UpdatedAt are always written;
// Message and ExpiresAt only when set. ClearExpiry removes the expiry.
type StatusPatch struct {
	Status      Status
	UpdatedAt   time.Time
	Message     *string
	ExpiresAt   *time.Time
	ClearExpiry bool
}

// Apply returns r with the patch merged in.
func (p StatusPatch) Apply(r StatusRecord) StatusRecord {
	r.Status = p.Status
	r.UpdatedAt = p.UpdatedAt
	if p.Message != nil {
		r.Message = *p.Message
	}
	switch {
	case p.ClearExpiry:
		r.ExpiresAt = nil
	case p.ExpiresAt != nil:
		t := *p.ExpiresAt
		r.ExpiresAt = &t
	}
	return r
}
