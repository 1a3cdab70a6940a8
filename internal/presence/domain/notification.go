package domain

import "time"

type NotificationType string

const (
	NotificationStatusRequest NotificationType = "status_request"
	NotificationTeamInvite    NotificationType = "team_invite"
	NotificationStatusChange  NotificationType = "status_change"
	NotificationReminder      NotificationType = "reminder"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationStatusRequest, NotificationTeamInvite, NotificationStatusChange, NotificationReminder:
		return true
	}
	return false
}

// ParseNotificationType validates a wire value.
func ParseNotificationType(s string) (NotificationType, error) {
	t := NotificationType(s)
	if !t.Valid() {
		return "", NewValidationError("type", "must be one of status_request, team_invite, status_change, reminder")
	}
	return t, nil
}

// Sender identifies who created a notification.
type Sender struct {
	ID   string
	Name string
}

// Notification is one inbox entry. The recipient is the storage partition,
// not a field.
type Notification struct {
	ID        string
	Type      NotificationType
	Title     string
	Message   string
	From      *Sender
	Timestamp time.Time
	Read      bool
}

// CountUnread returns how many entries have not been read.
func CountUnread(ns []Notification) int {
	n := 0
	for _, x := range ns {
		if !x.Read {
			n++
		}
	}
	return n
}
