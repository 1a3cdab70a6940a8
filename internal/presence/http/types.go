package http

import (
	"time"

	"github.com/aussiebroadwan/presence/internal/presence/domain"
	"github.com/aussiebroadwan/presence/internal/presence/service"
)

// Timestamps on the wire are epoch milliseconds.

type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Store string `json:"store"`
}

type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SessionResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

type PasswordResetRequest struct {
	Email string `json:"email"`
}

type PasswordResetConfirmRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// StatusRequest is a partial update. Omitted message keeps the stored one;
// clear_expiry wins over expires_at.
type StatusRequest struct {
	Status      string  `json:"status"`
	Message     *string `json:"message,omitempty"`
	ExpiresAt   *int64  `json:"expires_at,omitempty"`
	ClearExpiry bool    `json:"clear_expiry,omitempty"`
}

type StatusResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	ExpiresAt *int64 `json:"expires_at,omitempty"`
	UpdatedAt int64  `json:"updated_at"`
	TeamCode  string `json:"team_code,omitempty"`
}

type MemberResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	StatusResponse
}

type MembersResponse struct {
	Members []MemberResponse `json:"members"`
}

type CreateTeamRequest struct {
	Name string `json:"name"`
}

type JoinTeamRequest struct {
	Code string `json:"code"`
}

type TeamResponse struct {
	Code      string `json:"code"`
	Name      string `json:"name,omitempty"`
	CreatedAt int64  `json:"created_at,omitempty"`
	CreatedBy string `json:"created_by,omitempty"`
}

type SenderResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type NotificationResponse struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	From      *SenderResponse `json:"from,omitempty"`
	Timestamp int64           `json:"timestamp"`
	Read      bool            `json:"read"`
}

type NotificationsResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	Unread        int                    `json:"unread"`
}

type UnreadResponse struct {
	Count int  `json:"count"`
	Alert bool `json:"alert,omitempty"`
}

type MarkAllReadResponse struct {
	Marked int `json:"marked"`
}

type CreatedResponse struct {
	ID string `json:"id"`
}

func millis(t time.Time) int64 { return t.UnixMilli() }

func toStatus(r domain.StatusRecord) StatusResponse {
	out := StatusResponse{
		Status:    string(r.Status),
		Message:   r.Message,
		UpdatedAt: millis(r.UpdatedAt),
		TeamCode:  r.TeamCode,
	}
	if r.ExpiresAt != nil {
		ms := millis(*r.ExpiresAt)
		out.ExpiresAt = &ms
	}
	return out
}

func toMember(m domain.Member) MemberResponse {
	return MemberResponse{
		ID:             m.ID,
		Name:           m.Name,
		Email:          m.Email,
		StatusResponse: toStatus(m.StatusRecord),
	}
}

func toMembers(ms []domain.Member) MembersResponse {
	out := MembersResponse{Members: make([]MemberResponse, 0, len(ms))}
	for _, m := range ms {
		out.Members = append(out.Members, toMember(m))
	}
	return out
}

func toTeam(t domain.Team) TeamResponse {
	out := TeamResponse{Code: t.Code, Name: t.Name, CreatedBy: t.CreatedBy}
	if !t.CreatedAt.IsZero() {
		out.CreatedAt = millis(t.CreatedAt)
	}
	return out
}

func toNotification(n domain.Notification) NotificationResponse {
	out := NotificationResponse{
		ID:        n.ID,
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		Timestamp: millis(n.Timestamp),
		Read:      n.Read,
	}
	if n.From != nil {
		out.From = &SenderResponse{ID: n.From.ID, Name: n.From.Name}
	}
	return out
}

func toNotifications(ns []domain.Notification) NotificationsResponse {
	out := NotificationsResponse{
		Notifications: make([]NotificationResponse, 0, len(ns)),
		Unread:        domain.CountUnread(ns),
	}
	for _, n := range ns {
		out.Notifications = append(out.Notifications, toNotification(n))
	}
	return out
}

func toUnread(s service.UnreadState) UnreadResponse {
	return UnreadResponse{Count: s.Count, Alert: s.Alert}
}
