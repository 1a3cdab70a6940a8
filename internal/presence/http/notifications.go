package http

import (
	"net/http"

	"github.com/aussiebroadwan/presence/pkg/httpx"
)

// NotificationHandler manages the caller's inbox.
type NotificationHandler struct {
	clientHandler
}

// HandleList godoc
//
//	@Summary	Inbox, newest first
//	@Tags		Notifications
//	@Security	BearerAuth
//	@Produce	json
//	@Success	200	{object}	NotificationsResponse
//	@Router		/v1/notifications [get].
func (h *NotificationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	c := h.client(w, r)
	if c == nil {
		return
	}

	list, err := c.Notifications.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toNotifications(list))
}

// HandleUnread godoc
//
//	@Summary	Unread count
//	@Tags		Notifications
//	@Security	BearerAuth
//	@Produce	json
//	@Success	200	{object}	UnreadResponse
//	@Router		/v1/notifications/unread [get].
func (h *NotificationHandler) HandleUnread(w http.ResponseWriter, r *http.Request) {
	c := h.client(w, r)
	if c == nil {
		return
	}

	n, err := c.Notifications.UnreadCount(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, UnreadResponse{Count: n})
}

// HandleMarkRead godoc
//
//	@Summary	Mark one notification read
//	@Tags		Notifications
//	@Security	BearerAuth
//	@Param		id	path	string	true	"notification id"
//	@Success	204
//	@Router		/v1/notifications/{id}/read [post].
func (h *NotificationHandler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	c := h.client(w, r)
	if c == nil {
		return
	}

	if err := c.Notifications.MarkRead(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleMarkAllRead godoc
//
//	@Summary	Mark every notification read
//	@Tags		Notifications
//	@Security	BearerAuth
//	@Produce	json
//	@Success	200	{object}	MarkAllReadResponse
//	@Router		/v1/notifications/read-all [post].
func (h *NotificationHandler) HandleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	c := h.client(w, r)
	if c == nil {
		return
	}

	n, err := c.Notifications.MarkAllRead(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, MarkAllReadResponse{Marked: n})
}

// HandleDelete godoc
//
//	@Summary	Delete one notification
//	@Tags		Notifications
//	@Security	BearerAuth
//	@Param		id	path	string	true	"notification id"
//	@Success	204
//	@Router		/v1/notifications/{id} [delete].
func (h *NotificationHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	c := h.client(w, r)
	if c == nil {
		return
	}

	if err := c.Notifications.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleClear godoc
//
//	@Summary	Clear the inbox
//	@Tags		Notifications
//	@Security	BearerAuth
//	@Success	204
//	@Router		/v1/notifications [delete].
func (h *NotificationHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	c := h.client(w, r)
	if c == nil {
		return
	}

	if err := c.Notifications.ClearAll(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
