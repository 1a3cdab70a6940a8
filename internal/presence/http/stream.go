package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/presence/internal/presence/domain"
	"github.com/aussiebroadwan/presence/internal/presence/service"
	"github.com/aussiebroadwan/presence/pkg/slogx"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10

	// Clients only send control frames.
	maxInboundBytes = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Streams are authorised by bearer token, not cookies.
	CheckOrigin: func(*http.Request) bool { return true },
}

// StreamEvent is one websocket text frame.
type StreamEvent struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

const (
	EventMembers = "members"
	EventMember  = "member"
	EventInbox   = "inbox"
	EventUnread  = "unread"
)

// StreamHandler pushes live views over websockets. Each connection owns one
// feed, closed when either side goes away or the user signs out.
type StreamHandler struct {
	clientHandler
}

// HandleTeam streams the team view, or a single member with ?member=<id>.
//
//	@Summary	Live team view (websocket)
//	@Tags		Streams
//	@Security	BearerAuth
//	@Param		member			query	string	false	"stream a single member instead"
//	@Param		access_token	query	string	false	"bearer token for browsers"
//	@Success	101
//	@Router		/v1/team/stream [get].
func (h *StreamHandler) HandleTeam(w http.ResponseWriter, r *http.Request) {
	c := h.client(w, r)
	if c == nil {
		return
	}

	if id := r.URL.Query().Get("member"); id != "" {
		feed, err := c.Observer.ObserveMember(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		serveFeed(w, r, EventMember, feed, func(m *domain.Member) any {
			if m == nil {
				return nil
			}
			return toMember(*m)
		})
		return
	}

	feed, err := c.Observer.ObserveTeam(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	serveFeed(w, r, EventMembers, feed, func(ms []domain.Member) any { return toMembers(ms) })
}

// HandleNotifications streams the unread badge, or the whole inbox with
// ?view=inbox.
//
//	@Summary	Live unread badge or inbox (websocket)
//	@Tags		Streams
//	@Security	BearerAuth
//	@Param		view			query	string	false	"inbox streams the whole inbox"
//	@Param		access_token	query	string	false	"bearer token for browsers"
//	@Success	101
//	@Router		/v1/notifications/stream [get].
func (h *StreamHandler) HandleNotifications(w http.ResponseWriter, r *http.Request) {
	c := h.client(w, r)
	if c == nil {
		return
	}

	if r.URL.Query().Get("view") == "inbox" {
		feed, err := c.Notifications.Watch(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		serveFeed(w, r, EventInbox, feed, func(ns []domain.Notification) any { return toNotifications(ns) })
		return
	}

	feed, err := c.Notifications.WatchUnread(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	serveFeed(w, r, EventUnread, feed, func(s service.UnreadState) any { return toUnread(s) })
}

func serveFeed[T any](w http.ResponseWriter, r *http.Request, kind string, feed *service.Feed[T], encode func(T) any) {
	defer feed.Close()
	log := slogx.FromContext(r.Context()).With(slog.String("stream", kind))

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered with an HTTP error.
		log.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}
	defer ws.Close()

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		ws.SetReadLimit(maxInboundBytes)
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Debug("websocket read ended", slog.Any("error", err))
				}
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case v, ok := <-feed.Updates():
			if !ok {
				msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "stream ended")
				_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
				return
			}
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteJSON(StreamEvent{Type: kind, Data: encode(v)}); err != nil {
				log.Debug("websocket write failed", slog.Any("error", err))
				return
			}
		case <-ping.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-gone:
			return
		}
	}
}
