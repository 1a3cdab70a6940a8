package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/presence/internal/presence/metrics"
	"github.com/aussiebroadwan/presence/internal/presence/service"
	"github.com/aussiebroadwan/presence/internal/presence/store"
	"github.com/aussiebroadwan/presence/pkg/httpx"
	"github.com/aussiebroadwan/presence/pkg/identity"
	"github.com/aussiebroadwan/presence/pkg/slogx"

	_ "github.com/aussiebroadwan/presence/api/presence" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store    *store.Tree
	metrics  *metrics.Metrics
	provider *identity.Provider
	accounts *service.AccountService
	pool     *ClientPool
}

func NewRouter(
	buildVersion string,
	st *store.Tree,
	provider *identity.Provider,
	accounts *service.AccountService,
	pool *ClientPool,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		store:        st,
		metrics:      m,
		provider:     provider,
		accounts:     accounts,
		pool:         pool,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}
	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerStatus()
	r.registerTeams()
	r.registerMembers()
	r.registerNotifications()
	r.registerStreams()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Presence API
//	@version		0.1.0
//	@description	Team presence: own status with auto-expiry, live team view, status request notifications and team membership.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/presence
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Session token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// public wraps an anonymous endpoint, limited by IP.
func (r *Router) public(h http.HandlerFunc, limit httpx.RateLimitConfig) http.Handler {
	return httpx.Chain(h, httpx.RateLimitByIP(limit))
}

// secured wraps an endpoint that needs a session, limited by user.
func (r *Router) secured(h http.HandlerFunc, limit httpx.RateLimitConfig) http.Handler {
	return httpx.Chain(h,
		httpx.AuthnMiddleware(r.provider),
		httpx.RateLimitByUser(limit),
	)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{Provider: r.provider, Accounts: r.accounts, Pool: r.pool}

	// Credential endpoints share the strict profile per IP.
	r.Mux.Handle("POST /v1/auth/signup", r.public(h.HandleSignUp, httpx.AuthLimit))
	r.Mux.Handle("POST /v1/auth/signin", r.public(h.HandleSignIn, httpx.AuthLimit))
	r.Mux.Handle("POST /v1/auth/password-reset", r.public(h.HandlePasswordReset, httpx.AuthLimit))
	r.Mux.Handle("POST /v1/auth/password-reset/confirm", r.public(h.HandlePasswordResetConfirm, httpx.AuthLimit))

	r.Mux.Handle("POST /v1/auth/signout", r.secured(h.HandleSignOut, httpx.WriteLimit))
}

func (r *Router) registerStatus() {
	h := &StatusHandler{clientHandler{Pool: r.pool}}

	r.Mux.Handle("GET /v1/status", r.secured(h.HandleGet, httpx.ReadLimit))
	r.Mux.Handle("PUT /v1/status", r.secured(h.HandlePut, httpx.WriteLimit))
}

func (r *Router) registerTeams() {
	h := &TeamHandler{clientHandler{Pool: r.pool}}

	r.Mux.Handle("POST /v1/teams", r.secured(h.HandleCreate, httpx.WriteLimit))
	r.Mux.Handle("POST /v1/teams/join", r.secured(h.HandleJoin, httpx.WriteLimit))
	r.Mux.Handle("GET /v1/teams/{code}", r.secured(h.HandleGet, httpx.ReadLimit))
}

func (r *Router) registerMembers() {
	h := &MemberHandler{clientHandler{Pool: r.pool}}

	r.Mux.Handle("GET /v1/team/members", r.secured(h.HandleList, httpx.ReadLimit))
	r.Mux.Handle("GET /v1/team/members/{id}", r.secured(h.HandleGet, httpx.ReadLimit))
	r.Mux.Handle("POST /v1/members/{id}/status-request", r.secured(h.HandleStatusRequest, httpx.WriteLimit))
}

func (r *Router) registerNotifications() {
	h := &NotificationHandler{clientHandler{Pool: r.pool}}

	r.Mux.Handle("GET /v1/notifications", r.secured(h.HandleList, httpx.ReadLimit))
	r.Mux.Handle("GET /v1/notifications/unread", r.secured(h.HandleUnread, httpx.ReadLimit))
	r.Mux.Handle("POST /v1/notifications/read-all", r.secured(h.HandleMarkAllRead, httpx.WriteLimit))
	r.Mux.Handle("POST /v1/notifications/{id}/read", r.secured(h.HandleMarkRead, httpx.WriteLimit))
	r.Mux.Handle("DELETE /v1/notifications/{id}", r.secured(h.HandleDelete, httpx.WriteLimit))
	r.Mux.Handle("DELETE /v1/notifications", r.secured(h.HandleClear, httpx.WriteLimit))
}

func (r *Router) registerStreams() {
	h := &StreamHandler{clientHandler{Pool: r.pool}}

	r.Mux.Handle("GET /v1/team/stream", r.secured(h.HandleTeam, httpx.ReadLimit))
	r.Mux.Handle("GET /v1/notifications/stream", r.secured(h.HandleNotifications, httpx.ReadLimit))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))
	if r.metrics != nil {
		r.Mux.Handle("GET /metrics", r.metrics.Handler())
	}
}
