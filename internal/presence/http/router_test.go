package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/presence/internal/presence/client"
	"github.com/aussiebroadwan/presence/internal/presence/clock/clocktest"
	presencehttp "github.com/aussiebroadwan/presence/internal/presence/http"
	"github.com/aussiebroadwan/presence/internal/presence/metrics"
	"github.com/aussiebroadwan/presence/internal/presence/service"
	"github.com/aussiebroadwan/presence/internal/presence/store"
	"github.com/aussiebroadwan/presence/internal/presence/store/drivers/memory"
	"github.com/aussiebroadwan/presence/pkg/cryptox"
	"github.com/aussiebroadwan/presence/pkg/httpx"
	"github.com/aussiebroadwan/presence/pkg/identity"
	"github.com/aussiebroadwan/presence/pkg/slogx"
	"github.com/stretchr/testify/require"
)

var epoch = time.UnixMilli(1_700_000_000_000).UTC()

func TestMain(m *testing.M) {
	cryptox.SetPepper("http-test-pepper-0123456789abcdef")
	relaxed := httpx.RateLimitConfig{RequestsPerWindow: 10_000, Window: time.Minute, Burst: 10_000}
	httpx.AuthLimit, httpx.WriteLimit, httpx.ReadLimit = relaxed, relaxed, relaxed
	m.Run()
}

type harness struct {
	t       *testing.T
	backend *memory.Backend
	tree    *store.Tree
	clock   *clocktest.Fake
	pool    *presencehttp.ClientPool
	srv     *httptest.Server
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	backend := memory.New()
	tree := store.New(backend)
	clk := clocktest.NewFake(epoch)
	log := slogx.Discard()
	m := metrics.New()

	provider, err := identity.NewProvider(tree.Accounts(), identity.Config{
		Secret: []byte("0123456789abcdef0123456789abcdef"),
		Now:    clk.Now,
	})
	require.NoError(t, err)

	accounts := &service.AccountService{Identity: provider, Store: tree, Clock: clk, Logger: log}
	pool := presencehttp.NewClientPool(provider, accounts, client.Deps{
		Store: tree, Clock: clk, Logger: log, Metrics: m,
	})

	router := presencehttp.NewRouter("test", tree, provider, accounts, pool, m, log)
	router.ApplyRoutes()
	srv := httptest.NewServer(router)

	t.Cleanup(func() {
		srv.Close()
		pool.Close()
		_ = tree.Close()
	})
	return &harness{t: t, backend: backend, tree: tree, clock: clk, pool: pool, srv: srv}
}

// do sends a JSON request and decodes a JSON response into out when given.
func (h *harness) do(method, path, token string, body, out any) int {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, h.srv.URL+path, &buf)
	require.NoError(h.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := h.srv.Client().Do(req)
	require.NoError(h.t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(h.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (h *harness) signUp(email string) presencehttp.SessionResponse {
	h.t.Helper()
	var s presencehttp.SessionResponse
	code := h.do(http.MethodPost, "/v1/auth/signup", "", presencehttp.CredentialsRequest{Email: email, Password: "hunter22"}, &s)
	require.Equal(h.t, http.StatusCreated, code)
	require.NotEmpty(h.t, s.Token)
	return s
}

func TestSignUpAndStatusRoundTrip(t *testing.T) {
	h := newHarness(t)
	alice := h.signUp("alice@example.com")
	require.Equal(t, "alice", alice.Name)

	var st presencehttp.StatusResponse
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/v1/status", alice.Token, nil, &st))
	require.Equal(t, "available", st.Status)
	require.Nil(t, st.ExpiresAt)

	msg := "heads down"
	at := epoch.Add(time.Hour).UnixMilli()
	require.Equal(t, http.StatusOK, h.do(http.MethodPut, "/v1/status", alice.Token,
		presencehttp.StatusRequest{Status: "busy", Message: &msg, ExpiresAt: &at}, &st))
	require.Equal(t, "busy", st.Status)
	require.Equal(t, msg, st.Message)
	require.Equal(t, &at, st.ExpiresAt)

	// Omitted message is kept, clear_expiry drops the expiry.
	require.Equal(t, http.StatusOK, h.do(http.MethodPut, "/v1/status", alice.Token,
		presencehttp.StatusRequest{Status: "meeting", ClearExpiry: true}, &st))
	require.Equal(t, "meeting", st.Status)
	require.Equal(t, msg, st.Message)
	require.Nil(t, st.ExpiresAt)
}

func TestStatusExpiresThroughClient(t *testing.T) {
	h := newHarness(t)
	alice := h.signUp("alice@example.com")

	at := epoch.Add(time.Minute).UnixMilli()
	require.Equal(t, http.StatusOK, h.do(http.MethodPut, "/v1/status", alice.Token,
		presencehttp.StatusRequest{Status: "away", ExpiresAt: &at}, nil))

	h.clock.Advance(time.Minute)

	var st presencehttp.StatusResponse
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/v1/status", alice.Token, nil, &st))
	require.Equal(t, "available", st.Status)
	require.Nil(t, st.ExpiresAt)
}

func TestErrorMapping(t *testing.T) {
	h := newHarness(t)
	alice := h.signUp("alice@example.com")

	var body httpx.ErrorBody
	require.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/v1/status", "", nil, &body))
	require.Equal(t, "AUTH_REQUIRED", body.Error)

	require.Equal(t, http.StatusBadRequest, h.do(http.MethodPut, "/v1/status", alice.Token,
		presencehttp.StatusRequest{Status: "asleep"}, &body))
	require.Equal(t, "VALIDATION", body.Error)

	past := epoch.Add(-time.Minute).UnixMilli()
	require.Equal(t, http.StatusBadRequest, h.do(http.MethodPut, "/v1/status", alice.Token,
		presencehttp.StatusRequest{Status: "busy", ExpiresAt: &past}, &body))
	require.Equal(t, "VALIDATION", body.Error)

	future := epoch.Add(time.Hour).UnixMilli()
	require.Equal(t, http.StatusBadRequest, h.do(http.MethodPut, "/v1/status", alice.Token,
		presencehttp.StatusRequest{Status: "busy", ExpiresAt: &future, ClearExpiry: true}, &body))
	require.Equal(t, "VALIDATION", body.Error)

	var current presencehttp.StatusResponse
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/v1/status", alice.Token, nil, &current))
	require.Equal(t, "available", current.Status, "a rejected update leaves the status alone")

	require.Equal(t, http.StatusNotFound, h.do(http.MethodPost, "/v1/teams/join", alice.Token,
		presencehttp.JoinTeamRequest{Code: "TEAM-NOPE00"}, &body))
	require.Equal(t, "TEAM_NOT_FOUND", body.Error)

	require.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/v1/team/members/ghost", alice.Token, nil, &body))
	require.Equal(t, "NOT_FOUND", body.Error)

	require.Equal(t, http.StatusConflict, h.do(http.MethodPost, "/v1/auth/signup", "",
		presencehttp.CredentialsRequest{Email: "alice@example.com", Password: "hunter22"}, &body))
	require.Equal(t, "EMAIL_IN_USE", body.Error)

	require.Equal(t, http.StatusUnauthorized, h.do(http.MethodPost, "/v1/auth/signin", "",
		presencehttp.CredentialsRequest{Email: "alice@example.com", Password: "wrong-one"}, &body))
	require.Equal(t, "INVALID_CREDENTIALS", body.Error)

	h.backend.FailNextApply(store.ErrClosed)
	require.Equal(t, http.StatusServiceUnavailable, h.do(http.MethodPut, "/v1/status", alice.Token,
		presencehttp.StatusRequest{Status: "busy"}, &body))
	require.Equal(t, "PERSISTENCE", body.Error)
}

func TestTeamsAndMembers(t *testing.T) {
	h := newHarness(t)
	alice := h.signUp("alice@example.com")
	bob := h.signUp("bob@example.com")

	var team presencehttp.TeamResponse
	require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/v1/teams", alice.Token,
		presencehttp.CreateTeamRequest{Name: "  Platform  "}, &team))
	require.True(t, strings.HasPrefix(team.Code, "TEAM-"))
	require.Equal(t, "Platform", team.Name)
	require.Equal(t, alice.UserID, team.CreatedBy)

	var got presencehttp.TeamResponse
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/v1/teams/"+team.Code, bob.Token, nil, &got))
	require.Equal(t, team, got)

	require.Equal(t, http.StatusNoContent, h.do(http.MethodPost, "/v1/teams/join", bob.Token,
		presencehttp.JoinTeamRequest{Code: team.Code}, nil))

	var members presencehttp.MembersResponse
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/v1/team/members", bob.Token, nil, &members))
	require.Len(t, members.Members, 1)
	require.Equal(t, alice.UserID, members.Members[0].ID)
	require.Equal(t, team.Code, members.Members[0].TeamCode)

	var m presencehttp.MemberResponse
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/v1/team/members/"+alice.UserID, bob.Token, nil, &m))
	require.Equal(t, "alice", m.Name)
}

func TestNotificationsFlow(t *testing.T) {
	h := newHarness(t)
	alice := h.signUp("alice@example.com")
	bob := h.signUp("bob@example.com")

	var created presencehttp.CreatedResponse
	require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/v1/members/"+bob.UserID+"/status-request", alice.Token, nil, &created))
	require.NotEmpty(t, created.ID)

	var unread presencehttp.UnreadResponse
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/v1/notifications/unread", bob.Token, nil, &unread))
	require.Equal(t, 1, unread.Count)

	var inbox presencehttp.NotificationsResponse
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/v1/notifications", bob.Token, nil, &inbox))
	require.Len(t, inbox.Notifications, 1)
	n := inbox.Notifications[0]
	require.Equal(t, "status_request", n.Type)
	require.Equal(t, "Status request", n.Title)
	require.Equal(t, "alice would like to know your current status", n.Message)
	require.Equal(t, &presencehttp.SenderResponse{ID: alice.UserID, Name: "alice"}, n.From)

	require.Equal(t, http.StatusNoContent, h.do(http.MethodPost, "/v1/notifications/"+n.ID+"/read", bob.Token, nil, nil))
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/v1/notifications/unread", bob.Token, nil, &unread))
	require.Zero(t, unread.Count)

	h.do(http.MethodPost, "/v1/members/"+bob.UserID+"/status-request", alice.Token, nil, nil)
	h.do(http.MethodPost, "/v1/members/"+bob.UserID+"/status-request", alice.Token, nil, nil)

	var marked presencehttp.MarkAllReadResponse
	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/v1/notifications/read-all", bob.Token, nil, &marked))
	require.Equal(t, 2, marked.Marked)

	require.Equal(t, http.StatusNoContent, h.do(http.MethodDelete, "/v1/notifications/"+n.ID, bob.Token, nil, nil))
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/v1/notifications", bob.Token, nil, &inbox))
	require.Len(t, inbox.Notifications, 2)

	require.Equal(t, http.StatusNoContent, h.do(http.MethodDelete, "/v1/notifications", bob.Token, nil, nil))
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/v1/notifications", bob.Token, nil, &inbox))
	require.Empty(t, inbox.Notifications)
}

func TestSignOutReleasesClient(t *testing.T) {
	h := newHarness(t)
	alice := h.signUp("alice@example.com")

	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/v1/status", alice.Token, nil, nil))
	require.Equal(t, 1, h.pool.Len())

	require.Equal(t, http.StatusNoContent, h.do(http.MethodPost, "/v1/auth/signout", alice.Token, nil, nil))
	require.Eventually(t, func() bool { return h.pool.Len() == 0 }, time.Second, 10*time.Millisecond)

	var body httpx.ErrorBody
	require.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/v1/status", alice.Token, nil, &body))

	var again presencehttp.SessionResponse
	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/v1/auth/signin", "",
		presencehttp.CredentialsRequest{Email: "alice@example.com", Password: "hunter22"}, &again))
	require.Equal(t, alice.UserID, again.UserID)
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/v1/status", again.Token, nil, nil))
}

func TestTokenExpiryReleasesClient(t *testing.T) {
	h := newHarness(t)
	alice := h.signUp("alice@example.com")

	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/v1/status", alice.Token, nil, nil))
	require.Equal(t, 1, h.pool.Len())

	// A token issued halfway through keeps the client past the first one.
	h.clock.Advance(12 * time.Hour)
	var fresh presencehttp.SessionResponse
	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/v1/auth/signin", "",
		presencehttp.CredentialsRequest{Email: "alice@example.com", Password: "hunter22"}, &fresh))
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/v1/status", fresh.Token, nil, nil))

	h.clock.Advance(12*time.Hour + time.Minute)
	require.Equal(t, 1, h.pool.Len())

	var body httpx.ErrorBody
	require.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/v1/status", alice.Token, nil, &body))

	h.clock.Advance(12 * time.Hour)
	require.Equal(t, 0, h.pool.Len(), "client is released once every seen token has expired")
	require.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/v1/status", fresh.Token, nil, &body))
}

func TestSystemEndpoints(t *testing.T) {
	h := newHarness(t)

	var health presencehttp.HealthResponse
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/livez", "", nil, &health))
	require.Equal(t, "ok", health.Status)

	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/readyz", "", nil, &health))
	require.Equal(t, "ok", health.Checks.Store)

	resp, err := h.srv.Client().Get(h.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestReadyzDegradesWhenStoreClosed(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.tree.Close())

	var health presencehttp.HealthResponse
	require.Equal(t, http.StatusServiceUnavailable, h.do(http.MethodGet, "/readyz", "", nil, &health))
	require.Equal(t, "degraded", health.Status)
}

func TestSwaggerDocsServed(t *testing.T) {
	h := newHarness(t)

	resp, err := h.srv.Client().Get(h.srv.URL + "/swagger/doc.json")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var doc struct {
		Paths map[string]any `json:"paths"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	require.Contains(t, doc.Paths, "/v1/status")
	require.Contains(t, doc.Paths, "/v1/team/stream")
}
