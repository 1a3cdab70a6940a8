package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aussiebroadwan/presence/internal/presence/metrics"
	"github.com/aussiebroadwan/presence/internal/presence/store"
	"github.com/stretchr/testify/require"
)

var _ store.SubscriptionObserver = (*metrics.Metrics)(nil)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *metrics.Metrics
	require.NotPanics(t, func() {
		m.StatusWrite(metrics.ResultOK)
		m.ExpiryRevert(metrics.ResultAborted)
		m.ExpiryArmed(1)
		m.NotificationSent("reminder")
		m.SubscriptionOpened()
		m.SubscriptionClosed()
	})
}

func TestCollectorsAreExposed(t *testing.T) {
	m := metrics.New()
	m.StatusWrite(metrics.ResultOK)
	m.StatusWrite(metrics.ResultOK)
	m.ExpiryArmed(1)
	m.SubscriptionOpened()
	m.NotificationSent("status_request")

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		if strings.HasPrefix(f.GetName(), "presence_") {
			names = append(names, f.GetName())
		}
	}
	require.ElementsMatch(t, []string{
		"presence_status_writes_total",
		"presence_expiry_armed",
		"presence_subscriptions_active",
		"presence_notifications_sent_total",
	}, names, "unobserved vectors are not exported yet")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, `presence_status_writes_total{result="ok"} 2`)
	require.Contains(t, body, "presence_expiry_armed 1")
	require.Contains(t, body, "presence_subscriptions_active 1")
	require.Contains(t, body, `presence_notifications_sent_total{type="status_request"} 1`)
}
