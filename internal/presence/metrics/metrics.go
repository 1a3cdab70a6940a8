// Package metrics holds the prometheus collectors of the presence gateway.
// Every method is safe to call on a nil *Metrics, which records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "presence"

// Result labels.
const (
	ResultOK       = "ok"
	ResultFailed   = "failed"
	ResultReverted = "reverted"
	ResultAborted  = "aborted"
)

type Metrics struct {
	registry *prometheus.Registry

	statusWrites      *prometheus.CounterVec
	expiryReverts     *prometheus.CounterVec
	expiryArmed       prometheus.Gauge
	notificationsSent *prometheus.CounterVec
	subscriptions     prometheus.Gauge
}

// New registers the collectors on a fresh registry, along with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		statusWrites: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_writes_total",
			Help:      "Status writes by result.",
		}, []string{"result"}),
		expiryReverts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expiry_reverts_total",
			Help:      "Expiry timer firings by outcome.",
		}, []string{"result"}),
		expiryArmed: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "expiry_armed",
			Help:      "Expiry timers currently pending.",
		}),
		notificationsSent: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Notifications delivered to an inbox, by type.",
		}, []string{"type"}),
		subscriptions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subscriptions_active",
			Help:      "Open store subscriptions.",
		}),
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) StatusWrite(result string) {
	if m == nil {
		return
	}
	m.statusWrites.WithLabelValues(result).Inc()
}

func (m *Metrics) ExpiryRevert(result string) {
	if m == nil {
		return
	}
	m.expiryReverts.WithLabelValues(result).Inc()
}

// ExpiryArmed moves the pending timer gauge by delta.
func (m *Metrics) ExpiryArmed(delta float64) {
	if m == nil {
		return
	}
	m.expiryArmed.Add(delta)
}

func (m *Metrics) NotificationSent(kind string) {
	if m == nil {
		return
	}
	m.notificationsSent.WithLabelValues(kind).Inc()
}

func (m *Metrics) SubscriptionOpened() {
	if m == nil {
		return
	}
	m.subscriptions.Inc()
}

func (m *Metrics) SubscriptionClosed() {
	if m == nil {
		return
	}
	m.subscriptions.Dec()
}
