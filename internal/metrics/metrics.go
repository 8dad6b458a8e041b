package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wb-go/wbf/ginext"
)

const namespace = "tedx"

// Metrics holds every collector on its own registry, so several instances
// (one per test) never collide on registration.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	registrations     prometheus.Counter
	ticketsReplied    prometheus.Counter
	adminLogins       *prometheus.CounterVec
	paymentUpdates    *prometheus.CounterVec
	publishFailures   prometheus.Counter
	activeSessionsSet bool
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_created_total",
			Help:      "Registrations accepted.",
		}),
		ticketsReplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "support_tickets_replied_total",
			Help:      "Support tickets closed with an admin reply.",
		}),
		adminLogins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admin_logins_total",
			Help:      "Admin login attempts by result.",
		}, []string{"result"}),
		paymentUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_updates_total",
			Help:      "Payment status updates applied from the broker.",
		}, []string{"status"}),
		publishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_publish_failures_total",
			Help:      "Domain events that could not be published.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.registrations,
		m.ticketsReplied,
		m.adminLogins,
		m.paymentUpdates,
		m.publishFailures,
	)
	return m
}

// TrackActiveSessions exposes count() as the tedx_active_sessions gauge.
func (m *Metrics) TrackActiveSessions(count func() int) {
	if m.activeSessionsSet {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Sessions currently held in memory.",
	}, func() float64 { return float64(count()) }))
	m.activeSessionsSet = true
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records count and latency per matched route. Unmatched paths are
// folded into one label to keep cardinality bounded.
func (m *Metrics) Middleware() ginext.HandlerFunc {
	return func(c *ginext.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) RegistrationCreated() {
	m.registrations.Inc()
}

func (m *Metrics) TicketReplied() {
	m.ticketsReplied.Inc()
}

func (m *Metrics) AdminLogin(ok bool) {
	result := "failure"
	if ok {
		result = "success"
	}
	m.adminLogins.WithLabelValues(result).Inc()
}

func (m *Metrics) PaymentUpdated(status string) {
	m.paymentUpdates.WithLabelValues(status).Inc()
}

func (m *Metrics) PublishFailed() {
	m.publishFailures.Inc()
}
