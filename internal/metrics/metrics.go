// Package metrics exposes Prometheus metrics for the HTTP API and the booking
// lifecycle.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors of one server instance. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	BookingsCreated  prometheus.Counter
	BookingsChanged  *prometheus.CounterVec
	TrackingLookups  *prometheus.CounterVec
	PositionsEmitted prometheus.Counter
}

// New creates the collectors on a private registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "luxdrive_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status code",
		}, []string{"method", "route", "status"}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "luxdrive_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),

		BookingsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "luxdrive_bookings_created_total",
			Help: "Total number of bookings created",
		}),

		BookingsChanged: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "luxdrive_booking_status_changes_total",
			Help: "Total number of booking status changes by target status",
		}, []string{"status"}),

		TrackingLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "luxdrive_tracking_lookups_total",
			Help: "Total number of tracking code lookups by result",
		}, []string{"result"}),

		PositionsEmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "luxdrive_positions_emitted_total",
			Help: "Total number of simulated GPS fixes handed out",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Middleware records request count and latency. Routes are labelled by their
// pattern (/api/bookings/:id/cancel) to keep cardinality bounded.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.RequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) BookingCreated() {
	if m == nil {
		return
	}
	m.BookingsCreated.Inc()
}

func (m *Metrics) StatusChanged(status string) {
	if m == nil {
		return
	}
	m.BookingsChanged.WithLabelValues(status).Inc()
}

func (m *Metrics) TrackingLookup(found bool) {
	if m == nil {
		return
	}
	result := "found"
	if !found {
		result = "not_found"
	}
	m.TrackingLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) PositionEmitted() {
	if m == nil {
		return
	}
	m.PositionsEmitted.Inc()
}
