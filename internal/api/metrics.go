package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nerrad567/local-api-gateway/internal/stream"
)

// metricsNamespace prefixes every gateway metric.
const metricsNamespace = "localapi"

// Metrics holds the gateway's Prometheus collectors. One Metrics outlives
// restarts of the HTTP server, so counters keep accumulating.
type Metrics struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	disabled *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them, together with the
// Go runtime and process collectors, on a private registry. hub may be nil.
func NewMetrics(hub *stream.Hub) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route. Streams are excluded.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		disabled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "endpoint",
			Name:      "disabled_total",
			Help:      "Requests refused because the capability is disabled.",
		}, []string{"endpoint"}),
	}

	m.registry.MustRegister(
		m.requests,
		m.duration,
		m.disabled,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if hub != nil {
		m.registry.MustRegister(
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: "stream",
				Name:      "clients",
				Help:      "Currently subscribed position stream clients.",
			}, func() float64 { return float64(hub.ClientCount()) }),
			prometheus.NewCounterFunc(prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "stream",
				Name:      "evicted_total",
				Help:      "Stream clients removed after a failed delivery.",
			}, func() float64 { return float64(hub.Stats().Evicted) }),
			prometheus.NewCounterFunc(prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "stream",
				Name:      "events_delivered_total",
				Help:      "Events accepted by stream clients.",
			}, func() float64 { return float64(hub.Stats().Delivered) }),
		)
	}

	return m
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// observe records one finished request. Long-lived streams count as
// requests but stay out of the latency histogram.
func (m *Metrics) observe(route, method string, status int, elapsed time.Duration, streaming bool) {
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	if !streaming {
		m.duration.WithLabelValues(route).Observe(elapsed.Seconds())
	}
}

func (m *Metrics) endpointDisabled(name string) {
	m.disabled.WithLabelValues(name).Inc()
}
