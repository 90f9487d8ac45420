// Package metrics exposes relay counters to Prometheus.
//
// A nil *Metrics is valid and records nothing, so components take an optional
// metrics handle instead of branching on whether metrics are enabled.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "measurecast"

// Datagram outcomes recorded by the bridge.
const (
	OutcomeAccepted    = "accepted"
	OutcomeRejected    = "rejected"
	OutcomeDecodeError = "decode_error"
	OutcomeEmpty       = "empty"
)

// Metrics holds the relay's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	datagrams     prometheus.Counter
	bytes         prometheus.Counter
	outcomes      *prometheus.CounterVec
	rejections    *prometheus.CounterVec
	broadcasts    prometheus.Counter
	deliveries    *prometheus.CounterVec
	failures      *prometheus.CounterVec
	subscribers   *prometheus.GaugeVec
	lastMeasure   prometheus.Gauge
	handleSeconds prometheus.Histogram
}

// New creates a registry with relay metrics and Go runtime collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		datagrams: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "osc",
			Name:      "datagrams_total",
			Help:      "Datagrams received on the OSC listener",
		}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "osc",
			Name:      "bytes_total",
			Help:      "Bytes received on the OSC listener",
		}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "osc",
			Name:      "messages_total",
			Help:      "Decoded messages by outcome",
		}, []string{"outcome"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "osc",
			Name:      "rejections_total",
			Help:      "Rejected messages by reason",
		}, []string{"reason"}),
		broadcasts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "push",
			Name:      "broadcasts_total",
			Help:      "Timing events broadcast to subscribers",
		}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "push",
			Name:      "deliveries_total",
			Help:      "Events handed to a transport",
		}, []string{"transport"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "push",
			Name:      "delivery_failures_total",
			Help:      "Events a transport failed to accept",
		}, []string{"transport"}),
		subscribers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "push",
			Name:      "subscribers",
			Help:      "Connected subscribers by transport",
		}, []string{"transport"}),
		lastMeasure: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "timing",
			Name:      "last_measure",
			Help:      "Measure of the most recently accepted event",
		}),
		handleSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "osc",
			Name:      "handle_duration_seconds",
			Help:      "Time from datagram receipt to broadcast return",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}),
	}

	m.registry.MustRegister(
		m.datagrams,
		m.bytes,
		m.outcomes,
		m.rejections,
		m.broadcasts,
		m.deliveries,
		m.failures,
		m.subscribers,
		m.lastMeasure,
		m.handleSeconds,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
// With nil metrics it responds 404.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Datagram records one received datagram of size bytes.
func (m *Metrics) Datagram(size int) {
	if m == nil {
		return
	}
	m.datagrams.Inc()
	m.bytes.Add(float64(size))
}

// Outcome records the result of handling one message.
func (m *Metrics) Outcome(outcome string) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(outcome).Inc()
}

// Rejected records a validation rejection.
func (m *Metrics) Rejected(reason string) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(OutcomeRejected).Inc()
	m.rejections.WithLabelValues(reason).Inc()
}

// Broadcast records an accepted event and its measure.
func (m *Metrics) Broadcast(measure int64) {
	if m == nil {
		return
	}
	m.broadcasts.Inc()
	m.lastMeasure.Set(float64(measure))
}

// Delivered records an event handed to transport.
func (m *Metrics) Delivered(transport string) {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues(transport).Inc()
}

// DeliveryFailed records an event a transport could not accept.
func (m *Metrics) DeliveryFailed(transport string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(transport).Inc()
}

// Subscribers sets the connected subscriber count for transport.
func (m *Metrics) Subscribers(transport string, n int) {
	if m == nil {
		return
	}
	m.subscribers.WithLabelValues(transport).Set(float64(n))
}

// ObserveHandle records how long handling one datagram took.
func (m *Metrics) ObserveHandle(seconds float64) {
	if m == nil {
		return
	}
	m.handleSeconds.Observe(seconds)
}
