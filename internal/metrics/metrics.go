package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "odds_tracker"

// Cycle outcomes.
const (
	OutcomeSuccess     = "success"
	OutcomeUnavailable = "unavailable"
	OutcomePersistFail = "persist_failed"
	OutcomeCanceled    = "canceled"
)

// Metrics holds the tracker's collectors.
type Metrics struct {
	registry *prometheus.Registry

	cycles            *prometheus.CounterVec
	fetchAttempts     *prometheus.CounterVec
	events            prometheus.Counter
	malformedEvents   prometheus.Counter
	recordsAppended   *prometheus.CounterVec
	sinkErrors        *prometheus.CounterVec
	cycleDuration     prometheus.Histogram
	requestsRemaining prometheus.Gauge
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		cycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cycles_total",
				Help:      "Poll cycles by outcome.",
			},
			[]string{"outcome"},
		),
		fetchAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fetch_attempts_total",
				Help:      "HTTP attempts against the odds API by result.",
			},
			[]string{"result"},
		),
		events: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_total",
				Help:      "Events received from the odds API.",
			},
		),
		malformedEvents: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "malformed_events_total",
				Help:      "Events skipped because their payload could not be flattened.",
			},
		),
		recordsAppended: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_appended_total",
				Help:      "Quote records appended per sink.",
			},
			[]string{"sink"},
		),
		sinkErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sink_errors_total",
				Help:      "Failed appends per sink.",
			},
			[]string{"sink"},
		),
		cycleDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "cycle_duration_seconds",
				Help:      "Wall time of one fetch-extract-persist cycle.",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
			},
		),
		requestsRemaining: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "api_requests_remaining",
				Help:      "Remaining request quota reported by the odds API.",
			},
		),
	}

	m.registry.MustRegister(
		m.cycles,
		m.fetchAttempts,
		m.events,
		m.malformedEvents,
		m.recordsAppended,
		m.sinkErrors,
		m.cycleDuration,
		m.requestsRemaining,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordCycle counts one finished cycle and observes its duration.
func (m *Metrics) RecordCycle(outcome string, d time.Duration) {
	m.cycles.WithLabelValues(outcome).Inc()
	m.cycleDuration.Observe(d.Seconds())
}

// RecordFetchAttempt counts one HTTP attempt. A nil err is a success.
func (m *Metrics) RecordFetchAttempt(err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	m.fetchAttempts.WithLabelValues(result).Inc()
}

// AddEvents counts events received in a cycle.
func (m *Metrics) AddEvents(n int) {
	m.events.Add(float64(n))
}

// IncMalformed counts one skipped event.
func (m *Metrics) IncMalformed() {
	m.malformedEvents.Inc()
}

// RecordAppended implements sink.Recorder.
func (m *Metrics) RecordAppended(sink string, n int) {
	m.recordsAppended.WithLabelValues(sink).Add(float64(n))
}

// RecordSinkError implements sink.Recorder.
func (m *Metrics) RecordSinkError(sink string) {
	m.sinkErrors.WithLabelValues(sink).Inc()
}

// SetRequestsRemaining updates the quota gauge.
func (m *Metrics) SetRequestsRemaining(n int) {
	m.requestsRemaining.Set(float64(n))
}
