// Package metrics exposes valuation activity as Prometheus metrics.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	apperrors "github.com/agbru/nightrate/internal/errors"
	"github.com/agbru/nightrate/internal/valuation"
)

const namespace = "nightrate"

// Attempt outcomes.
const (
	OutcomeRevealed = "revealed"
	OutcomeFailed   = "failed"
	OutcomeRejected = "rejected"
	OutcomeCanceled = "canceled"
)

// Collector turns controller transitions into metrics. Subscribe it to a
// controller and pass StaleDiscarded to valuation.WithDiscardHook.
type Collector struct {
	started  prometheus.Counter
	outcomes *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration prometheus.Histogram
	inFlight prometheus.Gauge
	resets   prometheus.Counter
	stale    prometheus.Counter
}

var (
	_ valuation.Observer   = (*Collector)(nil)
	_ prometheus.Collector = (*Collector)(nil)
)

// NewCollector creates an unregistered collector.
func NewCollector() *Collector {
	return &Collector{
		started: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attempts_started_total",
			Help:      "Valuation attempts that issued a prediction call.",
		}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attempts_total",
			Help:      "Finished valuation attempts by outcome.",
		}, []string{"outcome"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Failed valuation attempts by error kind.",
		}, []string{"kind"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prediction_duration_seconds",
			Help:      "Time from submit to reveal or failure.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "prediction_in_flight",
			Help:      "1 while an attempt is waiting for the prediction service.",
		}),
		resets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resets_total",
			Help:      "Resets from a revealed or failed attempt.",
		}),
		stale: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_outcomes_total",
			Help:      "Prediction outcomes discarded because their attempt was superseded.",
		}),
	}
}

// Notify implements valuation.Observer.
func (c *Collector) Notify(prev, next valuation.Snapshot) {
	switch {
	case next.Phase == valuation.Requesting:
		c.started.Inc()
		c.inFlight.Set(1)

	case prev.Phase == valuation.Requesting:
		c.inFlight.Set(0)
		switch next.Phase {
		case valuation.Revealed:
			c.outcomes.WithLabelValues(OutcomeRevealed).Inc()
			c.duration.Observe(next.Elapsed().Seconds())
		case valuation.Failed:
			c.outcomes.WithLabelValues(OutcomeFailed).Inc()
			c.failures.WithLabelValues(FailureKind(next.Err)).Inc()
			c.duration.Observe(next.Elapsed().Seconds())
		case valuation.Collecting:
			c.outcomes.WithLabelValues(OutcomeCanceled).Inc()
		}

	case next.Phase == valuation.Failed:
		// Malformed request: no call was made.
		c.outcomes.WithLabelValues(OutcomeRejected).Inc()
		c.failures.WithLabelValues(FailureKind(next.Err)).Inc()

	case next.Phase == valuation.Collecting && prev.Phase.Terminal():
		c.resets.Inc()
	}
}

// StaleDiscarded counts one discarded outcome.
func (c *Collector) StaleDiscarded(uint64) { c.stale.Inc() }

// FailureKind labels err for the failures metric.
func FailureKind(err error) string {
	var se apperrors.ServiceError
	if errors.As(err, &se) {
		return string(se.Kind)
	}
	var re apperrors.RequestError
	if errors.As(err, &re) {
		return "request"
	}
	return "unknown"
}

func (c *Collector) collectors() []prometheus.Collector {
	return []prometheus.Collector{c.started, c.outcomes, c.failures, c.duration, c.inFlight, c.resets, c.stale}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range c.collectors() {
		m.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, m := range c.collectors() {
		m.Collect(ch)
	}
}
