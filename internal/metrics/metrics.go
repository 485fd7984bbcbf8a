// Package metrics exposes Prometheus collectors for traces and ingestion.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "staticrd"

// Outcome labels for traces_total.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics groups the collectors registered by New.
type Metrics struct {
	traces   *prometheus.CounterVec
	accesses *prometheus.CounterVec
	duration *prometheus.HistogramVec
	rows     *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		traces: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "traces_total",
			Help:      "Completed trace runs by algorithm and outcome.",
		}, []string{"algorithm", "outcome"}),
		accesses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accesses_total",
			Help:      "Accesses presented to stack-distance oracles, split into cold and reuse.",
		}, []string{"algorithm", "kind"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "trace_duration_seconds",
			Help:      "Wall time of a trace run.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10), // 0.1ms to ~26s
		}, []string{"algorithm"}),
		rows: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_rows_total",
			Help:      "Rows read by real-trace ingestion, by result.",
		}, []string{"result"}),
	}
}

// Accesses holds pre-resolved access counters for one algorithm.
type Accesses struct {
	cold, reuse prometheus.Counter
}

// ForAlgorithm resolves the access counters for alg.
func (m *Metrics) ForAlgorithm(alg string) *Accesses {
	if m == nil {
		return nil
	}
	return &Accesses{
		cold:  m.accesses.WithLabelValues(alg, "cold"),
		reuse: m.accesses.WithLabelValues(alg, "reuse"),
	}
}

// Observe counts one access.
func (a *Accesses) Observe(seen bool) {
	if a == nil {
		return
	}
	if seen {
		a.reuse.Inc()
	} else {
		a.cold.Inc()
	}
}

// ObserveTrace records a finished trace.
func (m *Metrics) ObserveTrace(alg, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.traces.WithLabelValues(alg, outcome).Inc()
	m.duration.WithLabelValues(alg).Observe(elapsed.Seconds())
}

// ObserveRow counts one ingested row.
func (m *Metrics) ObserveRow(skipped bool) {
	if m == nil {
		return
	}
	if skipped {
		m.rows.WithLabelValues("skipped").Inc()
	} else {
		m.rows.WithLabelValues("ok").Inc()
	}
}

// Totals sums every counter and histogram sample count gathered from g,
// keyed by metric family name.
func Totals(g prometheus.Gatherer) (map[string]float64, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, err
	}
	totals := make(map[string]float64, len(families))
	for _, mf := range families {
		var sum float64
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				sum += m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				sum += float64(m.GetHistogram().GetSampleCount())
			case m.GetGauge() != nil:
				sum += m.GetGauge().GetValue()
			}
		}
		totals[mf.GetName()] = sum
	}
	return totals, nil
}
