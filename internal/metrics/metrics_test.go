package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	acc := m.ForAlgorithm("Olken")
	acc.Observe(false)
	acc.Observe(true)
	acc.Observe(true)
	m.ObserveTrace("Olken", OutcomeOK, 5*time.Millisecond)
	m.ObserveRow(true)
	m.ObserveRow(false)
	m.ObserveRow(false)

	tests := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"cold", m.accesses.WithLabelValues("Olken", "cold"), 1},
		{"reuse", m.accesses.WithLabelValues("Olken", "reuse"), 2},
		{"traces", m.traces.WithLabelValues("Olken", OutcomeOK), 1},
		{"skipped rows", m.rows.WithLabelValues("skipped"), 1},
		{"ok rows", m.rows.WithLabelValues("ok"), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := testutil.ToFloat64(tt.c); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}

	if n := testutil.CollectAndCount(m.duration); n != 1 {
		t.Errorf("expected 1 duration series, got %d", n)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.ForAlgorithm("Stack").Observe(true)
	m.ObserveTrace("Stack", OutcomeError, time.Second)
	m.ObserveRow(true)
}

func TestTotals(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ForAlgorithm("Stack").Observe(false)
	m.ForAlgorithm("Vec").Observe(true)
	m.ObserveTrace("Stack", OutcomeOK, time.Millisecond)
	m.ObserveTrace("Vec", OutcomeError, time.Millisecond)

	totals, err := Totals(reg)
	if err != nil {
		t.Fatalf("Totals failed: %v", err)
	}
	want := map[string]float64{
		"staticrd_accesses_total":         2,
		"staticrd_traces_total":           2,
		"staticrd_trace_duration_seconds": 2,
	}
	for name, v := range want {
		if totals[name] != v {
			t.Errorf("%s: expected %v, got %v", name, v, totals[name])
		}
	}
}
