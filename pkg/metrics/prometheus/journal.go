package prometheus

import (
	"github.com/marmos91/layerscope/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// journalMetrics is the Prometheus implementation for the BadgerDB journal.
type journalMetrics struct {
	appends *prometheus.CounterVec
	entries prometheus.Gauge
}

// NewJournalMetrics creates a Prometheus-backed JournalMetrics.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewJournalMetrics() metrics.JournalMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &journalMetrics{
		appends: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "layerscope_journal_appends_total",
				Help: "Total number of journal writes by status",
			},
			[]string{"status"},
		),
		entries: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "layerscope_journal_entries",
				Help: "Entries in the removal journal",
			},
		),
	}
}

func (m *journalMetrics) RecordAppend(err error) {
	if m == nil {
		return
	}
	m.appends.WithLabelValues(statusOf(err)).Inc()
}

func (m *journalMetrics) RecordEntries(n int) {
	if m == nil {
		return
	}
	m.entries.Set(float64(n))
}
