package prometheus

import (
	"time"

	"github.com/marmos91/layerscope/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// deleteMetrics is the Prometheus implementation of metrics.DeleteMetrics.
type deleteMetrics struct {
	removals        *prometheus.CounterVec
	removalDuration *prometheus.HistogramVec
	removalSize     *prometheus.HistogramVec
	removedNodes    *prometheus.CounterVec
	reclaimedBytes  *prometheus.CounterVec
	refused         *prometheus.CounterVec
}

// NewDeleteMetrics creates a Prometheus-backed DeleteMetrics.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewDeleteMetrics() metrics.DeleteMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &deleteMetrics{
		removals: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "layerscope_removals_total",
				Help: "Total number of removal requests by operation and status",
			},
			[]string{"operation", "status"}, // status: "success", "partial", "error"
		),
		removalDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "layerscope_removal_duration_milliseconds",
				Help:    "Duration of removal requests in milliseconds",
				Buckets: []float64{1, 10, 100, 1000, 10000, 60000},
			},
			[]string{"operation"},
		),
		removalSize: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "layerscope_removal_nodes",
				Help:    "Distribution of nodes deleted per removal request",
				Buckets: []float64{1, 2, 5, 10, 25, 100, 500},
			},
			[]string{"operation"},
		),
		removedNodes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "layerscope_removed_nodes_total",
				Help: "Total number of deleted nodes by kind",
			},
			[]string{"kind"},
		),
		reclaimedBytes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "layerscope_reclaimed_bytes_total",
				Help: "Bytes held by deleted nodes, measured before removal",
			},
			[]string{"kind"},
		),
		refused: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "layerscope_refused_commands_total",
				Help: "Destructive commands rejected before running",
			},
			[]string{"operation", "reason"},
		),
	}
}

func (m *deleteMetrics) ObserveRemoval(operation, status string, removed int, duration time.Duration) {
	if m == nil {
		return
	}
	m.removals.WithLabelValues(operation, status).Inc()
	m.removalDuration.WithLabelValues(operation).Observe(float64(duration.Microseconds()) / 1000.0)
	m.removalSize.WithLabelValues(operation).Observe(float64(removed))
}

func (m *deleteMetrics) RecordRemovedNode(kind string, bytes int64) {
	if m == nil {
		return
	}
	m.removedNodes.WithLabelValues(kind).Inc()
	if bytes > 0 {
		m.reclaimedBytes.WithLabelValues(kind).Add(float64(bytes))
	}
}

func (m *deleteMetrics) RecordRefused(operation, reason string) {
	if m == nil {
		return
	}
	m.refused.WithLabelValues(operation, reason).Inc()
}
