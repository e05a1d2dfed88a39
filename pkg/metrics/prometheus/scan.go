// Package prometheus implements the pkg/metrics interfaces on top of the
// process-wide registry.
package prometheus

import (
	"time"

	"github.com/marmos91/layerscope/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// scanMetrics is the Prometheus implementation of metrics.ScanMetrics.
type scanMetrics struct {
	scannerRuns     *prometheus.CounterVec
	scannerDuration *prometheus.HistogramVec
	scannerNodes    *prometheus.GaugeVec
	nodes           *prometheus.GaugeVec
	dangling        *prometheus.GaugeVec
	unreachable     *prometheus.GaugeVec
}

// NewScanMetrics creates a Prometheus-backed ScanMetrics.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewScanMetrics() metrics.ScanMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &scanMetrics{
		scannerRuns: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "layerscope_scanner_runs_total",
				Help: "Total number of builder runs by scanner and status",
			},
			[]string{"scanner", "status"}, // status: "success", "error"
		),
		scannerDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "layerscope_scanner_duration_milliseconds",
				Help: "Duration of builder runs in milliseconds",
				Buckets: []float64{
					1,     // tiny hosts
					10,    // 10ms
					50,    // 50ms
					100,   // 100ms
					500,   // 500ms
					1000,  // 1s
					5000,  // 5s - thousands of layers
					30000, // 30s
				},
			},
			[]string{"scanner"},
		),
		scannerNodes: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "layerscope_scanner_nodes",
				Help: "Nodes created by the last run of each scanner",
			},
			[]string{"scanner"},
		),
		nodes: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "layerscope_graph_nodes",
				Help: "Nodes in the storage graph by kind",
			},
			[]string{"kind"},
		),
		dangling: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "layerscope_graph_dangling_nodes",
				Help: "Non-root nodes without referrers by kind",
			},
			[]string{"kind"},
		),
		unreachable: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "layerscope_graph_unreachable_nodes",
				Help: "Nodes not reachable from any repository tag or container by kind",
			},
			[]string{"kind"},
		),
	}
}

func (m *scanMetrics) ObserveScanner(scanner string, nodes int, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.scannerRuns.WithLabelValues(scanner, statusOf(err)).Inc()
	m.scannerDuration.WithLabelValues(scanner).Observe(float64(duration.Microseconds()) / 1000.0)
	m.scannerNodes.WithLabelValues(scanner).Set(float64(nodes))
}

func (m *scanMetrics) RecordKind(kind string, total, dangling, unreachable int) {
	if m == nil {
		return
	}
	m.nodes.WithLabelValues(kind).Set(float64(total))
	m.dangling.WithLabelValues(kind).Set(float64(dangling))
	m.unreachable.WithLabelValues(kind).Set(float64(unreachable))
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
