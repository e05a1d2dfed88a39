package metrics

import "time"

// ScanMetrics observes graph construction.
type ScanMetrics interface {
	// ObserveScanner records one builder run: nodes it created, elapsed
	// time, and whether it failed.
	ObserveScanner(scanner string, nodes int, duration time.Duration, err error)

	// RecordKind records per-kind totals of the finished graph.
	RecordKind(kind string, total, dangling, unreachable int)
}

// ObserveScanner records a builder run on m, if metrics are enabled.
func ObserveScanner(m ScanMetrics, scanner string, nodes int, duration time.Duration, err error) {
	if m != nil {
		m.ObserveScanner(scanner, nodes, duration, err)
	}
}

// RecordKind records per-kind totals on m, if metrics are enabled.
func RecordKind(m ScanMetrics, kind string, total, dangling, unreachable int) {
	if m != nil {
		m.RecordKind(kind, total, dangling, unreachable)
	}
}
