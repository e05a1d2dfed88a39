package metrics

import "time"

// DeleteMetrics observes removals.
type DeleteMetrics interface {
	// ObserveRemoval records one Remove/RemoveRecursive/prune request.
	// status is "success", "partial" (cascade stopped part way) or "error".
	ObserveRemoval(operation, status string, removed int, duration time.Duration)

	// RecordRemovedNode counts one deleted node and the bytes it held.
	RecordRemovedNode(kind string, bytes int64)

	// RecordRefused counts destructive commands rejected before running,
	// e.g. missing confirmation.
	RecordRefused(operation, reason string)
}

// ObserveRemoval records a removal request on m, if metrics are enabled.
func ObserveRemoval(m DeleteMetrics, operation, status string, removed int, duration time.Duration) {
	if m != nil {
		m.ObserveRemoval(operation, status, removed, duration)
	}
}

// RecordRemovedNode records a deleted node on m, if metrics are enabled.
func RecordRemovedNode(m DeleteMetrics, kind string, bytes int64) {
	if m != nil {
		m.RecordRemovedNode(kind, bytes)
	}
}

// RecordRefused records a rejected command on m, if metrics are enabled.
func RecordRefused(m DeleteMetrics, operation, reason string) {
	if m != nil {
		m.RecordRefused(operation, reason)
	}
}
