// Package metrics defines the instrumentation interfaces used by the scanner,
// the deletion engine and the journal, plus the process-wide Prometheus
// registry they report to.
//
// Every interface is optional: a nil value means metrics are disabled and
// the package-level helpers turn into no-ops. Implementations live in
// pkg/metrics/prometheus.
package metrics

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registryMu sync.RWMutex
	registry   *prometheus.Registry
)

// InitRegistry creates the registry and enables metrics. Calling it again
// replaces the registry, which drops every previously registered collector.
func InitRegistry() *prometheus.Registry {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = prometheus.NewRegistry()
	return registry
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registry != nil
}

// GetRegistry returns the registry, or nil when metrics are disabled.
func GetRegistry() *prometheus.Registry {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registry
}

// Disable drops the registry.
func Disable() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = nil
}

// WriteTextfile writes every registered metric to path in the Prometheus
// text exposition format, suitable for the node_exporter textfile collector.
// The file is replaced atomically.
func WriteTextfile(path string) error {
	reg := GetRegistry()
	if reg == nil {
		return fmt.Errorf("metrics are not enabled")
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
