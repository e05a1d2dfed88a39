package logger

import (
	"context"
	"time"
)

type contextKey struct{}

var logContextKey = contextKey{}

// LogContext carries the fields every log line of one command run shares.
type LogContext struct {
	RunID     string    // uuid of the CLI invocation or browser session
	Command   string    // command being executed: scan, rm, prune, browse...
	BaseDir   string    // storage root the graph was built from
	NodeID    string    // node the current operation targets, if any
	StartTime time.Time // for duration calculation
}

// WithContext returns a new context carrying lc.
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from ctx, or nil if not present.
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext starts a LogContext for one run.
func NewLogContext(runID, command string) *LogContext {
	return &LogContext{
		RunID:     runID,
		Command:   command,
		StartTime: time.Now(),
	}
}

// Clone creates a copy of the LogContext.
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	c := *lc
	return &c
}

// WithCommand returns a copy with the command set.
func (lc *LogContext) WithCommand(command string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Command = command
	}
	return clone
}

// WithNode returns a copy targeting the given node.
func (lc *LogContext) WithNode(id string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.NodeID = id
	}
	return clone
}

// WithBaseDir returns a copy with the storage root set.
func (lc *LogContext) WithBaseDir(dir string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.BaseDir = dir
	}
	return clone
}

// DurationMs returns the time since StartTime in milliseconds.
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
