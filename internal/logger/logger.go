// Package logger is the process-wide structured logger built on log/slog.
//
// Output goes to stderr by default so that stdout stays parseable for
// --output json|yaml. The text format is a single colored line per record;
// the json format is slog's JSON handler.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// Config selects the level, format and destination of log output. Empty
// fields keep the current setting.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // text, json
	Output string // stdout, stderr, or a file path
}

var (
	level = new(slog.LevelVar)

	mu         sync.RWMutex
	output     io.Writer = os.Stderr
	useColor             = isTerminal(os.Stderr.Fd())
	jsonFormat bool
	current    *slog.Logger
)

func init() {
	mu.Lock()
	rebuild()
	mu.Unlock()
}

// rebuild installs a handler for the current output settings. mu must be
// held for writing.
func rebuild() {
	opts := &slog.HandlerOptions{Level: level}
	if jsonFormat {
		current = slog.New(slog.NewJSONHandler(output, opts))
		return
	}
	current = slog.New(newTextHandler(output, opts, useColor))
}

// Init applies cfg.
func Init(cfg Config) error {
	if cfg.Output != "" {
		w, color, err := openOutput(cfg.Output)
		if err != nil {
			return err
		}
		SetOutput(w, color)
	}
	SetLevel(cfg.Level)
	SetFormat(cfg.Format)
	return nil
}

func openOutput(dest string) (io.Writer, bool, error) {
	switch strings.ToLower(dest) {
	case "stdout":
		return os.Stdout, isTerminal(os.Stdout.Fd()), nil
	case "stderr":
		return os.Stderr, isTerminal(os.Stderr.Fd()), nil
	}
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, false, fmt.Errorf("failed to open log file %q: %w", dest, err)
	}
	return f, false, nil
}

// SetOutput redirects log output to w. Colors apply to the text format only.
func SetOutput(w io.Writer, color bool) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	useColor = color
	rebuild()
}

// SetLevel sets the minimum level by name, case-insensitively. Unknown
// names are ignored.
func SetLevel(name string) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(name)); err != nil {
		return
	}
	level.Set(l)
}

// SetFormat switches between "text" and "json". Unknown names are ignored.
func SetFormat(format string) {
	var asJSON bool
	switch strings.ToLower(format) {
	case "json":
		asJSON = true
	case "text":
	default:
		return
	}

	mu.Lock()
	defer mu.Unlock()
	if jsonFormat != asJSON {
		jsonFormat = asJSON
		rebuild()
	}
}

func get() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

func log(ctx context.Context, l slog.Level, msg string, args []any) {
	if ctx == nil {
		ctx = context.Background()
	}
	lg := get()
	if !lg.Enabled(ctx, l) {
		return
	}
	lg.Log(ctx, l, msg, withContextFields(ctx, args)...)
}

// Debug logs msg with key/value pairs or slog.Attr values.
func Debug(msg string, args ...any) { log(context.Background(), slog.LevelDebug, msg, args) }

func Info(msg string, args ...any) { log(context.Background(), slog.LevelInfo, msg, args) }

func Warn(msg string, args ...any) { log(context.Background(), slog.LevelWarn, msg, args) }

func Error(msg string, args ...any) { log(context.Background(), slog.LevelError, msg, args) }

// DebugCtx is Debug prefixed with the run fields carried by ctx.
func DebugCtx(ctx context.Context, msg string, args ...any) {
	log(ctx, slog.LevelDebug, msg, args)
}

func InfoCtx(ctx context.Context, msg string, args ...any) {
	log(ctx, slog.LevelInfo, msg, args)
}

func WarnCtx(ctx context.Context, msg string, args ...any) {
	log(ctx, slog.LevelWarn, msg, args)
}

func ErrorCtx(ctx context.Context, msg string, args ...any) {
	log(ctx, slog.LevelError, msg, args)
}

// withContextFields prepends the LogContext fields carried by ctx.
func withContextFields(ctx context.Context, args []any) []any {
	lc := FromContext(ctx)
	if lc == nil {
		return args
	}

	fields := make([]any, 0, 8+len(args))
	for _, kv := range [...][2]string{
		{KeyRunID, lc.RunID},
		{KeyCommand, lc.Command},
		{KeyBaseDir, lc.BaseDir},
		{KeyNodeID, lc.NodeID},
	} {
		if kv[1] != "" {
			fields = append(fields, kv[0], kv[1])
		}
	}
	return append(fields, args...)
}

// With returns a logger that adds args to every record.
func With(args ...any) *slog.Logger {
	return get().With(args...)
}

// Duration returns the milliseconds elapsed since start.
func Duration(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
