package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"
)

const (
	ansiReset = "\033[0m"
	ansiKey   = "\033[36m"
)

// textHandler writes one line per record:
//
//	[2006-01-02 15:04:05] [INFO] message key=value ...
//
// Groups are flattened into dotted keys.
type textHandler struct {
	w     io.Writer
	mu    *sync.Mutex
	level slog.Leveler
	color bool

	prefix string // open groups, each followed by a dot
	attrs  []byte // rendered WithAttrs fields
}

func newTextHandler(w io.Writer, opts *slog.HandlerOptions, color bool) *textHandler {
	var lv slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		lv = opts.Level
	}
	return &textHandler{w: w, mu: new(sync.Mutex), level: lv, color: color}
}

func (h *textHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *textHandler) Handle(_ context.Context, r slog.Record) error {
	buf := make([]byte, 0, 256)
	if !r.Time.IsZero() {
		buf = append(buf, '[')
		buf = r.Time.AppendFormat(buf, time.DateTime)
		buf = append(buf, "] "...)
	}
	buf = append(buf, '[')
	buf = h.appendLevel(buf, r.Level)
	buf = append(buf, "] "...)
	buf = append(buf, r.Message...)
	buf = append(buf, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		buf = h.appendAttr(buf, h.prefix, a)
		return true
	})
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf)
	return err
}

func (h *textHandler) appendLevel(buf []byte, l slog.Level) []byte {
	name, code := "ERROR", "\033[31m"
	switch {
	case l < slog.LevelInfo:
		name, code = "DEBUG", "\033[90m"
	case l < slog.LevelWarn:
		name, code = "INFO", "\033[32m"
	case l < slog.LevelError:
		name, code = "WARN", "\033[33m"
	}
	if !h.color {
		return append(buf, name...)
	}
	return append(append(append(buf, code...), name...), ansiReset...)
}

func (h *textHandler) appendAttr(buf []byte, prefix string, a slog.Attr) []byte {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return buf
	}

	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			buf = h.appendAttr(buf, prefix, ga)
		}
		return buf
	}

	buf = append(buf, ' ')
	if h.color {
		buf = append(buf, ansiKey...)
	}
	buf = append(buf, prefix...)
	buf = append(buf, a.Key...)
	if h.color {
		buf = append(buf, ansiReset...)
	}
	buf = append(buf, '=')
	return appendValue(buf, a.Value)
}

func appendValue(buf []byte, v slog.Value) []byte {
	switch v.Kind() {
	case slog.KindString:
		return append(buf, v.String()...)
	case slog.KindInt64:
		return strconv.AppendInt(buf, v.Int64(), 10)
	case slog.KindUint64:
		return strconv.AppendUint(buf, v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.AppendFloat(buf, v.Float64(), 'f', 3, 64)
	case slog.KindBool:
		return strconv.AppendBool(buf, v.Bool())
	case slog.KindDuration:
		return append(buf, v.Duration().String()...)
	case slog.KindTime:
		return v.Time().AppendFormat(buf, time.RFC3339)
	default:
		return fmt.Append(buf, v.Any())
	}
}

func (h *textHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	c := *h
	c.attrs = slices.Clip(h.attrs)
	for _, a := range attrs {
		c.attrs = h.appendAttr(c.attrs, h.prefix, a)
	}
	return &c
}

func (h *textHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.prefix = h.prefix + name + "."
	return &c
}
