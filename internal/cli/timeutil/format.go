// Package timeutil formats journal timestamps and durations for CLI output.
package timeutil

import (
	"fmt"
	"time"
)

// LocalTimeFormat is the layout of local times in CLI output.
const LocalTimeFormat = "Mon Jan 2 15:04:05 2006"

// FormatTime renders t in the local time zone.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(LocalTimeFormat)
}

// FormatDuration renders d as "3d 0h 30m", "2h 5m 1s", "4m 2s" or "12s".
// Durations under a second keep millisecond precision.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}

	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

// Ago renders how long before now t happened, e.g. "5m 3s ago".
func Ago(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	if d := now.Sub(t); d > 0 {
		return FormatDuration(d.Truncate(time.Second)) + " ago"
	}
	return "just now"
}
