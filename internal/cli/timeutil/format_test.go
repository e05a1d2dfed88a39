package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{1500 * time.Microsecond, "2ms"},
		{12 * time.Second, "12s"},
		{4*time.Minute + 2*time.Second, "4m 2s"},
		{2*time.Hour + 5*time.Minute + time.Second, "2h 5m 1s"},
		{72*time.Hour + 30*time.Minute + 15*time.Second, "3d 0h 30m"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDuration(tt.in))
		})
	}
}

func TestAgo(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "5m 3s ago", Ago(now.Add(-5*time.Minute-3*time.Second-400*time.Millisecond), now))
	assert.Equal(t, "just now", Ago(now, now))
	assert.Equal(t, "just now", Ago(now.Add(time.Minute), now))
	assert.Equal(t, "-", Ago(time.Time{}, now))
}

func TestFormatTime(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, ts.Local().Format(LocalTimeFormat), FormatTime(ts))
	assert.Equal(t, "-", FormatTime(time.Time{}))
}
