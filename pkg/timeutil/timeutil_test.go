package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDateOf(t *testing.T) {
	// 23:30 UTC on Jan 1 is already Jan 2 in UTC+8.
	utc := time.Date(2025, 1, 1, 23, 30, 0, 0, time.UTC)
	d := DateOf(utc)

	assert.Equal(t, 2025, d.Year())
	assert.Equal(t, time.January, d.Month())
	assert.Equal(t, 2, d.Day())
	assert.Equal(t, 0, d.Hour())
}

func TestSameDay(t *testing.T) {
	morning := time.Date(2025, 3, 10, 1, 0, 0, 0, CommunityTZ)
	evening := time.Date(2025, 3, 10, 23, 59, 0, 0, CommunityTZ)
	nextDay := time.Date(2025, 3, 11, 0, 0, 1, 0, CommunityTZ)

	assert.True(t, SameDay(morning, evening))
	assert.False(t, SameDay(evening, nextDay))
}

func TestDayNumber(t *testing.T) {
	start := time.Date(2025, 5, 1, 9, 0, 0, 0, CommunityTZ)

	assert.Equal(t, 1, DayNumber(start, start))
	assert.Equal(t, 1, DayNumber(start, start.Add(10*time.Hour)))
	assert.Equal(t, 3, DayNumber(start, start.AddDate(0, 0, 2)))
	assert.Equal(t, 21, DayNumber(start, start.AddDate(0, 0, 20)))
}

func TestInDailyWindow(t *testing.T) {
	day := time.Date(2025, 5, 7, 0, 0, 0, 0, CommunityTZ)

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"window open", day.Add(21 * time.Hour), true},
		{"inside window", day.Add(21*time.Hour + 4*time.Minute), true},
		{"window closed", day.Add(21*time.Hour + 5*time.Minute), false},
		{"one second after close", day.Add(21*time.Hour + 5*time.Minute + time.Second), false},
		{"before window", day.Add(20*time.Hour + 59*time.Minute), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InDailyWindow(tt.at, 21, 0, 5))
		})
	}
}

func TestFormatMonth(t *testing.T) {
	ts := time.Date(2025, 9, 15, 12, 0, 0, 0, CommunityTZ)
	assert.Equal(t, "2025-09", FormatMonth(ts))
}
