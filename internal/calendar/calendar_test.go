package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddMonthsClamped(t *testing.T) {
	tests := []struct {
		anchor time.Time
		n      int
		want   time.Time
	}{
		{date(2026, 1, 31), 1, date(2026, 2, 28)},
		{date(2026, 1, 31), 2, date(2026, 3, 31)},
		{date(2028, 1, 31), 1, date(2028, 2, 29)},
		{date(2026, 11, 15), 3, date(2027, 2, 15)},
		{date(2026, 3, 31), -1, date(2026, 2, 28)},
		{date(2026, 1, 10), -13, date(2024, 12, 10)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AddMonthsClamped(tt.anchor, tt.n), "%s + %d", tt.anchor.Format(DayLayout), tt.n)
	}
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 0, DaysBetween(date(2026, 5, 1), date(2026, 5, 1)))
	assert.Equal(t, 3, DaysBetween(date(2026, 5, 1), date(2026, 5, 4)))
	assert.Equal(t, 3, DaysBetween(date(2026, 5, 4), date(2026, 5, 1)))
	assert.Equal(t, 1, DaysBetween(time.Date(2026, 5, 1, 23, 0, 0, 0, time.UTC), date(2026, 5, 2)))
}

func TestParseDay(t *testing.T) {
	d, err := ParseDay("2026-10-17")
	require.NoError(t, err)
	assert.Equal(t, date(2026, 10, 17), d)

	_, err = ParseDay("17/10/2026")
	assert.Error(t, err)
}

func TestRange(t *testing.T) {
	r := Range{From: date(2026, 3, 1), To: date(2026, 5, 1)}
	assert.True(t, r.Contains(date(2026, 3, 1)))
	assert.True(t, r.Contains(date(2026, 4, 30)))
	assert.False(t, r.Contains(date(2026, 5, 1)))
	assert.Equal(t, date(2026, 4, 30), r.Last())
}

func TestDaysIn(t *testing.T) {
	assert.Equal(t, 29, DaysIn(2028, time.February))
	assert.Equal(t, 31, DaysIn(2026, time.December))
}
