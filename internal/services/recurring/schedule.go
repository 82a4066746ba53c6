package recurring

import (
	"time"

	"kaspit-backend/internal/calendar"
	"kaspit-backend/internal/models"
)

// maxPreview bounds how many dates a preview returns.
const maxPreview = 500

func monthsPer(f models.Frequency) int {
	switch f {
	case models.FrequencyMonthly:
		return 1
	case models.FrequencyBimonthly:
		return 2
	case models.FrequencyQuarterly:
		return 3
	case models.FrequencyYearly:
		return 12
	}
	return 0
}

// Occurrence returns the n-th (0-based) date of a schedule. Month-based
// frequencies stay anchored on start's day: Jan 31, Feb 28, Mar 31.
func Occurrence(start time.Time, f models.Frequency, n int) time.Time {
	if f == models.FrequencyWeekly {
		return calendar.Day(start).AddDate(0, 0, 7*n)
	}
	return calendar.AddMonthsClamped(start, n*monthsPer(f))
}

// ended reports whether d falls after the template's end date.
func ended(t *models.RecurringExpense, d time.Time) bool {
	return t.EndDate != nil && d.After(calendar.Day(*t.EndDate))
}

// Between lists the template's dates in [from, to].
func Between(t *models.RecurringExpense, from, to time.Time) []time.Time {
	var out []time.Time
	for n := 0; len(out) < maxPreview; n++ {
		d := Occurrence(t.StartDate, t.Frequency, n)
		if d.After(to) || ended(t, d) {
			break
		}
		if !d.Before(from) {
			out = append(out, d)
		}
	}
	return out
}

// indexFrom returns the first occurrence index whose date is on or after d.
func indexFrom(start time.Time, f models.Frequency, d time.Time) int {
	n := 0
	for Occurrence(start, f, n).Before(d) {
		n++
	}
	return n
}
