// Package calendar holds the date arithmetic shared by ledger, budgets,
// VAT periods, recurring templates and the forecast. All values are UTC
// midnights so that date columns compare correctly in every driver.
package calendar

import (
	"fmt"
	"time"
)

const DayLayout = "2006-01-02"

// Day truncates t to its calendar day in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func Today() time.Time {
	return Day(time.Now())
}

// ParseDay parses a YYYY-MM-DD string.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return t, nil
}

func MonthStart(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}

// MonthOf returns the first day of t's month.
func MonthOf(t time.Time) time.Time {
	return MonthStart(t.Year(), t.Month())
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return MonthStart(year, month).AddDate(0, 1, -1).Day()
}

// AddMonthsClamped adds n months to anchor, clamping the day to the end of
// the target month: Jan 31 + 1 month is Feb 28 (or 29).
func AddMonthsClamped(anchor time.Time, n int) time.Time {
	y, m, d := anchor.Date()
	total := int(m) - 1 + n
	ty := y + total/12
	tm := total % 12
	if tm < 0 {
		tm += 12
		ty--
	}
	month := time.Month(tm + 1)
	if last := DaysIn(ty, month); d > last {
		d = last
	}
	return time.Date(ty, month, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns |a-b| in whole days.
func DaysBetween(a, b time.Time) int {
	diff := Day(a).Sub(Day(b)).Hours() / 24
	if diff < 0 {
		diff = -diff
	}
	return int(diff + 0.5)
}

// Range is a half-open interval of days [From, To).
type Range struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func (r Range) Contains(t time.Time) bool {
	d := Day(t)
	return !d.Before(r.From) && d.Before(r.To)
}

// Last returns the final day inside the range.
func (r Range) Last() time.Time {
	return r.To.AddDate(0, 0, -1)
}
