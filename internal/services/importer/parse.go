package importer

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"kaspit-backend/internal/calendar"
)

var errEmpty = errors.New("empty value")

var currencyMarks = strings.NewReplacer(
	"₪", "", "NIS", "", "nis", "", "ILS", "", `ש"ח`, "", "ש״ח", "", "$", "", "€", "",
	" ", "", "\u00a0", "", "\u200e", "", "\u200f", "",
)

var thousandsComma = regexp.MustCompile(`^\d{1,3}(,\d{3})+(\.\d+)?$`)

// ParseAmount reads a bank amount. It accepts currency marks, thousands
// separators, a decimal comma, and "(12.50)" or "12.50-" as negatives.
func ParseAmount(s string) (decimal.Decimal, error) {
	v := currencyMarks.Replace(strings.TrimSpace(s))
	if v == "" {
		return decimal.Zero, errEmpty
	}

	neg := false
	if strings.HasPrefix(v, "(") && strings.HasSuffix(v, ")") {
		neg, v = true, v[1:len(v)-1]
	}
	if strings.HasSuffix(v, "-") {
		neg, v = !neg, strings.TrimSuffix(v, "-")
	}
	if strings.HasPrefix(v, "-") {
		neg, v = !neg, strings.TrimPrefix(v, "-")
	}
	v = strings.TrimPrefix(v, "+")

	comma, dot := strings.LastIndex(v, ","), strings.LastIndex(v, ".")
	switch {
	case comma >= 0 && dot >= 0 && comma > dot:
		// 1.234,56
		v = strings.ReplaceAll(v, ".", "")
		v = strings.Replace(v, ",", ".", 1)
	case comma >= 0 && dot >= 0:
		v = strings.ReplaceAll(v, ",", "")
	case comma >= 0 && thousandsComma.MatchString(v):
		v = strings.ReplaceAll(v, ",", "")
	case comma >= 0 && strings.Count(v, ",") == 1 && len(v)-comma-1 <= 2:
		v = strings.Replace(v, ",", ".", 1)
	case comma >= 0:
		v = strings.ReplaceAll(v, ",", "")
	}

	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	if neg {
		d = d.Neg()
	}
	return d.Round(2), nil
}

// dateLayouts are tried in order when no format is configured. Four-digit
// years come first so "01/02/26" is not read as year 26.
var dateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02.01.2006",
	"2.1.2006",
	"02-01-2006",
	"2-1-2006",
	"2006-01-02",
	"2006/01/02",
	"02/01/06",
	"2/1/06",
	"02.01.06",
	"2.1.06",
	"02-01-06",
	"2006-01-02 15:04:05",
	"02/01/2006 15:04",
	time.RFC3339,
}

var layoutTokens = strings.NewReplacer("yyyy", "2006", "yy", "06", "mm", "01", "dd", "02")

// ParseDate reads a statement date. format may be a Go layout or a
// dd/mm/yyyy style pattern; when empty the common Israeli bank layouts and
// Excel serial numbers are tried.
func ParseDate(s, format string) (time.Time, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return time.Time{}, errEmpty
	}

	if format != "" {
		layout := format
		if !strings.Contains(layout, "2006") && !strings.Contains(layout, "06") {
			layout = layoutTokens.Replace(strings.ToLower(format))
		}
		if t, err := time.Parse(layout, v); err == nil {
			return calendar.Day(t), nil
		}
		// XLSX date cells arrive as serials whatever the profile says.
		if t, ok := excelSerial(v); ok {
			return t, nil
		}
		return time.Time{}, fmt.Errorf("date %q does not match format %q", s, format)
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return calendar.Day(t), nil
		}
	}
	if t, ok := excelSerial(v); ok {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// excelSerial reads v as an Excel date: days since 1899-12-30.
func excelSerial(v string) (time.Time, bool) {
	serial, err := strconv.ParseFloat(v, 64)
	if err != nil || serial <= 20000 || serial >= 80000 {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, false
	}
	return calendar.Day(t), true
}
