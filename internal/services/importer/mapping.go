package importer

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"kaspit-backend/internal/apperr"
	"kaspit-backend/internal/models"
)

// columns are resolved 0-based indexes; -1 means not mapped.
type columns struct {
	date, description, amount, debit, credit, reference, balance int

	dateFormat string
}

func normalizeHeader(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// columnIndex resolves a reference against the header row: a header name
// first, then a 1-based index, then a spreadsheet letter.
func columnIndex(ref string, headers []string) (int, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return -1, nil
	}

	want := normalizeHeader(ref)
	for i, h := range headers {
		if normalizeHeader(h) == want {
			return i, nil
		}
	}
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 {
			return -1, apperr.Invalid("column index %d must be 1 or more", n)
		}
		return n - 1, nil
	}
	if len(ref) <= 3 {
		if n, err := excelize.ColumnNameToNumber(strings.ToUpper(ref)); err == nil {
			return n - 1, nil
		}
	}
	return -1, apperr.Invalid("column %q not found in header row", ref)
}

func resolve(m models.ColumnMapping, headers []string) (columns, error) {
	c := columns{dateFormat: m.DateFormat}
	refs := []struct {
		ref string
		dst *int
	}{
		{m.Date, &c.date},
		{m.Description, &c.description},
		{m.Amount, &c.amount},
		{m.Debit, &c.debit},
		{m.Credit, &c.credit},
		{m.Reference, &c.reference},
		{m.Balance, &c.balance},
	}
	for _, r := range refs {
		i, err := columnIndex(r.ref, headers)
		if err != nil {
			return c, err
		}
		*r.dst = i
	}

	if c.date < 0 {
		return c, apperr.Invalid("a date column is required")
	}
	if c.description < 0 {
		return c, apperr.Invalid("a description column is required")
	}
	if c.amount < 0 && c.debit < 0 && c.credit < 0 {
		return c, apperr.Invalid("map either an amount column or debit/credit columns")
	}
	return c, nil
}

// Row is one parsed statement line.
type Row struct {
	Line        int
	Date        time.Time
	Description string
	Reference   string
	Amount      decimal.Decimal
	Balance     decimal.NullDecimal
}

func cell(cells []string, i int) string {
	if i < 0 || i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func (c columns) parse(line int, cells []string) (Row, error) {
	row := Row{
		Line:        line,
		Description: cell(cells, c.description),
		Reference:   cell(cells, c.reference),
	}

	date, err := ParseDate(cell(cells, c.date), c.dateFormat)
	if err != nil {
		if errors.Is(err, errEmpty) {
			return row, errors.New("missing date")
		}
		return row, err
	}
	row.Date = date

	if c.amount >= 0 {
		row.Amount, err = ParseAmount(cell(cells, c.amount))
		if errors.Is(err, errEmpty) {
			return row, errors.New("missing amount")
		}
		if err != nil {
			return row, err
		}
	} else {
		debit, derr := ParseAmount(cell(cells, c.debit))
		credit, cerr := ParseAmount(cell(cells, c.credit))
		if errors.Is(derr, errEmpty) && errors.Is(cerr, errEmpty) {
			return row, errors.New("missing debit and credit")
		}
		if derr != nil && !errors.Is(derr, errEmpty) {
			return row, derr
		}
		if cerr != nil && !errors.Is(cerr, errEmpty) {
			return row, cerr
		}
		row.Amount = credit.Sub(debit.Abs())
	}
	if row.Amount.IsZero() {
		return row, errors.New("zero amount")
	}

	if c.balance >= 0 {
		if bal, err := ParseAmount(cell(cells, c.balance)); err == nil {
			row.Balance = decimal.NullDecimal{Decimal: bal, Valid: true}
		}
	}
	return row, nil
}

// hints are the header names Israeli and international banks commonly use.
var hints = map[string][]string{
	"date":        {"תאריך", "תאריך ערך", "תאריך פעולה", "date", "value date", "transaction date", "posting date"},
	"description": {"תיאור", "תיאור פעולה", "פרטים", "הפעולה", "description", "details", "memo", "narrative"},
	"amount":      {"סכום", "סכום פעולה", "amount"},
	"debit":       {"חובה", "בחובה", "debit", "withdrawal", "money out"},
	"credit":      {"זכות", "בזכות", "credit", "deposit", "money in"},
	"reference":   {"אסמכתא", "אסמכתה", "reference", "ref", "check number"},
	"balance":     {"יתרה", "יתרה בש\"ח", "balance", "running balance"},
}

// GuessMapping proposes a mapping from well-known header names.
func GuessMapping(headers []string) models.ColumnMapping {
	find := func(field string) string {
		for _, h := range headers {
			n := normalizeHeader(h)
			for _, hint := range hints[field] {
				if n == hint {
					return strings.TrimSpace(h)
				}
			}
		}
		return ""
	}
	m := models.ColumnMapping{
		Date:        find("date"),
		Description: find("description"),
		Amount:      find("amount"),
		Reference:   find("reference"),
		Balance:     find("balance"),
	}
	if m.Amount == "" {
		m.Debit = find("debit")
		m.Credit = find("credit")
	}
	return m
}
