// Package matching scores ledger entries as reconciliation candidates for a
// bank transaction. Scores are 0-100: up to 50 points for amount, 30 for
// date and 30 for counterparty name, capped at 100.
package matching

import (
	"cmp"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"kaspit-backend/internal/calendar"
	"kaspit-backend/internal/config"
	"kaspit-backend/internal/models"
)

const (
	MaxAmountPoints = 50.0
	MaxDatePoints   = 30.0
	MaxNamePoints   = 30.0
	MaxScore        = 100.0
)

// Candidate is a ledger entry that a bank transaction may settle.
type Candidate struct {
	ID           uuid.UUID        `json:"id"`
	Kind         models.EntryKind `json:"kind"`
	Date         time.Time        `json:"date"`
	Amount       decimal.Decimal  `json:"amount"`
	Counterparty string           `json:"counterparty"`
	Description  string           `json:"description"`
}

func FromIncome(i models.Income) Candidate {
	return Candidate{
		ID:           i.ID,
		Kind:         models.KindIncome,
		Date:         i.Date,
		Amount:       i.Amount,
		Counterparty: i.CustomerName,
		Description:  i.Description,
	}
}

func FromExpense(e models.Expense) Candidate {
	return Candidate{
		ID:           e.ID,
		Kind:         models.KindExpense,
		Date:         e.Date,
		Amount:       e.Amount,
		Counterparty: e.SupplierName,
		Description:  e.Description,
	}
}

// Suggestion is a scored candidate.
type Suggestion struct {
	Candidate
	Score       float64 `json:"score"`
	AmountScore float64 `json:"amount_score"`
	DateScore   float64 `json:"date_score"`
	NameScore   float64 `json:"name_score"`
	DaysApart   int     `json:"days_apart"`
}

type Engine struct {
	MinScore       float64
	MaxSuggestions int
}

func NewEngine(cfg config.MatchingConfig) *Engine {
	e := &Engine{MinScore: cfg.MinScore, MaxSuggestions: cfg.MaxSuggestions}
	if e.MaxSuggestions <= 0 {
		e.MaxSuggestions = 5
	}
	return e
}

// Suggest scores every candidate against tx and returns those at or above
// MinScore, best first, at most MaxSuggestions.
func (e *Engine) Suggest(tx models.BankTransaction, candidates []Candidate) []Suggestion {
	var out []Suggestion
	for _, c := range candidates {
		s := Score(tx, c)
		if s.Score >= e.MinScore {
			out = append(out, s)
		}
	}

	slices.SortStableFunc(out, func(a, b Suggestion) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.DaysApart, b.DaysApart)
	})

	if len(out) > e.MaxSuggestions {
		out = out[:e.MaxSuggestions]
	}
	return out
}

// Score computes the weighted score of one candidate.
func Score(tx models.BankTransaction, c Candidate) Suggestion {
	days := calendar.DaysBetween(tx.TransactionDate, c.Date)
	s := Suggestion{
		Candidate:   c,
		AmountScore: AmountScore(tx.Amount, c.Amount),
		DateScore:   DateScore(days),
		NameScore:   MaxNamePoints * Similarity(tx.Description, c.Counterparty+" "+c.Description),
		DaysApart:   days,
	}
	s.Score = min(MaxScore, s.AmountScore+s.DateScore+s.NameScore)
	return s
}

var one = decimal.NewFromInt(1)

// AmountScore compares absolute amounts by relative difference.
func AmountScore(a, b decimal.Decimal) float64 {
	a, b = a.Abs(), b.Abs()
	if a.IsZero() || b.IsZero() {
		return 0
	}
	diff := a.Sub(b).Abs()
	if diff.IsZero() {
		return MaxAmountPoints
	}
	ratio := diff.Div(decimal.Max(a, b)).InexactFloat64()

	switch {
	case ratio <= 0.01, diff.LessThanOrEqual(one) && ratio <= 0.05:
		return 40
	case ratio <= 0.05:
		return 25
	case ratio <= 0.10:
		return 10
	default:
		return 0
	}
}

// DateScore buckets the day distance between the two dates.
func DateScore(days int) float64 {
	switch {
	case days == 0:
		return MaxDatePoints
	case days <= 2:
		return 25
	case days <= 5:
		return 20
	case days <= 10:
		return 12
	case days <= 30:
		return 5
	default:
		return 0
	}
}
