package record

import (
	"time"

	"github.com/shopspring/decimal"
)

// AggregateView holds expense and income totals of a snapshot. It is
// always derived from records and never stored.
type AggregateView struct {
	Expense decimal.Decimal `json:"expense"`
	Income  decimal.Decimal `json:"income"`
}

// Net is income minus expense.
func (v AggregateView) Net() decimal.Decimal {
	return v.Income.Sub(v.Expense)
}

// Aggregate sums the records by kind.
func Aggregate(records []Record) AggregateView {
	v := AggregateView{Expense: decimal.Zero, Income: decimal.Zero}
	for _, r := range records {
		switch r.Kind {
		case Expense:
			v.Expense = v.Expense.Add(r.Amount)
		case Income:
			v.Income = v.Income.Add(r.Amount)
		}
	}
	return v
}

// SumByKind sums the amounts of records of the given kind.
func SumByKind(records []Record, kind Kind) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		if r.Kind == kind {
			total = total.Add(r.Amount)
		}
	}
	return total
}

// SpentInPeriod sums expenses with from <= OccurredAt < to.
func SpentInPeriod(records []Record, from, to time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		if r.Kind != Expense {
			continue
		}
		if r.OccurredAt.Before(from) || !r.OccurredAt.Before(to) {
			continue
		}
		total = total.Add(r.Amount)
	}
	return total
}

// MonthBounds returns the first instant of t's month and of the next one,
// in t's location.
func MonthBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, 0)
}
