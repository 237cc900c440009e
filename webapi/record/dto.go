package record

import (
	"fmt"
	"strings"
	"time"

	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain/category"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain/record"
	"github.com/shopspring/decimal"
)

// RecordRequest is the body of POST /records and PUT /records/:id.
//
// Amount may be omitted when the note carries one ("lunch 250"). Category
// is detected from the note when empty. Date accepts 2006-01-02 or RFC 3339
// and defaults to now.
type RecordRequest struct {
	Kind     string `json:"kind" validate:"required"`
	Amount   string `json:"amount,omitempty" validate:"omitempty,numeric"`
	Category string `json:"category,omitempty" validate:"max=64"`
	Note     string `json:"note,omitempty" validate:"max=512"`
	Date     string `json:"date,omitempty"`
}

// BudgetRequest is the body of PUT /budget.
type BudgetRequest struct {
	Limit string `json:"limit" validate:"required,numeric"`
}

// SummaryResponse is returned by GET /summary.
type SummaryResponse struct {
	Expense decimal.Decimal `json:"expense"`
	Income  decimal.Decimal `json:"income"`
	Net     decimal.Decimal `json:"net"`
	Budget  any             `json:"budget"`
	Source  string          `json:"source"`
}

// apply fills r from the request, keeping r's identity fields.
func (req RecordRequest) apply(r record.Record, now time.Time) (record.Record, error) {
	kind, err := record.ParseKind(req.Kind)
	if err != nil {
		return record.Record{}, err
	}
	amount := category.ExtractAmount(req.Note)
	if strings.TrimSpace(req.Amount) != "" {
		amount, err = decimal.NewFromString(req.Amount)
		if err != nil {
			return record.Record{}, fmt.Errorf("%w: amount %q", domain.ErrValidation, req.Amount)
		}
	}
	cat := strings.TrimSpace(req.Category)
	if cat == "" {
		cat = category.Detect(req.Note)
	}
	occurred, err := parseDate(req.Date, now)
	if err != nil {
		return record.Record{}, err
	}

	r.Kind = kind
	r.Amount = amount
	r.Category = cat
	r.Note = req.Note
	r.OccurredAt = occurred
	return r, r.Validate()
}

func parseDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", domain.ErrValidation, s)
	}
	return t, nil
}
