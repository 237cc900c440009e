package notification

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain/record"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Type identifies what a notification is about.
type Type string

const (
	TypeCreated        Type = "TRANSACTION_CREATED"
	TypeUpdated        Type = "TRANSACTION_UPDATED"
	TypeDeleted        Type = "TRANSACTION_DELETED"
	TypeBudgetWarning  Type = "BUDGET_WARNING"
	TypeBudgetExceeded Type = "BUDGET_EXCEEDED"
)

// Event is a notification addressed to one user. ID and CreatedAt are set by
// the store on append; everything else is fixed at construction.
type Event struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Type      Type            `json:"type"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Amount    decimal.Decimal `json:"amount"`
	Category  string          `json:"category"`
	Read      bool            `json:"isRead"`
	CreatedAt time.Time       `json:"createdAt"`
}

var printer = message.NewPrinter(language.English)

// formatMoney renders an amount with the currency symbol, thousands
// separators and no fraction digits.
func formatMoney(symbol string, amount decimal.Decimal) string {
	f, _ := amount.Round(0).Float64()
	return symbol + printer.Sprintf("%.0f", f)
}

// ForMutation builds the notification describing a committed record change.
func ForMutation(m record.Mutation, r record.Record, symbol string) Event {
	label := r.Kind.Label()
	money := formatMoney(symbol, r.Amount)

	e := Event{
		Amount:   r.Amount,
		Category: r.Category,
	}
	switch m {
	case record.Created:
		e.Type = TypeCreated
		e.Title = fmt.Sprintf("New %s Added", label)
		e.Message = fmt.Sprintf("%s added in %s", money, r.Category)
	case record.Updated:
		e.Type = TypeUpdated
		e.Title = fmt.Sprintf("%s Updated", label)
		e.Message = fmt.Sprintf("%s %s of %s updated", r.Category, strings.ToLower(label), money)
	default:
		e.Type = TypeDeleted
		e.Title = fmt.Sprintf("%s Deleted", label)
		e.Message = fmt.Sprintf("%s %s of %s removed", r.Category, strings.ToLower(label), money)
	}
	return e
}

// BudgetExceeded builds the alert sent when spend reaches the limit.
func BudgetExceeded(spent, limit decimal.Decimal, symbol string) Event {
	return Event{
		Type:  TypeBudgetExceeded,
		Title: "⚠️ Budget Exceeded!",
		Message: fmt.Sprintf("You've spent %s, exceeding your monthly budget of %s",
			formatMoney(symbol, spent), formatMoney(symbol, limit)),
		Amount:   spent,
		Category: "Budget",
	}
}

// BudgetWarning builds the alert sent when spend enters the warning band.
// The percentage is rounded to the nearest whole number but never reads
// 100% while spend is still under the limit.
func BudgetWarning(spent, limit decimal.Decimal, symbol string) Event {
	pct := spent.Mul(decimal.NewFromInt(100)).Div(limit).Round(0).IntPart()
	if pct >= 100 && spent.LessThan(limit) {
		pct = 99
	}
	return Event{
		Type:  TypeBudgetWarning,
		Title: "⚡ Budget Warning",
		Message: fmt.Sprintf("You've used %d%% of your monthly budget (%s of %s)",
			pct, formatMoney(symbol, spent), formatMoney(symbol, limit)),
		Amount:   spent,
		Category: "Budget",
	}
}

// SortNewestFirst orders events by CreatedAt descending. Events without a
// timestamp go last.
func SortNewestFirst(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i].CreatedAt, events[j].CreatedAt
		switch {
		case a.IsZero():
			return false
		case b.IsZero():
			return true
		default:
			return a.After(b)
		}
	})
}
