package notification_test

import (
	"testing"
	"time"

	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain/notification"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain/record"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestForMutation(t *testing.T) {
	expense := record.Record{
		LocalID:    1,
		Kind:       record.Expense,
		Amount:     decimal.RequireFromString("1250.40"),
		Category:   "Food",
		OccurredAt: time.Now(),
	}
	income := record.Record{
		LocalID:  2,
		Kind:     record.Income,
		Amount:   decimal.NewFromInt(50000),
		Category: "Salary",
	}

	tests := []struct {
		name     string
		mutation record.Mutation
		rec      record.Record
		wantType notification.Type
		title    string
		message  string
	}{
		{"expense created", record.Created, expense, notification.TypeCreated,
			"New Expense Added", "$1,250 added in Food"},
		{"income created", record.Created, income, notification.TypeCreated,
			"New Income Added", "$50,000 added in Salary"},
		{"expense updated", record.Updated, expense, notification.TypeUpdated,
			"Expense Updated", "Food expense of $1,250 updated"},
		{"income updated", record.Updated, income, notification.TypeUpdated,
			"Income Updated", "Salary income of $50,000 updated"},
		{"expense deleted", record.Deleted, expense, notification.TypeDeleted,
			"Expense Deleted", "Food expense of $1,250 removed"},
		{"income deleted", record.Deleted, income, notification.TypeDeleted,
			"Income Deleted", "Salary income of $50,000 removed"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := notification.ForMutation(tc.mutation, tc.rec, "$")
			assert.Equal(t, tc.wantType, e.Type)
			assert.Equal(t, tc.title, e.Title)
			assert.Equal(t, tc.message, e.Message)
			assert.Equal(t, tc.rec.Category, e.Category)
			assert.True(t, tc.rec.Amount.Equal(e.Amount))
			assert.False(t, e.Read)
			assert.Empty(t, e.ID)
		})
	}
}

func TestBudgetEvents(t *testing.T) {
	limit := decimal.NewFromInt(1000)

	warn := notification.BudgetWarning(decimal.NewFromInt(850), limit, "৳")
	assert.Equal(t, notification.TypeBudgetWarning, warn.Type)
	assert.Equal(t, "⚡ Budget Warning", warn.Title)
	assert.Equal(t, "You've used 85% of your monthly budget (৳850 of ৳1,000)", warn.Message)

	over := notification.BudgetExceeded(decimal.NewFromInt(1050), limit, "৳")
	assert.Equal(t, notification.TypeBudgetExceeded, over.Type)
	assert.Equal(t, "⚠️ Budget Exceeded!", over.Title)
	assert.Equal(t, "You've spent ৳1,050, exceeding your monthly budget of ৳1,000", over.Message)
}

func TestBudgetWarning_RoundsPercent(t *testing.T) {
	limit := decimal.NewFromInt(1000)
	tests := []struct {
		spent string
		want  string
	}{
		{"856", "86%"},
		{"854.99", "85%"},
		{"899.99", "90%"},
		{"800", "80%"},
		{"999.99", "99%"},
	}
	for _, tc := range tests {
		t.Run(tc.spent, func(t *testing.T) {
			e := notification.BudgetWarning(decimal.RequireFromString(tc.spent), limit, "$")
			assert.Contains(t, e.Message, "used "+tc.want+" ")
		})
	}
}

func TestSortNewestFirst(t *testing.T) {
	base := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	events := []notification.Event{
		{ID: "old", CreatedAt: base},
		{ID: "none"},
		{ID: "new", CreatedAt: base.Add(time.Hour)},
	}
	notification.SortNewestFirst(events)
	assert.Equal(t, "new", events[0].ID)
	assert.Equal(t, "old", events[1].ID)
	assert.Equal(t, "none", events[2].ID)
}
