package record_test

import (
	"testing"
	"time"

	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain/record"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	at := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		kind     record.Kind
		amount   string
		category string
		wantErr  error
	}{
		{"valid expense", record.Expense, "12.50", "Food", nil},
		{"valid income", record.Income, "1000", "Salary", nil},
		{"zero amount", record.Expense, "0", "Food", domain.ErrInvalidAmount},
		{"negative amount", record.Income, "-3", "Gift", domain.ErrInvalidAmount},
		{"trailing zeros fit", record.Expense, "12.3400", "Food", nil},
		{"sub-cent amount", record.Expense, "12.345", "Food", domain.ErrAmountPrecision},
		{"amount too large", record.Income, "10000000000000", "Salary", domain.ErrAmountPrecision},
		{"largest storable amount", record.Income, "9999999999999.99", "Salary", nil},
		{"blank category", record.Expense, "5", "   ", domain.ErrInvalidCategory},
		{"unknown kind", record.Kind("TRANSFER"), "5", "Bills", domain.ErrInvalidKind},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, err := record.New(tc.kind, decimal.RequireFromString(tc.amount), tc.category, at, "")
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				assert.ErrorIs(t, err, domain.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, record.LocalOnly, r.State())
			assert.Zero(t, r.LocalID)
		})
	}
}

func TestNew_TrimsCategory(t *testing.T) {
	r, err := record.New(record.Expense, decimal.NewFromInt(3), "  Transport ", time.Now(), "bus")
	require.NoError(t, err)
	assert.Equal(t, "Transport", r.Category)
}

func TestParseKind(t *testing.T) {
	k, err := record.ParseKind("expense")
	require.NoError(t, err)
	assert.Equal(t, record.Expense, k)

	k, err = record.ParseKind(" Income ")
	require.NoError(t, err)
	assert.Equal(t, record.Income, k)

	_, err = record.ParseKind("refund")
	assert.ErrorIs(t, err, domain.ErrInvalidKind)
}

func TestState(t *testing.T) {
	r := record.Record{LocalID: 4}
	assert.Equal(t, record.LocalOnly, r.State())
	r.RemoteID = "abc"
	assert.Equal(t, record.Mirrored, r.State())
}

func TestSortNewestFirst(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []record.Record{
		{LocalID: 1, OccurredAt: base},
		{LocalID: 2, OccurredAt: base.Add(48 * time.Hour)},
		{LocalID: 3, OccurredAt: base},
		{LocalID: 4, OccurredAt: base.Add(24 * time.Hour)},
	}

	record.SortNewestFirst(records)

	ids := make([]int64, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.LocalID)
	}
	assert.Equal(t, []int64{2, 4, 3, 1}, ids)
}
