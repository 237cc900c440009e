package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestMapGormErrorToDomain(t *testing.T) {
	t.Parallel()

	other := errors.New("some other error")
	tests := []struct {
		name     string
		input    error
		expected error
	}{
		{"nil error returns nil", nil, nil},
		{"duplicate key maps to ErrAlreadyExists", gorm.ErrDuplicatedKey, domain.ErrAlreadyExists},
		{"not found maps to ErrNotFound", gorm.ErrRecordNotFound, domain.ErrNotFound},
		{"joined not found maps", errors.Join(errors.New("outer"), gorm.ErrRecordNotFound), domain.ErrNotFound},
		{"wrapped duplicate maps", fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), domain.ErrAlreadyExists},
		{"other errors pass through", other, other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, MapGormErrorToDomain(tt.input))
		})
	}
}

func TestRequireAffected(t *testing.T) {
	assert.ErrorIs(t, RequireAffected(&gorm.DB{}), domain.ErrNotFound)
	assert.NoError(t, RequireAffected(&gorm.DB{RowsAffected: 1}))
	assert.ErrorIs(t, RequireAffected(&gorm.DB{Error: gorm.ErrRecordNotFound}), domain.ErrNotFound)
}
