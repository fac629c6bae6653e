package database

import (
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vidaplus/vidaplus-backend/pkg/errors"
)

func TestMapPQError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{
			name:       "unique violation on item name",
			err:        &pq.Error{Code: "23505", Constraint: "items_name_lower_key"},
			wantCode:   "CONFLICT",
			wantStatus: 409,
		},
		{
			name:       "check violation on quantity",
			err:        &pq.Error{Code: "23514", Constraint: "stock_movements_quantity_positive"},
			wantCode:   "VALIDATION_ERROR",
			wantStatus: 400,
		},
		{
			name:       "check violation on movement type",
			err:        &pq.Error{Code: "23514", Constraint: "stock_movements_movement_type_check"},
			wantCode:   "VALIDATION_ERROR",
			wantStatus: 400,
		},
		{
			name:       "foreign key restricting item deletion",
			err:        &pq.Error{Code: "23503", Constraint: "stock_movements_item_id_fkey"},
			wantCode:   "CONFLICT",
			wantStatus: 409,
		},
		{
			name:       "unrelated foreign key violation",
			err:        &pq.Error{Code: "23503", Constraint: "other_fkey"},
			wantCode:   "BAD_REQUEST",
			wantStatus: 400,
		},
		{
			name:       "not null violation",
			err:        &pq.Error{Code: "23502", Column: "name"},
			wantCode:   "VALIDATION_ERROR",
			wantStatus: 400,
		},
		{
			name:       "lock timeout maps to busy",
			err:        &pq.Error{Code: "55P03"},
			wantCode:   "BUSY",
			wantStatus: 409,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := MapPQError(tt.err)
			require.NotNil(t, appErr)
			assert.Equal(t, tt.wantCode, appErr.Code)
			assert.Equal(t, tt.wantStatus, appErr.StatusCode)
		})
	}
}

func TestMapPQError_PassesThroughNonPQErrors(t *testing.T) {
	assert.Nil(t, MapPQError(fmt.Errorf("plain error")))
	assert.Nil(t, MapPQError(nil))
}

func TestMapPQError_BusyIsRetryable(t *testing.T) {
	appErr := MapPQError(&pq.Error{Code: "55P03"})
	require.NotNil(t, appErr)
	assert.True(t, errors.Is(appErr, errors.ErrBusy))
}

func TestMapPQError_UnknownCodeReturnsNil(t *testing.T) {
	assert.Nil(t, MapPQError(&pq.Error{Code: "42P01"}))
}
