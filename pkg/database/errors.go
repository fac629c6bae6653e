package database

import (
	"strings"

	"github.com/lib/pq"
	"github.com/vidaplus/vidaplus-backend/pkg/errors"
)

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not a pq.Error.
func MapPQError(err error) *errors.AppError {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return nil
	}

	switch pqErr.Code {
	// Check constraint violation (23514)
	case "23514":
		return mapCheckConstraint(pqErr)

	// Unique constraint violation (23505)
	case "23505":
		return errors.Conflict(formatConstraintMessage(pqErr))

	// Foreign key violation (23503)
	case "23503":
		return mapForeignKey(pqErr)

	// Not null violation (23502)
	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	// Lock not available (55P03) - per-item admission lock timed out
	case "55P03":
		return errors.Busy("item ledger")

	default:
		return nil
	}
}

// mapCheckConstraint maps specific CHECK constraint names to user-friendly messages.
func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "quantity_positive"):
		return errors.Validation(map[string]string{
			"quantity": "must be strictly positive",
		})

	case strings.Contains(constraint, "movement_type"):
		return errors.Validation(map[string]string{
			"type": "must be one of: IN, OUT",
		})

	case strings.Contains(constraint, "min_stock"):
		return errors.Validation(map[string]string{
			"min_stock": "must be zero or greater",
		})

	default:
		return errors.BadRequest("data validation failed: " + constraint)
	}
}

// mapForeignKey maps FK violations. The ledger restricts item deletion, so a
// delete blocked by stock_movements.item_id surfaces as a conflict rather
// than a bad request.
func mapForeignKey(pqErr *pq.Error) *errors.AppError {
	if strings.Contains(pqErr.Constraint, "stock_movements_item_id") {
		return errors.Conflict("item has recorded stock movements and cannot be deleted")
	}
	return errors.BadRequest("referenced record does not exist")
}

// formatConstraintMessage creates a user-friendly message for unique constraint violations.
func formatConstraintMessage(pqErr *pq.Error) string {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "items_name"):
		return "an item with this name already exists"
	default:
		return "a record with these values already exists"
	}
}
