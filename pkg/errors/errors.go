package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

// Standard error types
var (
	ErrNotFound          = errors.New("resource not found")
	ErrBadRequest        = errors.New("bad request")
	ErrConflict          = errors.New("resource conflict")
	ErrInternal          = errors.New("internal server error")
	ErrValidation        = errors.New("validation error")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidMovement   = errors.New("invalid movement type")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrBusy              = errors.New("resource busy")
)

// AppError represents an application error with context
type AppError struct {
	Err        error             `json:"-"`
	Message    string            `json:"message"`
	Code       string            `json:"code"`
	StatusCode int               `json:"status_code"`
	Details    map[string]string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(code string, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, code string, message string, statusCode int) *AppError {
	return &AppError{
		Err:        err,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// WithDetails adds details to an AppError
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

// Common error constructors

func NotFound(resource string) *AppError {
	return &AppError{
		Err:        ErrNotFound,
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
	}
}

func BadRequest(message string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Code:       "BAD_REQUEST",
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:        ErrConflict,
		Code:       "CONFLICT",
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func Internal(message string) *AppError {
	return &AppError{
		Err:        ErrInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

func Validation(details map[string]string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		Code:       "VALIDATION_ERROR",
		Message:    "validation failed",
		StatusCode: http.StatusBadRequest,
		Details:    details,
	}
}

func Unauthorized(message string) *AppError {
	return &AppError{
		Err:        ErrUnauthorized,
		Code:       "UNAUTHORIZED",
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

// Inventory ledger error constructors

// DuplicateName indicates a case-insensitive item name collision.
func DuplicateName(name string) *AppError {
	return &AppError{
		Err:        ErrConflict,
		Code:       "DUPLICATE_NAME",
		Message:    fmt.Sprintf("an item named %q already exists", name),
		StatusCode: http.StatusConflict,
		Details:    map[string]string{"name": name},
	}
}

// InvalidMovementType indicates a movement type outside IN/OUT.
func InvalidMovementType(movementType string) *AppError {
	return &AppError{
		Err:        ErrInvalidMovement,
		Code:       "INVALID_MOVEMENT_TYPE",
		Message:    fmt.Sprintf("movement type must be IN or OUT, got %q", movementType),
		StatusCode: http.StatusBadRequest,
		Details:    map[string]string{"type": movementType},
	}
}

// InvalidQuantity indicates a non-positive movement quantity.
func InvalidQuantity(quantity int) *AppError {
	return &AppError{
		Err:        ErrInvalidQuantity,
		Code:       "INVALID_QUANTITY",
		Message:    fmt.Sprintf("quantity must be strictly positive, got %d", quantity),
		StatusCode: http.StatusBadRequest,
		Details:    map[string]string{"quantity": strconv.Itoa(quantity)},
	}
}

// InsufficientStock indicates an OUT movement exceeding the current balance.
// The current balance travels in Details so callers can report it.
func InsufficientStock(balance, requested int) *AppError {
	return &AppError{
		Err:        ErrInsufficientStock,
		Code:       "INSUFFICIENT_STOCK",
		Message:    fmt.Sprintf("insufficient stock: current balance is %d, requested %d", balance, requested),
		StatusCode: http.StatusBadRequest,
		Details: map[string]string{
			"balance":   strconv.Itoa(balance),
			"requested": strconv.Itoa(requested),
		},
	}
}

// Busy indicates the per-item admission lock could not be acquired in time.
// A Busy admission made no ledger change and is safe to retry.
func Busy(resource string) *AppError {
	return &AppError{
		Err:        ErrBusy,
		Code:       "BUSY",
		Message:    fmt.Sprintf("%s is busy, retry the operation", resource),
		StatusCode: http.StatusConflict,
	}
}

// Is checks if the error matches a target error
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As attempts to convert an error to a specific type
func As(err error, target any) bool {
	return errors.As(err, target)
}
