// Package apperror provides structured error handling following RFC 7807 Problem Details.
// Every failure that leaves the sale core is an AppError or wraps one.
package apperror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"
	CodeTimeout  = "TIMEOUT_ERROR"

	// Configuration errors that no retry will fix
	CodeSequenceMissing  = "SEQUENCE_MISSING"
	CodeSequenceOverflow = "SEQUENCE_OVERFLOW"

	// Validation errors (400)
	CodeValidation = "VALIDATION_ERROR"

	// Business rule violations (422)
	CodeInsufficientStock = "INSUFFICIENT_STOCK"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeIdempotency = "IDEMPOTENCY_CONFLICT"
)

// AppError is the standard error type for the platform.
// It implements error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field errors, quantities, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions ---

// NewValidation creates an invalid-argument error (400).
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewSequenceMissing reports that the document sequence row does not exist.
// The store is misconfigured; retrying the call cannot succeed.
func NewSequenceMissing() *AppError {
	return &AppError{
		Code:       CodeSequenceMissing,
		Message:    "document sequence is not initialized",
		HTTPStatus: http.StatusInternalServerError,
	}
}

// NewSequenceOverflow reports a counter value that does not fit the configured width.
func NewSequenceOverflow(value int64, width int) *AppError {
	return &AppError{
		Code:       CodeSequenceOverflow,
		Message:    "document number exceeds configured width",
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"value": value, "width": width},
	}
}

// NewStorage wraps a failure reported by the underlying store.
func NewStorage(op string, err error) *AppError {
	e := &AppError{
		Code:       CodeDatabase,
		Message:    "storage failure",
		HTTPStatus: http.StatusServiceUnavailable,
		Details:    map[string]any{"op": op},
		Err:        err,
	}
	if errors.Is(err, context.DeadlineExceeded) {
		e.Code = CodeTimeout
		e.HTTPStatus = http.StatusGatewayTimeout
	}
	return e
}

// NewInsufficientStock creates a stock shortage error
func NewInsufficientStock(productID int64, requested, available int64) *AppError {
	return &AppError{
		Code:       CodeInsufficientStock,
		Message:    "Insufficient stock",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"product_id": productID,
			"requested":  requested,
			"available":  available,
		},
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewIdempotencyConflict creates error when operation is already in progress
func NewIdempotencyConflict(key string) *AppError {
	return &AppError{
		Code:       CodeIdempotency,
		Message:    "Operation already in progress or completed",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"idempotency_key": key},
	}
}

// NewIdempotencyMismatch is returned when the same idempotency key is reused for
// a different request body or operation.
func NewIdempotencyMismatch(key string) *AppError {
	return &AppError{
		Code:       CodeIdempotency,
		Message:    "Idempotency key mismatch",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"idempotency_key": key},
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf returns the code of the first AppError in the chain, or "".
func CodeOf(err error) string {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ""
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool { return CodeOf(err) == CodeNotFound }

// IsValidation checks if error is CodeValidation
func IsValidation(err error) bool { return CodeOf(err) == CodeValidation }

// IsSequenceMissing checks if error is CodeSequenceMissing
func IsSequenceMissing(err error) bool { return CodeOf(err) == CodeSequenceMissing }

// IsStorage checks if error came from the store (including timeouts).
func IsStorage(err error) bool {
	code := CodeOf(err)
	return code == CodeDatabase || code == CodeTimeout
}
