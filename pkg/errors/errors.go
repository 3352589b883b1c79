package errors

import (
	"fmt"
	"strings"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrUnauthorized
	ErrForbidden
	ErrInternal
	ErrEmptyQuery
	ErrFilterValidation
	ErrPageConsistency
	ErrAggregateShape
	ErrUnavailable
)

func NewBadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

func NewForbidden(message string, err error) *AppError {
	return &AppError{
		Code:    ErrForbidden,
		Message: message,
		Err:     err,
	}
}

func NewInternal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// EmptyQueryError is returned when no search criterion survives normalization.
type EmptyQueryError struct{}

func (e *EmptyQueryError) Error() string {
	return "at least one search criterion is required"
}

func (e *EmptyQueryError) Code() ErrorCode { return ErrEmptyQuery }

// FilterValidationError lists criteria keys rejected by the configured allow-list.
type FilterValidationError struct {
	Keys []string
}

func (e *FilterValidationError) Error() string {
	return fmt.Sprintf("unsupported search criteria: %s", strings.Join(e.Keys, ", "))
}

func (e *FilterValidationError) Code() ErrorCode { return ErrFilterValidation }

// PageConsistencyError means the backend returned a result page that
// contradicts its own metadata.
type PageConsistencyError struct {
	Invariant string
	Detail    string
}

func (e *PageConsistencyError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("inconsistent result page: %s", e.Invariant)
	}
	return fmt.Sprintf("inconsistent result page: %s (%s)", e.Invariant, e.Detail)
}

func (e *PageConsistencyError) Code() ErrorCode { return ErrPageConsistency }

// AggregateShapeError means an occurrence payload is missing a required
// field or carries one with the wrong type.
type AggregateShapeError struct {
	Field  string
	Reason string
	Err    error
}

func (e *AggregateShapeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("malformed occurrence payload: %s", e.Reason)
	}
	return fmt.Sprintf("malformed occurrence payload: %s: %s", e.Field, e.Reason)
}

func (e *AggregateShapeError) Unwrap() error { return e.Err }

func (e *AggregateShapeError) Code() ErrorCode { return ErrAggregateShape }

// NotFoundError is returned when the backend reports that a resource does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Code() ErrorCode { return ErrNotFound }

// UnavailableError wraps transport failures, 5xx answers and an open breaker.
type UnavailableError struct {
	Op     string
	Status int
	Err    error
}

func (e *UnavailableError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: backend answered %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: backend unavailable: %v", e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

func (e *UnavailableError) Code() ErrorCode { return ErrUnavailable }

// UnauthenticatedError is returned for a missing or expired session.
type UnauthenticatedError struct {
	Reason string
}

func (e *UnauthenticatedError) Error() string {
	if e.Reason == "" {
		return "unauthenticated"
	}
	return "unauthenticated: " + e.Reason
}

func (e *UnauthenticatedError) Code() ErrorCode { return ErrUnauthorized }
