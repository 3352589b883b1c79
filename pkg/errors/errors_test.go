package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&EmptyQueryError{}, "at least one search criterion is required"},
		{&FilterValidationError{Keys: []string{"colour", "size"}}, "unsupported search criteria: colour, size"},
		{&PageConsistencyError{Invariant: "total_pages_match"}, "inconsistent result page: total_pages_match"},
		{&PageConsistencyError{Invariant: "wire_shape", Detail: "bad json"}, "inconsistent result page: wire_shape (bad json)"},
		{&AggregateShapeError{Field: "user_id", Reason: "is required"}, "malformed occurrence payload: user_id: is required"},
		{&NotFoundError{Resource: "occurrence", ID: "4"}, "occurrence 4 not found"},
		{&NotFoundError{Resource: "create form"}, "create form not found"},
		{&UnavailableError{Op: "search", Status: 502}, "search: backend answered 502"},
		{&UnauthenticatedError{}, "unauthenticated"},
		{NewBadRequest("no files uploaded", nil), "no files uploaded"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("connection refused")

	down := fmt.Errorf("fetch: %w", &UnavailableError{Op: "fetch", Err: cause})
	assert.ErrorIs(t, down, cause)

	var target *UnavailableError
	assert.ErrorAs(t, down, &target)
	assert.Equal(t, ErrUnavailable, target.Code())

	internal := NewInternal(cause)
	assert.ErrorIs(t, internal, cause)
	assert.Equal(t, "internal server error: connection refused", internal.Error())
}

func TestCodes(t *testing.T) {
	assert.Equal(t, ErrEmptyQuery, (&EmptyQueryError{}).Code())
	assert.Equal(t, ErrFilterValidation, (&FilterValidationError{}).Code())
	assert.Equal(t, ErrPageConsistency, (&PageConsistencyError{}).Code())
	assert.Equal(t, ErrAggregateShape, (&AggregateShapeError{}).Code())
	assert.Equal(t, ErrNotFound, (&NotFoundError{}).Code())
	assert.Equal(t, ErrUnauthorized, (&UnauthenticatedError{}).Code())
}
