package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jwalitptl/specimen-gateway/pkg/errors"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"empty query", &apperrors.EmptyQueryError{}, http.StatusBadRequest, "empty_query"},
		{"filter", &apperrors.FilterValidationError{Keys: []string{"colour"}}, http.StatusBadRequest, "invalid_filter"},
		{"not found", &apperrors.NotFoundError{Resource: "occurrence", ID: "4"}, http.StatusNotFound, "not_found"},
		{"page", &apperrors.PageConsistencyError{Invariant: "total_pages_match"}, http.StatusBadGateway, "bad_upstream_response"},
		{"shape", fmt.Errorf("get: %w", &apperrors.AggregateShapeError{Field: "user_id"}), http.StatusBadGateway, "bad_upstream_response"},
		{"unavailable", &apperrors.UnavailableError{Op: "search", Status: 503}, http.StatusServiceUnavailable, "unavailable"},
		{"unauthenticated", &apperrors.UnauthenticatedError{}, http.StatusUnauthorized, "unauthenticated"},
		{"deadline", fmt.Errorf("search: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, "timeout"},
		{"bad request", apperrors.NewBadRequest("no files uploaded", nil), http.StatusBadRequest, "bad_request"},
		{"forbidden", apperrors.NewForbidden("nope", nil), http.StatusForbidden, "forbidden"},
		{"internal app error", apperrors.NewInternal(errors.New("db down")), http.StatusInternalServerError, "internal"},
		{"plain", errors.New("boom"), http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Describe(tt.err)
			assert.Equal(t, tt.status, got.Code)
			assert.Equal(t, tt.kind, got.Kind)
			assert.NotEmpty(t, got.Message)
		})
	}
}

func TestDescribe_HidesUpstreamDetail(t *testing.T) {
	got := Describe(&apperrors.AggregateShapeError{Field: "secret_field", Reason: "is required"})
	assert.NotContains(t, got.Message, "secret_field")

	got = Describe(apperrors.NewInternal(errors.New("password=hunter2")))
	assert.Equal(t, "internal server error", got.Message)
}

func TestRespondWithError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil).
		WithContext(WithRequestID(context.Background(), "req-9"))

	RespondWithError(c, &apperrors.FilterValidationError{Keys: []string{"a", "b"}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	require.NotNil(t, body.Error)
	assert.Equal(t, []string{"a", "b"}, body.Error.Keys)
	assert.Equal(t, "req-9", body.Error.RequestID)
}
