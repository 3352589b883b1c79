package httputil

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/specimen-gateway/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error represents API error
type Error struct {
	Code      int      `json:"code"`
	Kind      string   `json:"kind"`
	Message   string   `json:"message"`
	Keys      []string `json:"keys,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	RespondWithStatus(c, http.StatusOK, data)
}

func RespondWithStatus(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithError maps err onto an HTTP status and a message that is safe
// to show to the user. Upstream detail is logged, never sent.
func RespondWithError(c *gin.Context, err error) {
	apiErr := Describe(err)
	apiErr.RequestID = RequestID(c.Request.Context())

	logger := zerolog.Ctx(c.Request.Context())
	if apiErr.Code >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("kind", apiErr.Kind).Int("status", apiErr.Code).Msg("request failed")
	} else {
		logger.Info().Err(err).Str("kind", apiErr.Kind).Int("status", apiErr.Code).Msg("request rejected")
	}

	c.JSON(apiErr.Code, Response{
		Success: false,
		Error:   &apiErr,
	})
}

// Describe converts an error into its public form.
func Describe(err error) Error {
	var (
		emptyQuery *errors.EmptyQueryError
		filter     *errors.FilterValidationError
		page       *errors.PageConsistencyError
		shape      *errors.AggregateShapeError
		notFound   *errors.NotFoundError
		down       *errors.UnavailableError
		unauth     *errors.UnauthenticatedError
		appErr     *errors.AppError
	)

	switch {
	case stderrors.As(err, &emptyQuery):
		return Error{Code: http.StatusBadRequest, Kind: "empty_query", Message: "add at least one search condition"}
	case stderrors.As(err, &filter):
		return Error{Code: http.StatusBadRequest, Kind: "invalid_filter", Message: filter.Error(), Keys: filter.Keys}
	case stderrors.As(err, &notFound):
		return Error{Code: http.StatusNotFound, Kind: "not_found", Message: notFound.Error() + "; check the ID or search again"}
	case stderrors.As(err, &page), stderrors.As(err, &shape):
		return Error{Code: http.StatusBadGateway, Kind: "bad_upstream_response", Message: "the specimen service returned an unexpected answer, please try again later"}
	case stderrors.As(err, &unauth):
		return Error{Code: http.StatusUnauthorized, Kind: "unauthenticated", Message: "please sign in again"}
	case stderrors.As(err, &down):
		return Error{Code: http.StatusServiceUnavailable, Kind: "unavailable", Message: "the specimen service is unavailable, please try again later"}
	case stderrors.Is(err, context.DeadlineExceeded):
		return Error{Code: http.StatusGatewayTimeout, Kind: "timeout", Message: "the request took too long, please try again"}
	case stderrors.As(err, &appErr):
		status := StatusForCode(appErr.Code)
		msg := appErr.Message
		if status == http.StatusInternalServerError {
			msg = "internal server error"
		}
		return Error{Code: status, Kind: kindForStatus(status), Message: msg}
	default:
		return Error{Code: http.StatusInternalServerError, Kind: "internal", Message: "internal server error"}
	}
}

// StatusForCode maps AppError codes onto HTTP statuses.
func StatusForCode(code errors.ErrorCode) int {
	switch code {
	case errors.ErrNotFound:
		return http.StatusNotFound
	case errors.ErrBadRequest, errors.ErrEmptyQuery, errors.ErrFilterValidation:
		return http.StatusBadRequest
	case errors.ErrUnauthorized:
		return http.StatusUnauthorized
	case errors.ErrForbidden:
		return http.StatusForbidden
	case errors.ErrPageConsistency, errors.ErrAggregateShape:
		return http.StatusBadGateway
	case errors.ErrUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func kindForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusUnauthorized:
		return "unauthenticated"
	default:
		return "internal"
	}
}
