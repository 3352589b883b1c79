package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jwalitptl/specimen-gateway/internal/model"
	apperrors "github.com/jwalitptl/specimen-gateway/pkg/errors"
)

type loginResponse struct {
	Token string `json:"token"`
}

// Login relays credentials to the backend and returns its bearer token.
func (c *Client) Login(ctx context.Context, creds model.Credentials) (string, error) {
	body, err := json.Marshal(creds)
	if err != nil {
		return "", fmt.Errorf("failed to encode credentials: %w", err)
	}

	resp, err := c.do(ctx, call{
		op:          "login",
		method:      http.MethodPost,
		path:        []string{"login"},
		body:        body,
		contentType: "application/json",
		public:      true,
	})
	if err != nil {
		return "", err
	}
	switch {
	case resp.status == http.StatusUnauthorized || resp.status == http.StatusBadRequest:
		return "", &apperrors.UnauthenticatedError{Reason: "invalid credentials"}
	case !isSuccess(resp.status):
		return "", statusError(resp, "login", "")
	}

	var out loginResponse
	if err := json.Unmarshal(resp.body, &out); err != nil || out.Token == "" {
		return "", &apperrors.UnavailableError{Op: "login", Err: fmt.Errorf("backend returned no token")}
	}
	return out.Token, nil
}
