package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotJWT is returned for tokens that are not three-segment JWTs.
var ErrNotJWT = errors.New("token is not a JWT")

// Claims are the identity fields the backend puts into its session token.
type Claims struct {
	UserID    int64
	UserName  string
	ExpiresAt time.Time
}

// ParseClaims reads the payload of a backend-issued token without checking
// its signature. The backend verifies the token on every call; the gateway
// only needs the expiry and the user identity for display and auditing.
func ParseClaims(token string) (*Claims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, ErrNotJWT
		}
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	out := &Claims{}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("invalid exp claim: %w", err)
	}
	if exp != nil {
		out.ExpiresAt = exp.Time
	}

	switch v := claims["user_id"].(type) {
	case float64:
		out.UserID = int64(v)
	case string:
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			out.UserID = id
		}
	}
	if out.UserID == 0 {
		if sub, err := claims.GetSubject(); err == nil && sub != "" {
			if id, err := strconv.ParseInt(sub, 10, 64); err == nil {
				out.UserID = id
			}
		}
	}

	for _, key := range []string{"user_name", "name", "email"} {
		if s, ok := claims[key].(string); ok && s != "" {
			out.UserName = s
			break
		}
	}
	return out, nil
}
