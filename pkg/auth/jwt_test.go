package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-secret"))
	require.NoError(t, err)
	return token
}

func TestParseClaims(t *testing.T) {
	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	token := sign(t, jwt.MapClaims{
		"user_id":   float64(7),
		"user_name": "saku",
		"exp":       exp.Unix(),
	})

	claims, err := ParseClaims(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "saku", claims.UserName)
	assert.True(t, exp.Equal(claims.ExpiresAt))
}

func TestParseClaims_SubjectAndEmail(t *testing.T) {
	claims, err := ParseClaims(sign(t, jwt.MapClaims{"sub": "12", "email": "a@b.c"}))
	require.NoError(t, err)
	assert.Equal(t, int64(12), claims.UserID)
	assert.Equal(t, "a@b.c", claims.UserName)
	assert.True(t, claims.ExpiresAt.IsZero())
}

func TestParseClaims_ExpiredTokenStillParses(t *testing.T) {
	claims, err := ParseClaims(sign(t, jwt.MapClaims{"exp": time.Now().Add(-time.Hour).Unix()}))
	require.NoError(t, err)
	assert.True(t, claims.ExpiresAt.Before(time.Now()))
}

func TestParseClaims_Opaque(t *testing.T) {
	_, err := ParseClaims("0123456789abcdef")
	assert.ErrorIs(t, err, ErrNotJWT)
}
