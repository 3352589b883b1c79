package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/specimen-gateway/internal/model"
	"github.com/jwalitptl/specimen-gateway/internal/service/audit"
	apperrors "github.com/jwalitptl/specimen-gateway/pkg/errors"
)

type fakeAuthBackend struct {
	token string
	err   error
	got   model.Credentials
}

func (f *fakeAuthBackend) Login(_ context.Context, creds model.Credentials) (string, error) {
	f.got = creds
	return f.token, f.err
}

type fakeAudit struct {
	actions []string
}

func (f *fakeAudit) Log(_ context.Context, action string, _ *model.Session, _ *audit.LogOptions) {
	f.actions = append(f.actions, action)
}

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(b *fakeAuthBackend) (*Service, *fakeAudit) {
	a := &fakeAudit{}
	s := NewService(b, a, 24*time.Hour)
	s.now = func() time.Time { return fixedNow }
	return s, a
}

func jwtToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)
	return token
}

func TestLogin_JWT(t *testing.T) {
	exp := fixedNow.Add(2 * time.Hour)
	b := &fakeAuthBackend{token: jwtToken(t, jwt.MapClaims{"user_id": 7, "user_name": "saku", "exp": exp.Unix()})}
	s, a := newTestService(b)

	sess, err := s.Login(context.Background(), model.Credentials{Email: " saku@example.com ", Password: "pw"})
	require.NoError(t, err)

	assert.Equal(t, "saku@example.com", b.got.Email)
	assert.Equal(t, int64(7), sess.UserID)
	assert.Equal(t, "saku", sess.UserName)
	assert.True(t, exp.Equal(sess.ExpiresAt))
	assert.Equal(t, []string{model.AuditActionLogin}, a.actions)
}

func TestLogin_OpaqueTokenGetsTTL(t *testing.T) {
	s, _ := newTestService(&fakeAuthBackend{token: "opaque-token"})

	sess, err := s.Login(context.Background(), model.Credentials{Email: "a@b.c", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "opaque-token", sess.Token)
	assert.Equal(t, fixedNow.Add(24*time.Hour), sess.ExpiresAt)
	assert.Equal(t, "a@b.c", sess.UserName)
}

func TestLogin_Rejected(t *testing.T) {
	s, a := newTestService(&fakeAuthBackend{err: &apperrors.UnauthenticatedError{Reason: "invalid credentials"}})

	sess, err := s.Login(context.Background(), model.Credentials{Email: "a@b.c", Password: "bad"})
	assert.Nil(t, sess)
	var unauth *apperrors.UnauthenticatedError
	assert.True(t, errors.As(err, &unauth))
	assert.Empty(t, a.actions)
}

func TestSession(t *testing.T) {
	s, _ := newTestService(&fakeAuthBackend{})

	_, err := s.Session("  ")
	var unauth *apperrors.UnauthenticatedError
	assert.True(t, errors.As(err, &unauth))

	expired := jwtToken(t, jwt.MapClaims{"user_id": 7, "exp": fixedNow.Add(-time.Minute).Unix()})
	_, err = s.Session(expired)
	require.True(t, errors.As(err, &unauth))
	assert.Equal(t, "session expired", unauth.Reason)

	valid := jwtToken(t, jwt.MapClaims{"user_id": "9", "exp": fixedNow.Add(time.Minute).Unix()})
	sess, err := s.Session(valid)
	require.NoError(t, err)
	assert.Equal(t, int64(9), sess.UserID)
	assert.Equal(t, valid, sess.Token)
}

func TestLogout(t *testing.T) {
	s, a := newTestService(&fakeAuthBackend{})
	s.Logout(context.Background(), &model.Session{Token: "t"})
	assert.Equal(t, []string{model.AuditActionLogout}, a.actions)
}
