package reference

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/specimen-gateway/internal/model"
	"github.com/jwalitptl/specimen-gateway/internal/repository"
	"github.com/jwalitptl/specimen-gateway/pkg/metrics"
)

type fakeBackend struct {
	repository.OccurrenceBackend
	calls int
	err   error
}

func (f *fakeBackend) FetchCreateForm(_ context.Context, sess *model.Session) (*model.CreateForm, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	uid := sess.UserID
	return &model.CreateForm{
		Dropdowns: model.Dropdowns{Users: []model.UserOption{{UserID: uid, UserName: "u"}}},
		Defaults:  model.OccurrenceDraft{UserID: &uid},
	}, nil
}

func newTestService(b *fakeBackend) *Service {
	return NewService(b, Config{CacheTTL: time.Minute, CleanupInterval: time.Minute}, metrics.New(prometheus.NewRegistry(), "test"))
}

func TestCreateForm_CachedPerUser(t *testing.T) {
	b := &fakeBackend{}
	s := newTestService(b)
	ctx := context.Background()
	alice := &model.Session{Token: "a", UserID: 1}
	bob := &model.Session{Token: "b", UserID: 2}

	d, err := s.Dropdowns(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(1), d.Users[0].UserID)

	defaults, err := s.Defaults(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(1), *defaults.UserID)
	assert.Equal(t, 1, b.calls)

	defaults, err = s.Defaults(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, int64(2), *defaults.UserID)
	assert.Equal(t, 2, b.calls)
}

func TestInvalidate(t *testing.T) {
	b := &fakeBackend{}
	s := newTestService(b)
	sess := &model.Session{Token: "a", UserID: 1}

	_, err := s.CreateForm(context.Background(), sess)
	require.NoError(t, err)
	s.Invalidate(sess)
	_, err = s.CreateForm(context.Background(), sess)
	require.NoError(t, err)

	assert.Equal(t, 2, b.calls)
}

func TestCreateForm_ErrorsAreNotCached(t *testing.T) {
	b := &fakeBackend{err: errors.New("boom")}
	s := newTestService(b)
	sess := &model.Session{Token: "a"}

	_, err := s.CreateForm(context.Background(), sess)
	require.Error(t, err)

	b.err = nil
	_, err = s.CreateForm(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, 2, b.calls)
}
