package reference

import (
	"context"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/specimen-gateway/internal/model"
	"github.com/jwalitptl/specimen-gateway/internal/repository"
	"github.com/jwalitptl/specimen-gateway/pkg/metrics"
)

type Config struct {
	CacheTTL        time.Duration
	CleanupInterval time.Duration
}

// Service serves the create-page reference data. The backend bundles the
// dropdown lists with the caller's defaults, so entries are cached per user.
type Service struct {
	backend repository.OccurrenceBackend
	cache   *cache.Cache
	metrics *metrics.Metrics
}

func NewService(backend repository.OccurrenceBackend, cfg Config, m *metrics.Metrics) *Service {
	return &Service{
		backend: backend,
		cache:   cache.New(cfg.CacheTTL, cfg.CleanupInterval),
		metrics: m,
	}
}

func (s *Service) CreateForm(ctx context.Context, sess *model.Session) (*model.CreateForm, error) {
	key := cacheKey(sess)
	if cached, found := s.cache.Get(key); found {
		s.metrics.ReferenceCache.WithLabelValues("hit").Inc()
		return cached.(*model.CreateForm), nil
	}
	s.metrics.ReferenceCache.WithLabelValues("miss").Inc()

	form, err := s.backend.FetchCreateForm(ctx, sess)
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, form, cache.DefaultExpiration)
	zerolog.Ctx(ctx).Debug().Str("key", key).Msg("reference data cached")
	return form, nil
}

func (s *Service) Dropdowns(ctx context.Context, sess *model.Session) (model.Dropdowns, error) {
	form, err := s.CreateForm(ctx, sess)
	if err != nil {
		return model.Dropdowns{}, err
	}
	return form.Dropdowns, nil
}

func (s *Service) Defaults(ctx context.Context, sess *model.Session) (model.OccurrenceDraft, error) {
	form, err := s.CreateForm(ctx, sess)
	if err != nil {
		return model.OccurrenceDraft{}, err
	}
	return form.Defaults, nil
}

// Invalidate drops the caller's cached entry, e.g. after a create changed
// the defaults the backend will offer next.
func (s *Service) Invalidate(sess *model.Session) {
	s.cache.Delete(cacheKey(sess))
}

func cacheKey(sess *model.Session) string {
	if sess == nil {
		return "anonymous"
	}
	if sess.UserID != 0 {
		return "user:" + strconv.FormatInt(sess.UserID, 10)
	}
	return "token:" + sess.Token
}
