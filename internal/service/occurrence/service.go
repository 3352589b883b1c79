package occurrence

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/specimen-gateway/internal/model"
	"github.com/jwalitptl/specimen-gateway/internal/repository"
	"github.com/jwalitptl/specimen-gateway/internal/service/audit"
	"github.com/jwalitptl/specimen-gateway/internal/service/draft"
	"github.com/jwalitptl/specimen-gateway/internal/service/query"
	apperrors "github.com/jwalitptl/specimen-gateway/pkg/errors"
	"github.com/jwalitptl/specimen-gateway/pkg/metrics"
)

// AuditLogger is satisfied by *audit.Service.
type AuditLogger interface {
	Log(ctx context.Context, action string, sess *model.Session, opts *audit.LogOptions)
}

type Service struct {
	backend repository.OccurrenceBackend
	builder *query.Builder
	audit   AuditLogger
	metrics *metrics.Metrics
}

func NewService(backend repository.OccurrenceBackend, builder *query.Builder, auditLogger AuditLogger, m *metrics.Metrics) *Service {
	return &Service{
		backend: backend,
		builder: builder,
		audit:   auditLogger,
		metrics: m,
	}
}

// Search normalizes the criteria, queries the backend and validates the
// returned page. An empty query never reaches the backend.
func (s *Service) Search(ctx context.Context, sess *model.Session, raw map[string]string, page, perPage int) (model.ResultPage[model.OccurrenceSummary], error) {
	q, err := s.builder.Build(raw, page, perPage)
	if err != nil {
		return model.ResultPage[model.OccurrenceSummary]{}, err
	}

	result, err := s.backend.SearchOccurrences(ctx, sess, q)
	if err != nil {
		s.recordViolation(ctx, err)
		return model.ResultPage[model.OccurrenceSummary]{}, err
	}

	result, err = ValidatePage(result)
	if err != nil {
		s.recordViolation(ctx, err)
		return model.ResultPage[model.OccurrenceSummary]{}, err
	}

	count := result.TotalResults
	s.audit.Log(ctx, model.AuditActionSearch, sess, &audit.LogOptions{
		Criteria:    q.Criteria,
		ResultCount: &count,
	})
	return result, nil
}

// Get fetches and assembles one occurrence.
func (s *Service) Get(ctx context.Context, sess *model.Session, id int64) (*model.OccurrenceAggregate, error) {
	payload, err := s.backend.FetchOccurrence(ctx, sess, id)
	if err != nil {
		return nil, err
	}

	agg, err := Assemble(payload)
	if err != nil {
		s.recordViolation(ctx, err)
		return nil, err
	}

	s.audit.Log(ctx, model.AuditActionView, sess, &audit.LogOptions{OccurrenceID: &agg.OccurrenceID})
	return agg, nil
}

// Create validates the draft and submits it. It returns the new occurrence ID.
func (s *Service) Create(ctx context.Context, sess *model.Session, d model.OccurrenceDraft) (int64, error) {
	if err := draft.Validate(d); err != nil {
		return 0, err
	}

	id, err := s.backend.CreateOccurrence(ctx, sess, d)
	if err != nil {
		return 0, fmt.Errorf("failed to create occurrence: %w", err)
	}

	zerolog.Ctx(ctx).Info().Int64("occurrence_id", id).Msg("occurrence created")
	s.audit.Log(ctx, model.AuditActionCreate, sess, &audit.LogOptions{OccurrenceID: &id})
	return id, nil
}

// Attach relays uploaded files to an existing occurrence.
func (s *Service) Attach(ctx context.Context, sess *model.Session, id int64, files []repository.Upload) ([]model.AttachmentDetail, error) {
	if len(files) == 0 {
		return nil, apperrors.NewBadRequest("no files uploaded", nil)
	}

	attachments, err := s.backend.UploadAttachments(ctx, sess, id, files)
	if err != nil {
		return nil, fmt.Errorf("failed to attach files: %w", err)
	}

	s.audit.Log(ctx, model.AuditActionAttach, sess, &audit.LogOptions{OccurrenceID: &id})
	return attachments, nil
}

// recordViolation counts and logs answers that break the backend contract.
func (s *Service) recordViolation(ctx context.Context, err error) {
	var (
		pageErr  *apperrors.PageConsistencyError
		shapeErr *apperrors.AggregateShapeError
		kind     string
	)
	switch {
	case errors.As(err, &pageErr):
		kind = "page_consistency"
	case errors.As(err, &shapeErr):
		kind = "aggregate_shape"
	default:
		return
	}
	s.metrics.ContractViolations.WithLabelValues(kind).Inc()
	zerolog.Ctx(ctx).Error().Err(err).Str("kind", kind).Msg("backend response rejected")
}
