package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/specimen-gateway/internal/model"
	"github.com/jwalitptl/specimen-gateway/pkg/httputil"
	"github.com/jwalitptl/specimen-gateway/pkg/messaging"
)

// Publisher is satisfied by the Redis broker.
type Publisher = messaging.Publisher

type Service struct {
	publisher Publisher
	channel   string
	now       func() time.Time
}

// NewService returns an audit service. A nil publisher only logs events.
func NewService(publisher Publisher, channel string) *Service {
	return &Service{
		publisher: publisher,
		channel:   channel,
		now:       time.Now,
	}
}

type LogOptions struct {
	OccurrenceID *int64
	Criteria     map[string]string
	ResultCount  *int
}

// Log records an action. Audit failures never fail the caller's request.
func (s *Service) Log(ctx context.Context, action string, sess *model.Session, opts *LogOptions) {
	logger := zerolog.Ctx(ctx)

	event := model.AuditEvent{
		ID:        uuid.New(),
		Action:    action,
		RequestID: httputil.RequestID(ctx),
		CreatedAt: s.now().UTC(),
	}
	if sess != nil && sess.UserID != 0 {
		uid := sess.UserID
		event.UserID = &uid
	}
	if opts != nil {
		event.OccurrenceID = opts.OccurrenceID
		event.ResultCount = opts.ResultCount
		if len(opts.Criteria) > 0 {
			criteria, err := json.Marshal(opts.Criteria)
			if err != nil {
				logger.Warn().Err(err).Str("action", action).Msg("failed to encode audit criteria")
			} else {
				event.Criteria = criteria
			}
		}
	}

	if s.publisher == nil {
		logger.Info().
			Str("audit_id", event.ID.String()).
			Str("action", event.Action).
			RawJSON("criteria", rawOrNull(event.Criteria)).
			Msg("audit event")
		return
	}

	if err := s.publisher.Publish(ctx, s.channel, event); err != nil {
		logger.Warn().Err(err).
			Str("audit_id", event.ID.String()).
			Str("action", event.Action).
			Msg("failed to publish audit event")
	}
}

func rawOrNull(b json.RawMessage) []byte {
	if len(b) == 0 {
		return []byte("null")
	}
	return b
}
