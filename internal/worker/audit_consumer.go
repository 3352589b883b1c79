package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/specimen-gateway/internal/model"
	"github.com/jwalitptl/specimen-gateway/internal/repository"
	"github.com/jwalitptl/specimen-gateway/pkg/messaging"
	"github.com/jwalitptl/specimen-gateway/pkg/metrics"
)

// AuditConsumer persists audit events published by the gateway.
type AuditConsumer struct {
	broker  messaging.Subscriber
	channel string
	repo    repository.AuditRepository
	metrics *metrics.Metrics
}

func NewAuditConsumer(broker messaging.Subscriber, channel string, repo repository.AuditRepository, m *metrics.Metrics) *AuditConsumer {
	return &AuditConsumer{
		broker:  broker,
		channel: channel,
		repo:    repo,
		metrics: m,
	}
}

// Run blocks until ctx is done or the subscription ends.
func (c *AuditConsumer) Run(ctx context.Context) error {
	return messaging.Consume(ctx, c.broker, c.channel, c.handle)
}

func (c *AuditConsumer) handle(ctx context.Context, payload []byte) error {
	var event model.AuditEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		c.metrics.AuditEventsFailed.Inc()
		return fmt.Errorf("failed to decode audit event: %w", err)
	}
	if event.ID == uuid.Nil || event.Action == "" || event.CreatedAt.IsZero() {
		c.metrics.AuditEventsFailed.Inc()
		return fmt.Errorf("incomplete audit event %q", payload)
	}

	if err := c.repo.Create(ctx, &event); err != nil {
		c.metrics.AuditEventsFailed.Inc()
		return fmt.Errorf("failed to store audit event %s: %w", event.ID, err)
	}

	c.metrics.AuditEventsPersisted.Inc()
	zerolog.Ctx(ctx).Debug().Str("audit_id", event.ID.String()).Str("action", event.Action).Msg("audit event stored")
	return nil
}
