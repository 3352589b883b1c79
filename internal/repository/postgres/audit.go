package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/specimen-gateway/internal/model"
	"github.com/jwalitptl/specimen-gateway/internal/repository"
)

const auditSchema = `
CREATE TABLE IF NOT EXISTS audit_events (
    id            UUID PRIMARY KEY,
    action        TEXT        NOT NULL,
    user_id       BIGINT,
    occurrence_id BIGINT,
    criteria      JSONB,
    result_count  INTEGER,
    request_id    TEXT        NOT NULL DEFAULT '',
    created_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS audit_events_created_at_idx ON audit_events (created_at);
`

// AuditRepository stores audit events in the audit_events table.
type AuditRepository struct {
	db *sqlx.DB
}

func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

var _ repository.AuditRepository = (*AuditRepository)(nil)

// EnsureSchema creates the audit table when it does not exist yet.
func (r *AuditRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, auditSchema); err != nil {
		return fmt.Errorf("failed to create audit schema: %w", err)
	}
	return nil
}

// Create stores an event. Redelivered events with a known ID are ignored.
func (r *AuditRepository) Create(ctx context.Context, event *model.AuditEvent) error {
	query := `
        INSERT INTO audit_events (
            id, action, user_id, occurrence_id, criteria, result_count, request_id, created_at
        ) VALUES (
            :id, :action, :user_id, :occurrence_id, :criteria, :result_count, :request_id, :created_at
        )
        ON CONFLICT (id) DO NOTHING
    `

	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, query, auditRow(event)); err != nil {
			return fmt.Errorf("failed to insert audit event: %w", err)
		}
		return nil
	})
}

// Recent lists the newest events, optionally for one action only.
func (r *AuditRepository) Recent(ctx context.Context, action string, limit int) ([]model.AuditEvent, error) {
	query := `SELECT id, action, user_id, occurrence_id, criteria, result_count, request_id, created_at FROM audit_events`
	var args []interface{}
	if action != "" {
		args = append(args, action)
		query += fmt.Sprintf(" WHERE action = $%d", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	var rows []eventRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}

	events := make([]model.AuditEvent, len(rows))
	for i, row := range rows {
		events[i] = row.event()
	}
	return events, nil
}

func (r *AuditRepository) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	query := `
        DELETE FROM audit_events
        WHERE created_at < $1
    `

	result, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup audit events: %w", err)
	}

	return result.RowsAffected()
}

// eventRow maps the nullable JSONB column, which lib/pq hands back as
// []byte or NULL.
type eventRow struct {
	model.AuditEvent
	CriteriaJSON []byte `db:"criteria"`
}

func auditRow(e *model.AuditEvent) map[string]interface{} {
	// lib/pq sends []byte as bytea; JSONB needs text.
	var criteria interface{}
	if len(e.Criteria) > 0 {
		criteria = string(e.Criteria)
	}
	return map[string]interface{}{
		"id":            e.ID,
		"action":        e.Action,
		"user_id":       e.UserID,
		"occurrence_id": e.OccurrenceID,
		"criteria":      criteria,
		"result_count":  e.ResultCount,
		"request_id":    e.RequestID,
		"created_at":    e.CreatedAt,
	}
}

func (r eventRow) event() model.AuditEvent {
	e := r.AuditEvent
	e.Criteria = r.CriteriaJSON
	return e
}
