package postgres

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/specimen-gateway/internal/model"
)

// openTestDB connects to SPECIMEN_TEST_DATABASE_DSN or skips.
func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv("SPECIMEN_TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("SPECIMEN_TEST_DATABASE_DSN not set")
	}
	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestAuditRepository(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewAuditRepository(db)
	require.NoError(t, repo.EnsureSchema(ctx))

	uid := int64(7)
	count := 3
	old := &model.AuditEvent{
		ID:        uuid.New(),
		Action:    model.AuditActionView,
		UserID:    &uid,
		CreatedAt: time.Now().Add(-48 * time.Hour).UTC(),
	}
	recent := &model.AuditEvent{
		ID:          uuid.New(),
		Action:      model.AuditActionSearch,
		Criteria:    json.RawMessage(`{"species":"formica"}`),
		ResultCount: &count,
		RequestID:   "req-1",
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, old))
	require.NoError(t, repo.Create(ctx, recent))
	require.NoError(t, repo.Create(ctx, recent))

	events, err := repo.Recent(ctx, model.AuditActionSearch, 10)
	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Equal(t, recent.ID, events[0].ID)
	assert.JSONEq(t, `{"species":"formica"}`, string(events[0].Criteria))
	assert.Equal(t, 3, *events[0].ResultCount)

	purged, err := repo.Cleanup(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, purged, int64(1))
}
