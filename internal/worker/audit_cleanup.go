package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/specimen-gateway/internal/repository"
	"github.com/jwalitptl/specimen-gateway/pkg/metrics"
)

// AuditCleanupWorker purges audit events older than the retention window.
// A non-positive retention keeps events forever.
type AuditCleanupWorker struct {
	repo      repository.AuditRepository
	retention int
	every     time.Duration
	purged    func(n int64)
	now       func() time.Time
}

func NewAuditCleanupWorker(repo repository.AuditRepository, retentionDays int, interval time.Duration, m *metrics.Metrics) *AuditCleanupWorker {
	return &AuditCleanupWorker{
		repo:      repo,
		retention: retentionDays,
		every:     interval,
		purged:    func(n int64) { m.AuditEventsPurged.Add(float64(n)) },
		now:       time.Now,
	}
}

// Start purges once right away, then on every tick until ctx is done.
func (w *AuditCleanupWorker) Start(ctx context.Context) {
	runEvery(ctx, w.every, func() {
		if err := w.cleanup(ctx); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("audit cleanup failed")
		}
	})
}

func (w *AuditCleanupWorker) cleanup(ctx context.Context) error {
	if w.retention <= 0 {
		return nil
	}

	cutoff := w.now().AddDate(0, 0, -w.retention)
	n, err := w.repo.Cleanup(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("purge before %s: %w", cutoff.Format(time.RFC3339), err)
	}

	w.purged(n)
	zerolog.Ctx(ctx).Info().Int64("rows", n).Time("cutoff", cutoff).Msg("audit events purged")
	return nil
}

// runEvery calls fn immediately and then once per interval until ctx is
// done. Calls never overlap.
func runEvery(ctx context.Context, interval time.Duration, fn func()) {
	fn()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}
