package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/longnd/fixturewatch/internal/core/domain"
	"github.com/longnd/fixturewatch/internal/infra/storage"
	"github.com/longnd/fixturewatch/internal/reliability"
	"github.com/longnd/fixturewatch/internal/validate"
)

// Replayer drains the failed-row queue, re-validating rows whose
// backoff window has elapsed. Rows keep failing until either the
// upstream fixes its data in a later scrape or an operator marks them
// ignored.
type Replayer struct {
	league   domain.LeagueID
	failed   storage.FailedRowRepository
	fixtures storage.FixtureRepository
	backoff  reliability.RetryPolicy
	interval time.Duration
}

// NewReplayer creates a replay worker for one league's queue.
func NewReplayer(
	league domain.LeagueID,
	failed storage.FailedRowRepository,
	fixtures storage.FixtureRepository,
) *Replayer {
	return &Replayer{
		league:   league,
		failed:   failed,
		fixtures: fixtures,
		// 2m, 4m, 8m... capped at an hour between replays of one row
		backoff:  reliability.RetryPolicy{BaseDelay: 2 * time.Minute, Multiplier: 2, MaxDelay: time.Hour},
		interval: time.Minute,
	}
}

// ProcessNext picks the next pending row and replays it if its backoff
// allows. Returns nil when the queue is empty or the row must wait.
func (r *Replayer) ProcessNext(ctx context.Context) error {
	row, err := r.failed.GetNext(ctx, r.league)
	if err != nil {
		return fmt.Errorf("failed to get next failed row: %w", err)
	}
	if row == nil {
		return nil
	}

	delay := r.backoff.Delay(row.RetryCount + 1)
	if time.Now().Before(row.LastAttempt.Add(delay)) {
		return nil
	}

	fixture, err := validate.Fixture(row.Raw)
	if err == nil {
		if err := r.fixtures.Save(ctx, fixture); err != nil {
			return fmt.Errorf("failed to persist replayed row %s: %w", row.ID, err)
		}
		if err := r.failed.MarkResolved(ctx, row.ID); err != nil {
			return fmt.Errorf("failed to resolve row %s: %w", row.ID, err)
		}
		metricFailedRowsReplayed.WithLabelValues(string(r.league), "resolved").Inc()
		slog.Info("failed row resolved on replay", "league", r.league, "id", row.ID, "line", row.Raw.Line)
		return nil
	}

	if err := r.failed.IncrementRetry(ctx, row.ID); err != nil {
		return fmt.Errorf("failed to increment retry for row %s: %w", row.ID, err)
	}
	metricFailedRowsReplayed.WithLabelValues(string(r.league), "still_failing").Inc()
	slog.Debug("failed row still failing",
		"league", r.league,
		"id", row.ID,
		"retry_count", row.RetryCount+1,
		"error", err,
	)
	return nil
}

// Start runs the replay loop until ctx is cancelled.
func (r *Replayer) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.ProcessNext(ctx); err != nil {
				slog.Error("replay worker error", "league", r.league, "error", err)
			}
		}
	}
}
