// Package worker holds background maintenance workers.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/longnd/fixturewatch/internal/core/config"
	"github.com/longnd/fixturewatch/internal/infra/storage"
)

// Pruner deletes old snapshots and resolved failed rows based on the
// league's retention policy.
type Pruner struct {
	cfg       config.LeagueConfig
	snapshots storage.SnapshotRepository
	failed    storage.FailedRowRepository
}

// NewPruner creates a new Pruner worker.
func NewPruner(
	cfg config.LeagueConfig,
	snapshots storage.SnapshotRepository,
	failed storage.FailedRowRepository,
) *Pruner {
	return &Pruner{
		cfg:       cfg,
		snapshots: snapshots,
		failed:    failed,
	}
}

// Start runs the pruner loop.
func (p *Pruner) Start(ctx context.Context) {
	if p.cfg.RetentionPeriod <= 0 {
		return // Retention disabled
	}

	// Check at 10% of the retention period, clamped to [1m, 1h]
	interval := min(p.cfg.RetentionPeriod/10, 1*time.Hour)
	interval = max(interval, 1*time.Minute)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.prune(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.prune(ctx)
		}
	}
}

func (p *Pruner) prune(ctx context.Context) {
	cutoff := time.Now().Add(-p.cfg.RetentionPeriod)

	if err := p.snapshots.DeleteOlderThan(ctx, cutoff); err != nil {
		slog.Error("failed to prune snapshots", "league", p.cfg.ID, "error", err)
	}

	if err := p.failed.DeleteResolvedBefore(ctx, cutoff); err != nil {
		slog.Error("failed to prune resolved rows", "league", p.cfg.ID, "error", err)
	}
}
