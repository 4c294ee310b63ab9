package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/longnd/fixturewatch/internal/core/config"
	"github.com/longnd/fixturewatch/internal/core/domain"
	"github.com/longnd/fixturewatch/internal/infra/csvstore"
	"github.com/longnd/fixturewatch/internal/infra/storage"
	"github.com/longnd/fixturewatch/internal/reliability"
	"github.com/longnd/fixturewatch/internal/validate"
)

// Pipeline runs the scrape → validate → persist flow for one league.
type Pipeline struct {
	cfg      config.LeagueConfig
	source   Source
	fallback Source // optional lower-fidelity mirror
	manager  *reliability.Manager

	fixtures  storage.FixtureRepository
	failed    storage.FailedRowRepository
	snapshots storage.SnapshotRepository
	csv       *csvstore.Store
}

// NewPipeline creates a pipeline for one configured league. fallback
// may be nil when no mirror is configured.
func NewPipeline(
	cfg config.LeagueConfig,
	source Source,
	fallback Source,
	manager *reliability.Manager,
	fixtures storage.FixtureRepository,
	failed storage.FailedRowRepository,
	snapshots storage.SnapshotRepository,
	csv *csvstore.Store,
) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		source:    source,
		fallback:  fallback,
		manager:   manager,
		fixtures:  fixtures,
		failed:    failed,
		snapshots: snapshots,
		csv:       csv,
	}
}

// operationName is the breaker key for this league's fetch.
func (p *Pipeline) operationName() string {
	return fmt.Sprintf("scrape:%s", p.cfg.ID)
}

// Run executes one scrape cycle and returns the recorded snapshot.
// Rows that fail validation do not abort the run; they are queued for
// replay and reported in the snapshot counts.
func (p *Pipeline) Run(ctx context.Context) (*domain.Snapshot, error) {
	league, season := p.cfg.ID, p.cfg.Season
	opName := p.operationName()

	rows, err := p.fetch(ctx)
	if err != nil {
		metricRunsTotal.WithLabelValues(string(league), "failed").Inc()
		return nil, err
	}

	outcome := reliability.HandlePartialFailure(ctx, opName+":validate", rows,
		func(ctx context.Context, raw domain.RawFixture) (*domain.Fixture, error) {
			return validate.Fixture(raw)
		})

	if err := p.fixtures.SaveBatch(ctx, outcome.Succeeded); err != nil {
		metricRunsTotal.WithLabelValues(string(league), "failed").Inc()
		return nil, fmt.Errorf("failed to persist fixtures for %s: %w", league, err)
	}

	csvPath, err := p.csv.Write(league, season, outcome.Succeeded)
	if err != nil {
		metricRunsTotal.WithLabelValues(string(league), "failed").Inc()
		return nil, fmt.Errorf("failed to write snapshot csv for %s: %w", league, err)
	}

	for _, item := range outcome.Failed {
		now := time.Now()
		row := &domain.FailedRow{
			ID:          uuid.New().String(),
			League:      league,
			Season:      season,
			Kind:        string(item.Failure.Kind),
			Raw:         item.Item,
			Error:       item.Failure.Message,
			Status:      domain.FailedRowStatusPending,
			LastAttempt: now,
			CreatedAt:   now,
		}
		if err := p.failed.Add(ctx, row); err != nil {
			slog.Error("failed to enqueue failed row", "league", league, "line", item.Item.Line, "error", err)
		}
	}

	snapshot := &domain.Snapshot{
		ID:           uuid.New().String(),
		League:       league,
		Season:       season,
		RowsTotal:    len(rows),
		RowsValid:    len(outcome.Succeeded),
		RowsFailed:   len(outcome.Failed),
		QualityScore: validate.QualityScore(len(outcome.Succeeded), len(rows)),
		CSVPath:      csvPath,
		ScrapedAt:    time.Now(),
	}
	if err := p.snapshots.Save(ctx, snapshot); err != nil {
		metricRunsTotal.WithLabelValues(string(league), "failed").Inc()
		return nil, fmt.Errorf("failed to record snapshot for %s: %w", league, err)
	}

	metricRunsTotal.WithLabelValues(string(league), "ok").Inc()
	metricRowsScraped.WithLabelValues(string(league), "valid").Add(float64(snapshot.RowsValid))
	metricRowsScraped.WithLabelValues(string(league), "failed").Add(float64(snapshot.RowsFailed))
	metricQualityScore.WithLabelValues(string(league)).Set(snapshot.QualityScore)

	slog.Info("scrape run completed",
		"league", league,
		"season", season,
		"rows_total", snapshot.RowsTotal,
		"rows_valid", snapshot.RowsValid,
		"rows_failed", snapshot.RowsFailed,
		"quality_score", snapshot.QualityScore,
		"csv_path", csvPath,
	)
	return snapshot, nil
}

// fetch reads the schedule through the recovery manager: breaker plus
// retries on the primary source, then one pass at the mirror if set.
func (p *Pipeline) fetch(ctx context.Context) ([]domain.RawFixture, error) {
	primary := func(ctx context.Context) (any, error) {
		return p.source.ReadSchedule(ctx, p.cfg.ID, p.cfg.Season)
	}

	var result any
	var err error
	if p.fallback != nil {
		fallback := func(ctx context.Context) (any, error) {
			return p.fallback.ReadSchedule(ctx, p.cfg.ID, p.cfg.Season)
		}
		result, err = p.manager.GracefulDegradation(ctx, p.operationName(), primary, fallback)
	} else {
		result, err = p.manager.SafeExecute(ctx, p.operationName(), primary)
	}
	if err != nil {
		return nil, err
	}

	rows, ok := result.([]domain.RawFixture)
	if !ok {
		return nil, fmt.Errorf("unexpected schedule result type %T", result)
	}
	return rows, nil
}

// Start runs the pipeline on its scan interval until ctx is cancelled.
// An initial run fires immediately so a fresh process serves data
// without waiting a full interval.
func (p *Pipeline) Start(ctx context.Context) {
	if _, err := p.Run(ctx); err != nil {
		slog.Error("scrape run failed", "league", p.cfg.ID, "error", err)
	}

	ticker := time.NewTicker(p.cfg.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := p.Run(ctx); err != nil {
				slog.Error("scrape run failed", "league", p.cfg.ID, "error", err)
			}
		}
	}
}
