// Package api serves fixture data and system health over HTTP.
package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/longnd/fixturewatch/internal/core/config"
	"github.com/longnd/fixturewatch/internal/core/domain"
	"github.com/longnd/fixturewatch/internal/infra/storage"
	"github.com/longnd/fixturewatch/internal/reliability"
)

// SystemStatus represents the health state of the system or a league.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// LeagueHealth contains health metrics for one tracked league.
type LeagueHealth struct {
	League       domain.LeagueID          `json:"league"`
	Status       SystemStatus             `json:"status"`
	QualityScore float64                  `json:"quality_score"`
	FailedRows   int                      `json:"failed_rows"`
	LastScrape   *time.Time               `json:"last_scrape,omitempty"`
	ScrapeAge    string                   `json:"scrape_age,omitempty"`
	Breaker      reliability.BreakerState `json:"breaker"`
}

// Monitor aggregates health status across leagues from snapshots, the
// failed-row queue and the circuit breakers.
type Monitor struct {
	leagues []config.LeagueConfig

	snapshots storage.SnapshotRepository
	failed    storage.FailedRowRepository
	manager   *reliability.Manager

	mu         sync.Mutex
	lastCheck  time.Time
	lastReport map[domain.LeagueID]LeagueHealth
}

// NewMonitor creates a health monitor over the given leagues.
func NewMonitor(
	leagues []config.LeagueConfig,
	snapshots storage.SnapshotRepository,
	failed storage.FailedRowRepository,
	manager *reliability.Manager,
) *Monitor {
	return &Monitor{
		leagues:    leagues,
		snapshots:  snapshots,
		failed:     failed,
		manager:    manager,
		lastReport: make(map[domain.LeagueID]LeagueHealth),
	}
}

// CheckHealth reports per-league health. Checks are rate limited to
// once per 10s so hammering /health never hammers the database.
func (m *Monitor) CheckHealth(ctx context.Context) map[domain.LeagueID]LeagueHealth {
	m.mu.Lock()
	defer m.mu.Unlock()

	if time.Since(m.lastCheck) < 10*time.Second && len(m.lastReport) > 0 {
		return m.lastReport
	}

	breakers := m.manager.BreakerStates()
	report := make(map[domain.LeagueID]LeagueHealth, len(m.leagues))

	for _, lc := range m.leagues {
		health := LeagueHealth{
			League:  lc.ID,
			Status:  StatusHealthy,
			Breaker: reliability.StateClosed,
		}
		if state, ok := breakers["scrape:"+string(lc.ID)]; ok {
			health.Breaker = state
		}

		snap, err := m.snapshots.Latest(ctx, lc.ID, lc.Season)
		switch {
		case errors.Is(err, storage.ErrSnapshotNotFound):
			// Never scraped yet. Healthy on a fresh process, critical
			// once the scan interval has clearly been missed.
			health.Status = StatusDegraded
		case err != nil:
			health.Status = StatusDegraded
		default:
			health.QualityScore = snap.QualityScore
			t := snap.ScrapedAt
			health.LastScrape = &t
			health.ScrapeAge = time.Since(t).Round(time.Second).String()
		}

		if count, err := m.failed.Count(ctx, lc.ID); err == nil {
			health.FailedRows = count
		}

		switch {
		case health.Breaker == reliability.StateOpen,
			snap != nil && snap.QualityScore < 50,
			snap != nil && time.Since(snap.ScrapedAt) > 3*lc.ScanInterval,
			health.FailedRows > 100:
			health.Status = StatusCritical
		case health.Breaker == reliability.StateHalfOpen,
			snap != nil && snap.QualityScore < 95,
			health.FailedRows > 0:
			if health.Status == StatusHealthy {
				health.Status = StatusDegraded
			}
		}

		report[lc.ID] = health
	}

	m.lastCheck = time.Now()
	m.lastReport = report
	return report
}
