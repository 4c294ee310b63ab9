// Package scrape acquires fixture schedules from the upstream data
// source and runs them through validation into storage.
package scrape

import (
	"context"

	"github.com/longnd/fixturewatch/internal/core/domain"
)

// Source reads raw schedule rows for one league/season. Implementations
// either return rows or raise a typed reliability fault; the caller
// treats them as opaque.
type Source interface {
	// Name identifies the source in logs and breaker names
	Name() string

	// ReadSchedule fetches the raw schedule rows
	ReadSchedule(ctx context.Context, league domain.LeagueID, season string) ([]domain.RawFixture, error)
}
