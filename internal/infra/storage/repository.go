package storage

import (
	"context"
	"errors"
	"time"

	"github.com/longnd/fixturewatch/internal/core/domain"
)

var (
	// ErrSnapshotNotFound is returned when no snapshot exists for a league/season
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// FixtureFilter narrows fixture queries. Zero values mean "no filter".
type FixtureFilter struct {
	League   domain.LeagueID
	Season   string
	Team     string // matches home or away
	DateFrom string // YYYY-MM-DD inclusive
	DateTo   string // YYYY-MM-DD inclusive
}

// FixtureRepository handles validated fixture storage
type FixtureRepository interface {
	// Save upserts a fixture (league, season, date, home, away is the identity)
	Save(ctx context.Context, fixture *domain.Fixture) error

	// SaveBatch upserts multiple fixtures
	SaveBatch(ctx context.Context, fixtures []*domain.Fixture) error

	// Query returns fixtures matching the filter, ordered by date
	Query(ctx context.Context, filter FixtureFilter) ([]*domain.Fixture, error)

	// Leagues returns the distinct leagues with stored fixtures
	Leagues(ctx context.Context) ([]domain.LeagueID, error)
}

// FailedRowRepository handles the failed-row retry queue
type FailedRowRepository interface {
	// Add enqueues a failed row
	Add(ctx context.Context, row *domain.FailedRow) error

	// GetNext retrieves the next pending row to retry (lowest retry count first)
	GetNext(ctx context.Context, league domain.LeagueID) (*domain.FailedRow, error)

	// IncrementRetry bumps the retry count and last-attempt timestamp
	IncrementRetry(ctx context.Context, id string) error

	// MarkResolved marks a row as successfully reprocessed
	MarkResolved(ctx context.Context, id string) error

	// Count returns the number of pending rows
	Count(ctx context.Context, league domain.LeagueID) (int, error)

	// DeleteResolvedBefore prunes resolved rows older than the cutoff
	DeleteResolvedBefore(ctx context.Context, cutoff time.Time) error
}

// SnapshotRepository handles scrape-run snapshots
type SnapshotRepository interface {
	// Save records a completed scrape run
	Save(ctx context.Context, snapshot *domain.Snapshot) error

	// Latest returns the most recent snapshot for a league/season
	Latest(ctx context.Context, league domain.LeagueID, season string) (*domain.Snapshot, error)

	// List returns the most recent snapshots, newest first
	List(ctx context.Context, limit int) ([]*domain.Snapshot, error)

	// DeleteOlderThan prunes snapshots scraped before the cutoff
	DeleteOlderThan(ctx context.Context, cutoff time.Time) error
}
