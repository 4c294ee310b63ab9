// Package memory provides in-memory repository implementations for
// tests and database-less development runs.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/longnd/fixturewatch/internal/core/domain"
	"github.com/longnd/fixturewatch/internal/infra/storage"
)

// MemoryStorage holds all in-memory data behind one lock.
type MemoryStorage struct {
	mu        sync.RWMutex
	fixtures  map[string]*domain.Fixture // keyed by identity
	failed    map[string]*domain.FailedRow
	snapshots []*domain.Snapshot
}

// NewMemoryStorage creates empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		fixtures: make(map[string]*domain.Fixture),
		failed:   make(map[string]*domain.FailedRow),
	}
}

func fixtureKey(f *domain.Fixture) string {
	return strings.Join([]string{string(f.League), f.Season, f.Date, f.HomeTeam, f.AwayTeam}, "|")
}

// =============================================================================
// FixtureRepo
// =============================================================================

// FixtureRepo implements storage.FixtureRepository in memory.
type FixtureRepo struct {
	store *MemoryStorage
}

func NewFixtureRepo(store *MemoryStorage) *FixtureRepo {
	return &FixtureRepo{store: store}
}

func (r *FixtureRepo) Save(ctx context.Context, f *domain.Fixture) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *f
	r.store.fixtures[fixtureKey(f)] = &cp
	return nil
}

func (r *FixtureRepo) SaveBatch(ctx context.Context, fixtures []*domain.Fixture) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, f := range fixtures {
		cp := *f
		r.store.fixtures[fixtureKey(f)] = &cp
	}
	return nil
}

func (r *FixtureRepo) Query(
	ctx context.Context,
	filter storage.FixtureFilter,
) ([]*domain.Fixture, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []*domain.Fixture
	for _, f := range r.store.fixtures {
		if filter.League != "" && f.League != filter.League {
			continue
		}
		if filter.Season != "" && f.Season != filter.Season {
			continue
		}
		if filter.Team != "" && f.HomeTeam != filter.Team && f.AwayTeam != filter.Team {
			continue
		}
		if filter.DateFrom != "" && f.Date < filter.DateFrom {
			continue
		}
		if filter.DateTo != "" && f.Date > filter.DateTo {
			continue
		}
		cp := *f
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].HomeTeam < out[j].HomeTeam
	})
	return out, nil
}

func (r *FixtureRepo) Leagues(ctx context.Context) ([]domain.LeagueID, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	seen := make(map[domain.LeagueID]struct{})
	for _, f := range r.store.fixtures {
		seen[f.League] = struct{}{}
	}

	leagues := make([]domain.LeagueID, 0, len(seen))
	for l := range seen {
		leagues = append(leagues, l)
	}
	sort.Slice(leagues, func(i, j int) bool { return leagues[i] < leagues[j] })
	return leagues, nil
}

// =============================================================================
// FailedRowRepo
// =============================================================================

// FailedRowRepo implements storage.FailedRowRepository in memory.
type FailedRowRepo struct {
	store *MemoryStorage
}

func NewFailedRowRepo(store *MemoryStorage) *FailedRowRepo {
	return &FailedRowRepo{store: store}
}

func (r *FailedRowRepo) Add(ctx context.Context, row *domain.FailedRow) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *row
	if cp.Status == "" {
		cp.Status = domain.FailedRowStatusPending
	}
	r.store.failed[cp.ID] = &cp
	return nil
}

func (r *FailedRowRepo) GetNext(
	ctx context.Context,
	league domain.LeagueID,
) (*domain.FailedRow, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var next *domain.FailedRow
	for _, row := range r.store.failed {
		if row.League != league || row.Status != domain.FailedRowStatusPending {
			continue
		}
		if next == nil ||
			row.RetryCount < next.RetryCount ||
			(row.RetryCount == next.RetryCount && row.LastAttempt.Before(next.LastAttempt)) {
			next = row
		}
	}
	if next == nil {
		return nil, nil
	}
	cp := *next
	return &cp, nil
}

func (r *FailedRowRepo) IncrementRetry(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if row, ok := r.store.failed[id]; ok {
		row.RetryCount++
		row.LastAttempt = time.Now()
	}
	return nil
}

func (r *FailedRowRepo) MarkResolved(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if row, ok := r.store.failed[id]; ok {
		row.Status = domain.FailedRowStatusResolved
	}
	return nil
}

func (r *FailedRowRepo) Count(ctx context.Context, league domain.LeagueID) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	count := 0
	for _, row := range r.store.failed {
		if row.League == league && row.Status == domain.FailedRowStatusPending {
			count++
		}
	}
	return count, nil
}

func (r *FailedRowRepo) DeleteResolvedBefore(ctx context.Context, cutoff time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for id, row := range r.store.failed {
		if row.Status == domain.FailedRowStatusResolved && row.LastAttempt.Before(cutoff) {
			delete(r.store.failed, id)
		}
	}
	return nil
}

// =============================================================================
// SnapshotRepo
// =============================================================================

// SnapshotRepo implements storage.SnapshotRepository in memory.
type SnapshotRepo struct {
	store *MemoryStorage
}

func NewSnapshotRepo(store *MemoryStorage) *SnapshotRepo {
	return &SnapshotRepo{store: store}
}

func (r *SnapshotRepo) Save(ctx context.Context, s *domain.Snapshot) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *s
	r.store.snapshots = append(r.store.snapshots, &cp)
	return nil
}

func (r *SnapshotRepo) Latest(
	ctx context.Context,
	league domain.LeagueID,
	season string,
) (*domain.Snapshot, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var latest *domain.Snapshot
	for _, s := range r.store.snapshots {
		if s.League != league || s.Season != season {
			continue
		}
		if latest == nil || s.ScrapedAt.After(latest.ScrapedAt) {
			latest = s
		}
	}
	if latest == nil {
		return nil, storage.ErrSnapshotNotFound
	}
	cp := *latest
	return &cp, nil
}

func (r *SnapshotRepo) List(ctx context.Context, limit int) ([]*domain.Snapshot, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]*domain.Snapshot, 0, len(r.store.snapshots))
	for _, s := range r.store.snapshots {
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScrapedAt.After(out[j].ScrapedAt) })

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *SnapshotRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	kept := r.store.snapshots[:0]
	for _, s := range r.store.snapshots {
		if !s.ScrapedAt.Before(cutoff) {
			kept = append(kept, s)
		}
	}
	r.store.snapshots = kept
	return nil
}
