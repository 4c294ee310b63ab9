package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/longnd/fixturewatch/internal/core/config"
	"github.com/longnd/fixturewatch/internal/core/domain"
	"github.com/longnd/fixturewatch/internal/infra/csvstore"
	"github.com/longnd/fixturewatch/internal/infra/storage"
	"github.com/longnd/fixturewatch/internal/infra/storage/memory"
	"github.com/longnd/fixturewatch/internal/reliability"
)

func intPtr(n int) *int { return &n }

func seedFixture(t *testing.T, repo storage.FixtureRepository, home, away, date string) *domain.Fixture {
	t.Helper()
	f := &domain.Fixture{
		League:    domain.LeaguePremierLeague,
		Season:    "2425",
		Date:      date,
		HomeTeam:  home,
		AwayTeam:  away,
		HomeScore: intPtr(2),
		AwayScore: intPtr(1),
	}
	if err := repo.Save(context.Background(), f); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	return f
}

type serverEnv struct {
	server    *Server
	fixtures  *memory.FixtureRepo
	failed    *memory.FailedRowRepo
	snapshots *memory.SnapshotRepo
}

func newTestServer(t *testing.T) *serverEnv {
	t.Helper()

	store := memory.NewMemoryStorage()
	fixtures := memory.NewFixtureRepo(store)
	failed := memory.NewFailedRowRepo(store)
	snapshots := memory.NewSnapshotRepo(store)

	leagues := []config.LeagueConfig{{
		ID:           domain.LeaguePremierLeague,
		Season:       "2425",
		ScanInterval: time.Hour,
	}}
	manager := reliability.NewManager(nil, reliability.DefaultManagerConfig)
	monitor := NewMonitor(leagues, snapshots, failed, manager)

	return &serverEnv{
		server:    NewServer(0, fixtures, snapshots, monitor, manager, nil),
		fixtures:  fixtures,
		failed:    failed,
		snapshots: snapshots,
	}
}

func doGET(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

// =============================================================================
// Fixtures
// =============================================================================

func TestFixturesFilterByTeam(t *testing.T) {
	env := newTestServer(t)
	seedFixture(t, env.fixtures, "Arsenal", "Wolves", "2024-08-17")
	seedFixture(t, env.fixtures, "Chelsea", "Man City", "2024-08-18")

	rec := doGET(t, env.server, "/api/fixtures?league=ENG-Premier+League&team=Arsenal")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Fixtures []domain.Fixture `json:"fixtures"`
		Count    int              `json:"count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Count != 1 || len(resp.Fixtures) != 1 {
		t.Fatalf("count = %d, len = %d, want 1", resp.Count, len(resp.Fixtures))
	}
	if resp.Fixtures[0].HomeTeam != "Arsenal" {
		t.Errorf("home team = %q", resp.Fixtures[0].HomeTeam)
	}
}

func TestFixturesEmptyResult(t *testing.T) {
	env := newTestServer(t)

	rec := doGET(t, env.server, "/api/fixtures?team=Nobody")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Fixtures []domain.Fixture `json:"fixtures"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Fixtures == nil || len(resp.Fixtures) != 0 {
		t.Errorf("fixtures = %v, want empty array", resp.Fixtures)
	}
}

// failingFixtureRepo always errors, standing in for a down database.
type failingFixtureRepo struct{}

func (f *failingFixtureRepo) Save(ctx context.Context, fx *domain.Fixture) error {
	return errors.New("sql: database is closed")
}

func (f *failingFixtureRepo) SaveBatch(ctx context.Context, fx []*domain.Fixture) error {
	return errors.New("sql: database is closed")
}

func (f *failingFixtureRepo) Query(ctx context.Context, filter storage.FixtureFilter) ([]*domain.Fixture, error) {
	return nil, errors.New("sql: database is closed")
}

func (f *failingFixtureRepo) Leagues(ctx context.Context) ([]domain.LeagueID, error) {
	return nil, errors.New("sql: database is closed")
}

func TestFixturesFallsBackToCSV(t *testing.T) {
	env := newTestServer(t)

	csv, err := csvstore.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("csvstore.NewStore() error = %v", err)
	}
	exported := []*domain.Fixture{{
		League:   domain.LeaguePremierLeague,
		Season:   "2425",
		Date:     "2024-08-17",
		HomeTeam: "Arsenal",
		AwayTeam: "Wolves",
	}}
	if _, err := csv.Write(domain.LeaguePremierLeague, "2425", exported); err != nil {
		t.Fatalf("csv Write() error = %v", err)
	}

	manager := reliability.NewManager(nil, reliability.DefaultManagerConfig)
	monitor := NewMonitor(nil, env.snapshots, env.failed, manager)
	server := NewServer(0, &failingFixtureRepo{}, env.snapshots, monitor, manager, csv)

	rec := doGET(t, server, "/api/fixtures?league=ENG-Premier+League&season=2425")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 from csv fallback", rec.Code)
	}

	var resp struct {
		Fixtures []domain.Fixture `json:"fixtures"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Fixtures) != 1 || resp.Fixtures[0].HomeTeam != "Arsenal" {
		t.Errorf("fallback fixtures = %+v, want one Arsenal row", resp.Fixtures)
	}
}

func TestFixturesStorageDownWithoutFallback(t *testing.T) {
	manager := reliability.NewManager(nil, reliability.DefaultManagerConfig)
	store := memory.NewMemoryStorage()
	monitor := NewMonitor(nil, memory.NewSnapshotRepo(store), memory.NewFailedRowRepo(store), manager)
	server := NewServer(0, &failingFixtureRepo{}, memory.NewSnapshotRepo(store), monitor, manager, nil)

	rec := doGET(t, server, "/api/fixtures")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}

	var payload errorPayload
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode error payload: %v", err)
	}
	if payload.Error.Code != "storage_unavailable" {
		t.Errorf("error code = %q, want storage_unavailable", payload.Error.Code)
	}
	if payload.Error.Timestamp.IsZero() {
		t.Error("error timestamp is zero")
	}
}

// =============================================================================
// Leagues and snapshots
// =============================================================================

func TestLeaguesListing(t *testing.T) {
	env := newTestServer(t)
	seedFixture(t, env.fixtures, "Arsenal", "Wolves", "2024-08-17")

	rec := doGET(t, env.server, "/api/leagues")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Leagues []domain.LeagueID `json:"leagues"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Leagues) != 1 || resp.Leagues[0] != domain.LeaguePremierLeague {
		t.Errorf("leagues = %v", resp.Leagues)
	}
}

func TestSnapshotsInvalidLimit(t *testing.T) {
	env := newTestServer(t)

	rec := doGET(t, env.server, "/api/snapshots?limit=bogus")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var payload errorPayload
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode error payload: %v", err)
	}
	if payload.Error.Code != "invalid_limit" {
		t.Errorf("error code = %q, want invalid_limit", payload.Error.Code)
	}
}

func TestSnapshotsListing(t *testing.T) {
	env := newTestServer(t)
	snap := &domain.Snapshot{
		ID:           "snap-1",
		League:       domain.LeaguePremierLeague,
		Season:       "2425",
		RowsTotal:    10,
		RowsValid:    10,
		QualityScore: 100,
		ScrapedAt:    time.Now(),
	}
	if err := env.snapshots.Save(context.Background(), snap); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	rec := doGET(t, env.server, "/api/snapshots")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Snapshots []domain.Snapshot `json:"snapshots"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Snapshots) != 1 || resp.Snapshots[0].ID != "snap-1" {
		t.Errorf("snapshots = %+v", resp.Snapshots)
	}
}

// =============================================================================
// Health
// =============================================================================

func TestHealthHealthy(t *testing.T) {
	env := newTestServer(t)
	snap := &domain.Snapshot{
		ID:           "snap-1",
		League:       domain.LeaguePremierLeague,
		Season:       "2425",
		RowsTotal:    10,
		RowsValid:    10,
		QualityScore: 100,
		ScrapedAt:    time.Now(),
	}
	if err := env.snapshots.Save(context.Background(), snap); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	rec := doGET(t, env.server, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != string(StatusHealthy) {
		t.Errorf("status = %q, want healthy", resp["status"])
	}
}

func TestHealthDegradedWithoutSnapshot(t *testing.T) {
	env := newTestServer(t)

	rec := doGET(t, env.server, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for degraded", rec.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != string(StatusDegraded) {
		t.Errorf("status = %q, want degraded", resp["status"])
	}
}

func TestHealthDetailedIncludesBreakers(t *testing.T) {
	env := newTestServer(t)

	rec := doGET(t, env.server, "/health/detailed")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Leagues  map[string]LeagueHealth             `json:"leagues"`
		Breakers map[string]reliability.BreakerState `json:"breakers"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if _, ok := resp.Leagues[string(domain.LeaguePremierLeague)]; !ok {
		t.Errorf("detailed report missing league, got %v", resp.Leagues)
	}
}
