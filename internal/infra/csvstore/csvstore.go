// Package csvstore writes and reads flat-file fixture snapshots under
// the data directory. The CSV files are the fallback data path when the
// database is unavailable, and the export consumed by downstream tools.
package csvstore

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/longnd/fixturewatch/internal/core/domain"
)

var header = []string{
	"league", "season", "date", "day_of_week",
	"home_team", "away_team", "home_score", "away_score", "match_report",
}

// Store reads and writes fixture CSV snapshots in a directory.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Path returns the snapshot file path for a league/season.
func (s *Store) Path(league domain.LeagueID, season string) string {
	name := fmt.Sprintf("fixtures_%s_%s.csv", sanitize(string(league)), sanitize(season))
	return filepath.Join(s.dir, name)
}

// Write replaces the snapshot for a league/season. The file is written
// to a temp name and renamed so readers never see a half-written file.
func (s *Store) Write(league domain.LeagueID, season string, fixtures []*domain.Fixture) (string, error) {
	path := s.Path(league, season)

	tmp, err := os.CreateTemp(s.dir, ".fixtures_*.csv")
	if err != nil {
		return "", fmt.Errorf("failed to create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, f := range fixtures {
		if err := w.Write(record(f)); err != nil {
			tmp.Close()
			return "", fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to flush csv: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp snapshot: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return path, nil
}

// Read loads the snapshot for a league/season.
func (s *Store) Read(league domain.LeagueID, season string) ([]*domain.Fixture, error) {
	f, err := os.Open(s.Path(league, season))
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshot csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	fixtures := make([]*domain.Fixture, 0, len(records)-1)
	for _, rec := range records[1:] { // skip header
		fx, err := fromRecord(rec)
		if err != nil {
			return nil, err
		}
		fixtures = append(fixtures, fx)
	}
	return fixtures, nil
}

func record(f *domain.Fixture) []string {
	return []string{
		string(f.League), f.Season, f.Date, f.DayOfWeek,
		f.HomeTeam, f.AwayTeam,
		scoreCell(f.HomeScore), scoreCell(f.AwayScore),
		f.MatchReport,
	}
}

func fromRecord(rec []string) (*domain.Fixture, error) {
	if len(rec) != len(header) {
		return nil, fmt.Errorf("failed to parse snapshot csv: wrong number of fields (%d)", len(rec))
	}

	home, err := cellScore(rec[6])
	if err != nil {
		return nil, err
	}
	away, err := cellScore(rec[7])
	if err != nil {
		return nil, err
	}

	return &domain.Fixture{
		League:      domain.LeagueID(rec[0]),
		Season:      rec[1],
		Date:        rec[2],
		DayOfWeek:   rec[3],
		HomeTeam:    rec[4],
		AwayTeam:    rec[5],
		HomeScore:   home,
		AwayScore:   away,
		MatchReport: rec[8],
	}, nil
}

func scoreCell(score *int) string {
	if score == nil {
		return ""
	}
	return strconv.Itoa(*score)
}

func cellScore(cell string) (*int, error) {
	if cell == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(cell)
	if err != nil {
		return nil, fmt.Errorf("failed to parse score cell %q: %w", cell, err)
	}
	return &n, nil
}

func sanitize(s string) string {
	return strings.NewReplacer(" ", "_", "-", "_", "/", "_").Replace(s)
}
