package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/longnd/fixturewatch/internal/core/domain"
	"github.com/longnd/fixturewatch/internal/infra/storage"
)

// FixtureRepo implements storage.FixtureRepository using PostgreSQL.
type FixtureRepo struct {
	db *DB
}

// NewFixtureRepo creates a new PostgreSQL fixture repository.
func NewFixtureRepo(db *DB) *FixtureRepo {
	return &FixtureRepo{db: db}
}

type fixtureRow struct {
	League      string  `db:"league"`
	Season      string  `db:"season"`
	MatchDate   string  `db:"match_date"`
	DayOfWeek   string  `db:"day_of_week"`
	HomeTeam    string  `db:"home_team"`
	AwayTeam    string  `db:"away_team"`
	HomeScore   *int    `db:"home_score"`
	AwayScore   *int    `db:"away_score"`
	MatchReport *string `db:"match_report"`
}

func (r fixtureRow) toDomain() *domain.Fixture {
	f := &domain.Fixture{
		League:    domain.LeagueID(r.League),
		Season:    r.Season,
		Date:      r.MatchDate,
		DayOfWeek: r.DayOfWeek,
		HomeTeam:  r.HomeTeam,
		AwayTeam:  r.AwayTeam,
		HomeScore: r.HomeScore,
		AwayScore: r.AwayScore,
	}
	if r.MatchReport != nil {
		f.MatchReport = *r.MatchReport
	}
	return f
}

// Save upserts a fixture.
func (r *FixtureRepo) Save(ctx context.Context, f *domain.Fixture) error {
	query := `
		INSERT INTO fixtures (league, season, match_date, day_of_week, home_team, away_team, home_score, away_score, match_report, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (league, season, match_date, home_team, away_team)
		DO UPDATE SET home_score = EXCLUDED.home_score,
		              away_score = EXCLUDED.away_score,
		              match_report = EXCLUDED.match_report,
		              day_of_week = EXCLUDED.day_of_week,
		              updated_at = NOW()
	`
	var report *string
	if f.MatchReport != "" {
		report = &f.MatchReport
	}

	_, err := r.db.ExecContext(
		ctx,
		query,
		string(f.League),
		f.Season,
		f.Date,
		f.DayOfWeek,
		f.HomeTeam,
		f.AwayTeam,
		f.HomeScore,
		f.AwayScore,
		report,
	)
	if err != nil {
		return fmt.Errorf("failed to save fixture: %w", err)
	}
	return nil
}

// SaveBatch upserts multiple fixtures in one transaction.
func (r *FixtureRepo) SaveBatch(ctx context.Context, fixtures []*domain.Fixture) error {
	if len(fixtures) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO fixtures (league, season, match_date, day_of_week, home_team, away_team, home_score, away_score, match_report, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (league, season, match_date, home_team, away_team)
		DO UPDATE SET home_score = EXCLUDED.home_score,
		              away_score = EXCLUDED.away_score,
		              match_report = EXCLUDED.match_report,
		              day_of_week = EXCLUDED.day_of_week,
		              updated_at = NOW()
	`
	for _, f := range fixtures {
		var report *string
		if f.MatchReport != "" {
			report = &f.MatchReport
		}
		if _, err := tx.ExecContext(ctx, query,
			string(f.League), f.Season, f.Date, f.DayOfWeek,
			f.HomeTeam, f.AwayTeam, f.HomeScore, f.AwayScore, report,
		); err != nil {
			return fmt.Errorf("failed to save fixture batch: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit fixture batch: %w", err)
	}
	return nil
}

// Query returns fixtures matching the filter, ordered by date.
func (r *FixtureRepo) Query(
	ctx context.Context,
	filter storage.FixtureFilter,
) ([]*domain.Fixture, error) {
	var conds []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.League != "" {
		add("league = $%d", string(filter.League))
	}
	if filter.Season != "" {
		add("season = $%d", filter.Season)
	}
	if filter.Team != "" {
		args = append(args, filter.Team)
		conds = append(conds, fmt.Sprintf("(home_team = $%d OR away_team = $%d)", len(args), len(args)))
	}
	if filter.DateFrom != "" {
		add("match_date >= $%d", filter.DateFrom)
	}
	if filter.DateTo != "" {
		add("match_date <= $%d", filter.DateTo)
	}

	query := `
		SELECT league, season, match_date, day_of_week, home_team, away_team, home_score, away_score, match_report
		FROM fixtures
	`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY match_date ASC, home_team ASC"

	var rows []fixtureRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query fixtures: %w", err)
	}

	fixtures := make([]*domain.Fixture, 0, len(rows))
	for _, row := range rows {
		fixtures = append(fixtures, row.toDomain())
	}
	return fixtures, nil
}

// Leagues returns the distinct leagues with stored fixtures.
func (r *FixtureRepo) Leagues(ctx context.Context) ([]domain.LeagueID, error) {
	var names []string
	query := `SELECT DISTINCT league FROM fixtures ORDER BY league`
	if err := r.db.SelectContext(ctx, &names, query); err != nil {
		return nil, fmt.Errorf("failed to list leagues: %w", err)
	}

	leagues := make([]domain.LeagueID, 0, len(names))
	for _, n := range names {
		leagues = append(leagues, domain.LeagueID(n))
	}
	return leagues, nil
}
