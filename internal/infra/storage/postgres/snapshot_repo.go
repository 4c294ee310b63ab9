package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/longnd/fixturewatch/internal/core/domain"
	"github.com/longnd/fixturewatch/internal/infra/storage"
)

// SnapshotRepo implements storage.SnapshotRepository using PostgreSQL.
type SnapshotRepo struct {
	db *DB
}

// NewSnapshotRepo creates a new PostgreSQL snapshot repository.
func NewSnapshotRepo(db *DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

type snapshotRecord struct {
	ID           string    `db:"id"`
	League       string    `db:"league"`
	Season       string    `db:"season"`
	RowsTotal    int       `db:"rows_total"`
	RowsValid    int       `db:"rows_valid"`
	RowsFailed   int       `db:"rows_failed"`
	QualityScore float64   `db:"quality_score"`
	CSVPath      string    `db:"csv_path"`
	ScrapedAt    time.Time `db:"scraped_at"`
}

func (rec snapshotRecord) toDomain() *domain.Snapshot {
	return &domain.Snapshot{
		ID:           rec.ID,
		League:       domain.LeagueID(rec.League),
		Season:       rec.Season,
		RowsTotal:    rec.RowsTotal,
		RowsValid:    rec.RowsValid,
		RowsFailed:   rec.RowsFailed,
		QualityScore: rec.QualityScore,
		CSVPath:      rec.CSVPath,
		ScrapedAt:    rec.ScrapedAt,
	}
}

// Save records a completed scrape run.
func (r *SnapshotRepo) Save(ctx context.Context, s *domain.Snapshot) error {
	query := `
		INSERT INTO snapshots (id, league, season, rows_total, rows_valid, rows_failed, quality_score, csv_path, scraped_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(
		ctx,
		query,
		s.ID,
		string(s.League),
		s.Season,
		s.RowsTotal,
		s.RowsValid,
		s.RowsFailed,
		s.QualityScore,
		s.CSVPath,
		s.ScrapedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Latest returns the most recent snapshot for a league/season.
func (r *SnapshotRepo) Latest(
	ctx context.Context,
	league domain.LeagueID,
	season string,
) (*domain.Snapshot, error) {
	query := `
		SELECT id, league, season, rows_total, rows_valid, rows_failed, quality_score, csv_path, scraped_at
		FROM snapshots
		WHERE league = $1 AND season = $2
		ORDER BY scraped_at DESC
		LIMIT 1
	`

	var rec snapshotRecord
	err := r.db.GetContext(ctx, &rec, query, string(league), season)
	if err == sql.ErrNoRows {
		return nil, storage.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}

	return rec.toDomain(), nil
}

// List returns the most recent snapshots, newest first.
func (r *SnapshotRepo) List(ctx context.Context, limit int) ([]*domain.Snapshot, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, league, season, rows_total, rows_valid, rows_failed, quality_score, csv_path, scraped_at
		FROM snapshots
		ORDER BY scraped_at DESC
		LIMIT $1
	`

	var recs []snapshotRecord
	if err := r.db.SelectContext(ctx, &recs, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	snapshots := make([]*domain.Snapshot, 0, len(recs))
	for _, rec := range recs {
		snapshots = append(snapshots, rec.toDomain())
	}
	return snapshots, nil
}

// DeleteOlderThan prunes snapshots scraped before the cutoff.
func (r *SnapshotRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) error {
	query := `DELETE FROM snapshots WHERE scraped_at < $1`
	_, err := r.db.ExecContext(ctx, query, cutoff)
	return err
}
