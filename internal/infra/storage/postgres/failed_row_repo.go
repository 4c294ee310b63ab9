package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/longnd/fixturewatch/internal/core/domain"
)

// FailedRowRepo implements storage.FailedRowRepository using PostgreSQL.
type FailedRowRepo struct {
	db *DB
}

// NewFailedRowRepo creates a new PostgreSQL failed row repository.
func NewFailedRowRepo(db *DB) *FailedRowRepo {
	return &FailedRowRepo{db: db}
}

type failedRowRecord struct {
	ID          string    `db:"id"`
	League      string    `db:"league"`
	Season      string    `db:"season"`
	Kind        string    `db:"kind"`
	Raw         []byte    `db:"raw"`
	ErrorMsg    string    `db:"error_msg"`
	RetryCount  int       `db:"retry_count"`
	Status      string    `db:"status"`
	LastAttempt time.Time `db:"last_attempt"`
	CreatedAt   time.Time `db:"created_at"`
}

func (rec failedRowRecord) toDomain() (*domain.FailedRow, error) {
	var raw domain.RawFixture
	if err := json.Unmarshal(rec.Raw, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode raw record: %w", err)
	}
	return &domain.FailedRow{
		ID:          rec.ID,
		League:      domain.LeagueID(rec.League),
		Season:      rec.Season,
		Kind:        rec.Kind,
		Raw:         raw,
		Error:       rec.ErrorMsg,
		RetryCount:  rec.RetryCount,
		Status:      domain.FailedRowStatus(rec.Status),
		LastAttempt: rec.LastAttempt,
		CreatedAt:   rec.CreatedAt,
	}, nil
}

// Add enqueues a failed row.
func (r *FailedRowRepo) Add(ctx context.Context, row *domain.FailedRow) error {
	raw, err := json.Marshal(row.Raw)
	if err != nil {
		return fmt.Errorf("failed to encode raw record: %w", err)
	}

	status := string(row.Status)
	if status == "" {
		status = string(domain.FailedRowStatusPending)
	}

	query := `
		INSERT INTO failed_rows (id, league, season, kind, raw, error_msg, retry_count, status, last_attempt, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`
	_, err = r.db.ExecContext(
		ctx,
		query,
		row.ID,
		string(row.League),
		row.Season,
		row.Kind,
		raw,
		row.Error,
		row.RetryCount,
		status,
	)
	if err != nil {
		return fmt.Errorf("failed to add failed row: %w", err)
	}
	return nil
}

// GetNext returns the next pending failed row to retry.
func (r *FailedRowRepo) GetNext(
	ctx context.Context,
	league domain.LeagueID,
) (*domain.FailedRow, error) {
	query := `
		SELECT id, league, season, kind, raw, error_msg, retry_count, status, last_attempt, created_at
		FROM failed_rows
		WHERE league = $1 AND status = 'pending'
		ORDER BY retry_count ASC, last_attempt ASC
		LIMIT 1
	`

	var rec failedRowRecord
	err := r.db.GetContext(ctx, &rec, query, string(league))
	if err == sql.ErrNoRows {
		return nil, nil // Queue empty
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get failed row: %w", err)
	}

	return rec.toDomain()
}

// IncrementRetry increments retry count and updates timestamp.
func (r *FailedRowRepo) IncrementRetry(ctx context.Context, id string) error {
	query := `
		UPDATE failed_rows
		SET retry_count = retry_count + 1, last_attempt = NOW()
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// MarkResolved marks a failed row as resolved.
func (r *FailedRowRepo) MarkResolved(ctx context.Context, id string) error {
	query := `
		UPDATE failed_rows
		SET status = 'resolved'
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// Count returns the number of pending failed rows.
func (r *FailedRowRepo) Count(ctx context.Context, league domain.LeagueID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM failed_rows
		WHERE league = $1 AND status = 'pending'
	`
	var count int
	if err := r.db.GetContext(ctx, &count, query, string(league)); err != nil {
		return 0, fmt.Errorf("failed to count failed rows: %w", err)
	}
	return count, nil
}

// DeleteResolvedBefore prunes resolved rows older than the cutoff.
func (r *FailedRowRepo) DeleteResolvedBefore(ctx context.Context, cutoff time.Time) error {
	query := `
		DELETE FROM failed_rows
		WHERE status = 'resolved' AND last_attempt < $1
	`
	_, err := r.db.ExecContext(ctx, query, cutoff)
	return err
}
