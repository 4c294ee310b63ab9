package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/longnd/fixturewatch/internal/core/domain"
)

// rowTTL bounds how long an unresolved row sticks around. The queue is
// a retry buffer, not an archive; anything older has been superseded by
// a newer scrape anyway.
const rowTTL = 24 * time.Hour

// FailedRowRepo implements storage.FailedRowRepository using Redis.
// Rows live in a sorted set per league (score = retry count, lower
// retries first) with the payload stored under a TTL'd key.
type FailedRowRepo struct {
	rdb *redis.Client
}

// NewFailedRowRepo creates a new Redis-backed failed row repository.
func NewFailedRowRepo(client *Client) *FailedRowRepo {
	return &FailedRowRepo{rdb: client.rdb}
}

// Key helpers
func (r *FailedRowRepo) queueKey(league domain.LeagueID) string {
	return fmt.Sprintf("failed_rows:%s", league)
}

func (r *FailedRowRepo) rowKey(id string) string {
	return fmt.Sprintf("failed_row:%s", id)
}

// Add enqueues a failed row.
func (r *FailedRowRepo) Add(ctx context.Context, row *domain.FailedRow) error {
	if row.Status == "" {
		row.Status = domain.FailedRowStatusPending
	}

	data, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to marshal failed row: %w", err)
	}

	if err := r.rdb.Set(ctx, r.rowKey(row.ID), data, rowTTL).Err(); err != nil {
		return fmt.Errorf("failed to set failed row: %w", err)
	}

	if err := r.rdb.ZAdd(ctx, r.queueKey(row.League), redis.Z{
		Score:  float64(row.RetryCount),
		Member: row.ID,
	}).Err(); err != nil {
		return fmt.Errorf("failed to add to queue: %w", err)
	}

	return nil
}

// GetNext retrieves the next failed row to retry.
func (r *FailedRowRepo) GetNext(
	ctx context.Context,
	league domain.LeagueID,
) (*domain.FailedRow, error) {
	results, err := r.rdb.ZRange(ctx, r.queueKey(league), 0, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("zrange failed: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	id := results[0]

	data, err := r.rdb.Get(ctx, r.rowKey(id)).Bytes()
	if err == redis.Nil {
		// Payload expired but ID still queued, drop it
		r.rdb.ZRem(ctx, r.queueKey(league), id)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get failed row: %w", err)
	}

	var row domain.FailedRow
	if err := json.Unmarshal(data, &row); err != nil {
		return nil, fmt.Errorf("failed to unmarshal failed row: %w", err)
	}

	return &row, nil
}

// IncrementRetry increments retry count and updates last attempt.
func (r *FailedRowRepo) IncrementRetry(ctx context.Context, id string) error {
	data, err := r.rdb.Get(ctx, r.rowKey(id)).Bytes()
	if err != nil {
		return fmt.Errorf("failed to get failed row: %w", err)
	}

	var row domain.FailedRow
	if err := json.Unmarshal(data, &row); err != nil {
		return fmt.Errorf("failed to unmarshal failed row: %w", err)
	}

	row.RetryCount++
	row.LastAttempt = time.Now()

	newData, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to marshal failed row: %w", err)
	}

	if err := r.rdb.Set(ctx, r.rowKey(id), newData, rowTTL).Err(); err != nil {
		return fmt.Errorf("failed to set failed row: %w", err)
	}

	// Higher retry count = lower priority in the queue
	if err := r.rdb.ZAdd(ctx, r.queueKey(row.League), redis.Z{
		Score:  float64(row.RetryCount),
		Member: id,
	}).Err(); err != nil {
		return fmt.Errorf("failed to update queue: %w", err)
	}

	return nil
}

// MarkResolved removes a failed row (successfully reprocessed).
func (r *FailedRowRepo) MarkResolved(ctx context.Context, id string) error {
	data, err := r.rdb.Get(ctx, r.rowKey(id)).Bytes()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get failed row: %w", err)
	}

	var row domain.FailedRow
	if err := json.Unmarshal(data, &row); err != nil {
		return fmt.Errorf("failed to unmarshal failed row: %w", err)
	}

	if err := r.rdb.ZRem(ctx, r.queueKey(row.League), id).Err(); err != nil {
		return fmt.Errorf("failed to remove from queue: %w", err)
	}
	if err := r.rdb.Del(ctx, r.rowKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete failed row: %w", err)
	}

	return nil
}

// Count returns the number of pending failed rows.
func (r *FailedRowRepo) Count(ctx context.Context, league domain.LeagueID) (int, error) {
	n, err := r.rdb.ZCard(ctx, r.queueKey(league)).Result()
	if err != nil {
		return 0, fmt.Errorf("zcard failed: %w", err)
	}
	return int(n), nil
}

// DeleteResolvedBefore is a no-op for Redis: resolved rows are deleted
// on MarkResolved and pending payloads expire via TTL.
func (r *FailedRowRepo) DeleteResolvedBefore(ctx context.Context, cutoff time.Time) error {
	return nil
}
