package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/tagbot/internal/domain/model"
)

type ReactionQueueRepo struct {
	pool *pgxpool.Pool
}

func NewReactionQueueRepo(pool *pgxpool.Pool) *ReactionQueueRepo {
	return &ReactionQueueRepo{pool: pool}
}

func (r *ReactionQueueRepo) Enqueue(ctx context.Context, entry model.ReactionQueueEntry) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}
	if entry.ChatID == 0 || entry.MessageID == 0 || entry.Emoji == "" {
		return 0, fmt.Errorf("invalid reaction queue payload")
	}

	var id int64
	err := r.pool.QueryRow(ctx, `
INSERT INTO reaction_queue (moderation_id, chat_id, message_id, emoji)
VALUES ($1, $2, $3, $4)
RETURNING id
`, entry.ModerationID, entry.ChatID, entry.MessageID, entry.Emoji).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("enqueue reaction: %w", err)
	}

	return id, nil
}

// ListOldest returns up to limit entries, oldest first.
func (r *ReactionQueueRepo) ListOldest(ctx context.Context, limit int) ([]model.ReactionQueueEntry, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 {
		limit = 5
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, moderation_id, chat_id, message_id, emoji, attempts, created_at
FROM reaction_queue
ORDER BY created_at ASC, id ASC
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list reaction queue: %w", err)
	}
	defer rows.Close()

	var entries []model.ReactionQueueEntry
	for rows.Next() {
		var entry model.ReactionQueueEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.ModerationID,
			&entry.ChatID,
			&entry.MessageID,
			&entry.Emoji,
			&entry.Attempts,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan reaction queue row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reaction queue: %w", err)
	}

	return entries, nil
}

func (r *ReactionQueueRepo) ListAll(ctx context.Context) ([]model.ReactionQueueEntry, error) {
	return r.ListOldest(ctx, 1000)
}

func (r *ReactionQueueRepo) Remove(ctx context.Context, id int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	if _, err := r.pool.Exec(ctx, `DELETE FROM reaction_queue WHERE id = $1`, id); err != nil {
		return fmt.Errorf("remove reaction queue entry: %w", err)
	}

	return nil
}

// IncrementAttempts bumps the attempt counter atomically and returns the
// new value, so concurrent drains never lose an increment.
func (r *ReactionQueueRepo) IncrementAttempts(ctx context.Context, id int64) (int, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var attempts int
	err := r.pool.QueryRow(ctx, `
UPDATE reaction_queue
SET attempts = attempts + 1
WHERE id = $1
RETURNING attempts
`, id).Scan(&attempts)
	if err != nil {
		return 0, fmt.Errorf("increment reaction attempts: %w", err)
	}

	return attempts, nil
}

func (r *ReactionQueueRepo) Count(ctx context.Context) (int, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM reaction_queue`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count reaction queue: %w", err)
	}

	return count, nil
}

func (r *ReactionQueueRepo) Clear(ctx context.Context) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM reaction_queue`)
	if err != nil {
		return 0, fmt.Errorf("clear reaction queue: %w", err)
	}

	return tag.RowsAffected(), nil
}
