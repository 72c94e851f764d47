package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/tagbot/internal/domain/model"
)

type LogRepo struct {
	pool *pgxpool.Pool
}

type TriggerCount struct {
	Trigger string
	Count   int
}

func NewLogRepo(pool *pgxpool.Pool) *LogRepo {
	return &LogRepo{pool: pool}
}

func (r *LogRepo) Append(ctx context.Context, entry model.LogEntry) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if entry.UserID == 0 || entry.Trigger == "" {
		return fmt.Errorf("invalid log entry payload")
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO logs (user_id, username, chat_id, message_id, trigger, emoji, thread_name, media_type, caption)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`,
		entry.UserID, entry.Username, entry.ChatID, entry.MessageID,
		entry.Trigger, entry.Emoji, entry.ThreadName, entry.MediaType, entry.Caption,
	); err != nil {
		return fmt.Errorf("append log entry: %w", err)
	}

	return nil
}

func (r *LogRepo) List(ctx context.Context, trigger string, limit int) ([]model.LogEntry, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 || limit > 2000 {
		limit = 200
	}

	query := `
SELECT id, user_id, username, chat_id, message_id, trigger, emoji, thread_name, media_type, caption, created_at
FROM logs
`
	args := []any{}
	if strings.TrimSpace(trigger) != "" {
		query += `WHERE trigger = $1
ORDER BY created_at DESC
LIMIT $2`
		args = append(args, trigger, limit)
	} else {
		query += `ORDER BY created_at DESC
LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list log entries: %w", err)
	}
	defer rows.Close()

	var entries []model.LogEntry
	for rows.Next() {
		var entry model.LogEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Username,
			&entry.ChatID,
			&entry.MessageID,
			&entry.Trigger,
			&entry.Emoji,
			&entry.ThreadName,
			&entry.MediaType,
			&entry.Caption,
			&entry.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan log row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate log entries: %w", err)
	}

	return entries, nil
}

func (r *LogRepo) Count(ctx context.Context) (int, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM logs`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count log entries: %w", err)
	}

	return count, nil
}

// TopTriggers returns the most frequent triggers for the stats view.
func (r *LogRepo) TopTriggers(ctx context.Context, limit int) ([]TriggerCount, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.pool.Query(ctx, `
SELECT trigger, COUNT(*) AS hits
FROM logs
GROUP BY trigger
ORDER BY hits DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list top triggers: %w", err)
	}
	defer rows.Close()

	var counts []TriggerCount
	for rows.Next() {
		var tc TriggerCount
		if err := rows.Scan(&tc.Trigger, &tc.Count); err != nil {
			return nil, fmt.Errorf("scan trigger count row: %w", err)
		}
		counts = append(counts, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trigger counts: %w", err)
	}

	return counts, nil
}

// DistinctUsers returns every user id seen in the log, used as the
// broadcast recipient list.
func (r *LogRepo) DistinctUsers(ctx context.Context) ([]int64, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `SELECT DISTINCT user_id FROM logs ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list distinct users: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user ids: %w", err)
	}

	return ids, nil
}

func (r *LogRepo) Clear(ctx context.Context) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM logs`)
	if err != nil {
		return 0, fmt.Errorf("clear log entries: %w", err)
	}

	return tag.RowsAffected(), nil
}
