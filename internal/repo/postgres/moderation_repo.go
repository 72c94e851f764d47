package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/tagbot/internal/domain/enums"
	"github.com/ivankudzin/tagbot/internal/domain/model"
)

var (
	ErrItemNotFound    = errors.New("moderation item not found")
	ErrAlreadyResolved = errors.New("moderation item is already resolved")
)

type ModerationRepo struct {
	pool *pgxpool.Pool
}

func NewModerationRepo(pool *pgxpool.Pool) *ModerationRepo {
	return &ModerationRepo{pool: pool}
}

const moderationColumns = `id, chat_id, message_id, user_id, username, display_name,
	tag, emoji, text, caption, media_info, thread_name, counter_name, status,
	created_at, updated_at`

func (r *ModerationRepo) Create(ctx context.Context, item model.ModerationItem) (string, error) {
	if r.pool == nil {
		return "", fmt.Errorf("postgres pool is nil")
	}

	mediaJSON, err := json.Marshal(item.Media)
	if err != nil {
		return "", fmt.Errorf("encode media info: %w", err)
	}

	id := uuid.NewString()
	if _, err := r.pool.Exec(ctx, `
INSERT INTO moderation_queue (
	id, chat_id, message_id, user_id, username, display_name,
	tag, emoji, text, caption, media_info, thread_name, counter_name, status
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 'pending')
`,
		id, item.ChatID, item.MessageID, item.UserID, item.Username, item.DisplayName,
		item.Tag, item.Emoji, item.Text, item.Caption, mediaJSON, item.ThreadName,
		item.CounterName,
	); err != nil {
		return "", fmt.Errorf("create moderation item: %w", err)
	}

	return id, nil
}

// ListPending returns unresolved items oldest first, the order moderators
// and the drain reconciliation both rely on.
func (r *ModerationRepo) ListPending(ctx context.Context) ([]model.ModerationItem, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+moderationColumns+`
FROM moderation_queue
WHERE status = 'pending'
ORDER BY created_at ASC, id ASC
`)
	if err != nil {
		return nil, fmt.Errorf("list pending moderation items: %w", err)
	}
	defer rows.Close()

	var items []model.ModerationItem
	for rows.Next() {
		item, err := scanModerationItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate moderation items: %w", err)
	}

	return items, nil
}

func (r *ModerationRepo) GetByID(ctx context.Context, id string) (model.ModerationItem, error) {
	if r.pool == nil {
		return model.ModerationItem{}, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(id) == "" {
		return model.ModerationItem{}, fmt.Errorf("moderation item id is required")
	}

	row := r.pool.QueryRow(ctx, `
SELECT `+moderationColumns+`
FROM moderation_queue
WHERE id = $1
`, id)

	item, err := scanModerationItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ModerationItem{}, ErrItemNotFound
		}
		return model.ModerationItem{}, err
	}

	return item, nil
}

// Resolve flips a pending item to the given terminal status. The status
// guard in the WHERE clause is the compare-and-set that serializes
// concurrent decisions on the same id: exactly one caller wins.
func (r *ModerationRepo) Resolve(ctx context.Context, id string, status enums.ModerationStatus) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("moderation item id is required")
	}
	if !status.Resolved() {
		return fmt.Errorf("invalid terminal moderation status %q", status)
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE moderation_queue
SET status = $2, updated_at = NOW()
WHERE id = $1 AND status = 'pending'
`, id, string(status))
	if err != nil {
		return fmt.Errorf("resolve moderation item: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var existing string
	err = r.pool.QueryRow(ctx, `SELECT status FROM moderation_queue WHERE id = $1`, id).Scan(&existing)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrItemNotFound
		}
		return fmt.Errorf("check moderation item status: %w", err)
	}

	return ErrAlreadyResolved
}

func (r *ModerationRepo) CountByStatus(ctx context.Context) (map[enums.ModerationStatus]int, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT status, COUNT(*)
FROM moderation_queue
GROUP BY status
`)
	if err != nil {
		return nil, fmt.Errorf("count moderation items: %w", err)
	}
	defer rows.Close()

	counts := make(map[enums.ModerationStatus]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan moderation count row: %w", err)
		}
		counts[enums.ModerationStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate moderation counts: %w", err)
	}

	return counts, nil
}

// DeleteResolved clears approved and rejected items, keeping the pending
// queue intact. Used by the admin "clear logs" sweep.
func (r *ModerationRepo) DeleteResolved(ctx context.Context) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM moderation_queue WHERE status != 'pending'`)
	if err != nil {
		return 0, fmt.Errorf("delete resolved moderation items: %w", err)
	}

	return tag.RowsAffected(), nil
}

func scanModerationItem(row pgx.Row) (model.ModerationItem, error) {
	var (
		item      model.ModerationItem
		status    string
		mediaJSON []byte
	)
	err := row.Scan(
		&item.ID,
		&item.ChatID,
		&item.MessageID,
		&item.UserID,
		&item.Username,
		&item.DisplayName,
		&item.Tag,
		&item.Emoji,
		&item.Text,
		&item.Caption,
		&mediaJSON,
		&item.ThreadName,
		&item.CounterName,
		&status,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ModerationItem{}, err
		}
		return model.ModerationItem{}, fmt.Errorf("scan moderation row: %w", err)
	}

	item.Status = enums.ModerationStatus(status)
	if len(mediaJSON) > 0 {
		if err := json.Unmarshal(mediaJSON, &item.Media); err != nil {
			return model.ModerationItem{}, fmt.Errorf("decode media info: %w", err)
		}
	}

	return item, nil
}
