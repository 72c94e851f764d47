package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/tagbot/internal/domain/enums"
	"github.com/ivankudzin/tagbot/internal/domain/model"
)

var (
	ErrTagNotFound  = errors.New("tag not found")
	ErrDuplicateTag = errors.New("tag already exists")
)

const uniqueViolationCode = "23505"

type TagRepo struct {
	pool *pgxpool.Pool
}

func NewTagRepo(pool *pgxpool.Pool) *TagRepo {
	return &TagRepo{pool: pool}
}

const tagColumns = `id, tag, emoji, delay, match_mode, require_media, thread_name,
	moderation_enabled, counter_name, reply_ok, reply_need_media, reply_duplicate,
	reply_pending, created_at, updated_at`

// List returns all rules in insertion order. Insertion order is match
// priority, so the ordering here is load-bearing.
func (r *TagRepo) List(ctx context.Context) ([]model.TagRule, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+tagColumns+`
FROM tags
ORDER BY created_at ASC, id ASC
`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var rules []model.TagRule
	for rows.Next() {
		rule, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}

	return rules, nil
}

func (r *TagRepo) GetByID(ctx context.Context, id string) (model.TagRule, error) {
	if r.pool == nil {
		return model.TagRule{}, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(id) == "" {
		return model.TagRule{}, fmt.Errorf("tag id is required")
	}

	row := r.pool.QueryRow(ctx, `
SELECT `+tagColumns+`
FROM tags
WHERE id = $1
`, id)

	rule, err := scanTag(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.TagRule{}, ErrTagNotFound
		}
		return model.TagRule{}, err
	}

	return rule, nil
}

func (r *TagRepo) Create(ctx context.Context, rule model.TagRule) (string, error) {
	if r.pool == nil {
		return "", fmt.Errorf("postgres pool is nil")
	}

	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
INSERT INTO tags (
	id, tag, emoji, delay, match_mode, require_media, thread_name,
	moderation_enabled, counter_name, reply_ok, reply_need_media,
	reply_duplicate, reply_pending
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
`,
		id, rule.Tag, rule.Emoji, rule.Delay, string(rule.MatchMode), rule.RequireMedia,
		rule.ThreadName, rule.ModerationEnabled, rule.CounterName, rule.ReplyOK,
		rule.ReplyNeedMedia, rule.ReplyDuplicate, rule.ReplyPending,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return "", ErrDuplicateTag
		}
		return "", fmt.Errorf("create tag: %w", err)
	}

	return id, nil
}

func (r *TagRepo) Update(ctx context.Context, id string, rule model.TagRule) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("tag id is required")
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE tags
SET
	tag = $2,
	emoji = $3,
	delay = $4,
	match_mode = $5,
	require_media = $6,
	thread_name = $7,
	moderation_enabled = $8,
	counter_name = $9,
	reply_ok = $10,
	reply_need_media = $11,
	reply_duplicate = $12,
	reply_pending = $13,
	updated_at = NOW()
WHERE id = $1
`,
		id, rule.Tag, rule.Emoji, rule.Delay, string(rule.MatchMode), rule.RequireMedia,
		rule.ThreadName, rule.ModerationEnabled, rule.CounterName, rule.ReplyOK,
		rule.ReplyNeedMedia, rule.ReplyDuplicate, rule.ReplyPending,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateTag
		}
		return fmt.Errorf("update tag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTagNotFound
	}

	return nil
}

func (r *TagRepo) Delete(ctx context.Context, id string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("tag id is required")
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTagNotFound
	}

	return nil
}

func (r *TagRepo) Count(ctx context.Context) (int, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tags`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count tags: %w", err)
	}

	return count, nil
}

func scanTag(row pgx.Row) (model.TagRule, error) {
	var (
		rule      model.TagRule
		matchMode string
	)
	err := row.Scan(
		&rule.ID,
		&rule.Tag,
		&rule.Emoji,
		&rule.Delay,
		&matchMode,
		&rule.RequireMedia,
		&rule.ThreadName,
		&rule.ModerationEnabled,
		&rule.CounterName,
		&rule.ReplyOK,
		&rule.ReplyNeedMedia,
		&rule.ReplyDuplicate,
		&rule.ReplyPending,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.TagRule{}, err
		}
		return model.TagRule{}, fmt.Errorf("scan tag row: %w", err)
	}

	rule.MatchMode = enums.MatchMode(matchMode)
	return rule, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
