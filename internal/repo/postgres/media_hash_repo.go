package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/tagbot/internal/domain/enums"
)

type MediaHashRepo struct {
	pool *pgxpool.Pool
}

func NewMediaHashRepo(pool *pgxpool.Pool) *MediaHashRepo {
	return &MediaHashRepo{pool: pool}
}

// Upsert records a media hash for its submitter. The single statement is
// the atomic insert-if-absent-else-compare-owner required to keep two
// concurrent submissions of the same hash from racing:
//   - new hash: row inserted, fresh=true;
//   - same user again: (chat, message) refreshed, fresh=true;
//   - different user: conditional update matches nothing, fresh=false and
//     the record is left untouched.
func (r *MediaHashRepo) Upsert(ctx context.Context, fileHash, fileID string, kind enums.MediaKind, userID, chatID int64, messageID int) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(fileHash) == "" || userID == 0 {
		return false, fmt.Errorf("invalid media hash payload")
	}

	var owner int64
	err := r.pool.QueryRow(ctx, `
INSERT INTO media_hashes (file_hash, file_id, file_type, user_id, chat_id, message_id)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (file_hash) DO UPDATE
SET file_id = EXCLUDED.file_id,
    chat_id = EXCLUDED.chat_id,
    message_id = EXCLUDED.message_id
WHERE media_hashes.user_id = EXCLUDED.user_id
RETURNING user_id
`, fileHash, fileID, string(kind), userID, chatID, messageID).Scan(&owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// conflicting hash owned by someone else
			return false, nil
		}
		return false, fmt.Errorf("upsert media hash: %w", err)
	}

	return true, nil
}

func (r *MediaHashRepo) Count(ctx context.Context) (int, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM media_hashes`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count media hashes: %w", err)
	}

	return count, nil
}
