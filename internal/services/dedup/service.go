package dedup

import (
	"context"
	"fmt"

	"github.com/ivankudzin/tagbot/internal/domain/enums"
)

type Index interface {
	Upsert(ctx context.Context, fileHash, fileID string, kind enums.MediaKind, userID, chatID int64, messageID int) (bool, error)
}

// Service decides whether a piece of media is fresh or already credited to
// someone else. Resubmission by the owning user refreshes the record and is
// never reported as a duplicate.
type Service struct {
	index Index
}

func NewService(index Index) *Service {
	return &Service{index: index}
}

type Verdict int

const (
	Fresh Verdict = iota
	Duplicate
)

func (s *Service) RecordAndCheck(ctx context.Context, fileHash, fileID string, kind enums.MediaKind, userID, chatID int64, messageID int) (Verdict, error) {
	if s.index == nil {
		return Fresh, fmt.Errorf("media dedup index is not configured")
	}

	fresh, err := s.index.Upsert(ctx, fileHash, fileID, kind, userID, chatID, messageID)
	if err != nil {
		return Fresh, err
	}
	if !fresh {
		return Duplicate, nil
	}

	return Fresh, nil
}
