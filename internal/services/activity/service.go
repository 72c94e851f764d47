package activity

import (
	"context"
	"fmt"

	"github.com/ivankudzin/tagbot/internal/domain/model"
	pgrepo "github.com/ivankudzin/tagbot/internal/repo/postgres"
)

// RejectedMarker is the distinguished emoji recorded for rejected
// submissions so they are tellable from delivered reactions in the audit
// trail.
const RejectedMarker = "❌"

type Store interface {
	Append(ctx context.Context, entry model.LogEntry) error
	List(ctx context.Context, trigger string, limit int) ([]model.LogEntry, error)
	Count(ctx context.Context) (int, error)
	TopTriggers(ctx context.Context, limit int) ([]pgrepo.TriggerCount, error)
}

// Service is the append-only activity log around every tag hit.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) Append(ctx context.Context, entry model.LogEntry) error {
	if s.store == nil {
		return fmt.Errorf("activity store is not configured")
	}

	return s.store.Append(ctx, entry)
}

// AppendRejected records a moderation rejection with the distinguished
// marker emoji in place of the rule's own emoji.
func (s *Service) AppendRejected(ctx context.Context, item model.ModerationItem) error {
	return s.Append(ctx, FromModerationItem(item, RejectedMarker))
}

func (s *Service) List(ctx context.Context, trigger string, limit int) ([]model.LogEntry, error) {
	if s.store == nil {
		return nil, fmt.Errorf("activity store is not configured")
	}

	return s.store.List(ctx, trigger, limit)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	if s.store == nil {
		return 0, fmt.Errorf("activity store is not configured")
	}

	return s.store.Count(ctx)
}

func (s *Service) TopTriggers(ctx context.Context, limit int) ([]pgrepo.TriggerCount, error) {
	if s.store == nil {
		return nil, fmt.Errorf("activity store is not configured")
	}

	return s.store.TopTriggers(ctx, limit)
}

// FromModerationItem builds a log entry directly from the stored item, no
// message-shaped stand-in required.
func FromModerationItem(item model.ModerationItem, emoji string) model.LogEntry {
	mediaType := ""
	if item.Media.HasPhoto {
		mediaType = "photo"
	} else if item.Media.HasVideo {
		mediaType = "video"
	}

	return model.LogEntry{
		UserID:     item.UserID,
		Username:   item.Username,
		ChatID:     item.ChatID,
		MessageID:  item.MessageID,
		Trigger:    item.Tag,
		Emoji:      emoji,
		ThreadName: item.ThreadName,
		MediaType:  mediaType,
		Caption:    item.Caption,
	}
}
