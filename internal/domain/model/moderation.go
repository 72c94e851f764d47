package model

import (
	"time"

	"github.com/ivankudzin/tagbot/internal/domain/enums"
)

// ModerationItem is a tag submission waiting for (or resolved by) a human
// decision. Resolved items are kept for audit and only filtered out of
// pending views.
type ModerationItem struct {
	ID          string
	ChatID      int64
	MessageID   int
	UserID      int64
	Username    string
	DisplayName string
	Tag         string
	Emoji       string
	Text        string
	Caption     string
	Media       MediaInfo
	ThreadName  string
	CounterName string
	Status      enums.ModerationStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ReactionQueueEntry is a reaction that could not be delivered synchronously
// and waits for the drain loop. ModerationID is empty for direct reactions.
type ReactionQueueEntry struct {
	ID           int64
	ModerationID string
	ChatID       int64
	MessageID    int
	Emoji        string
	Attempts     int
	CreatedAt    time.Time
}
