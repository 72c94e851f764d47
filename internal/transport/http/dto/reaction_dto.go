package dto

import (
	"time"

	"github.com/ivankudzin/tagbot/internal/domain/model"
)

type ReactionRequest struct {
	ChatID    int64  `json:"chat_id"`
	MessageID int    `json:"message_id"`
	Emoji     string `json:"emoji"`
}

type ReactionQueueEntryResponse struct {
	ID           int64     `json:"id"`
	ModerationID string    `json:"moderation_id,omitempty"`
	ChatID       int64     `json:"chat_id"`
	MessageID    int       `json:"message_id"`
	Emoji        string    `json:"emoji"`
	Attempts     int       `json:"attempts"`
	CreatedAt    time.Time `json:"created_at"`
}

func ReactionQueueEntryResponsesFromModels(entries []model.ReactionQueueEntry) []ReactionQueueEntryResponse {
	out := make([]ReactionQueueEntryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, ReactionQueueEntryResponse{
			ID:           entry.ID,
			ModerationID: entry.ModerationID,
			ChatID:       entry.ChatID,
			MessageID:    entry.MessageID,
			Emoji:        entry.Emoji,
			Attempts:     entry.Attempts,
			CreatedAt:    entry.CreatedAt,
		})
	}
	return out
}
