package dto

import (
	"time"

	"github.com/ivankudzin/tagbot/internal/domain/model"
)

type ModerationItemResponse struct {
	ID          string    `json:"id"`
	ChatID      int64     `json:"chat_id"`
	MessageID   int       `json:"message_id"`
	UserID      int64     `json:"user_id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Tag         string    `json:"tag"`
	Emoji       string    `json:"emoji"`
	Text        string    `json:"text"`
	Caption     string    `json:"caption"`
	HasPhoto    bool      `json:"has_photo"`
	HasVideo    bool      `json:"has_video"`
	FileIDs     []string  `json:"file_ids"`
	ThreadName  string    `json:"thread_name"`
	CounterName string    `json:"counter_name"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ResolveResponse reports a moderation decision together with what happened
// to the reaction afterwards.
type ResolveResponse struct {
	Item      ModerationItemResponse `json:"item"`
	Delivered bool                   `json:"delivered"`
	Queued    bool                   `json:"queued"`
	Emoji     string                 `json:"emoji,omitempty"`
}

func ModerationItemResponseFromModel(item model.ModerationItem) ModerationItemResponse {
	return ModerationItemResponse{
		ID:          item.ID,
		ChatID:      item.ChatID,
		MessageID:   item.MessageID,
		UserID:      item.UserID,
		Username:    item.Username,
		DisplayName: item.DisplayName,
		Tag:         item.Tag,
		Emoji:       item.Emoji,
		Text:        item.Text,
		Caption:     item.Caption,
		HasPhoto:    item.Media.HasPhoto,
		HasVideo:    item.Media.HasVideo,
		FileIDs:     item.Media.FileIDs(),
		ThreadName:  item.ThreadName,
		CounterName: item.CounterName,
		Status:      string(item.Status),
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}

func ModerationItemResponsesFromModels(items []model.ModerationItem) []ModerationItemResponse {
	out := make([]ModerationItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, ModerationItemResponseFromModel(item))
	}
	return out
}
