package dto

import (
	"time"

	"github.com/ivankudzin/tagbot/internal/domain/model"
	pgrepo "github.com/ivankudzin/tagbot/internal/repo/postgres"
)

type LogEntryResponse struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Username   string    `json:"username"`
	ChatID     int64     `json:"chat_id"`
	MessageID  int       `json:"message_id"`
	Trigger    string    `json:"trigger"`
	Emoji      string    `json:"emoji"`
	ThreadName string    `json:"thread_name"`
	MediaType  string    `json:"media_type"`
	Caption    string    `json:"caption"`
	Timestamp  time.Time `json:"timestamp"`
}

type TriggerCountResponse struct {
	Trigger string `json:"trigger"`
	Count   int    `json:"count"`
}

type ClearLogsResponse struct {
	LogsRemoved            int64 `json:"logs_removed"`
	QueuedReactionsRemoved int64 `json:"queued_reactions_removed"`
	ResolvedItemsRemoved   int64 `json:"resolved_items_removed"`
}

type StatsResponse struct {
	TotalLogs       int                    `json:"total_logs"`
	TotalTags       int                    `json:"total_tags"`
	PendingItems    int                    `json:"pending_items"`
	QueuedReactions int                    `json:"queued_reactions"`
	KnownMedia      int                    `json:"known_media"`
	TopTriggers     []TriggerCountResponse `json:"top_triggers"`
}

func LogEntryResponseFromModel(entry model.LogEntry) LogEntryResponse {
	return LogEntryResponse{
		ID:         entry.ID,
		UserID:     entry.UserID,
		Username:   entry.Username,
		ChatID:     entry.ChatID,
		MessageID:  entry.MessageID,
		Trigger:    entry.Trigger,
		Emoji:      entry.Emoji,
		ThreadName: entry.ThreadName,
		MediaType:  entry.MediaType,
		Caption:    entry.Caption,
		Timestamp:  entry.Timestamp,
	}
}

func LogEntryResponsesFromModels(entries []model.LogEntry) []LogEntryResponse {
	out := make([]LogEntryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, LogEntryResponseFromModel(entry))
	}
	return out
}

func TriggerCountResponsesFromRepo(counts []pgrepo.TriggerCount) []TriggerCountResponse {
	out := make([]TriggerCountResponse, 0, len(counts))
	for _, tc := range counts {
		out = append(out, TriggerCountResponse{Trigger: tc.Trigger, Count: tc.Count})
	}
	return out
}
