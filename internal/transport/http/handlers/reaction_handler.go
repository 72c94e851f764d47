package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ivankudzin/tagbot/internal/domain/model"
	"github.com/ivankudzin/tagbot/internal/infra/telegram"
	"github.com/ivankudzin/tagbot/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/tagbot/internal/transport/http/errors"
)

// Reactor applies or clears reactions on demand.
type Reactor interface {
	SetReaction(ctx context.Context, chatID int64, messageID int, emojis []string) error
}

// QueueView exposes the retry queue to the admin panel.
type QueueView interface {
	ListAll(ctx context.Context) ([]model.ReactionQueueEntry, error)
	Clear(ctx context.Context) (int64, error)
}

type ReactionHandler struct {
	reactor Reactor
	queue   QueueView
}

func NewReactionHandler(reactor Reactor, queue QueueView) *ReactionHandler {
	return &ReactionHandler{reactor: reactor, queue: queue}
}

// Set applies a reaction manually, bypassing rules and moderation.
func (h *ReactionHandler) Set(w http.ResponseWriter, r *http.Request) {
	if h.reactor == nil {
		writeInternal(w, "telegram bot is unavailable")
		return
	}

	var req dto.ReactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid json body")
		return
	}
	if req.ChatID == 0 || req.MessageID == 0 || req.Emoji == "" {
		writeBadRequest(w, "chat_id, message_id and emoji are required")
		return
	}

	if err := h.reactor.SetReaction(r.Context(), req.ChatID, req.MessageID, []string{req.Emoji}); err != nil {
		if errors.Is(err, telegram.ErrReactionInvalid) {
			writeBadRequest(w, "emoji is not allowed as a reaction")
			return
		}
		writeInternal(w, "failed to set reaction")
		return
	}

	httperrors.WriteMessage(w, http.StatusOK, "reaction set")
}

// Remove clears all reactions from a message.
func (h *ReactionHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if h.reactor == nil {
		writeInternal(w, "telegram bot is unavailable")
		return
	}

	var req dto.ReactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid json body")
		return
	}
	if req.ChatID == 0 || req.MessageID == 0 {
		writeBadRequest(w, "chat_id and message_id are required")
		return
	}

	if err := h.reactor.SetReaction(r.Context(), req.ChatID, req.MessageID, nil); err != nil {
		writeInternal(w, "failed to remove reaction")
		return
	}

	httperrors.WriteMessage(w, http.StatusOK, "reaction removed")
}

func (h *ReactionHandler) Queue(w http.ResponseWriter, r *http.Request) {
	if h.queue == nil {
		writeInternal(w, "reaction queue is unavailable")
		return
	}

	entries, err := h.queue.ListAll(r.Context())
	if err != nil {
		writeInternal(w, "failed to list reaction queue")
		return
	}

	httperrors.WriteData(w, http.StatusOK, dto.ReactionQueueEntryResponsesFromModels(entries))
}

func (h *ReactionHandler) ClearQueue(w http.ResponseWriter, r *http.Request) {
	if h.queue == nil {
		writeInternal(w, "reaction queue is unavailable")
		return
	}

	removed, err := h.queue.Clear(r.Context())
	if err != nil {
		writeInternal(w, "failed to clear reaction queue")
		return
	}

	httperrors.WriteData(w, http.StatusOK, map[string]int64{"removed": removed})
}
