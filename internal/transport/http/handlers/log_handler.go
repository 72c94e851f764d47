package handlers

import (
	"context"
	"net/http"
	"strconv"

	activitysvc "github.com/ivankudzin/tagbot/internal/services/activity"
	"github.com/ivankudzin/tagbot/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/tagbot/internal/transport/http/errors"
)

// LogCleaner wipes the activity log.
type LogCleaner interface {
	Clear(ctx context.Context) (int64, error)
}

// QueueCleaner wipes the pending reaction queue.
type QueueCleaner interface {
	Clear(ctx context.Context) (int64, error)
}

// ResolvedCleaner removes moderation items that have already been decided.
type ResolvedCleaner interface {
	DeleteResolved(ctx context.Context) (int64, error)
}

type LogHandler struct {
	activity        *activitysvc.Service
	logCleaner      LogCleaner
	queueCleaner    QueueCleaner
	resolvedCleaner ResolvedCleaner
}

func NewLogHandler(activity *activitysvc.Service, logCleaner LogCleaner, queueCleaner QueueCleaner, resolvedCleaner ResolvedCleaner) *LogHandler {
	return &LogHandler{
		activity:        activity,
		logCleaner:      logCleaner,
		queueCleaner:    queueCleaner,
		resolvedCleaner: resolvedCleaner,
	}
}

func (h *LogHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.activity == nil {
		writeInternal(w, "activity log is unavailable")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeBadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	// "trigger" is accepted as a legacy alias for the "tag" filter.
	tag := r.URL.Query().Get("tag")
	if tag == "" {
		tag = r.URL.Query().Get("trigger")
	}

	entries, err := h.activity.List(r.Context(), tag, limit)
	if err != nil {
		writeInternal(w, "failed to list log entries")
		return
	}

	httperrors.WriteData(w, http.StatusOK, dto.LogEntryResponsesFromModels(entries))
}

// Clear sweeps the whole history: log entries, queued reactions, and
// moderation items that were already approved or rejected. Pending
// moderation items stay put.
func (h *LogHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if h.logCleaner == nil {
		writeInternal(w, "activity log is unavailable")
		return
	}

	resp := dto.ClearLogsResponse{}

	removed, err := h.logCleaner.Clear(r.Context())
	if err != nil {
		writeInternal(w, "failed to clear log entries")
		return
	}
	resp.LogsRemoved = removed

	if h.queueCleaner != nil {
		removed, err := h.queueCleaner.Clear(r.Context())
		if err != nil {
			writeInternal(w, "failed to clear reaction queue")
			return
		}
		resp.QueuedReactionsRemoved = removed
	}

	if h.resolvedCleaner != nil {
		removed, err := h.resolvedCleaner.DeleteResolved(r.Context())
		if err != nil {
			writeInternal(w, "failed to clear resolved moderation items")
			return
		}
		resp.ResolvedItemsRemoved = removed
	}

	httperrors.WriteData(w, http.StatusOK, resp)
}
