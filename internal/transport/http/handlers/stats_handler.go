package handlers

import (
	"context"
	"net/http"

	"github.com/ivankudzin/tagbot/internal/domain/enums"
	activitysvc "github.com/ivankudzin/tagbot/internal/services/activity"
	"github.com/ivankudzin/tagbot/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/tagbot/internal/transport/http/errors"
)

type Counter interface {
	Count(ctx context.Context) (int, error)
}

type StatusCounter interface {
	CountByStatus(ctx context.Context) (map[enums.ModerationStatus]int, error)
}

// StatsHandler aggregates the dashboard numbers from the individual stores.
// Any unavailable store contributes a zero rather than failing the view.
type StatsHandler struct {
	activity   *activitysvc.Service
	tags       Counter
	moderation StatusCounter
	queue      Counter
	media      Counter
}

func NewStatsHandler(activity *activitysvc.Service, tags Counter, moderation StatusCounter, queue, media Counter) *StatsHandler {
	return &StatsHandler{
		activity:   activity,
		tags:       tags,
		moderation: moderation,
		queue:      queue,
		media:      media,
	}
}

func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.activity == nil {
		writeInternal(w, "activity log is unavailable")
		return
	}

	ctx := r.Context()
	resp := dto.StatsResponse{}

	total, err := h.activity.Count(ctx)
	if err != nil {
		writeInternal(w, "failed to count log entries")
		return
	}
	resp.TotalLogs = total

	top, err := h.activity.TopTriggers(ctx, 10)
	if err != nil {
		writeInternal(w, "failed to load top triggers")
		return
	}
	resp.TopTriggers = dto.TriggerCountResponsesFromRepo(top)

	if h.tags != nil {
		if n, err := h.tags.Count(ctx); err == nil {
			resp.TotalTags = n
		}
	}
	if h.moderation != nil {
		if counts, err := h.moderation.CountByStatus(ctx); err == nil {
			resp.PendingItems = counts[enums.ModerationPending]
		}
	}
	if h.queue != nil {
		if n, err := h.queue.Count(ctx); err == nil {
			resp.QueuedReactions = n
		}
	}
	if h.media != nil {
		if n, err := h.media.Count(ctx); err == nil {
			resp.KnownMedia = n
		}
	}

	httperrors.WriteData(w, http.StatusOK, resp)
}
