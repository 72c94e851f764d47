package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ivankudzin/tagbot/internal/domain/model"
	activitysvc "github.com/ivankudzin/tagbot/internal/services/activity"
	"github.com/ivankudzin/tagbot/internal/services/delivery"
	modsvc "github.com/ivankudzin/tagbot/internal/services/moderation"
	"github.com/ivankudzin/tagbot/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/tagbot/internal/transport/http/errors"
)

// ApprovedDeliverer reacts to a freshly approved submission.
type ApprovedDeliverer interface {
	DeliverApproved(ctx context.Context, item model.ModerationItem) (delivery.Result, error)
}

type ModerationHandler struct {
	service   *modsvc.Service
	deliverer ApprovedDeliverer
	activity  *activitysvc.Service
	logger    *zap.Logger
}

func NewModerationHandler(service *modsvc.Service, deliverer ApprovedDeliverer, activity *activitysvc.Service, logger *zap.Logger) *ModerationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModerationHandler{
		service:   service,
		deliverer: deliverer,
		activity:  activity,
		logger:    logger,
	}
}

func (h *ModerationHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "moderation service is unavailable")
		return
	}

	items, err := h.service.ListPending(r.Context())
	if err != nil {
		writeInternal(w, "failed to list pending items")
		return
	}

	httperrors.WriteData(w, http.StatusOK, dto.ModerationItemResponsesFromModels(items))
}

func (h *ModerationHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "moderation service is unavailable")
		return
	}

	item, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, modsvc.ErrItemNotFound) {
			writeNotFound(w, "moderation item not found")
			return
		}
		writeInternal(w, "failed to load moderation item")
		return
	}

	httperrors.WriteData(w, http.StatusOK, dto.ModerationItemResponseFromModel(item))
}

// Approve flips the item to approved exactly once and pushes its reaction.
// A reaction that cannot go out right now lands in the retry queue, the
// approval itself never rolls back.
func (h *ModerationHandler) Approve(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "moderation service is unavailable")
		return
	}

	item, err := h.service.Approve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeResolveError(w, err, "approve")
		return
	}

	resp := dto.ResolveResponse{Item: dto.ModerationItemResponseFromModel(item)}
	if h.deliverer != nil {
		result, err := h.deliverer.DeliverApproved(r.Context(), item)
		if err != nil {
			h.logger.Error("reaction delivery after approval failed",
				zap.String("moderation_id", item.ID),
				zap.Error(err))
		} else {
			resp.Delivered = result.Delivered
			resp.Queued = result.Queued
			resp.Emoji = result.Emoji
		}
	}

	httperrors.WriteData(w, http.StatusOK, resp)
}

// Reject flips the item to rejected exactly once and records it in the
// activity log with the rejection marker. No reaction and no webhook.
func (h *ModerationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "moderation service is unavailable")
		return
	}

	item, err := h.service.Reject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeResolveError(w, err, "reject")
		return
	}

	if h.activity != nil {
		if err := h.activity.AppendRejected(r.Context(), item); err != nil {
			h.logger.Warn("rejection log append failed",
				zap.String("moderation_id", item.ID),
				zap.Error(err))
		}
	}

	httperrors.WriteData(w, http.StatusOK, dto.ResolveResponse{
		Item: dto.ModerationItemResponseFromModel(item),
	})
}

func (h *ModerationHandler) writeResolveError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, modsvc.ErrItemNotFound):
		writeNotFound(w, "moderation item not found")
	case errors.Is(err, modsvc.ErrAlreadyResolved):
		writeConflict(w, "moderation item is already resolved")
	default:
		writeInternal(w, "failed to "+action+" moderation item")
	}
}
