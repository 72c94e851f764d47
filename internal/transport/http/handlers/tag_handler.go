package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	regsvc "github.com/ivankudzin/tagbot/internal/services/registry"
	"github.com/ivankudzin/tagbot/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/tagbot/internal/transport/http/errors"
)

type TagHandler struct {
	registry *regsvc.Service
}

func NewTagHandler(registry *regsvc.Service) *TagHandler {
	return &TagHandler{registry: registry}
}

func (h *TagHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.registry == nil {
		writeInternal(w, "tag registry is unavailable")
		return
	}

	rules, err := h.registry.List(r.Context())
	if err != nil {
		writeInternal(w, "failed to list tags")
		return
	}

	httperrors.WriteData(w, http.StatusOK, dto.TagResponsesFromModels(rules))
}

func (h *TagHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.registry == nil {
		writeInternal(w, "tag registry is unavailable")
		return
	}

	rule, err := h.registry.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, regsvc.ErrTagNotFound) {
			writeNotFound(w, "tag not found")
			return
		}
		writeInternal(w, "failed to load tag")
		return
	}

	httperrors.WriteData(w, http.StatusOK, dto.TagResponseFromModel(rule))
}

func (h *TagHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.registry == nil {
		writeInternal(w, "tag registry is unavailable")
		return
	}

	var req dto.TagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid json body")
		return
	}

	id, err := h.registry.Create(r.Context(), req.ToModel())
	if err != nil {
		switch {
		case errors.Is(err, regsvc.ErrInvalidRule):
			writeBadRequest(w, err.Error())
		case errors.Is(err, regsvc.ErrDuplicateTag):
			writeConflict(w, "tag trigger already exists")
		default:
			writeInternal(w, "failed to create tag")
		}
		return
	}

	rule, err := h.registry.Get(r.Context(), id)
	if err != nil {
		writeInternal(w, "failed to load created tag")
		return
	}

	httperrors.WriteData(w, http.StatusCreated, dto.TagResponseFromModel(rule))
}

func (h *TagHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h.registry == nil {
		writeInternal(w, "tag registry is unavailable")
		return
	}

	var req dto.TagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid json body")
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.registry.Update(r.Context(), id, req.ToModel()); err != nil {
		switch {
		case errors.Is(err, regsvc.ErrInvalidRule):
			writeBadRequest(w, err.Error())
		case errors.Is(err, regsvc.ErrTagNotFound):
			writeNotFound(w, "tag not found")
		case errors.Is(err, regsvc.ErrDuplicateTag):
			writeConflict(w, "tag trigger already exists")
		default:
			writeInternal(w, "failed to update tag")
		}
		return
	}

	rule, err := h.registry.Get(r.Context(), id)
	if err != nil {
		writeInternal(w, "failed to load updated tag")
		return
	}

	httperrors.WriteData(w, http.StatusOK, dto.TagResponseFromModel(rule))
}

func (h *TagHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.registry == nil {
		writeInternal(w, "tag registry is unavailable")
		return
	}

	if err := h.registry.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, regsvc.ErrTagNotFound) {
			writeNotFound(w, "tag not found")
			return
		}
		writeInternal(w, "failed to delete tag")
		return
	}

	httperrors.WriteMessage(w, http.StatusOK, "tag deleted")
}
