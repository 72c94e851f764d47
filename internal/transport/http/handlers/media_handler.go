package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	archivesvc "github.com/ivankudzin/tagbot/internal/services/archive"
	"github.com/ivankudzin/tagbot/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/tagbot/internal/transport/http/errors"
)

type MediaHandler struct {
	archive *archivesvc.Service
}

func NewMediaHandler(archive *archivesvc.Service) *MediaHandler {
	return &MediaHandler{archive: archive}
}

// View returns a short-lived URL for an archived submission file.
func (h *MediaHandler) View(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil || !h.archive.Enabled() {
		writeInternal(w, "media archive is unavailable")
		return
	}

	url, err := h.archive.PresignView(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "fileID"))
	if err != nil {
		writeInternal(w, "failed to presign media")
		return
	}

	httperrors.WriteData(w, http.StatusOK, dto.MediaViewResponse{URL: url})
}
