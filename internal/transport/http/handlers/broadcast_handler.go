package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	broadcastsvc "github.com/ivankudzin/tagbot/internal/services/broadcast"
	"github.com/ivankudzin/tagbot/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/tagbot/internal/transport/http/errors"
)

type BroadcastHandler struct {
	service *broadcastsvc.Service
}

func NewBroadcastHandler(service *broadcastsvc.Service) *BroadcastHandler {
	return &BroadcastHandler{service: service}
}

func (h *BroadcastHandler) Preview(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "broadcast service is unavailable")
		return
	}

	recipients, err := h.service.Preview(r.Context())
	if err != nil {
		writeInternal(w, "failed to count recipients")
		return
	}

	httperrors.WriteData(w, http.StatusOK, dto.BroadcastPreviewResponse{Recipients: recipients})
}

func (h *BroadcastHandler) Send(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "broadcast service is unavailable")
		return
	}

	var req dto.BroadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid json body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeBadRequest(w, "text is required")
		return
	}

	report, err := h.service.Send(r.Context(), req.Text)
	if err != nil {
		writeInternal(w, "broadcast failed")
		return
	}

	httperrors.WriteData(w, http.StatusOK, dto.BroadcastReportResponse{
		Total:  report.Total,
		Sent:   report.Sent,
		Failed: report.Failed,
	})
}
