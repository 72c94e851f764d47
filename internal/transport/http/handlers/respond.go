package handlers

import (
	"net/http"

	httperrors "github.com/ivankudzin/tagbot/internal/transport/http/errors"
)

func writeBadRequest(w http.ResponseWriter, message string) {
	httperrors.WriteError(w, http.StatusBadRequest, message)
}

func writeNotFound(w http.ResponseWriter, message string) {
	httperrors.WriteError(w, http.StatusNotFound, message)
}

func writeConflict(w http.ResponseWriter, message string) {
	httperrors.WriteError(w, http.StatusConflict, message)
}

func writeInternal(w http.ResponseWriter, message string) {
	httperrors.WriteError(w, http.StatusInternalServerError, message)
}
