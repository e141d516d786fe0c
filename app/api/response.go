package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/trattoria-andreas/menu-service/app/apperr"
)

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func WriteMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, MessageResponse{Message: message})
}

// WriteError sends {"error": ...} with the status mapped from err. Internal
// errors are logged with their cause; the client only sees the public message.
func WriteError(w http.ResponseWriter, log *zap.Logger, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError && log != nil {
		log.Error("request failed", zap.Error(err))
	}
	WriteJSON(w, status, ErrorResponse{Error: apperr.PublicMessage(err)})
}
