package api

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"

	"github.com/pantrychef/recipegen/internal/errors"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Type     string `json:"type"`
	Code     string `json:"code,omitempty"`
	Message  string `json:"message"`
	Recovery string `json:"recovery,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to encode response", "error", err)
	}
}

// writeError renders err as ErrorBody. Errors that are not AppErrors become
// opaque 500s.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		appErr = errors.NewInternalError("internal server error", "INTERNAL", err)
	}

	if appErr.StatusCode >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, "error", err)
	} else {
		slog.WarnContext(r.Context(), "Request rejected", "path", r.URL.Path, "code", appErr.Code(), "message", appErr.Message)
	}

	writeJSON(w, appErr.StatusCode, ErrorBody{Error: ErrorDetail{
		Type:     string(appErr.Type),
		Code:     appErr.Code(),
		Message:  appErr.Message,
		Recovery: appErr.RecoverySuggestion(),
	}})
}
