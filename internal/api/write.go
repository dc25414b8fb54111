package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"before-after/internal/utils"
)

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// WriteError renders err as {"error", "code"}. Anything that is not an
// AppError is reported as an internal error without leaking its text.
func WriteError(w http.ResponseWriter, err error) {
	appErr, ok := utils.AsAppError(err)
	if !ok {
		slog.Error("unhandled error", "error", err)
		appErr = utils.NewAppError(utils.ErrDatabase, "Internal server error", err)
	}
	WriteJSON(w, appErr.Status(), ErrorResponse{
		Error: appErr.Message,
		Code:  appErr.Code,
	})
}
