package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/creativecanvas/backend/internal/logging"
	"github.com/creativecanvas/backend/internal/relay"
)

const defaultMaxBodyBytes = 10 << 20

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}

// respondError maps relay failures onto status codes. Client errors carry only a
// message; server errors also carry the raw upstream or storage details.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	var relayErr *relay.Error
	if !errors.As(err, &relayErr) {
		respondJSON(ctx, w, http.StatusInternalServerError, errorResponse{Error: "internal server error", Details: err.Error()})
		return
	}

	switch {
	case errors.Is(err, relay.ErrInvalidInput):
		respondJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: relayErr.Message})
	case errors.Is(err, relay.ErrCreationNotFound):
		respondJSON(ctx, w, http.StatusNotFound, errorResponse{Error: relayErr.Message, Details: relayErr.Details})
	default:
		respondJSON(ctx, w, http.StatusInternalServerError, errorResponse{Error: relayErr.Message, Details: relayErr.Details})
	}
}

// decodeJSON reads a size-limited JSON body into dst and answers 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, dst any) bool {
	if limit <= 0 {
		limit = defaultMaxBodyBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		ctx := r.Context()
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondJSON(ctx, w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
			return false
		}
		logging.FromContext(ctx).Warn("invalid request payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}
