package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Veraticus/subscription-sentinel/internal/approval"
	"github.com/Veraticus/subscription-sentinel/internal/billing"
	"github.com/Veraticus/subscription-sentinel/internal/common"
)

// errBadRequest marks malformed request bodies.
var errBadRequest = errors.New("invalid request body")

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("Failed to encode response", "error", err)
	}
}

// writeError maps err to a status code. message is what the client sees for
// server-side failures; client errors show the error itself.
func (s *Server) writeError(w http.ResponseWriter, err error, message string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(message, "error", err)
		s.writeJSON(w, status, errorResponse{Error: message})
		return
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest),
		errors.Is(err, approval.ErrInvalidAction),
		errors.Is(err, billing.ErrInvalidCheckout),
		errors.Is(err, billing.ErrNoEligibleSubscription):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrDuplicateEntry):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}
