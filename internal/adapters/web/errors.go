package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"procurement/internal/core"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	writeErrorResponse(w, r, errorResponse{Error: message, Code: code}, status)
}

func writeErrorResponse(w http.ResponseWriter, r *http.Request, resp errorResponse, status int) {
	resp.RequestID = requestIDFromContext(r.Context())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// writeServiceError maps a service error to its HTTP status and code.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		writeErrorResponse(w, r, errorResponse{Error: err.Error(), Code: "VALIDATION_ERROR", Field: ve.Field}, http.StatusBadRequest)
	case errors.Is(err, core.ErrNotFound):
		writeError(w, r, err.Error(), "NOT_FOUND", http.StatusNotFound)
	case errors.Is(err, core.ErrDuplicateReference):
		writeError(w, r, err.Error(), "DUPLICATE_REFERENCE", http.StatusConflict)
	case errors.Is(err, core.ErrInvalidTransition):
		writeError(w, r, err.Error(), "INVALID_TRANSITION", http.StatusConflict)
	case errors.Is(err, core.ErrClientInUse):
		writeError(w, r, err.Error(), "CLIENT_IN_USE", http.StatusConflict)
	case errors.Is(err, core.ErrWithholdingNotApplied):
		writeError(w, r, err.Error(), "WITHHOLDING_NOT_APPLIED", http.StatusUnprocessableEntity)
	default:
		h.log.Error("request failed",
			zap.Error(err),
			zap.String("request_id", requestIDFromContext(r.Context())),
			zap.String("path", r.URL.Path),
		)
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
