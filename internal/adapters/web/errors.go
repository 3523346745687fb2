package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"solarstock/internal/core"
	"solarstock/internal/parse"
	"solarstock/internal/parsersvc"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONStatus writes a JSON response with an explicit status code.
func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDomainError maps service errors onto HTTP status codes. Anything not
// recognized is a 500 with the error text withheld from the client.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeError(w, r, err.Error(), "NOT_FOUND", http.StatusNotFound)
	case errors.Is(err, core.ErrInvalidInput):
		writeError(w, r, err.Error(), "INVALID_INPUT", http.StatusBadRequest)
	case errors.Is(err, core.ErrAlreadyConfirmed):
		writeError(w, r, err.Error(), "ALREADY_CONFIRMED", http.StatusConflict)
	case errors.Is(err, core.ErrInvalidTransition):
		writeError(w, r, err.Error(), "INVALID_TRANSITION", http.StatusConflict)
	case errors.Is(err, core.ErrUnmappedLines):
		writeError(w, r, err.Error(), "UNMAPPED_LINES", http.StatusConflict)
	case errors.Is(err, core.ErrInsufficientStock):
		writeError(w, r, err.Error(), "INSUFFICIENT_STOCK", http.StatusConflict)
	case errors.Is(err, core.ErrDuplicateSKU):
		writeError(w, r, err.Error(), "DUPLICATE_SKU", http.StatusConflict)
	case errors.Is(err, core.ErrInUse):
		writeError(w, r, err.Error(), "IN_USE", http.StatusConflict)
	case errors.Is(err, core.ErrEmptyFile):
		writeError(w, r, err.Error(), "EMPTY_FILE", http.StatusBadRequest)
	case errors.Is(err, core.ErrFileTooLarge):
		writeError(w, r, err.Error(), "FILE_TOO_LARGE", http.StatusRequestEntityTooLarge)
	case errors.Is(err, parse.ErrUnsupportedFormat):
		writeError(w, r, err.Error(), "UNSUPPORTED_FORMAT", http.StatusUnsupportedMediaType)
	case errors.Is(err, parse.ErrMalformed):
		writeError(w, r, err.Error(), "PARSE_ERROR", http.StatusBadRequest)
	case errors.Is(err, parsersvc.ErrNotConfigured):
		writeError(w, r, err.Error(), "PARSER_NOT_CONFIGURED", http.StatusServiceUnavailable)
	case errors.Is(err, parsersvc.ErrAuthFailed):
		writeError(w, r, err.Error(), "PARSER_AUTH_FAILED", http.StatusBadGateway)
	case errors.Is(err, parsersvc.ErrTimeout):
		writeError(w, r, err.Error(), "PARSER_TIMEOUT", http.StatusGatewayTimeout)
	case errors.Is(err, parsersvc.ErrParser):
		writeError(w, r, err.Error(), "PARSER_ERROR", http.StatusBadGateway)
	default:
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}
