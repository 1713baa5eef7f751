package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	codeValidationError = "VALIDATION_ERROR"
	codeNotFound        = "NOT_FOUND"
	codeConflict        = "CONFLICT"
	codeInternalError   = "INTERNAL_ERROR"
)

// errorResponse is the envelope every failure crosses the boundary with. Only
// the stable code, a human message and the correlation id leave the process;
// the cause stays in the logs under the same trace id.
type errorResponse struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	TraceID   string    `json:"traceId"`
	Timestamp time.Time `json:"timestamp"`
}

func writeError(w http.ResponseWriter, logger zerolog.Logger, status int, code, msg string, cause error) {
	traceID := uuid.NewString()

	evt := logger.Error()
	if cause != nil {
		evt = evt.Err(cause)
	}
	evt.Str("trace_id", traceID).
		Str("code", code).
		Int("status", status).
		Msg(msg)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Code:      code,
		Message:   msg,
		TraceID:   traceID,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"code":"INTERNAL_ERROR","message":"internal error"}`))
		return
	}
	_, _ = w.Write(payload)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
