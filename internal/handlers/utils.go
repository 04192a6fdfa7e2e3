package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/akolanti/pdfrag/internal/adapter"
	"github.com/akolanti/pdfrag/internal/config"
	"github.com/akolanti/pdfrag/internal/domain/ragErrors"
	"github.com/akolanti/pdfrag/pkg/logger_i"
)

const genericFailure = "An error occurred while processing your question. Please try again later."

var logRH = logger_i.NewLogger("ResponseWriter")

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// headers are gone, nothing left but to log
		logRH.Error("Error encoding response", "error", err)
	}
}

// StatusFor is the single place errors become HTTP status codes.
func StatusFor(err error) (int, string) {
	var validation *ragErrors.ValidationError
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, validation.Field + " " + validation.Reason
	case errors.Is(err, ragErrors.ErrPipelineNotReady):
		return http.StatusServiceUnavailable, ragErrors.ErrPipelineNotReady.Error()
	default:
		return http.StatusInternalServerError, genericFailure
	}
}

// WriteErrorResponse never leaks downstream details, the full error only goes to the log.
func WriteErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	code, detail := StatusFor(err)
	traceId, _ := r.Context().Value(config.TRACE_ID_KEY).(string)
	if code >= http.StatusInternalServerError {
		logRH.With("traceId", traceId).Error("Request failed", "status", code, "error", err)
	}
	writeJsonResponse(w, code, adapter.ToErrorResponse(detail, traceId))
}

// WriteStatus is for middleware rejections that carry no error value.
func WriteStatus(w http.ResponseWriter, r *http.Request, code int, detail string) {
	traceId, _ := r.Context().Value(config.TRACE_ID_KEY).(string)
	writeJsonResponse(w, code, adapter.ToErrorResponse(detail, traceId))
}
