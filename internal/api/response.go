package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kdimtricp/deepcheck/internal/apperrors"
	"github.com/kdimtricp/deepcheck/internal/logger"
)

type successResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Meta    interface{} `json:"meta,omitempty"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, data, meta interface{}) {
	writeJSON(w, http.StatusOK, successResponse{Success: true, Data: data, Meta: meta})
}

func statusFor(err error) int {
	if appErr, ok := apperrors.As(err); ok && appErr.StatusCode != 0 {
		return appErr.StatusCode
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err in the error envelope. message overrides the
// AppError's own message when non-empty.
func writeError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error, status int, message string) {
	code := apperrors.CodeOf(err)
	resp := errorResponse{Success: false, Error: message, Code: string(code)}
	if appErr, ok := apperrors.As(err); ok {
		if resp.Error == "" {
			resp.Error = appErr.Message
		}
		resp.Field = appErr.Field
	}
	if resp.Error == "" {
		resp.Error = http.StatusText(status)
	}

	fields := []interface{}{
		"status_code", status,
		"code", code,
		"path", r.URL.Path,
		"method", r.Method,
		"request_id", requestIDFrom(r.Context()),
		"error", err,
	}
	if status >= http.StatusInternalServerError {
		log.Error("request failed", fields...)
	} else {
		log.Warn("request rejected", fields...)
	}

	writeJSON(w, status, resp)
}
