package server

import (
	"errors"
	"net/http"
	"strings"

	"workboard/internal/util"
	"workboard/services/workboard/internal/app"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeErrorCode(w, status, msg, errorCodeFor(status, msg))
}

func writeErrorCode(w http.ResponseWriter, status int, msg, code string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		Code:      code,
		RequestID: strings.TrimSpace(w.Header().Get(util.RequestIDHeader)),
	})
}

// writeAppError maps core errors to HTTP. Unknown errors are logged and
// reported as 500 without detail.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, app.ErrPartNotFound):
		writeErrorCode(w, http.StatusNotFound, "part not found", "PART_NOT_FOUND")
	case errors.Is(err, app.ErrUserNotFound):
		writeErrorCode(w, http.StatusNotFound, "user not found", "USER_NOT_FOUND")
	case errors.Is(err, app.ErrProjectNotFound):
		writeErrorCode(w, http.StatusNotFound, "project not found", "PROJECT_NOT_FOUND")
	case errors.Is(err, app.ErrNotFound):
		writeErrorCode(w, http.StatusNotFound, "not found", "SYSTEM_NOT_FOUND")
	case errors.Is(err, app.ErrCapacityExceeded):
		writeErrorCode(w, http.StatusBadRequest, "user capacity exceeded", "USER_CAPACITY_EXCEEDED")
	case errors.Is(err, app.ErrInvalidStatus):
		writeErrorCode(w, http.StatusBadRequest, "invalid status", "PART_INVALID_STATUS")
	case errors.Is(err, app.ErrInvalidInput):
		writeErrorCode(w, http.StatusBadRequest, err.Error(), "REQUEST_INVALID")
	default:
		util.LoggerFromContext(r.Context()).Error("request failed", "path", r.URL.Path, "err", err)
		writeErrorCode(w, http.StatusInternalServerError, "internal error", "SYSTEM_INTERNAL_ERROR")
	}
}

func errorCodeFor(status int, msg string) string {
	switch strings.ToLower(strings.TrimSpace(msg)) {
	case "invalid json body", "request body required":
		return "REQUEST_INVALID"
	case "too many requests":
		return "REQUEST_RATE_LIMITED"
	case "method not allowed":
		return "SYSTEM_METHOD_NOT_ALLOWED"
	case "not found":
		return "SYSTEM_NOT_FOUND"
	}
	switch status {
	case http.StatusBadRequest:
		return "REQUEST_INVALID"
	case http.StatusNotFound:
		return "SYSTEM_NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "SYSTEM_METHOD_NOT_ALLOWED"
	case http.StatusTooManyRequests:
		return "REQUEST_RATE_LIMITED"
	default:
		if status >= http.StatusInternalServerError {
			return "SYSTEM_INTERNAL_ERROR"
		}
		return "REQUEST_ERROR"
	}
}
