package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jaekwang-park/task-api/internal/cognito"
	"github.com/jaekwang-park/task-api/internal/service"
)

const maxBodySize = 1 << 20 // 1 MB

// Envelope wraps every response body.
type Envelope struct {
	Success bool                 `json:"success"`
	Data    any                  `json:"data,omitempty"`
	Message string               `json:"message,omitempty"`
	Code    string               `json:"code,omitempty"`
	Errors  []service.FieldError `json:"errors,omitempty"`
}

// ListEnvelope is the paged variant. Data is always present, even when empty.
type ListEnvelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
	Count   int  `json:"count"`
	Total   int  `json:"total"`
	Page    int  `json:"page"`
	Pages   int  `json:"pages"`
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func WriteSuccess(w http.ResponseWriter, status int, data any) {
	WriteJSON(w, status, Envelope{Success: true, Data: data})
}

func WriteMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Envelope{Success: true, Message: message})
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, Envelope{Code: code, Message: message})
}

// WriteServiceError renders err with the status and code its kind maps to.
// Unrecognised errors are logged and reported as a generic 500.
func WriteServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		WriteJSON(w, http.StatusBadRequest, Envelope{
			Code:    "VALIDATION_FAILED",
			Message: "validation failed",
			Errors:  verr.Fields,
		})
	case errors.Is(err, service.ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "validation failed")
	case errors.Is(err, service.ErrNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
	case errors.Is(err, service.ErrForbidden):
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "access denied")
	case errors.Is(err, service.ErrAlreadyRunning):
		WriteError(w, http.StatusConflict, "TIMER_ALREADY_RUNNING", "timer is already running")
	case errors.Is(err, service.ErrNotRunning):
		WriteError(w, http.StatusConflict, "TIMER_NOT_RUNNING", "timer is not running")
	case errors.Is(err, service.ErrUnavailable):
		slog.ErrorContext(r.Context(), "store unavailable", "path", r.URL.Path, "error", err)
		WriteError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "service temporarily unavailable")
	default:
		if info, ok := cognito.LookupError(err); ok {
			slog.WarnContext(r.Context(), "auth provider rejected request", "code", info.Code, "detail", err.Error())
			WriteError(w, info.Status, info.Code, cognitoErrorMessage(info.Code))
			return
		}
		slog.ErrorContext(r.Context(), "internal error", "path", r.URL.Path, "error", err)
		WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

var cognitoMessages = map[string]string{
	"USER_ALREADY_EXISTS": "a user with this email already exists",
	"USER_NOT_FOUND":      "user not found",
	"USER_NOT_CONFIRMED":  "email address not confirmed",
	"INVALID_PASSWORD":    "password does not meet requirements",
	"INVALID_CODE":        "invalid verification code",
	"CODE_EXPIRED":        "verification code has expired",
	"TOO_MANY_REQUESTS":   "too many requests, please try again later",
	"NOT_AUTHORIZED":      "incorrect email or password",
	"INVALID_PARAMETER":   "invalid request parameter",
}

// cognitoErrorMessage returns a fixed, user-facing message so provider
// details stay in the logs.
func cognitoErrorMessage(code string) string {
	if msg, ok := cognitoMessages[code]; ok {
		return msg
	}
	return "an error occurred"
}

// decodeJSON reads a bounded JSON body into dst, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", "request body too large")
			return false
		}
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return false
	}
	return true
}

func methodNotAllowed(w http.ResponseWriter) {
	WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
}
