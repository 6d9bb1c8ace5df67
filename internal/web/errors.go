package web

// errors.go turns handler errors into responses. The technical error is
// logged with the request id; the client gets the mapped user message, as
// JSON for API callers and as an HTML page for browser form posts.

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/JonMunkholm/wordquiz/internal/core"
	"github.com/JonMunkholm/wordquiz/internal/logging"
	"github.com/JonMunkholm/wordquiz/internal/web/templates"
)

var (
	errInvalidRequest = errors.New("invalid request")
	errRateLimited    = errors.New("rate limit exceeded")
)

// badRequest wraps err so that it maps to REQ001.
func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errInvalidRequest, fmt.Sprintf(format, args...))
}

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError maps err through core.MapError, picks the status for its
// code, logs it and writes the user message.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	msg := core.MapError(err)
	status := statusFor(msg.Code)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request error", attrs...)
	}

	if wantsJSON(r) {
		writeJSON(w, r, status, ErrorResponse{
			Error:   msg.Message,
			Message: msg.Message,
			Action:  msg.Action,
			Code:    msg.Code,
		})
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	page := templates.Layout("Import failed", templates.ErrorAlert(msg.Message, msg.Action, msg.Code))
	if err := page.Render(r.Context(), w); err != nil {
		logger.Error("render error page", "error", err)
	}
}

// statusFor maps a user message code to an HTTP status.
func statusFor(code string) int {
	switch code {
	case "FILE001", "FILE006":
		return http.StatusRequestEntityTooLarge
	case "FILE002", "FILE003", "FILE004", "NET002", "REQ001", "REQ002", "REQ003", "UPL004":
		return http.StatusBadRequest
	case "FILE005":
		return http.StatusUnprocessableEntity
	case "SPK001":
		return http.StatusNotFound
	case "NET001":
		return http.StatusBadGateway
	case "UPL002", "SPK002", "DB004", "DB005":
		return http.StatusServiceUnavailable
	case "UPL005":
		return http.StatusGatewayTimeout
	case "RATE001":
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// wantsJSON checks if the client prefers JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.Contains(r.Header.Get("Content-Type"), "application/json")
}
