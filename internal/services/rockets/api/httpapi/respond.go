// Package httpapi serves the rocket ingress and query endpoints as JSON over
// HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	apperrors "github.com/louisbranch/rocketwatch/internal/platform/errors"
)

// maxBodyBytes bounds request bodies read by every handler.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Error      string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	_ = encoder.Encode(payload)
}

func writeRawJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{
		StatusCode: status,
		Message:    message,
		Error:      http.StatusText(status),
	})
}

// writeError maps a domain error to its HTTP status. Server-side failures are
// logged and reported without their cause.
func writeError(w http.ResponseWriter, logf func(string, ...any), err error) {
	code := apperrors.CodeOf(err)
	status := code.HTTPStatus()
	message := http.StatusText(status)
	var domainErr *apperrors.Error
	if errors.As(err, &domainErr) && status < http.StatusInternalServerError {
		message = domainErr.Message
	}
	if status >= http.StatusInternalServerError {
		logf("request failed: %v", err)
	}
	writeJSONError(w, status, message)
}

func up(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func defaultLogf(logf func(string, ...any)) func(string, ...any) {
	if logf == nil {
		return log.Printf
	}
	return logf
}
