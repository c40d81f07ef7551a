package security

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// RequestIDHeader carries the request id in and out of the API
const RequestIDHeader = "X-Request-ID"

// GenerateRequestID creates a new UUID for request correlation
func GenerateRequestID() string {
	return uuid.New().String()
}

// RequestID returns the caller-supplied request id when it is a valid UUID,
// or a fresh one otherwise
func RequestID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(RequestIDHeader)); id != "" {
		if _, err := uuid.Parse(id); err == nil {
			return id
		}
	}
	return GenerateRequestID()
}
