package api

import (
	"errors"
	"net/http"

	"github.com/call-relay/crc/internal/call"
	"github.com/call-relay/crc/internal/ingest"
	"github.com/call-relay/crc/internal/provider"
	"github.com/call-relay/crc/internal/relay"
)

// ErrNotFound indicates a requested call has no live topic.
var ErrNotFound = errors.New("NOT_FOUND")

// ToAPIError converts an error into an HTTP status, envelope code and
// user-facing message. Vendor diagnostics stay in the logs.
func ToAPIError(err error) (int, string, string) {
	switch {
	case err == nil:
		return http.StatusOK, "", ""

	// Ingestion boundary rejections.
	case errors.Is(err, ingest.ErrMalformedPayload):
		return http.StatusBadRequest, "BAD_REQUEST", "Malformed payload"
	case errors.Is(err, ingest.ErrMissingCallID):
		return http.StatusBadRequest, "BAD_REQUEST", "Call identifier is required"
	case errors.Is(err, ingest.ErrMissingType):
		return http.StatusBadRequest, "BAD_REQUEST", "Event type is required"
	case errors.Is(err, ingest.ErrUnknownStatus):
		return http.StatusBadRequest, "BAD_REQUEST", "Unknown call status"

	// Call control validation.
	case errors.Is(err, call.ErrInvalidNumber):
		return http.StatusBadRequest, "INVALID_NUMBER", "Phone number is not a valid E.164 number"
	case errors.Is(err, call.ErrMissingCallID):
		return http.StatusBadRequest, "BAD_REQUEST", "callSid is required"

	// Normalized provider failures.
	case errors.Is(err, provider.ErrConfig):
		return http.StatusInternalServerError, "CONFIG", "Provider is not configured"
	case errors.Is(err, provider.ErrRejected):
		return http.StatusBadRequest, "REJECTED", "Provider rejected the request"
	case errors.Is(err, provider.ErrBusy):
		return http.StatusServiceUnavailable, "BUSY", "Provider is throttling, retry with backoff"
	case errors.Is(err, provider.ErrUnavailable):
		return http.StatusServiceUnavailable, "UNAVAILABLE", "Provider is unavailable"

	// Relay conditions.
	case errors.Is(err, relay.ErrTopicFull):
		return http.StatusServiceUnavailable, "BUSY", "Too many observers for this call"
	case errors.Is(err, relay.ErrHubClosed):
		return http.StatusServiceUnavailable, "UNAVAILABLE", "Relay is shutting down"

	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "Call not found"
	}

	return http.StatusInternalServerError, "INTERNAL", "Internal server error"
}

// WriteAPIError maps err through ToAPIError and writes the envelope.
func WriteAPIError(w http.ResponseWriter, err error) {
	status, code, message := ToAPIError(err)
	WriteError(w, status, code, message, nil)
}
