package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/call-relay/crc/internal/call"
	"github.com/call-relay/crc/internal/ingest"
	"github.com/call-relay/crc/internal/provider"
	"github.com/call-relay/crc/internal/relay"
)

func TestToAPIError(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"nil", nil, http.StatusOK, ""},
		{"malformed payload", ingest.ErrMalformedPayload, http.StatusBadRequest, "BAD_REQUEST"},
		{"missing call id", fmt.Errorf("context: %w", ingest.ErrMissingCallID), http.StatusBadRequest, "BAD_REQUEST"},
		{"unknown status", ingest.ErrUnknownStatus, http.StatusBadRequest, "BAD_REQUEST"},
		{"invalid number", fmt.Errorf("%w: %q", call.ErrInvalidNumber, "junk"), http.StatusBadRequest, "INVALID_NUMBER"},
		{"provider config", provider.ErrConfig, http.StatusInternalServerError, "CONFIG"},
		{"provider rejected", provider.ErrRejected, http.StatusBadRequest, "REJECTED"},
		{"provider busy", provider.ErrBusy, http.StatusServiceUnavailable, "BUSY"},
		{"provider unavailable", provider.ErrUnavailable, http.StatusServiceUnavailable, "UNAVAILABLE"},
		{"vendor wrapped", &provider.VendorError{Code: provider.ErrBusy, Vendor: "twilio", Status: 429}, http.StatusServiceUnavailable, "BUSY"},
		{"topic full", relay.ErrTopicFull, http.StatusServiceUnavailable, "BUSY"},
		{"hub closed", relay.ErrHubClosed, http.StatusServiceUnavailable, "UNAVAILABLE"},
		{"not found", ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, code, message := ToAPIError(tc.err)
			if status != tc.wantStatus {
				t.Errorf("expected status %d, got %d", tc.wantStatus, status)
			}
			if code != tc.wantCode {
				t.Errorf("expected code %q, got %q", tc.wantCode, code)
			}
			if tc.err != nil && message == "" {
				t.Error("expected a user-facing message")
			}
		})
	}
}
