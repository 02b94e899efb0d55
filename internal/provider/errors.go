package provider

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Normalized provider errors.
var (
	// ErrConfig marks missing or rejected credentials and other setup
	// problems an operator must fix.
	ErrConfig = errors.New("CONFIG")
	// ErrRejected marks requests the vendor refused on their merits, such
	// as an invalid destination number.
	ErrRejected = errors.New("REJECTED")
	// ErrBusy marks throttling; the request may succeed later.
	ErrBusy = errors.New("BUSY")
	// ErrUnavailable marks vendor-side outages.
	ErrUnavailable = errors.New("UNAVAILABLE")
	// ErrInternal is the fallback for everything unrecognized.
	ErrInternal = errors.New("INTERNAL")
)

// VendorError wraps a vendor failure with its normalized code and the raw
// diagnostic payload.
type VendorError struct {
	Code     error  // normalized container code
	Vendor   string // "twilio" or "elevenlabs"
	Status   int    // HTTP status, 0 when the request never completed
	Original string // raw vendor response body or transport error
}

func (e *VendorError) Error() string {
	return fmt.Sprintf("%s: %v (status %d): %s", e.Vendor, e.Code, e.Status, e.Original)
}

func (e *VendorError) Unwrap() error {
	return e.Code
}

// busyTokens are vendor body fragments that mark throttling even when the
// status class alone does not say so.
var busyTokens = []string{
	"RATE LIMIT", "TOO MANY REQUESTS", "CONCURRENCY",
}

// Normalize maps a vendor HTTP response onto a container error code.
// The mapping is deterministic; unknown failures map to INTERNAL with the
// diagnostic preserved.
func Normalize(vendor string, status int, body string) error {
	code := statusCode(status, body)
	return &VendorError{Code: code, Vendor: vendor, Status: status, Original: body}
}

// NormalizeTransport wraps a transport-level failure (timeout, refused
// connection) as UNAVAILABLE.
func NormalizeTransport(vendor string, err error) error {
	return &VendorError{Code: ErrUnavailable, Vendor: vendor, Original: err.Error()}
}

func statusCode(status int, body string) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrConfig
	case status == http.StatusTooManyRequests:
		return ErrBusy
	case status >= 500:
		return ErrUnavailable
	case status >= 400:
		upper := strings.ToUpper(body)
		for _, token := range busyTokens {
			if strings.Contains(upper, token) {
				return ErrBusy
			}
		}
		return ErrRejected
	}
	return ErrInternal
}
