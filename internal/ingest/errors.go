package ingest

import "errors"

// Boundary rejection errors. All of them map to client-error responses; the
// payload never reaches the relay.
var (
	ErrMalformedPayload = errors.New("malformed webhook payload")
	ErrMissingCallID    = errors.New("missing call identifier")
	ErrMissingType      = errors.New("missing event type")
	ErrUnknownStatus    = errors.New("unknown call status")
)
