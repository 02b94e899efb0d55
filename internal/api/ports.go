package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/call-relay/crc/internal/call"
	"github.com/call-relay/crc/internal/event"
	"github.com/call-relay/crc/internal/ingest"
	"github.com/call-relay/crc/internal/relay"
	"github.com/call-relay/crc/internal/stream"
)

// RelayPort is the slice of the relay hub the API reads from.
type RelayPort interface {
	Snapshot(callID event.CallID) (event.Status, bool)
	Stats() relay.Stats
}

// IngestPort normalizes provider webhooks and pushed events.
type IngestPort interface {
	TwilioStatus(form url.Values) (event.CallID, error)
	VoiceAgentEvent(body []byte) (event.CallID, error)
	Push(callID string, typ string, data json.RawMessage) error
}

// CallControlPort places and ends calls.
type CallControlPort interface {
	Initiate(ctx context.Context, phoneNumber, systemPrompt string) (string, error)
	End(ctx context.Context, callID string) error
}

// StreamPort serves one observer connection against the relay.
type StreamPort interface {
	Serve(w http.ResponseWriter, r *http.Request, callID event.CallID) error
}

// Compile-time assertions that the concrete types satisfy the ports.
var _ RelayPort = (*relay.Hub)(nil)
var _ IngestPort = (*ingest.Normalizer)(nil)
var _ CallControlPort = (*call.Orchestrator)(nil)
var _ StreamPort = (*stream.Adapter)(nil)
