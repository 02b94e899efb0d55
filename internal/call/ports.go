package call

import (
	"context"
	"errors"
	"time"

	"github.com/call-relay/crc/internal/event"
	"github.com/call-relay/crc/internal/provider/elevenlabs"
)

// ControlPort defines the minimal interface the API needs from the orchestrator.
type ControlPort interface {
	Initiate(ctx context.Context, phoneNumber, systemPrompt string) (string, error)
	End(ctx context.Context, callID string) error
}

// Placer is the telephony provider slice that places and hangs up calls.
type Placer interface {
	InitiateCall(ctx context.Context, to, webhookURL, statusCallbackURL string) (string, error)
	EndCall(ctx context.Context, callSID string) error
}

// AgentRegistrar hands a placed call over to the conversational voice agent.
type AgentRegistrar interface {
	RegisterCall(ctx context.Context, params elevenlabs.RegisterParams) (*elevenlabs.Registration, error)
}

// Publisher is the slice of the relay hub the orchestrator needs.
type Publisher interface {
	Publish(callID event.CallID, ev event.Event)
}

// AuditLogger records call actions with their outcomes.
type AuditLogger interface {
	LogCallAction(action, callID, outcome string, latency time.Duration, details map[string]interface{})
}

// ErrInvalidNumber indicates the destination phone number could not be
// coerced into E.164 form.
var ErrInvalidNumber = errors.New("invalid phone number")

// ErrMissingCallID indicates a required call SID was not supplied.
var ErrMissingCallID = errors.New("callSid is required")
