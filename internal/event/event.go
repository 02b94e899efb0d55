package event

import (
	"encoding/json"
	"fmt"
	"time"
)

// CallID is the opaque key identifying one phone call. It is assigned by the
// telephony provider at placement time and referenced by every subsequent
// webhook and observer attach request.
type CallID string

// Type discriminates the event variants carried by the relay.
type Type string

// Event variants.
const (
	// TypeConnected is synthetic: it is sent to a subscriber immediately
	// after it attaches, and never broadcast.
	TypeConnected  Type = "connected"
	TypeStatus     Type = "status"
	TypeTranscript Type = "transcript"
	TypeError      Type = "error"
)

// Role identifies the speaker of a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one transcript utterance. ID is stable across successive
// partial-then-final updates of the same utterance; a later message with the
// same ID replaces the earlier one, it does not append.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	IsFinal   bool      `json:"isFinal"`
}

// StatusData is the payload of a status event.
type StatusData struct {
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// TranscriptData is the payload of a transcript event.
type TranscriptData struct {
	Message Message `json:"message"`
}

// ErrorData is the payload of an error event.
type ErrorData struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Event is the canonical, provider-agnostic representation of one call
// notification. Exactly one of Status, Transcript, Error is set, matching
// Type; a connected event carries none of them.
type Event struct {
	Type       Type            `json:"type"`
	CallID     CallID          `json:"callId"`
	Status     *StatusData     `json:"-"`
	Transcript *TranscriptData `json:"-"`
	Error      *ErrorData      `json:"-"`
}

// NewConnected builds the synthetic attach acknowledgement for a call.
func NewConnected(callID CallID) Event {
	return Event{Type: TypeConnected, CallID: callID}
}

// NewStatus builds a status transition event.
func NewStatus(callID CallID, status Status, at time.Time) Event {
	return Event{
		Type:   TypeStatus,
		CallID: callID,
		Status: &StatusData{Status: status, Timestamp: at.UTC()},
	}
}

// NewTranscript builds a transcript update event.
func NewTranscript(callID CallID, msg Message) Event {
	msg.Timestamp = msg.Timestamp.UTC()
	return Event{
		Type:       TypeTranscript,
		CallID:     callID,
		Transcript: &TranscriptData{Message: msg},
	}
}

// NewError builds an error event.
func NewError(callID CallID, message, code string) Event {
	return Event{
		Type:   TypeError,
		CallID: callID,
		Error:  &ErrorData{Message: message, Code: code},
	}
}

// envelope is the wire form written to observers: one JSON object per frame
// with the variant payload under "data".
type envelope struct {
	Type   Type        `json:"type"`
	CallID CallID      `json:"callId"`
	Data   interface{} `json:"data,omitempty"`
}

// MarshalJSON renders the event in the observer wire envelope. Timestamps
// serialize as RFC 3339 UTC via time.Time.
func (e Event) MarshalJSON() ([]byte, error) {
	env := envelope{Type: e.Type, CallID: e.CallID}
	switch e.Type {
	case TypeConnected:
		// No payload beyond the envelope itself.
	case TypeStatus:
		env.Data = e.Status
	case TypeTranscript:
		env.Data = e.Transcript
	case TypeError:
		env.Data = e.Error
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
	return json.Marshal(env)
}
