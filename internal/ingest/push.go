package ingest

import (
	"encoding/json"
	"fmt"

	"github.com/call-relay/crc/internal/event"
)

// Push ingests one pre-canonicalized producer event: {callId, type, data}.
// This is the relay's own producer surface, so payloads already follow the
// canonical variant shapes; it is also the only path that may carry
// non-final transcript updates.
func (n *Normalizer) Push(callID string, typ string, data json.RawMessage) error {
	if callID == "" {
		n.logRejection("push", "event without callId")
		return fmt.Errorf("%w: push event has no callId", ErrMissingCallID)
	}
	if typ == "" {
		n.logRejection("push", "event without type")
		return fmt.Errorf("%w: push event has no type", ErrMissingType)
	}

	id := event.CallID(callID)

	switch event.Type(typ) {
	case event.TypeStatus:
		var payload event.StatusData
		if err := json.Unmarshal(data, &payload); err != nil {
			n.logRejection("push", "unparseable status data")
			return fmt.Errorf("%w: status data: %v", ErrMalformedPayload, err)
		}
		if _, err := event.ParseStatus(string(payload.Status)); err != nil {
			n.logRejection("push", fmt.Sprintf("unknown call status %q", payload.Status))
			return fmt.Errorf("%w: %q", ErrUnknownStatus, payload.Status)
		}
		at := payload.Timestamp
		if at.IsZero() {
			at = n.now()
		}
		n.pub.Publish(id, event.NewStatus(id, payload.Status, at))

	case event.TypeTranscript:
		var payload event.TranscriptData
		if err := json.Unmarshal(data, &payload); err != nil {
			n.logRejection("push", "unparseable transcript data")
			return fmt.Errorf("%w: transcript data: %v", ErrMalformedPayload, err)
		}
		msg := payload.Message
		if msg.Content == "" {
			n.logRejection("push", "transcript message without content")
			return fmt.Errorf("%w: transcript message has no content", ErrMalformedPayload)
		}
		if msg.ID == "" {
			msg.ID = n.newID()
		}
		if msg.Role == "" {
			msg.Role = event.RoleUser
		}
		if msg.Timestamp.IsZero() {
			msg.Timestamp = n.now()
		}
		n.pub.Publish(id, event.NewTranscript(id, msg))

	case event.TypeError:
		var payload event.ErrorData
		if err := json.Unmarshal(data, &payload); err != nil {
			n.logRejection("push", "unparseable error data")
			return fmt.Errorf("%w: error data: %v", ErrMalformedPayload, err)
		}
		if payload.Message == "" {
			payload.Message = "Unknown error"
		}
		n.pub.Publish(id, event.Event{Type: event.TypeError, CallID: id, Error: &payload})

	default:
		// Producers cannot act on a rejection here, so unsupported types
		// are dropped, not failed.
		n.log.Infow("unhandled push event type", "callId", id, "type", typ)
	}

	return nil
}
