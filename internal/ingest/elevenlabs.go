package ingest

import (
	"encoding/json"
	"fmt"

	"github.com/call-relay/crc/internal/event"
)

// voiceEvent mirrors the ElevenLabs conversational webhook shape. The call
// identifier travels either in conversation metadata or in the dynamic
// variables passed at registration time.
type voiceEvent struct {
	Type string `json:"type"`

	// Transcript events.
	ID   string `json:"id"`
	Role string `json:"role"`
	Text string `json:"text"`

	// Error events.
	Message string `json:"message"`
	Error   string `json:"error"`

	Conversation struct {
		Metadata struct {
			CallSID string `json:"call_sid"`
		} `json:"metadata"`
	} `json:"conversation"`

	DynamicVariables struct {
		CallSID string `json:"call_sid"`
	} `json:"dynamic_variables"`
}

// callID resolves the call identifier, metadata first, dynamic variables
// second, first non-empty wins.
func (e *voiceEvent) callID() event.CallID {
	if e.Conversation.Metadata.CallSID != "" {
		return event.CallID(e.Conversation.Metadata.CallSID)
	}
	return event.CallID(e.DynamicVariables.CallSID)
}

// VoiceAgentEvent ingests one voice-AI conversation webhook. An event
// without a call identifier is a hard rejection: there is no topic to route
// to. Unrecognized event types are logged and dropped without error.
func (n *Normalizer) VoiceAgentEvent(body []byte) (event.CallID, error) {
	var ev voiceEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		n.logRejection("elevenlabs", "unparseable body")
		return "", fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if ev.Type == "" {
		n.logRejection("elevenlabs", "event without type")
		return "", fmt.Errorf("%w: voice agent event has no type", ErrMissingType)
	}

	callID := ev.callID()
	if callID == "" {
		n.logRejection("elevenlabs", fmt.Sprintf("%s event without call_sid", ev.Type))
		return "", fmt.Errorf("%w: %s event carries no call_sid", ErrMissingCallID, ev.Type)
	}

	switch ev.Type {
	case "transcript", "user_transcript", "agent_transcript":
		if ev.Text == "" {
			// The provider sends empty fragments around turn boundaries.
			return callID, nil
		}
		role := event.RoleUser
		if ev.Role == "agent" || ev.Type == "agent_transcript" {
			role = event.RoleAssistant
		}
		id := ev.ID
		if id == "" {
			id = n.newID()
		}
		n.pub.Publish(callID, event.NewTranscript(callID, event.Message{
			ID:        id,
			Role:      role,
			Content:   ev.Text,
			Timestamp: n.now(),
			// This producer only reports settled utterances.
			IsFinal: true,
		}))

	case "conversation_started":
		n.pub.Publish(callID, event.NewStatus(callID, event.StatusInProgress, n.now()))

	case "conversation_ended":
		n.pub.Publish(callID, event.NewStatus(callID, event.StatusCompleted, n.now()))

	case "error":
		msg := ev.Message
		if msg == "" {
			msg = ev.Error
		}
		if msg == "" {
			msg = "Unknown error"
		}
		n.pub.Publish(callID, event.NewError(callID, msg, ""))

	default:
		n.log.Infow("unhandled voice agent event type", "callId", callID, "type", ev.Type)
	}

	return callID, nil
}
