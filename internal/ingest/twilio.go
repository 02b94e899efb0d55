package ingest

import (
	"fmt"
	"net/url"

	"github.com/call-relay/crc/internal/event"
)

// TwilioStatus ingests one telephony status callback. The form carries
// CallSid, CallStatus and optionally CallDuration, From and To. Provider
// status strings map 1:1 onto call statuses with exact, case-sensitive
// matching; anything else is rejected rather than coerced.
func (n *Normalizer) TwilioStatus(form url.Values) (event.CallID, error) {
	callSid := form.Get("CallSid")
	if callSid == "" {
		n.logRejection("twilio", "status callback without CallSid")
		return "", fmt.Errorf("%w: no CallSid in status callback", ErrMissingCallID)
	}

	raw := form.Get("CallStatus")
	status, err := event.ParseStatus(raw)
	if err != nil {
		n.logRejection("twilio", fmt.Sprintf("unknown call status %q", raw))
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
	}

	callID := event.CallID(callSid)
	n.log.Infow("status callback",
		"callId", callID,
		"status", status,
		"duration", form.Get("CallDuration"),
		"from", form.Get("From"),
		"to", form.Get("To"))

	n.pub.Publish(callID, event.NewStatus(callID, status, n.now()))
	return callID, nil
}
