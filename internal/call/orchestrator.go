package call

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/call-relay/crc/internal/config"
	"github.com/call-relay/crc/internal/event"
	"github.com/call-relay/crc/internal/provider"
	"github.com/call-relay/crc/internal/provider/elevenlabs"
	"github.com/call-relay/crc/internal/provider/twilio"
)

// Orchestrator routes validated call intents to the telephony provider and
// the voice agent.
type Orchestrator struct {
	placer Placer
	agent  AgentRegistrar
	pub    Publisher
	audit  AuditLogger
	cfg    *config.Config
	log    *zap.SugaredLogger

	now func() time.Time
}

// Compile-time assertion that the providers satisfy their ports.
var _ Placer = (*twilio.Client)(nil)
var _ AgentRegistrar = (*elevenlabs.Client)(nil)

// Compile-time assertion that Orchestrator implements ControlPort.
var _ ControlPort = (*Orchestrator)(nil)

// NewOrchestrator creates a call orchestrator.
func NewOrchestrator(placer Placer, agent AgentRegistrar, pub Publisher, cfg *config.Config, log *zap.SugaredLogger) *Orchestrator {
	return &Orchestrator{
		placer: placer,
		agent:  agent,
		pub:    pub,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
	}
}

// SetAuditLogger sets the audit logger.
func (o *Orchestrator) SetAuditLogger(logger AuditLogger) {
	o.audit = logger
}

// Initiate places an outbound call to phoneNumber and registers it with the
// voice agent. The returned call SID keys every later event for the call.
func (o *Orchestrator) Initiate(ctx context.Context, phoneNumber, systemPrompt string) (string, error) {
	start := o.now()

	to, err := twilio.FormatNumber(phoneNumber)
	if err != nil || !twilio.ValidateNumber(to) {
		o.logAudit("call.initiate", "", "INVALID_NUMBER", o.now().Sub(start), map[string]interface{}{
			"phoneNumber": phoneNumber,
		})
		return "", fmt.Errorf("%w: %q", ErrInvalidNumber, phoneNumber)
	}

	base := o.cfg.Server.PublicBaseURL
	if base == "" {
		o.logAudit("call.initiate", "", "CONFIG", o.now().Sub(start), nil)
		return "", fmt.Errorf("%w: public base URL not configured", provider.ErrConfig)
	}
	voiceURL := base + "/api/v1/twilio/voice"
	statusURL := base + "/api/v1/twilio/status"

	callSID, err := o.placer.InitiateCall(ctx, to, voiceURL, statusURL)
	if err != nil {
		o.logAudit("call.initiate", "", "ERROR", o.now().Sub(start), map[string]interface{}{
			"to": to,
		})
		return "", err
	}
	callID := event.CallID(callSID)

	// The cursor for the call exists from this moment; observers attaching
	// before the first provider callback still see a status.
	o.pub.Publish(callID, event.NewStatus(callID, event.StatusInitiating, o.now()))

	reg, err := o.agent.RegisterCall(ctx, elevenlabs.RegisterParams{
		AgentID:      o.cfg.ElevenLabs.AgentID,
		CallSID:      callSID,
		FromNumber:   o.cfg.Twilio.PhoneNumber,
		ToNumber:     to,
		SystemPrompt: systemPrompt,
	})
	if err != nil {
		// The telephony leg is already live; hang it up rather than leave
		// the callee talking to silence.
		o.pub.Publish(callID, event.NewError(callID, "Failed to register call with voice agent", "AGENT_REGISTRATION"))
		if endErr := o.placer.EndCall(ctx, callSID); endErr != nil {
			o.log.Errorw("failed to end call after agent registration failure",
				"callSid", callSID, "error", endErr)
		}
		o.logAudit("call.initiate", callSID, "ERROR", o.now().Sub(start), map[string]interface{}{
			"to":    to,
			"stage": "register",
		})
		return "", err
	}

	details := map[string]interface{}{"to": to}
	if reg != nil && reg.ConversationID != "" {
		details["conversationId"] = reg.ConversationID
	}
	o.logAudit("call.initiate", callSID, "SUCCESS", o.now().Sub(start), details)
	o.log.Infow("call initiated", "callSid", callSID, "to", to)

	return callSID, nil
}

// End hangs up an in-flight call. The terminal status arrives through the
// provider's status callback, not from here.
func (o *Orchestrator) End(ctx context.Context, callID string) error {
	start := o.now()

	if callID == "" {
		return ErrMissingCallID
	}

	if err := o.placer.EndCall(ctx, callID); err != nil {
		o.pub.Publish(event.CallID(callID), event.NewError(event.CallID(callID), "Failed to end call", "CALL_END"))
		o.logAudit("call.end", callID, "ERROR", o.now().Sub(start), nil)
		return err
	}

	o.logAudit("call.end", callID, "SUCCESS", o.now().Sub(start), nil)
	o.log.Infow("call ended", "callSid", callID)
	return nil
}

func (o *Orchestrator) logAudit(action, callID, outcome string, latency time.Duration, details map[string]interface{}) {
	if o.audit != nil {
		o.audit.LogCallAction(action, callID, outcome, latency, details)
	}
}
