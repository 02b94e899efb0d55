package call

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/call-relay/crc/internal/config"
	"github.com/call-relay/crc/internal/event"
	"github.com/call-relay/crc/internal/provider"
	"github.com/call-relay/crc/internal/provider/elevenlabs"
)

type fakePlacer struct {
	initiateErr error
	endErr      error

	initiatedTo        string
	initiatedVoiceURL  string
	initiatedStatusURL string
	endedSID           string
}

func (f *fakePlacer) InitiateCall(ctx context.Context, to, webhookURL, statusCallbackURL string) (string, error) {
	if f.initiateErr != nil {
		return "", f.initiateErr
	}
	f.initiatedTo = to
	f.initiatedVoiceURL = webhookURL
	f.initiatedStatusURL = statusCallbackURL
	return "CA123", nil
}

func (f *fakePlacer) EndCall(ctx context.Context, callSID string) error {
	f.endedSID = callSID
	return f.endErr
}

type fakeRegistrar struct {
	err    error
	params elevenlabs.RegisterParams
}

func (f *fakeRegistrar) RegisterCall(ctx context.Context, params elevenlabs.RegisterParams) (*elevenlabs.Registration, error) {
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	return &elevenlabs.Registration{AgentID: params.AgentID, ConversationID: "conv-1"}, nil
}

type capturePublisher struct {
	events []event.Event
}

func (c *capturePublisher) Publish(callID event.CallID, ev event.Event) {
	c.events = append(c.events, ev)
}

type auditRecord struct {
	action  string
	callID  string
	outcome string
	details map[string]interface{}
}

type captureAudit struct {
	records []auditRecord
}

func (c *captureAudit) LogCallAction(action, callID, outcome string, latency time.Duration, details map[string]interface{}) {
	c.records = append(c.records, auditRecord{action: action, callID: callID, outcome: outcome, details: details})
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Server.PublicBaseURL = "https://relay.example.com"
	cfg.Twilio.PhoneNumber = "+15550001111"
	cfg.ElevenLabs.AgentID = "agent-1"
	return cfg
}

func newTestOrchestrator(placer *fakePlacer, agent *fakeRegistrar, cfg *config.Config) (*Orchestrator, *capturePublisher, *captureAudit) {
	pub := &capturePublisher{}
	audit := &captureAudit{}
	o := NewOrchestrator(placer, agent, pub, cfg, zap.NewNop().Sugar())
	o.SetAuditLogger(audit)
	return o, pub, audit
}

func TestInitiate(t *testing.T) {
	placer := &fakePlacer{}
	agent := &fakeRegistrar{}
	o, pub, audit := newTestOrchestrator(placer, agent, testConfig())

	sid, err := o.Initiate(context.Background(), "(555) 123-4567", "be terse")
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if sid != "CA123" {
		t.Errorf("expected call SID CA123, got %q", sid)
	}

	if placer.initiatedTo != "+15551234567" {
		t.Errorf("number not coerced to E.164: %q", placer.initiatedTo)
	}
	if placer.initiatedVoiceURL != "https://relay.example.com/api/v1/twilio/voice" {
		t.Errorf("unexpected voice URL: %q", placer.initiatedVoiceURL)
	}
	if placer.initiatedStatusURL != "https://relay.example.com/api/v1/twilio/status" {
		t.Errorf("unexpected status callback URL: %q", placer.initiatedStatusURL)
	}

	if agent.params.CallSID != "CA123" || agent.params.AgentID != "agent-1" {
		t.Errorf("registration not keyed to call: %+v", agent.params)
	}
	if agent.params.FromNumber != "+15550001111" || agent.params.ToNumber != "+15551234567" {
		t.Errorf("registration numbers wrong: %+v", agent.params)
	}
	if agent.params.SystemPrompt != "be terse" {
		t.Errorf("prompt not forwarded: %q", agent.params.SystemPrompt)
	}

	if len(pub.events) != 1 || pub.events[0].Type != event.TypeStatus {
		t.Fatalf("expected one status event, got %+v", pub.events)
	}
	if pub.events[0].Status.Status != event.StatusInitiating {
		t.Errorf("expected initiating status, got %q", pub.events[0].Status.Status)
	}

	if len(audit.records) != 1 {
		t.Fatalf("expected one audit record, got %d", len(audit.records))
	}
	rec := audit.records[0]
	if rec.action != "call.initiate" || rec.callID != "CA123" || rec.outcome != "SUCCESS" {
		t.Errorf("unexpected audit record: %+v", rec)
	}
	if rec.details["conversationId"] != "conv-1" {
		t.Errorf("conversation ID not audited: %+v", rec.details)
	}
}

func TestInitiateInvalidNumber(t *testing.T) {
	placer := &fakePlacer{}
	o, pub, audit := newTestOrchestrator(placer, &fakeRegistrar{}, testConfig())

	_, err := o.Initiate(context.Background(), "not-a-number", "")
	if !errors.Is(err, ErrInvalidNumber) {
		t.Fatalf("expected ErrInvalidNumber, got %v", err)
	}
	if placer.initiatedTo != "" {
		t.Error("call placed despite invalid number")
	}
	if len(pub.events) != 0 {
		t.Errorf("unexpected events: %+v", pub.events)
	}
	if len(audit.records) != 1 || audit.records[0].outcome != "INVALID_NUMBER" {
		t.Errorf("unexpected audit records: %+v", audit.records)
	}
}

func TestInitiateMissingBaseURL(t *testing.T) {
	cfg := testConfig()
	cfg.Server.PublicBaseURL = ""
	o, _, _ := newTestOrchestrator(&fakePlacer{}, &fakeRegistrar{}, cfg)

	_, err := o.Initiate(context.Background(), "+15551234567", "")
	if !errors.Is(err, provider.ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}

func TestInitiatePlacerFailure(t *testing.T) {
	placer := &fakePlacer{initiateErr: provider.ErrRejected}
	agent := &fakeRegistrar{}
	o, pub, audit := newTestOrchestrator(placer, agent, testConfig())

	_, err := o.Initiate(context.Background(), "+15551234567", "")
	if !errors.Is(err, provider.ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
	if agent.params.CallSID != "" {
		t.Error("agent registered despite placement failure")
	}
	if len(pub.events) != 0 {
		t.Errorf("unexpected events: %+v", pub.events)
	}
	if len(audit.records) != 1 || audit.records[0].outcome != "ERROR" {
		t.Errorf("unexpected audit records: %+v", audit.records)
	}
}

func TestInitiateRegistrationFailureHangsUp(t *testing.T) {
	placer := &fakePlacer{}
	agent := &fakeRegistrar{err: provider.ErrUnavailable}
	o, pub, _ := newTestOrchestrator(placer, agent, testConfig())

	_, err := o.Initiate(context.Background(), "+15551234567", "")
	if !errors.Is(err, provider.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}

	if placer.endedSID != "CA123" {
		t.Errorf("placed call not hung up, endedSID=%q", placer.endedSID)
	}

	// Initiating status first, then the error event.
	if len(pub.events) != 2 {
		t.Fatalf("expected 2 events, got %+v", pub.events)
	}
	if pub.events[1].Type != event.TypeError {
		t.Errorf("expected error event, got %q", pub.events[1].Type)
	}
	if pub.events[1].Error.Code != "AGENT_REGISTRATION" {
		t.Errorf("unexpected error code: %q", pub.events[1].Error.Code)
	}
}

func TestEnd(t *testing.T) {
	placer := &fakePlacer{}
	o, _, audit := newTestOrchestrator(placer, &fakeRegistrar{}, testConfig())

	if err := o.End(context.Background(), "CA999"); err != nil {
		t.Fatalf("End: %v", err)
	}
	if placer.endedSID != "CA999" {
		t.Errorf("wrong SID ended: %q", placer.endedSID)
	}
	if len(audit.records) != 1 || audit.records[0].outcome != "SUCCESS" {
		t.Errorf("unexpected audit records: %+v", audit.records)
	}
}

func TestEndMissingCallID(t *testing.T) {
	o, _, _ := newTestOrchestrator(&fakePlacer{}, &fakeRegistrar{}, testConfig())

	if err := o.End(context.Background(), ""); !errors.Is(err, ErrMissingCallID) {
		t.Fatalf("expected ErrMissingCallID, got %v", err)
	}
}

func TestEndFailure(t *testing.T) {
	placer := &fakePlacer{endErr: provider.ErrUnavailable}
	o, pub, _ := newTestOrchestrator(placer, &fakeRegistrar{}, testConfig())

	err := o.End(context.Background(), "CA999")
	if !errors.Is(err, provider.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if len(pub.events) != 1 || pub.events[0].Type != event.TypeError {
		t.Fatalf("expected error event, got %+v", pub.events)
	}
}
