package event

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestParseStatus(t *testing.T) {
	valid := []string{
		"idle", "initiating", "ringing", "in-progress",
		"completed", "failed", "busy", "no-answer",
	}
	for _, s := range valid {
		if _, err := ParseStatus(s); err != nil {
			t.Errorf("ParseStatus(%q) returned error: %v", s, err)
		}
	}

	invalid := []string{"", "Completed", "IN-PROGRESS", "ended", "in_progress"}
	for _, s := range invalid {
		if _, err := ParseStatus(s); err == nil {
			t.Errorf("ParseStatus(%q) accepted unknown status", s)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	cases := map[Status]bool{
		StatusIdle:       false,
		StatusInitiating: false,
		StatusRinging:    false,
		StatusInProgress: false,
		StatusCompleted:  true,
		StatusFailed:     true,
		StatusBusy:       true,
		StatusNoAnswer:   true,
	}
	for status, want := range cases {
		if got := status.Terminal(); got != want {
			t.Errorf("Status(%q).Terminal() = %v, want %v", status, got, want)
		}
	}
}

func TestEventMarshalEnvelope(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	connected, err := json.Marshal(NewConnected("CA123"))
	if err != nil {
		t.Fatalf("marshal connected: %v", err)
	}
	if string(connected) != `{"type":"connected","callId":"CA123"}` {
		t.Errorf("connected envelope = %s", connected)
	}

	status, err := json.Marshal(NewStatus("CA123", StatusRinging, at))
	if err != nil {
		t.Fatalf("marshal status: %v", err)
	}
	for _, want := range []string{`"type":"status"`, `"status":"ringing"`, `"timestamp":"2026-03-14T09:26:53Z"`} {
		if !strings.Contains(string(status), want) {
			t.Errorf("status envelope %s missing %s", status, want)
		}
	}

	transcript, err := json.Marshal(NewTranscript("CA123", Message{
		ID: "m1", Role: RoleAssistant, Content: "hello", Timestamp: at, IsFinal: true,
	}))
	if err != nil {
		t.Fatalf("marshal transcript: %v", err)
	}
	for _, want := range []string{`"type":"transcript"`, `"id":"m1"`, `"role":"assistant"`, `"isFinal":true`} {
		if !strings.Contains(string(transcript), want) {
			t.Errorf("transcript envelope %s missing %s", transcript, want)
		}
	}

	errEv, err := json.Marshal(NewError("CA123", "asr timeout", ""))
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	if strings.Contains(string(errEv), `"code"`) {
		t.Errorf("empty code should be omitted: %s", errEv)
	}
}

func TestTranscriptReplacesByMessageID(t *testing.T) {
	view := NewTranscriptView()

	view.Apply(NewTranscript("CA123", Message{ID: "m1", Role: RoleUser, Content: "hel", IsFinal: false}))
	view.Apply(NewTranscript("CA123", Message{ID: "m1", Role: RoleUser, Content: "hello", IsFinal: true}))

	if view.Len() != 1 {
		t.Fatalf("transcript has %d entries after partial+final of same utterance, want 1", view.Len())
	}
	got := view.Messages()[0]
	if got.Content != "hello" || !got.IsFinal {
		t.Errorf("final update did not replace partial: %+v", got)
	}
}

func TestTranscriptPreservesFirstSeenOrder(t *testing.T) {
	view := NewTranscriptView()
	view.Apply(NewTranscript("CA123", Message{ID: "m1", Role: RoleUser, Content: "hi"}))
	view.Apply(NewTranscript("CA123", Message{ID: "m2", Role: RoleAssistant, Content: "hello there"}))
	view.Apply(NewTranscript("CA123", Message{ID: "m1", Role: RoleUser, Content: "hi!", IsFinal: true}))
	view.Apply(NewStatus("CA123", StatusInProgress, time.Now())) // ignored

	msgs := view.Messages()
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].ID != "m1" || msgs[1].ID != "m2" {
		t.Errorf("order = [%s %s], want [m1 m2]", msgs[0].ID, msgs[1].ID)
	}
	if msgs[0].Content != "hi!" {
		t.Errorf("m1 content = %q, want replacement %q", msgs[0].Content, "hi!")
	}
}
