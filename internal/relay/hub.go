package relay

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/call-relay/crc/internal/config"
	"github.com/call-relay/crc/internal/event"
)

// Attach errors.
var (
	ErrTopicFull     = errors.New("subscriber cap reached for call")
	ErrDuplicateSink = errors.New("sink already attached to call")
	ErrHubClosed     = errors.New("relay hub closed")
)

// Hub is the process-wide topic registry. It is created once at startup and
// exposes exactly four operations to the rest of the container: Attach,
// Detach, Publish and Snapshot.
type Hub struct {
	cfg config.RelayConfig
	log *zap.SugaredLogger

	mu     sync.RWMutex
	topics map[event.CallID]*topic
	closed bool

	published           atomic.Int64
	droppedNoTopic      atomic.Int64
	droppedPostTerminal atomic.Int64
	sinkFailures        atomic.Int64
	topicsCreated       atomic.Int64
	topicsDestroyed     atomic.Int64
}

// Stats is a point-in-time snapshot of hub counters, served by the health
// endpoint.
type Stats struct {
	ActiveTopics        int   `json:"activeTopics"`
	ActiveSubscribers   int   `json:"activeSubscribers"`
	Published           int64 `json:"published"`
	DroppedNoTopic      int64 `json:"droppedNoTopic"`
	DroppedPostTerminal int64 `json:"droppedPostTerminal"`
	SinkFailures        int64 `json:"sinkFailures"`
	TopicsCreated       int64 `json:"topicsCreated"`
	TopicsDestroyed     int64 `json:"topicsDestroyed"`
}

// NewHub creates the relay hub.
func NewHub(cfg config.RelayConfig, log *zap.SugaredLogger) *Hub {
	return &Hub{
		cfg:    cfg,
		log:    log,
		topics: make(map[event.CallID]*topic),
	}
}

// Attach subscribes a sink to a call, creating the topic if absent, and
// immediately sends the synthetic connected event to that sink only. There
// is no "call not found" failure mode for observers: attaching to an unknown
// call simply yields a quiet topic until real events arrive.
func (h *Hub) Attach(callID event.CallID, sink Sink) (*Subscription, error) {
	for {
		t, err := h.getOrCreate(callID)
		if err != nil {
			return nil, err
		}

		t.mu.Lock()
		if t.closed {
			// Lost a race with teardown; the registry entry is gone, so
			// a fresh lookup creates a fresh topic.
			t.mu.Unlock()
			continue
		}
		if _, dup := t.subs[sink]; dup {
			t.mu.Unlock()
			return nil, ErrDuplicateSink
		}
		if h.cfg.MaxSubscribersPerTopic > 0 && len(t.subs) >= h.cfg.MaxSubscribersPerTopic {
			t.mu.Unlock()
			return nil, ErrTopicFull
		}

		sub := &Subscription{topic: t, sink: sink, createdAt: time.Now()}
		t.subs[sink] = sub
		t.stopIdleTimerLocked()

		// Sent under the topic lock so no publish can slip between the
		// attach and its acknowledgement.
		if err := sink.Send(event.NewConnected(callID)); err != nil {
			delete(t.subs, sink)
			destroy := h.evaluateTeardownLocked(t)
			t.mu.Unlock()
			if destroy {
				h.destroy(t, "failed attach left terminal topic empty")
			}
			return nil, err
		}
		t.mu.Unlock()

		h.log.Debugw("observer attached", "callId", callID)
		return sub, nil
	}
}

// Detach removes a subscription from its topic and closes its sink.
// Detaching an already-detached subscription is a no-op.
func (h *Hub) Detach(sub *Subscription) {
	if sub == nil {
		return
	}
	t := sub.topic

	t.mu.Lock()
	cur, ok := t.subs[sub.sink]
	if !ok || cur != sub {
		t.mu.Unlock()
		return
	}
	delete(t.subs, sub.sink)
	sub.sink.Close()
	destroy := h.evaluateTeardownLocked(t)
	t.mu.Unlock()

	h.log.Debugw("observer detached", "callId", t.id)
	if destroy {
		h.destroy(t, "last observer left after terminal status")
	}
}

// Publish delivers an event to every subscriber of the call, in call order.
// A status event also advances the topic's status cursor; a terminal status
// flags the topic for teardown once its subscribers drain. Events for calls
// the registry no longer tracks are dropped silently: the webhook producer
// has no way to act on a relay-side failure.
func (h *Hub) Publish(callID event.CallID, ev event.Event) {
	t := h.lookupForPublish(callID, ev)
	if t == nil {
		h.droppedNoTopic.Add(1)
		h.log.Debugw("event dropped, no topic", "callId", callID, "type", ev.Type)
		return
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		h.droppedNoTopic.Add(1)
		return
	}

	if t.terminal && ev.Type == event.TypeTranscript {
		t.mu.Unlock()
		h.droppedPostTerminal.Add(1)
		h.log.Debugw("transcript dropped after terminal status", "callId", callID)
		return
	}

	if ev.Type == event.TypeStatus && ev.Status != nil {
		t.lastStatus = ev.Status.Status
		if t.lastStatus.Terminal() {
			t.terminal = true
		}
	}

	failed := t.deliverLocked(ev)
	h.published.Add(1)
	if failed > 0 {
		h.sinkFailures.Add(int64(failed))
	}

	destroy := h.evaluateTeardownLocked(t)
	t.mu.Unlock()

	if destroy {
		h.destroy(t, "terminal status with no observers")
	}
}

// Snapshot returns the last known status for a call. ok is false when the
// registry does not track the call or no status was observed yet.
func (h *Hub) Snapshot(callID event.CallID) (status event.Status, ok bool) {
	h.mu.RLock()
	t := h.topics[callID]
	h.mu.RUnlock()
	if t == nil {
		return "", false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed || t.lastStatus == "" {
		return "", false
	}
	return t.lastStatus, true
}

// Stats returns current hub counters.
func (h *Hub) Stats() Stats {
	h.mu.RLock()
	topics := make([]*topic, 0, len(h.topics))
	for _, t := range h.topics {
		topics = append(topics, t)
	}
	h.mu.RUnlock()

	subscribers := 0
	for _, t := range topics {
		t.mu.Lock()
		subscribers += len(t.subs)
		t.mu.Unlock()
	}

	return Stats{
		ActiveTopics:        len(topics),
		ActiveSubscribers:   subscribers,
		Published:           h.published.Load(),
		DroppedNoTopic:      h.droppedNoTopic.Load(),
		DroppedPostTerminal: h.droppedPostTerminal.Load(),
		SinkFailures:        h.sinkFailures.Load(),
		TopicsCreated:       h.topicsCreated.Load(),
		TopicsDestroyed:     h.topicsDestroyed.Load(),
	}
}

// Close tears down every topic and closes every attached sink. The hub
// rejects attaches afterwards.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	topics := make([]*topic, 0, len(h.topics))
	for _, t := range h.topics {
		topics = append(topics, t)
	}
	h.mu.Unlock()

	for _, t := range topics {
		h.destroy(t, "hub shutdown")
	}
}

// getOrCreate returns the live topic for a call, creating it when absent.
func (h *Hub) getOrCreate(callID event.CallID) (*topic, error) {
	h.mu.RLock()
	t := h.topics[callID]
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		return nil, ErrHubClosed
	}
	if t != nil {
		return t, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHubClosed
	}
	if t = h.topics[callID]; t != nil {
		return t, nil
	}
	t = newTopic(callID)
	h.topics[callID] = t
	h.topicsCreated.Add(1)
	return t, nil
}

// lookupForPublish resolves the topic an event should be delivered to.
// Status events create the topic when absent so the status cursor exists
// before the first observer attaches; transcript and error events for
// untracked calls mean no one is listening and return nil.
func (h *Hub) lookupForPublish(callID event.CallID, ev event.Event) *topic {
	if ev.Type == event.TypeStatus {
		t, err := h.getOrCreate(callID)
		if err != nil {
			return nil
		}
		return t
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return nil
	}
	return h.topics[callID]
}

// evaluateTeardownLocked decides what happens to a topic whose state just
// changed. Caller holds t.mu. Returns true when the caller must destroy the
// topic after releasing the lock; otherwise the idle timer is armed for
// empty non-terminal topics.
func (h *Hub) evaluateTeardownLocked(t *topic) bool {
	if t.closed || len(t.subs) > 0 {
		return false
	}
	if t.terminal {
		return true
	}
	t.resetIdleTimerLocked(h.cfg.TopicIdleTTL, func() { h.reapIdle(t) })
	return false
}

// reapIdle destroys an empty, non-terminal topic whose idle timer elapsed.
// Both locks are taken in hub → topic order and the idle conditions are
// re-checked, so a subscriber that attached while the timer fired survives.
func (h *Hub) reapIdle(t *topic) {
	h.mu.Lock()
	if h.topics[t.id] != t {
		h.mu.Unlock()
		return
	}

	t.mu.Lock()
	if t.closed || len(t.subs) > 0 {
		t.mu.Unlock()
		h.mu.Unlock()
		return
	}
	t.closed = true
	t.stopIdleTimerLocked()
	t.mu.Unlock()

	delete(h.topics, t.id)
	h.mu.Unlock()

	h.topicsDestroyed.Add(1)
	h.log.Infow("idle topic reaped", "callId", t.id)
}

// destroy removes a topic from the registry and closes any remaining sinks.
func (h *Hub) destroy(t *topic, reason string) {
	h.mu.Lock()
	if h.topics[t.id] == t {
		delete(h.topics, t.id)
	}
	h.mu.Unlock()

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	t.stopIdleTimerLocked()
	for sink := range t.subs {
		sink.Close()
	}
	t.subs = make(map[Sink]*Subscription)
	t.mu.Unlock()

	h.topicsDestroyed.Add(1)
	h.log.Infow("topic destroyed", "callId", t.id, "reason", reason)
}
