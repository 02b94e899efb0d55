package relay

import (
	"sync"
	"time"

	"github.com/call-relay/crc/internal/event"
)

// Subscription is the handle returned by Attach and consumed by Detach.
// It binds one sink to one topic.
type Subscription struct {
	topic     *topic
	sink      Sink
	createdAt time.Time
}

// topic is the per-call subscriber set and status cursor. All mutation is
// serialized by mu; different topics never contend with each other.
type topic struct {
	id event.CallID

	mu         sync.Mutex
	subs       map[Sink]*Subscription
	lastStatus event.Status
	terminal   bool
	closed     bool
	idleTimer  *time.Timer
}

func newTopic(id event.CallID) *topic {
	return &topic{
		id:   id,
		subs: make(map[Sink]*Subscription),
	}
}

// deliverLocked fans one event out to every current subscriber. Caller holds
// t.mu, which gives every subscriber the same relative order across
// publishes. A sink whose Send fails is removed and closed; its siblings are
// unaffected. Returns the number of failed sinks.
func (t *topic) deliverLocked(ev event.Event) int {
	var failed []Sink
	for sink := range t.subs {
		if err := sink.Send(ev); err != nil {
			failed = append(failed, sink)
		}
	}
	for _, sink := range failed {
		delete(t.subs, sink)
		sink.Close()
	}
	return len(failed)
}

// resetIdleTimerLocked arms or refreshes the idle teardown timer. Caller
// holds t.mu.
func (t *topic) resetIdleTimerLocked(ttl time.Duration, reap func()) {
	if t.idleTimer != nil {
		t.idleTimer.Stop()
	}
	t.idleTimer = time.AfterFunc(ttl, reap)
}

// stopIdleTimerLocked disarms the idle teardown timer. Caller holds t.mu.
func (t *topic) stopIdleTimerLocked() {
	if t.idleTimer != nil {
		t.idleTimer.Stop()
		t.idleTimer = nil
	}
}
