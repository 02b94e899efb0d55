package relay

import (
	"errors"
	"sync"

	"github.com/call-relay/crc/internal/event"
)

// Sink errors returned by Send.
var (
	ErrSinkClosed = errors.New("sink closed")
	ErrSinkFull   = errors.New("sink buffer full")
)

// Sink is one observer's writable endpoint. A sink is created and torn down
// by its owning connection handler; the hub only indexes it. Send must not
// block: a sink that cannot accept an event returns an error and is removed
// from its topic by the hub.
type Sink interface {
	Send(ev event.Event) error
	Close()
}

// ChanSink is a channel-backed Sink with a bounded buffer. The connection
// handler drains Events; a full buffer fails the Send so a slow or stuck
// consumer never stalls delivery to its siblings.
type ChanSink struct {
	mu     sync.Mutex
	ch     chan event.Event
	closed bool
}

// NewChanSink creates a sink with the given buffer capacity.
func NewChanSink(buffer int) *ChanSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChanSink{ch: make(chan event.Event, buffer)}
}

// Send enqueues an event for the consumer. It never blocks.
func (s *ChanSink) Send(ev event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSinkClosed
	}
	select {
	case s.ch <- ev:
		return nil
	default:
		return ErrSinkFull
	}
}

// Close releases the sink. The Events channel is closed so the consumer
// unblocks; Close is safe to call more than once and concurrently with Send.
func (s *ChanSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

// Events returns the receive side of the sink. The channel is closed when
// the sink is closed; pending events remain readable until drained.
func (s *ChanSink) Events() <-chan event.Event {
	return s.ch
}
