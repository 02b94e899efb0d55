package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/call-relay/crc/internal/config"
	"github.com/call-relay/crc/internal/event"
	"github.com/call-relay/crc/internal/relay"
)

// ErrStreamingUnsupported is returned when the response writer cannot flush,
// which SSE requires.
var ErrStreamingUnsupported = errors.New("response writer does not support streaming")

// Registry is the slice of the relay hub the adapter needs.
type Registry interface {
	Attach(callID event.CallID, sink relay.Sink) (*relay.Subscription, error)
	Detach(sub *relay.Subscription)
}

// Adapter serves observer connections against the relay.
type Adapter struct {
	registry Registry
	cfg      config.RelayConfig
	log      *zap.SugaredLogger
}

// NewAdapter creates a stream adapter.
func NewAdapter(registry Registry, cfg config.RelayConfig, log *zap.SugaredLogger) *Adapter {
	return &Adapter{registry: registry, cfg: cfg, log: log}
}

// Serve attaches the connection to the call's topic and streams events until
// the client disconnects, a write fails, the topic is torn down, or a
// terminal status arrives. An error is returned only for failures before the
// stream started; once streaming, all exits are clean from the caller's view.
//
// The subscription is always detached on exit, including when the connection
// aborts before the first event is written.
func (a *Adapter) Serve(w http.ResponseWriter, r *http.Request, callID event.CallID) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return ErrStreamingUnsupported
	}

	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	sink := relay.NewChanSink(a.cfg.SinkBuffer)
	sub, err := a.registry.Attach(callID, sink)
	if err != nil {
		sink.Close()
		return fmt.Errorf("failed to attach observer: %w", err)
	}
	// Detach is idempotent, so this also covers the terminal self-close
	// path below. The registry must be released even when the client
	// aborted before the connected event hit the wire.
	defer a.registry.Detach(sub)

	a.log.Infow("observer stream opened", "callId", callID)

	keepalive := time.NewTicker(a.cfg.KeepAliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			a.log.Infow("observer stream aborted by client", "callId", callID)
			return nil

		case <-keepalive.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				a.log.Debugw("keepalive write failed", "callId", callID, "error", err)
				return nil
			}
			flusher.Flush()

		case ev, open := <-sink.Events():
			if !open {
				// The hub removed this sink: topic torn down or the
				// consumer fell too far behind.
				a.log.Infow("observer stream closed by relay", "callId", callID)
				return nil
			}
			if err := writeFrame(w, ev); err != nil {
				a.log.Debugw("event write failed", "callId", callID, "error", err)
				return nil
			}
			flusher.Flush()
			if ev.Type == event.TypeStatus && ev.Status != nil && ev.Status.Status.Terminal() {
				a.log.Infow("observer stream closed on terminal status",
					"callId", callID, "status", ev.Status.Status)
				return nil
			}
		}
	}
}

// writeFrame serializes one event as an SSE data frame.
func writeFrame(w http.ResponseWriter, ev event.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	return nil
}
