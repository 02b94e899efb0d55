package ingest

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/call-relay/crc/internal/event"
)

// Publisher is the slice of the relay hub the normalizer needs.
type Publisher interface {
	Publish(callID event.CallID, ev event.Event)
}

// RejectionLogger records payloads refused at the ingestion boundary.
type RejectionLogger interface {
	LogRejection(source, reason string)
}

// Normalizer converts webhook payloads into canonical events.
type Normalizer struct {
	pub   Publisher
	log   *zap.SugaredLogger
	audit RejectionLogger

	// Seams for tests.
	now   func() time.Time
	newID func() string
}

// NewNormalizer creates a normalizer publishing into the given relay.
func NewNormalizer(pub Publisher, log *zap.SugaredLogger) *Normalizer {
	return &Normalizer{
		pub:   pub,
		log:   log,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// SetAuditLogger sets the audit logger for boundary rejections.
func (n *Normalizer) SetAuditLogger(logger RejectionLogger) {
	n.audit = logger
}

// logRejection records one refused payload. The reason carries the payload
// type so a misbehaving producer can be diagnosed from the logs alone; the
// raw payload itself is never retained.
func (n *Normalizer) logRejection(source, reason string) {
	n.log.Warnw("payload rejected", "source", source, "reason", reason)
	if n.audit != nil {
		n.audit.LogRejection(source, reason)
	}
}
