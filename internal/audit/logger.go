package audit

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/call-relay/crc/internal/config"
)

// Entry is a single audit record.
type Entry struct {
	Timestamp time.Time              `json:"ts"`
	CallID    string                 `json:"callId"`
	Action    string                 `json:"action"`
	Outcome   string                 `json:"outcome"`
	LatencyMS int64                  `json:"latencyMs"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// Logger appends audit records to a rotating JSONL file.
type Logger struct {
	mu sync.Mutex
	w  io.WriteCloser
}

// NewLogger creates an audit logger writing to <dir>/audit.jsonl.
func NewLogger(cfg config.AuditConfig) (*Logger, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audit log directory: %w", err)
	}
	return &Logger{
		w: &lumberjack.Logger{
			Filename:   filepath.Join(cfg.Dir, "audit.jsonl"),
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		},
	}, nil
}

// LogCallAction records one call action with its outcome and latency.
func (l *Logger) LogCallAction(action, callID, outcome string, latency time.Duration, details map[string]interface{}) {
	l.write(Entry{
		Timestamp: time.Now().UTC(),
		CallID:    callID,
		Action:    action,
		Outcome:   outcome,
		LatencyMS: latency.Milliseconds(),
		Details:   details,
	})
}

// LogRejection records a webhook rejected at the ingestion boundary. The
// payload type goes into details for diagnosis; the raw payload itself is
// kept out of the audit trail.
func (l *Logger) LogRejection(source, reason string) {
	l.write(Entry{
		Timestamp: time.Now().UTC(),
		Action:    "ingest." + source,
		Outcome:   "REJECTED",
		Details:   map[string]interface{}{"reason": reason},
	})
}

// Close flushes and closes the underlying file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Close()
}

func (l *Logger) write(entry Entry) {
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.w.Write(append(data, '\n'))
}
