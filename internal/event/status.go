package event

import "fmt"

// Status represents the lifecycle state of a phone call.
type Status string

// Call statuses as reported by the telephony provider.
const (
	StatusIdle       Status = "idle"
	StatusInitiating Status = "initiating"
	StatusRinging    Status = "ringing"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusBusy       Status = "busy"
	StatusNoAnswer   Status = "no-answer"
)

var knownStatuses = map[Status]bool{
	StatusIdle:       true,
	StatusInitiating: true,
	StatusRinging:    true,
	StatusInProgress: true,
	StatusCompleted:  true,
	StatusFailed:     true,
	StatusBusy:       true,
	StatusNoAnswer:   true,
}

// ParseStatus validates a provider status string. Matching is exact and
// case-sensitive; unknown strings are rejected rather than coerced.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !knownStatuses[status] {
		return "", fmt.Errorf("unknown call status %q", s)
	}
	return status, nil
}

// Terminal reports whether no further state transitions can occur for a call
// in this status.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusBusy, StatusNoAnswer:
		return true
	}
	return false
}
