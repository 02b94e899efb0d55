package event

// Transcript materializes transcript events into an ordered conversation.
// A message whose ID was seen before replaces the earlier entry in place;
// new IDs append. This mirrors how a UI renders partial-then-final updates
// of the same utterance.
type Transcript struct {
	order    []string
	messages map[string]Message
}

// NewTranscriptView returns an empty transcript.
func NewTranscriptView() *Transcript {
	return &Transcript{messages: make(map[string]Message)}
}

// Apply folds one transcript event into the view. Non-transcript events are
// ignored.
func (t *Transcript) Apply(e Event) {
	if e.Type != TypeTranscript || e.Transcript == nil {
		return
	}
	msg := e.Transcript.Message
	if _, seen := t.messages[msg.ID]; !seen {
		t.order = append(t.order, msg.ID)
	}
	t.messages[msg.ID] = msg
}

// Messages returns the materialized conversation in first-seen order.
func (t *Transcript) Messages() []Message {
	out := make([]Message, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.messages[id])
	}
	return out
}

// Len returns the number of distinct utterances.
func (t *Transcript) Len() int {
	return len(t.order)
}
