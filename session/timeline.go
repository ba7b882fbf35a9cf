package session

import "chat-client/domain"

// Timeline is the merged message view of the active room: a historical
// batch loaded on room switch, extended by live appends. It is not
// safe for concurrent use on its own; the engine serializes access.
type Timeline struct {
	messages []domain.Message
}

func NewTimeline() *Timeline {
	return &Timeline{}
}

// Replace swaps the whole content for a freshly fetched history batch.
func (t *Timeline) Replace(messages []domain.Message) {
	t.messages = append(t.messages[:0:0], messages...)
}

// Append adds one live message at the tail. Nothing is ever reordered
// or removed between replacements.
func (t *Timeline) Append(message domain.Message) {
	t.messages = append(t.messages, message)
}

// Snapshot returns a copy callers may hold across engine operations.
func (t *Timeline) Snapshot() []domain.Message {
	return append([]domain.Message(nil), t.messages...)
}

func (t *Timeline) Len() int {
	return len(t.messages)
}
