package ai

import "sync"

// Role identifies the sender of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DefaultHistoryLimit bounds the conversation sent to the model.
const DefaultHistoryLimit = 20

// Message is one turn of the suggestion conversation.
type Message struct {
	Role    Role
	Content string
}

// History is the bounded conversation with the model. The first message
// anchors the conversation and is never evicted.
type History struct {
	mu    sync.Mutex
	turns []Message
	limit int
}

// NewHistory returns a History holding at most limit messages. A limit
// below two selects DefaultHistoryLimit.
func NewHistory(limit int) *History {
	if limit < 2 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit}
}

// Add appends a turn and evicts the oldest turns after the first.
func (h *History) Add(role Role, content string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.turns = append(h.turns, Message{Role: role, Content: content})
	if over := len(h.turns) - h.limit; over > 0 {
		n := copy(h.turns[1:], h.turns[1+over:])
		h.turns = h.turns[:1+n]
	}
}

// DropLast removes the most recent turn, if any.
func (h *History) DropLast() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if n := len(h.turns); n > 0 {
		h.turns = h.turns[:n-1]
	}
}

// Messages returns a copy of the turns, oldest first.
func (h *History) Messages() []Message {
	h.mu.Lock()
	defer h.mu.Unlock()

	return append([]Message(nil), h.turns...)
}

func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.turns = nil
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.turns)
}
