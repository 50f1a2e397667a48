package intervention

import (
	"sync"
	"time"
)

// Memory limits.
const (
	DefaultMaxTurns     = 20
	DefaultHistoryTurns = 6
)

// Roles of a conversation turn.
const (
	RoleStudent = "student"
	RoleTutor   = "tutor"
)

// Turn is one exchange in a tutoring dialogue.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	HintLevel int       `json:"hint_level"`
	Focus     string    `json:"teaching_focus"`
	At        time.Time `json:"timestamp"`

	// Unsolicited marks a tutor turn that was not an intervention. It is
	// not counted as a hint.
	Unsolicited bool `json:"unsolicited,omitempty"`
}

// Message is a turn in the role vocabulary of chat models.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// MemorySummary describes a session's dialogue so far.
type MemorySummary struct {
	TotalTurns int    `json:"total_turns"`
	HintsGiven int    `json:"hints_given"`
	LastFocus  string `json:"last_focus,omitempty"`
}

// Memory keeps the most recent turns of every session.
type Memory struct {
	mu       sync.Mutex
	maxTurns int
	sessions map[string][]Turn
}

// NewMemory keeps up to maxTurns per session. Non-positive means the default.
func NewMemory(maxTurns int) *Memory {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &Memory{maxTurns: maxTurns, sessions: make(map[string][]Turn)}
}

// Add appends a turn, dropping the oldest beyond the limit.
func (m *Memory) Add(sessionID string, t Turn) {
	if t.At.IsZero() {
		t.At = time.Now().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	turns := append(m.sessions[sessionID], t)
	if len(turns) > m.maxTurns {
		turns = append([]Turn(nil), turns[len(turns)-m.maxTurns:]...)
	}
	m.sessions[sessionID] = turns
}

// History returns the last n turns as chat messages. Tutor turns become
// assistant messages and student turns become user messages.
func (m *Memory) History(sessionID string, n int) []Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	turns := m.sessions[sessionID]
	if n >= 0 && len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	out := make([]Message, 0, len(turns))
	for _, t := range turns {
		role := "user"
		if t.Role == RoleTutor {
			role = "assistant"
		}
		out = append(out, Message{Role: role, Content: t.Content})
	}
	return out
}

// HintCount returns the number of delivered interventions retained for the
// session.
func (m *Memory) HintCount(sessionID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return countHints(m.sessions[sessionID])
}

// Clear forgets a session.
func (m *Memory) Clear(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}

// Prune forgets sessions whose latest turn is before cutoff and returns how
// many went.
func (m *Memory) Prune(cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, turns := range m.sessions {
		if len(turns) == 0 || turns[len(turns)-1].At.Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// Summary reports turn and hint counts and the latest focus.
func (m *Memory) Summary(sessionID string) MemorySummary {
	m.mu.Lock()
	defer m.mu.Unlock()

	turns := m.sessions[sessionID]
	s := MemorySummary{TotalTurns: len(turns), HintsGiven: countHints(turns)}
	if len(turns) > 0 {
		s.LastFocus = turns[len(turns)-1].Focus
	}
	return s
}

func countHints(turns []Turn) int {
	n := 0
	for _, t := range turns {
		if t.Role == RoleTutor && !t.Unsolicited {
			n++
		}
	}
	return n
}
