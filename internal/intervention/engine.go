// Package intervention decides when a stuck student gets a hint, how much
// the hint reveals and how it is framed.
package intervention

import (
	"sync"
	"time"

	"github.com/sapiocode/sapio/internal/affect"
	"github.com/sapiocode/sapio/internal/teaching"
)

// Input is one decision request for a session.
type Input struct {
	Signals
	// Affect overrides Signals.Frustration when set and drives routing.
	Affect *affect.CognitiveState
	// Mastery is the student's average mastery; DefaultMastery when unknown.
	Mastery float64
}

type session struct {
	mu       sync.Mutex
	machine  *Machine
	floor    int // highest level delivered so far
	pending  int // level of the last intervening decision, until delivered
	lastSeen time.Time
}

// Engine runs decisions per session. Sessions are independent; calls for
// the same session are serialized.
type Engine struct {
	cfg    Config
	memory *Memory
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

// NewEngine creates an engine. A nil memory gets a default one.
func NewEngine(cfg Config, memory *Memory) *Engine {
	if memory == nil {
		memory = NewMemory(DefaultMaxTurns)
	}
	return &Engine{cfg: cfg, memory: memory, now: time.Now, sessions: make(map[string]*session)}
}

// Memory returns the conversation memory shared by the engine's sessions.
func (e *Engine) Memory() *Memory {
	return e.memory
}

// session returns the session for a write, creating it on first use.
func (e *Engine) session(id string) *session {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[id]
	if !ok {
		s = &session{machine: NewMachine()}
		e.sessions[id] = s
	}
	s.lastSeen = e.now()
	return s
}

func (e *Engine) lookup(id string) (*session, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[id]
	return s, ok
}

// Decide evaluates in for the session, routes the hint and applies the
// session's level floor so the level never drops below one already
// delivered. Challenge keeps its question-level hint without lowering the
// floor. Only HintSent raises the floor.
func (e *Engine) Decide(sessionID string, in Input) Decision {
	s := e.session(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.machine.State() == StateHinting {
		// The previous intervention was never delivered; start over.
		s.machine = NewMachine()
		s.pending = 0
	}

	state := affect.Neutral
	state.Frustration = in.Frustration
	if in.Affect != nil {
		state = in.Affect.Clamp()
		in.Frustration = state.Frustration
	}
	in.PreviousHints = max(in.PreviousHints, e.memory.HintCount(sessionID))

	s.machine.Fire(EventStuckDetected)
	s.machine.Fire(EventStillStuck)
	s.machine.Fire(EventAnalysisComplete)

	d := Decide(e.cfg, in.Signals)
	if !d.ShouldIntervene {
		s.machine.Fire(EventNoIntervention)
		d.HintLevel = max(d.HintLevel, s.floor)
		return d
	}
	s.machine.Fire(EventInterventionNeeded)

	path, level := Route(state, in.Mastery, in.PreviousHints)
	d.Path = path
	if path == PathChallenge {
		d.HintLevel = level
	} else {
		d.HintLevel = teaching.ClampLevel(max(d.HintLevel, level, s.floor))
	}
	s.pending = d.HintLevel
	return d
}

// HintSent records a delivered intervention, raises the session's level
// floor and moves the session to waiting. A zero t.HintLevel delivers the
// level of the last decision.
func (e *Engine) HintSent(sessionID string, t Turn) {
	s := e.session(sessionID)
	s.mu.Lock()
	if t.HintLevel == 0 {
		t.HintLevel = s.pending
	}
	s.floor = max(s.floor, t.HintLevel)
	s.pending = 0
	s.machine.Fire(EventHintSent)
	s.mu.Unlock()

	if t.At.IsZero() {
		t.At = e.now()
	}
	t.Role = RoleTutor
	t.Unsolicited = false
	e.memory.Add(sessionID, t)
}

// Reply records a tutor turn given without an intervention decision. It
// stays in the dialogue but does not count as a hint, raise the floor or
// move the state machine.
func (e *Engine) Reply(sessionID string, t Turn) {
	e.session(sessionID)
	if t.At.IsZero() {
		t.At = e.now()
	}
	t.Role = RoleTutor
	t.Unsolicited = true
	e.memory.Add(sessionID, t)
}

// StudentMessage records the student's side of the dialogue.
func (e *Engine) StudentMessage(sessionID, content string) {
	e.session(sessionID)
	e.memory.Add(sessionID, Turn{Role: RoleStudent, Content: content, At: e.now()})
}

// CodeChanged tells the session the student edited their code.
func (e *Engine) CodeChanged(sessionID string) State {
	s := e.session(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Fire(EventCodeChanged)
}

// State returns the session's current state. Unknown sessions are
// StateObserving and are not created.
func (e *Engine) State(sessionID string) State {
	s, ok := e.lookup(sessionID)
	if !ok {
		return StateObserving
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.State()
}

// Prune forgets sessions untouched since cutoff, with their dialogue, and
// returns how many went.
func (e *Engine) Prune(cutoff time.Time) int {
	e.mu.Lock()
	var stale []string
	for id, s := range e.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(e.sessions, id)
			stale = append(stale, id)
		}
	}
	e.mu.Unlock()

	for _, id := range stale {
		e.memory.Clear(id)
	}
	return len(stale) + e.memory.Prune(cutoff)
}

// Reset forgets the session's state, floor and dialogue.
func (e *Engine) Reset(sessionID string) {
	e.mu.Lock()
	delete(e.sessions, sessionID)
	e.mu.Unlock()
	e.memory.Clear(sessionID)
}
