package intervention

// State is the tutoring loop's position for one session.
type State string

const (
	StateObserving State = "observing"
	StateAnalyzing State = "analyzing"
	StateDeciding  State = "deciding"
	StateHinting   State = "hinting"
	StateWaiting   State = "waiting"
)

// Event drives the tutoring state machine.
type Event string

const (
	EventCodeChanged        Event = "code_changed"
	EventStuckDetected      Event = "stuck_detected"
	EventStudentIdle        Event = "student_idle"
	EventAnalysisComplete   Event = "analysis_complete"
	EventSyntaxError        Event = "syntax_error"
	EventInterventionNeeded Event = "intervention_needed"
	EventNoIntervention     Event = "no_intervention"
	EventHintSent           Event = "hint_sent"
	EventStillStuck         Event = "still_stuck"
	EventTimeout            Event = "timeout"
)

var transitions = map[State]map[Event]State{
	StateObserving: {
		EventCodeChanged:   StateObserving,
		EventStuckDetected: StateAnalyzing,
		EventStudentIdle:   StateAnalyzing,
	},
	StateAnalyzing: {
		EventAnalysisComplete: StateDeciding,
		EventSyntaxError:      StateDeciding,
	},
	StateDeciding: {
		EventInterventionNeeded: StateHinting,
		EventNoIntervention:     StateObserving,
	},
	StateHinting: {
		EventHintSent: StateWaiting,
	},
	StateWaiting: {
		EventCodeChanged: StateObserving,
		EventStillStuck:  StateAnalyzing,
		EventTimeout:     StateAnalyzing,
	},
}

// Next returns the state after ev. Events with no transition from s leave
// the state unchanged.
func Next(s State, ev Event) State {
	if to, ok := transitions[s][ev]; ok {
		return to
	}
	return s
}

// Transition records a state change for logging.
type Transition struct {
	SessionID string
	From      State
	To        State
	Event     Event
}

// Machine holds the current state of one session. It is not safe for
// concurrent use; Engine serializes access per session.
type Machine struct {
	state State
}

// NewMachine starts in StateObserving.
func NewMachine() *Machine {
	return &Machine{state: StateObserving}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Fire applies ev and returns the resulting state.
func (m *Machine) Fire(ev Event) State {
	m.state = Next(m.state, ev)
	return m.state
}
