package affect

import (
	"sync"
	"time"
)

const (
	frustrationHigh     = 0.7
	frustrationModerate = 0.4
	engagementLow       = 0.2
	boredomHigh         = 0.6
)

// Strategy is the affect-driven adjustment to the next hint.
type Strategy string

const (
	StrategyNone      Strategy = "none"
	StrategyGentle    Strategy = "gentle_hint"
	StrategyChallenge Strategy = "challenge"
	StrategySoften    Strategy = "soften_tone"
)

// Tone is how hint text is framed for the student.
type Tone string

const (
	ToneNeutral    Tone = "neutral"
	ToneEmpathetic Tone = "empathetic"
	ToneEnergetic  Tone = "energetic"
	ToneSupportive Tone = "supportive"
)

// Assessment is the affect-only verdict on whether to adapt the next hint.
type Assessment struct {
	Intervene       bool     `json:"intervene"`
	Reason          string   `json:"reason"`
	Strategy        Strategy `json:"action"`
	Tone            Tone     `json:"tone"`
	LevelAdjustment int      `json:"hint_level_adjustment"`
	Frustration     float64  `json:"frustration"`
	Engagement      float64  `json:"engagement"`
}

// Assess applies the affect thresholds to a smoothed state.
func Assess(s CognitiveState) Assessment {
	a := Assessment{
		Reason:      "affect_normal",
		Strategy:    StrategyNone,
		Tone:        ToneNeutral,
		Frustration: s.Frustration,
		Engagement:  s.Engagement,
	}
	switch {
	case s.Frustration > frustrationHigh:
		a.Intervene, a.Reason, a.Strategy, a.Tone, a.LevelAdjustment = true, "high_frustration", StrategyGentle, ToneEmpathetic, 1
	case s.Boredom > boredomHigh && s.Engagement < engagementLow:
		a.Intervene, a.Reason, a.Strategy, a.Tone, a.LevelAdjustment = true, "disengaged_bored", StrategyChallenge, ToneEnergetic, -1
	case s.Frustration > frustrationModerate:
		a.Intervene, a.Reason, a.Strategy, a.Tone = true, "moderate_frustration", StrategySoften, ToneSupportive
	}
	return a
}

// AdjustTone frames hint text for the given tone.
func AdjustTone(hint string, tone Tone) string {
	switch tone {
	case ToneEmpathetic:
		return "I can see this is challenging, take a breath.\n\n" + hint +
			"\n\nStruggling is part of learning. You're doing well."
	case ToneEnergetic:
		return "Let's shake things up.\n\n" + hint +
			"\n\nTry looking at this from a completely different angle."
	case ToneSupportive:
		return hint + "\n\nYou're on the right track, keep going."
	default:
		return hint
	}
}

// Summary is the per-student affect digest shown to teachers.
type Summary struct {
	StudentID         string         `json:"student_id"`
	Current           CognitiveState `json:"current_state"`
	PeakFrustration   float64        `json:"peak_frustration"`
	InterventionCount int            `json:"intervention_count"`
	Samples           int            `json:"samples_collected"`
	AtRisk            bool           `json:"is_at_risk"`
}

type profile struct {
	smoother        *Smoother
	samples         int
	peakFrustration float64
	interventions   int
	lastSeen        time.Time
}

// Adapter keeps one smoothed affect profile per student.
type Adapter struct {
	mu       sync.Mutex
	window   int
	now      func() time.Time
	profiles map[string]*profile
}

// NewAdapter creates an adapter whose smoothers average over window samples.
func NewAdapter(window int) *Adapter {
	return &Adapter{window: window, now: time.Now, profiles: make(map[string]*profile)}
}

// profile returns the student's profile for writing, creating it on first
// use. Caller must hold a.mu.
func (a *Adapter) profile(studentID string) *profile {
	p, ok := a.profiles[studentID]
	if !ok {
		p = &profile{smoother: NewSmoother(a.window)}
		a.profiles[studentID] = p
	}
	p.lastSeen = a.now()
	return p
}

// ObserveExpressions converts raw expressions and folds them into the
// student's window. It returns the smoothed state.
func (a *Adapter) ObserveExpressions(studentID string, e Expressions) CognitiveState {
	return a.Observe(studentID, FromExpressions(e))
}

// Observe folds an already-computed cognitive state into the student's window.
func (a *Adapter) Observe(studentID string, s CognitiveState) CognitiveState {
	a.mu.Lock()
	defer a.mu.Unlock()
	p := a.profile(studentID)
	smoothed := p.smoother.Add(s)
	p.samples++
	if smoothed.Frustration > p.peakFrustration {
		p.peakFrustration = smoothed.Frustration
	}
	return smoothed
}

// Current returns the student's smoothed state, Neutral if never observed.
func (a *Adapter) Current(studentID string) CognitiveState {
	a.mu.Lock()
	defer a.mu.Unlock()
	if p, ok := a.profiles[studentID]; ok {
		return p.smoother.Current()
	}
	return Neutral
}

// Known reports whether any sample has been observed for the student.
func (a *Adapter) Known(studentID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.profiles[studentID]
	return ok && p.smoother.Len() > 0
}

// Assess evaluates the student's current smoothed state.
func (a *Adapter) Assess(studentID string) Assessment {
	return Assess(a.Current(studentID))
}

// RecordIntervention counts a delivered affect-driven intervention.
func (a *Adapter) RecordIntervention(studentID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.profile(studentID).interventions++
}

// Summary returns the student's affect digest, or ok=false when nothing has
// been recorded for the student.
func (a *Adapter) Summary(studentID string) (Summary, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.profiles[studentID]
	if !ok {
		return Summary{}, false
	}
	return Summary{
		StudentID:         studentID,
		Current:           p.smoother.Current(),
		PeakFrustration:   round4(p.peakFrustration),
		InterventionCount: p.interventions,
		Samples:           p.samples,
		AtRisk:            p.peakFrustration > frustrationHigh,
	}, true
}

// Prune drops profiles last written before cutoff and returns how many went.
func (a *Adapter) Prune(cutoff time.Time) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for id, p := range a.profiles {
		if p.lastSeen.Before(cutoff) {
			delete(a.profiles, id)
			n++
		}
	}
	return n
}

// Reset clears a student's window and history.
func (a *Adapter) Reset(studentID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.profiles, studentID)
}
