// Package affect turns facial-expression readings into a smoothed cognitive
// state per student and decides how the tutor's tone should adapt to it.
package affect

import "math"

// CognitiveState holds the four learning-relevant affect signals, each a
// probability in [0, 1].
type CognitiveState struct {
	Engagement  float64 `json:"engagement"`
	Frustration float64 `json:"frustration"`
	Confusion   float64 `json:"confusion"`
	Boredom     float64 `json:"boredom"`
}

// Neutral is reported when nothing has been observed yet.
var Neutral = CognitiveState{Engagement: 0.5}

// Clamp returns s with every signal forced into [0, 1].
func (s CognitiveState) Clamp() CognitiveState {
	return CognitiveState{
		Engagement:  Clamp01(s.Engagement),
		Frustration: Clamp01(s.Frustration),
		Confusion:   Clamp01(s.Confusion),
		Boredom:     Clamp01(s.Boredom),
	}
}

// Expressions are the per-frame expression probabilities reported by the
// client-side face model.
type Expressions struct {
	Happy     float64 `json:"happy"`
	Sad       float64 `json:"sad"`
	Angry     float64 `json:"angry"`
	Fearful   float64 `json:"fearful"`
	Surprised float64 `json:"surprised"`
	Disgusted float64 `json:"disgusted"`
	Neutral   float64 `json:"neutral"`
}

// FromExpressions maps raw expressions to a cognitive state.
func FromExpressions(e Expressions) CognitiveState {
	return CognitiveState{
		Engagement:  e.Happy*0.6 + e.Surprised*0.4,
		Confusion:   e.Surprised*0.6 + e.Sad*0.4,
		Frustration: e.Angry*0.5 + e.Fearful*0.3 + e.Sad*0.2,
		Boredom:     e.Neutral*0.8 - (e.Happy+e.Surprised)*0.4,
	}.Clamp()
}

// Clamp01 clamps v to [0, 1]. NaN becomes 0.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
