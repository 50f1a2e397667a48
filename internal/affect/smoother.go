package affect

// DefaultWindow is the number of samples averaged by a Smoother. The client
// samples every two seconds, so this covers about twenty seconds.
const DefaultWindow = 10

// Smoother is a fixed-window moving average over cognitive states.
// It is not safe for concurrent use; Adapter serializes access.
type Smoother struct {
	window int
	buf    []CognitiveState
}

// NewSmoother returns a smoother over the last window samples.
func NewSmoother(window int) *Smoother {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Smoother{window: window}
}

// Add records a sample and returns the new average.
func (s *Smoother) Add(state CognitiveState) CognitiveState {
	s.buf = append(s.buf, state.Clamp())
	if len(s.buf) > s.window {
		s.buf = s.buf[len(s.buf)-s.window:]
	}
	return s.Current()
}

// Current returns the average of the window without adding a sample.
func (s *Smoother) Current() CognitiveState {
	if len(s.buf) == 0 {
		return Neutral
	}
	var sum CognitiveState
	for _, st := range s.buf {
		sum.Engagement += st.Engagement
		sum.Frustration += st.Frustration
		sum.Confusion += st.Confusion
		sum.Boredom += st.Boredom
	}
	n := float64(len(s.buf))
	return CognitiveState{
		Engagement:  round4(sum.Engagement / n),
		Frustration: round4(sum.Frustration / n),
		Confusion:   round4(sum.Confusion / n),
		Boredom:     round4(sum.Boredom / n),
	}
}

// Len returns the number of samples in the window.
func (s *Smoother) Len() int { return len(s.buf) }

// Reset drops all samples.
func (s *Smoother) Reset() { s.buf = s.buf[:0] }
