package intervention

import (
	"github.com/sapiocode/sapio/internal/affect"
	"github.com/sapiocode/sapio/internal/teaching"
)

// Path is the framing chosen for a hint.
type Path string

const (
	PathGentle    Path = "gentle"
	PathSocratic  Path = "socratic"
	PathChallenge Path = "challenge"
)

// DefaultMastery stands in for a student with no mastery history.
const DefaultMastery = 0.5

// Route picks the hint path from affect and average mastery and returns the
// level that path asks for given the number of previous hints.
func Route(state affect.CognitiveState, mastery float64, previousHints int) (Path, int) {
	state = state.Clamp()
	switch {
	case state.Frustration > 0.7:
		return PathGentle, min(previousHints+2, teaching.LevelDirect)
	case (mastery > 0.7 && state.Frustration < 0.3) || (state.Boredom > 0.6 && state.Engagement < 0.3):
		return PathChallenge, teaching.LevelQuestion
	default:
		return PathSocratic, min(previousHints+1, teaching.LevelPseudoCode)
	}
}
