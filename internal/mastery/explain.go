package mastery

import (
	"strings"

	"github.com/sapiocode/sapio/internal/affect"
)

// Explain describes a mastery change in one or more plain sentences.
// Affect notes are only added when a cognitive state was supplied.
func Explain(oldMastery, newMastery float64, s *affect.CognitiveState) string {
	var parts []string
	if s != nil {
		if s.Frustration > 0.5 {
			parts = append(parts, "Learning rate was reduced due to high frustration.")
		}
		if s.Engagement > 0.5 {
			parts = append(parts, "Learning rate was increased due to strong engagement.")
		}
		if s.Confusion > 0.4 {
			parts = append(parts, "Error probability increased due to observed confusion.")
		}
		if s.Boredom > 0.5 {
			parts = append(parts, "Guessing likelihood increased due to signs of boredom.")
		}
	}

	delta := newMastery - oldMastery
	switch {
	case delta > 0.05:
		parts = append(parts, "Student mastery improved significantly.")
	case delta > 0:
		parts = append(parts, "Student mastery improved gradually.")
	default:
		parts = append(parts, "No mastery improvement observed in this attempt.")
	}
	return strings.Join(parts, " ")
}
