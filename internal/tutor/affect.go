package tutor

import (
	"fmt"
	"strings"

	"github.com/sapiocode/sapio/internal/affect"
)

// ObserveAffect folds one expression reading into the student's window and
// returns the resulting assessment.
func (s *Service) ObserveAffect(studentID string, e affect.Expressions) (affect.Assessment, error) {
	if strings.TrimSpace(studentID) == "" {
		return affect.Assessment{}, ErrStudentRequired
	}
	s.affect.ObserveExpressions(studentID, e)
	return s.affect.Assess(studentID), nil
}

// AffectSummary returns the student's affect digest.
func (s *Service) AffectSummary(studentID string) (affect.Summary, error) {
	if strings.TrimSpace(studentID) == "" {
		return affect.Summary{}, ErrStudentRequired
	}
	sum, ok := s.affect.Summary(studentID)
	if !ok {
		return affect.Summary{}, fmt.Errorf("%w: %s", ErrStudentNotFound, studentID)
	}
	return sum, nil
}
