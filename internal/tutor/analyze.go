package tutor

import (
	"context"

	"github.com/sapiocode/sapio/internal/analyzer"
	"github.com/sapiocode/sapio/internal/teaching"
)

// Analysis is an analysis with its teaching moment.
type Analysis struct {
	*analyzer.Result
	Moment teaching.Moment `json:"teaching_moment"`
}

// Analyze returns the structural analysis of code. It never fails.
func (s *Service) Analyze(ctx context.Context, code string) Analysis {
	r := s.analyses.Analyze(ctx, code)
	return Analysis{Result: r, Moment: teaching.Select(r)}
}
