package viva

import (
	"fmt"
	"slices"
	"strings"
)

// QuestionScore is one row of the verdict breakdown.
type QuestionScore struct {
	QuestionID string  `json:"question_id"`
	Question   string  `json:"question"`
	Score      float64 `json:"score"`
	Feedback   string  `json:"feedback"`
	Scorer     Scorer  `json:"scorer"`
}

// Report is the final assessment of a viva.
type Report struct {
	SessionID        string          `json:"session_id"`
	StudentID        string          `json:"student_id"`
	Verdict          Verdict         `json:"verdict"`
	Message          string          `json:"message"`
	AverageScore     float64         `json:"average_score"`
	Answered         int             `json:"questions_answered"`
	TotalQuestions   int             `json:"total_questions"`
	Overlap          *Overlap        `json:"concept_overlap,omitempty"`
	Breakdown        []QuestionScore `json:"question_breakdown,omitempty"`
	ImprovementAreas []string        `json:"improvement_areas,omitempty"`
}

// Conclusive reports whether the verdict is pass, weak or fail.
func (r Report) Conclusive() bool {
	return r.Verdict != VerdictInconclusive
}

// BuildReport grades s. Fewer than cfg.MinAnswers evaluations is always
// inconclusive.
func BuildReport(s *Session, cfg Config) Report {
	rep := Report{
		SessionID:      s.ID,
		StudentID:      s.StudentID,
		Answered:       len(s.Evaluations),
		TotalQuestions: len(s.Questions),
	}

	if len(s.Evaluations) < cfg.MinAnswers {
		rep.Verdict = VerdictInconclusive
		rep.Message = fmt.Sprintf("Need at least %d answers for verdict", cfg.MinAnswers)
		return rep
	}

	var total float64
	for _, ev := range s.Evaluations {
		total += ev.Score
	}
	avg := total / float64(len(s.Evaluations))

	switch {
	case avg >= cfg.PassThreshold:
		rep.Verdict = VerdictPass
		rep.Message = "Excellent! You demonstrated clear understanding of your code."
	case avg >= cfg.WeakThreshold:
		rep.Verdict = VerdictWeak
		rep.Message = "You showed some understanding, but review the highlighted concepts."
	default:
		rep.Verdict = VerdictFail
		rep.Message = "You struggled to explain your code. Please review and resubmit."
	}
	rep.AverageScore = round(avg, 2)

	if s.Analysis != nil {
		transcripts := make([]string, len(s.Answers))
		for i, a := range s.Answers {
			transcripts[i] = a.Transcript
		}
		o := ComputeOverlap(s.Analysis, strings.Join(transcripts, " "))
		rep.Overlap = &o
	}

	for i, ev := range s.Evaluations {
		row := QuestionScore{
			QuestionID: ev.QuestionID,
			Score:      ev.Score,
			Feedback:   ev.Feedback,
			Scorer:     ev.Scorer,
		}
		if i < len(s.Questions) {
			row.Question = s.Questions[i].Text
		}
		rep.Breakdown = append(rep.Breakdown, row)
	}

	rep.ImprovementAreas = improvementAreas(s.Evaluations, 3)
	return rep
}

// improvementAreas returns the most frequently missing concepts, ties in
// first-seen order.
func improvementAreas(evals []Evaluation, limit int) []string {
	counts := map[string]int{}
	var order []string
	for _, ev := range evals {
		for _, c := range ev.Missing {
			if counts[c] == 0 {
				order = append(order, c)
			}
			counts[c]++
		}
	}
	slices.SortStableFunc(order, func(a, b string) int {
		return counts[b] - counts[a]
	})

	var areas []string
	for _, c := range order[:min(limit, len(order))] {
		areas = append(areas, "Review: "+c)
	}
	return areas
}
