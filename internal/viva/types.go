// Package viva runs short oral examinations that check whether a student
// understands the code they submitted. Questions come from the static
// analysis; answers are judged by the text-generation service against the
// analysis and fall back to deterministic concept overlap when it fails.
package viva

import (
	"time"

	"github.com/sapiocode/sapio/internal/analyzer"
)

// QuestionType classifies what a question asks about.
type QuestionType string

const (
	QuestionFunctionPurpose QuestionType = "function_purpose"
	QuestionLineExplanation QuestionType = "line_explanation"
	QuestionLogicFlow       QuestionType = "logic_flow"
	QuestionVariableRole    QuestionType = "variable_role"
	QuestionEdgeCase        QuestionType = "edge_case"
	QuestionWhyChoice       QuestionType = "why_choice"
)

// Question is one viva question anchored to part of the code.
type Question struct {
	ID               string       `json:"id"`
	Type             QuestionType `json:"question_type"`
	Text             string       `json:"question_text"`
	TargetCode       string       `json:"target_code"`
	TargetLine       int          `json:"target_line,omitempty"`
	ExpectedConcepts []string     `json:"expected_concepts"`
	Difficulty       int          `json:"difficulty"` // 1 easy .. 3 hard
}

// Answer is a student's transcribed answer.
type Answer struct {
	QuestionID      string    `json:"question_id"`
	Transcript      string    `json:"transcribed_text"`
	DurationSeconds float64   `json:"audio_duration_seconds"`
	At              time.Time `json:"timestamp"`
}

// Scorer names which path produced an evaluation.
type Scorer string

const (
	ScorerLLM     Scorer = "llm"
	ScorerOverlap Scorer = "overlap"
)

// AcceptableScore is the minimum score for an answer to count as acceptable.
const AcceptableScore = 0.5

// Evaluation is the judgement of one answer.
type Evaluation struct {
	QuestionID string   `json:"question_id"`
	Score      float64  `json:"score"`
	Matched    []string `json:"matched_concepts"`
	Missing    []string `json:"missing_concepts"`
	Feedback   string   `json:"feedback"`
	Acceptable bool     `json:"is_acceptable"`
	Scorer     Scorer   `json:"scorer"`

	// Set only by the LLM judge.
	Understanding string   `json:"understanding_level,omitempty"`
	RedFlags      []string `json:"red_flags,omitempty"`

	// CodeOverlap is the answer scored against the whole analysis. Set only
	// by the overlap scorer.
	CodeOverlap *Overlap `json:"code_overlap,omitempty"`
}

// Verdict is the outcome of a whole viva.
type Verdict string

const (
	VerdictPass         Verdict = "pass"
	VerdictWeak         Verdict = "weak"
	VerdictFail         Verdict = "fail"
	VerdictInconclusive Verdict = "inconclusive"
)

// Session is one student's viva over one submission.
type Session struct {
	ID          string           `json:"session_id"`
	StudentID   string           `json:"student_id"`
	Code        string           `json:"-"`
	Analysis    *analyzer.Result `json:"-"`
	Questions   []Question       `json:"questions"`
	Answers     []Answer         `json:"answers"`
	Evaluations []Evaluation     `json:"evaluations"`
	Index       int              `json:"current_question_index"`
	StartedAt   time.Time        `json:"started_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	Verdict     Verdict          `json:"verdict,omitempty"`
}

// Current returns the question awaiting an answer.
func (s *Session) Current() (Question, bool) {
	if s.Index >= len(s.Questions) {
		return Question{}, false
	}
	return s.Questions[s.Index], true
}

// Complete reports whether a final verdict has been issued.
func (s *Session) Complete() bool {
	return s.CompletedAt != nil
}

func (s *Session) clone() Session {
	c := *s
	c.Questions = append([]Question(nil), s.Questions...)
	c.Answers = append([]Answer(nil), s.Answers...)
	c.Evaluations = append([]Evaluation(nil), s.Evaluations...)
	return c
}
