package tutor

import (
	"context"
	"errors"
	"strings"

	"github.com/sapiocode/sapio/internal/affect"
	"github.com/sapiocode/sapio/internal/intervention"
	"github.com/sapiocode/sapio/internal/llm"
	"github.com/sapiocode/sapio/internal/metrics"
	"github.com/sapiocode/sapio/internal/store"
	"github.com/sapiocode/sapio/internal/teaching"
)

// HintConfig holds generation settings for hints.
type HintConfig struct {
	MaxTokens    int `yaml:"max_tokens"`
	HistoryTurns int `yaml:"history_turns"`
}

// DefaultHintConfig returns sensible defaults.
func DefaultHintConfig() HintConfig {
	return HintConfig{
		MaxTokens:    400,
		HistoryTurns: intervention.DefaultHistoryTurns,
	}
}

// DecisionRequest carries the behavioral signals of one decision.
type DecisionRequest struct {
	SessionID     string  `json:"session_id"`
	StudentID     string  `json:"student_id"`
	TimeStuck     float64 `json:"time_stuck"`
	CodeAttempts  int     `json:"code_attempts"`
	PreviousHints int     `json:"previous_hints"`
	// Frustration is used when no affect state is known for the student.
	Frustration float64                `json:"frustration"`
	Affect      *affect.CognitiveState `json:"affect,omitempty"`
}

// DecideIntervention returns whether and how strongly to intervene. It
// never calls an external service.
func (s *Service) DecideIntervention(_ context.Context, req DecisionRequest) (intervention.Decision, error) {
	if strings.TrimSpace(req.SessionID) == "" {
		return intervention.Decision{}, ErrSessionRequired
	}
	d := s.engine.Decide(req.SessionID, s.decisionInput(req))
	metrics.RecordDecision(string(d.Path), d.ShouldIntervene, d.HintLevel)
	return d, nil
}

func (s *Service) decisionInput(req DecisionRequest) intervention.Input {
	in := intervention.Input{
		Signals: intervention.Signals{
			TimeStuck:     req.TimeStuck,
			Frustration:   req.Frustration,
			PreviousHints: req.PreviousHints,
			CodeAttempts:  req.CodeAttempts,
		},
		Mastery: intervention.DefaultMastery,
	}
	if req.StudentID == "" {
		in.Affect = req.Affect
		return in
	}
	switch {
	case req.Affect != nil:
		smoothed := s.affect.Observe(req.StudentID, *req.Affect)
		in.Affect = &smoothed
	case s.affect.Known(req.StudentID):
		current := s.affect.Current(req.StudentID)
		in.Affect = &current
	}
	if avg, ok := s.tracker.Average(req.StudentID); ok {
		in.Mastery = avg
	}
	return in
}

// HintRequest asks for a hint on the student's current code.
type HintRequest struct {
	DecisionRequest
	Code    string `json:"code"`
	Problem string `json:"problem"`
}

// Hint is a delivered hint and the decision behind it.
type Hint struct {
	Text     string                `json:"hint"`
	Level    int                   `json:"hint_level"`
	Path     intervention.Path     `json:"path"`
	Tone     affect.Tone           `json:"tone"`
	Decision intervention.Decision `json:"decision"`
	Moment   teaching.Moment       `json:"teaching_moment"`
	// Fallback is set when the text is the teaching moment's question
	// because the text-generation service was unavailable.
	Fallback bool `json:"fallback"`
}

// Hint decides the hint level and path for the request and produces the
// hint text. A failing or absent text-generation service degrades to the
// teaching moment's question; the decision is unaffected.
func (s *Service) Hint(ctx context.Context, req HintRequest) (Hint, error) {
	d, err := s.DecideIntervention(ctx, req.DecisionRequest)
	if err != nil {
		return Hint{}, err
	}

	a := s.Analyze(ctx, req.Code)
	path := d.Path
	if path == "" {
		path = intervention.PathSocratic
	}
	level := teaching.ClampLevel(d.HintLevel)

	tone := affect.ToneNeutral
	if req.StudentID != "" && s.affect.Known(req.StudentID) {
		tone = s.affect.Assess(req.StudentID).Tone
	}

	res := s.generateHint(ctx, req, teaching.NewContext(a.Result, req.Code, req.Problem), path, level)
	h := Hint{
		Text:     res.Or(a.Moment.Question),
		Level:    level,
		Path:     path,
		Tone:     tone,
		Decision: d,
		Moment:   a.Moment,
		Fallback: !res.IsOk(),
	}
	h.Text = affect.AdjustTone(h.Text, tone)

	turn := intervention.Turn{
		Content:   h.Text,
		HintLevel: level,
		Focus:     a.Moment.FocusType,
	}
	if d.ShouldIntervene {
		s.engine.HintSent(req.SessionID, turn)
		if req.StudentID != "" {
			s.affect.RecordIntervention(req.StudentID)
		}
	} else {
		// Asked for before the engine would step in: kept as dialogue only.
		s.engine.Reply(req.SessionID, turn)
	}
	s.record("hint", func(repo store.EventRepo) error {
		return repo.AppendHintEvent(ctx, store.HintEventData{
			SessionID: req.SessionID,
			StudentID: req.StudentID,
			Concept:   a.Moment.Concept,
			FocusType: a.Moment.FocusType,
			HintLevel: level,
			Path:      string(path),
			Urgency:   d.Urgency,
			Reasons:   d.Reasons,
			HintText:  h.Text,
			Fallback:  h.Fallback,
		})
	})
	return h, nil
}

var errNoProvider = errors.New("no text-generation provider configured")

func (s *Service) generateHint(ctx context.Context, req HintRequest, tc teaching.Context, path intervention.Path, level int) llm.Result[string] {
	if s.provider == nil {
		metrics.RecordLLMFallback(llm.PurposeHint, "disabled")
		return llm.Fail[string](errNoProvider)
	}

	var msgs []llm.Message
	for _, m := range s.engine.Memory().History(req.SessionID, s.hintCfg.HistoryTurns) {
		msgs = append(msgs, llm.Message{Role: llm.Role(m.Role), Content: m.Content})
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: tc.Prompt(level)})

	res := llm.Call(func() (string, error) {
		resp, err := s.provider.Generate(llm.WithPurpose(ctx, llm.PurposeHint), llm.Request{
			System:      teaching.SystemPrompt(string(path), level),
			Messages:    msgs,
			MaxTokens:   s.hintCfg.MaxTokens,
			Temperature: teaching.Temperature(string(path)),
		})
		if err != nil {
			return "", err
		}
		text := resp.Text()
		if text == "" {
			return "", &llm.ErrInvalidResponse{Err: errors.New("empty hint")}
		}
		return text, nil
	})
	if !res.IsOk() {
		metrics.RecordLLMFallback(llm.PurposeHint, "error")
		s.log.Warn("hint generation failed, using teaching moment", "session_id", req.SessionID, "error", res.Err)
	}
	return res
}
