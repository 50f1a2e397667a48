package intervention

import (
	"github.com/sapiocode/sapio/internal/affect"
	"github.com/sapiocode/sapio/internal/teaching"
)

// Reason tags attached to a decision.
const (
	ReasonStuckTooLong    = "stuck_too_long"
	ReasonHighFrustration = "high_frustration"
	ReasonFailedAttempts  = "multiple_failed_attempts"
	ReasonModerate        = "moderate_struggle"
)

// Config holds the decision thresholds.
type Config struct {
	MinStuckSeconds       float64 `yaml:"min_stuck_seconds"`
	MaxStuckSeconds       float64 `yaml:"max_stuck_seconds"`
	FrustrationThreshold  float64 `yaml:"frustration_threshold"`
	DirectHintSeconds     float64 `yaml:"direct_hint_seconds"`
	DirectHintFrustration float64 `yaml:"direct_hint_frustration"`
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		MinStuckSeconds:       30,
		MaxStuckSeconds:       180,
		FrustrationThreshold:  0.6,
		DirectHintSeconds:     240,
		DirectHintFrustration: 0.8,
	}
}

// Signals are the behavioral inputs to a decision.
type Signals struct {
	TimeStuck     float64 `json:"time_stuck"` // seconds
	Frustration   float64 `json:"frustration"`
	PreviousHints int     `json:"previous_hints"`
	CodeAttempts  int     `json:"code_attempts"`
}

// Decision is the verdict of one decide call.
type Decision struct {
	ShouldIntervene bool     `json:"should_intervene"`
	Reasons         []string `json:"reason"`
	HintLevel       int      `json:"hint_level"`
	Urgency         float64  `json:"urgency"`
	Path            Path     `json:"path,omitempty"`
}

// Decide applies the trigger rules to s. It never intervenes before
// MinStuckSeconds, whatever the other signals say.
func Decide(cfg Config, s Signals) Decision {
	s.Frustration = affect.Clamp01(s.Frustration)
	if s.TimeStuck < cfg.MinStuckSeconds {
		return Decision{Reasons: []string{}, HintLevel: teaching.LevelQuestion}
	}

	reasons := []string{}
	if s.TimeStuck > cfg.MaxStuckSeconds {
		reasons = append(reasons, ReasonStuckTooLong)
	}
	if s.Frustration > cfg.FrustrationThreshold {
		reasons = append(reasons, ReasonHighFrustration)
	}
	if s.CodeAttempts > 5 && s.TimeStuck > 60 {
		reasons = append(reasons, ReasonFailedAttempts)
	}
	if s.TimeStuck > 60 && s.Frustration > 0.4 {
		reasons = append(reasons, ReasonModerate)
	}

	return Decision{
		ShouldIntervene: len(reasons) > 0,
		Reasons:         reasons,
		HintLevel:       escalation(cfg, s),
		Urgency:         urgency(cfg, s),
	}
}

func urgency(cfg Config, s Signals) float64 {
	timeFactor := 1.0
	if cfg.MaxStuckSeconds > 0 {
		timeFactor = min(s.TimeStuck/cfg.MaxStuckSeconds, 1)
	}
	attemptFactor := min(float64(s.CodeAttempts)/10, 1)
	return affect.Clamp01(0.4*timeFactor + 0.4*s.Frustration + 0.2*attemptFactor)
}

// escalation picks the hint level from history alone. The first hint is
// always a question.
func escalation(cfg Config, s Signals) int {
	switch {
	case s.PreviousHints == 0:
		return teaching.LevelQuestion
	case s.Frustration > cfg.DirectHintFrustration || s.TimeStuck > cfg.DirectHintSeconds:
		return teaching.LevelDirect
	case s.Frustration > cfg.FrustrationThreshold || s.PreviousHints >= 2:
		return teaching.LevelPseudoCode
	default:
		return teaching.LevelNudge
	}
}
