package mastery

import "github.com/sapiocode/sapio/internal/affect"

// Params are the Bayesian Knowledge Tracing parameters of one concept.
type Params struct {
	Learn float64 `json:"p_T" yaml:"learn"` // probability of learning on an attempt
	Slip  float64 `json:"p_S" yaml:"slip"`  // probability of a wrong answer despite mastery
	Guess float64 `json:"p_G" yaml:"guess"` // probability of a right answer without mastery
}

// DefaultParams are used for concepts without calibrated parameters.
func DefaultParams() Params {
	return Params{Learn: 0.1, Slip: 0.1, Guess: 0.2}
}

const (
	minParam = 0.01
	maxParam = 0.9
)

// Update applies one BKT observation to prior and returns the new mastery.
// A zero evidence denominator leaves the posterior at the prior.
func Update(prior float64, correct bool, p Params) float64 {
	prior = affect.Clamp01(prior)

	var num, den float64
	if correct {
		num = prior * (1 - p.Slip)
		den = num + (1-prior)*p.Guess
	} else {
		num = prior * p.Slip
		den = num + (1-prior)*(1-p.Guess)
	}

	posterior := prior
	if den != 0 {
		posterior = num / den
	}
	return affect.Clamp01(posterior + (1-posterior)*p.Learn)
}

// Modulate adjusts base parameters for the learner's affect. The order of
// the multiplications is fixed so results are reproducible.
func Modulate(base Params, s affect.CognitiveState) Params {
	s = s.Clamp()
	learn, slip, guess := base.Learn, base.Slip, base.Guess

	learn *= 1 + s.Engagement*0.5
	learn *= 1 - s.Frustration*0.6
	slip *= 1 + s.Confusion*0.7
	guess *= 1 + s.Boredom*0.5
	learn *= 1 - s.Boredom*0.4

	return Params{
		Learn: clampParam(learn),
		Slip:  clampParam(slip),
		Guess: clampParam(guess),
	}
}

func clampParam(v float64) float64 {
	if v < minParam {
		return minParam
	}
	if v > maxParam {
		return maxParam
	}
	return v
}
