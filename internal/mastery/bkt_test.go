package mastery

import (
	"math"
	"strings"
	"testing"

	"github.com/sapiocode/sapio/internal/affect"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestUpdate_KnownValues(t *testing.T) {
	p := DefaultParams()
	if got := Update(0.3, true, p); !almostEqual(got, 0.692683) {
		t.Errorf("correct: got %f, want 0.692683", got)
	}
	if got := Update(0.3, false, p); !almostEqual(got, 0.145763) {
		t.Errorf("incorrect: got %f, want 0.145763", got)
	}
}

func TestUpdate_ZeroDenominator(t *testing.T) {
	p := Params{Learn: 0.1, Slip: 0.1, Guess: 0}
	got := Update(0, true, p)
	if math.IsNaN(got) {
		t.Fatal("got NaN")
	}
	if !almostEqual(got, 0.1) {
		t.Errorf("got %f, want prior plus learn = 0.1", got)
	}
}

func TestUpdate_StaysInUnitInterval(t *testing.T) {
	paramGrid := []float64{0.01, 0.1, 0.3, 0.5, 0.7, 0.9, 0.99}
	for prior := 0.0; prior <= 1.0; prior += 0.05 {
		for _, learn := range paramGrid {
			for _, slip := range paramGrid {
				for _, guess := range paramGrid {
					p := Params{Learn: learn, Slip: slip, Guess: guess}
					for _, correct := range []bool{true, false} {
						got := Update(prior, correct, p)
						if got < 0 || got > 1 || math.IsNaN(got) {
							t.Fatalf("Update(%f, %v, %+v) = %f", prior, correct, p, got)
						}
					}
				}
			}
		}
	}
}

func TestUpdate_CorrectNeverBelowIncorrect(t *testing.T) {
	paramGrid := []float64{0.05, 0.2, 0.4}
	for prior := 0.05; prior < 1.0; prior += 0.05 {
		for _, slip := range paramGrid {
			for _, guess := range paramGrid {
				p := Params{Learn: 0.1, Slip: slip, Guess: guess}
				right, wrong := Update(prior, true, p), Update(prior, false, p)
				if right < wrong {
					t.Errorf("prior %f %+v: correct %f < incorrect %f", prior, p, right, wrong)
				}
			}
		}
	}
}

func TestModulate_ExactSequence(t *testing.T) {
	got := Modulate(DefaultParams(), affect.CognitiveState{Engagement: 1, Frustration: 0.5, Confusion: 1, Boredom: 1})
	// learn: 0.1 * 1.5 * 0.7 * 0.6
	if !almostEqual(got.Learn, 0.063) {
		t.Errorf("learn = %f, want 0.063", got.Learn)
	}
	if !almostEqual(got.Slip, 0.17) {
		t.Errorf("slip = %f, want 0.17", got.Slip)
	}
	if !almostEqual(got.Guess, 0.3) {
		t.Errorf("guess = %f, want 0.3", got.Guess)
	}
}

func TestModulate_FrustrationLowersLearn(t *testing.T) {
	base := DefaultParams()
	calm := Modulate(base, affect.CognitiveState{})
	for _, f := range []float64{0.2, 0.5, 0.9} {
		got := Modulate(base, affect.CognitiveState{Frustration: f})
		if got.Learn >= calm.Learn {
			t.Errorf("frustration %f: learn %f not below baseline %f", f, got.Learn, calm.Learn)
		}
	}
}

func TestModulate_ConfusionRaisesSlip(t *testing.T) {
	base := DefaultParams()
	calm := Modulate(base, affect.CognitiveState{})
	got := Modulate(base, affect.CognitiveState{Confusion: 0.5})
	if got.Slip <= calm.Slip {
		t.Errorf("slip %f not above baseline %f", got.Slip, calm.Slip)
	}
}

func TestModulate_Clamped(t *testing.T) {
	got := Modulate(Params{Learn: 0.9, Slip: 0.9, Guess: 0.9}, affect.CognitiveState{Engagement: 1, Confusion: 1, Boredom: 1})
	if got.Slip != maxParam || got.Guess != maxParam {
		t.Errorf("got %+v, want slip and guess clamped to %f", got, maxParam)
	}
	got = Modulate(Params{Learn: 0.02, Slip: 0.1, Guess: 0.2}, affect.CognitiveState{Frustration: 1, Boredom: 1})
	if got.Learn != minParam {
		t.Errorf("learn = %f, want clamped to %f", got.Learn, minParam)
	}
}

func TestExplain(t *testing.T) {
	tests := []struct {
		name string
		old, new float64
		state *affect.CognitiveState
		want  []string
	}{
		{"significant", 0.3, 0.5, nil, []string{"improved significantly"}},
		{"gradual", 0.3, 0.32, nil, []string{"improved gradually"}},
		{"none", 0.3, 0.2, nil, []string{"No mastery improvement"}},
		{"affect notes", 0.3, 0.3, &affect.CognitiveState{Frustration: 0.6, Engagement: 0.6, Confusion: 0.5, Boredom: 0.6},
			[]string{"high frustration", "strong engagement", "confusion", "boredom"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Explain(tt.old, tt.new, tt.state)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("explanation %q missing %q", got, w)
				}
			}
		})
	}
}
