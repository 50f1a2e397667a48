package exam

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/sapiocode/sapio/internal/intervention"
	"github.com/sapiocode/sapio/internal/mastery"
	"github.com/sapiocode/sapio/internal/router"
	"github.com/sapiocode/sapio/internal/screens/report"
	"github.com/sapiocode/sapio/internal/tutor"
	"github.com/sapiocode/sapio/internal/viva"
)

const factorial = `def factorial(n):
    if n <= 1:
        return 1
    return n * factorial(n - 1)
`

func newTestScreen(t *testing.T) *Screen {
	t.Helper()
	svc, err := tutor.New(context.Background(), tutor.Options{
		Mastery:      mastery.DefaultConfig(),
		Intervention: intervention.DefaultConfig(),
		Viva:         viva.DefaultConfig(),
	})
	if err != nil {
		t.Fatalf("tutor.New: %v", err)
	}
	t.Cleanup(func() { svc.Close(context.Background()) })

	s := New(svc, "s1", factorial, 2)
	clock := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(5 * time.Second)
		return clock
	}
	return s
}

// run executes cmd and feeds its message back into the screen.
func run(t *testing.T, s *Screen, cmd tea.Cmd) tea.Cmd {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	_, next := s.Update(cmd())
	return next
}

func typeAnswer(s *Screen, text string) {
	for _, r := range text {
		s.Update(tea.KeyPressMsg{Code: r, Text: string(r)})
	}
}

func TestExam_FullRun(t *testing.T) {
	s := newTestScreen(t)

	if s.phase != phaseLoading {
		t.Fatalf("phase = %v, want loading", s.phase)
	}
	run(t, s, s.start())
	if s.phase != phaseAsking {
		t.Fatalf("phase = %v, want asking", s.phase)
	}
	if s.Status() != "Q 1/2" {
		t.Errorf("Status = %q", s.Status())
	}
	if !strings.Contains(s.View(100, 30), "Question 1") {
		t.Error("question view missing heading")
	}

	for i := range 2 {
		typeAnswer(s, "it calls itself until the base case where n is one")
		_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
		if s.phase != phaseScoring {
			t.Fatalf("answer %d: phase = %v, want scoring", i, s.phase)
		}
		run(t, s, cmd)
		if s.phase != phaseFeedback {
			t.Fatalf("answer %d: phase = %v, want feedback", i, s.phase)
		}
		if s.View(100, 30) == "" {
			t.Error("empty feedback view")
		}

		_, cmd = s.Update(tea.KeyPressMsg{Code: 'x', Text: "x"})
		if i == 0 {
			if s.phase != phaseAsking || s.input.Value() != "" {
				t.Fatalf("expected a fresh question, phase = %v input = %q", s.phase, s.input.Value())
			}
			continue
		}
		if s.phase != phaseGrading {
			t.Fatalf("phase = %v, want grading", s.phase)
		}
		_, cmd = s.Update(cmd())
		msg := cmd()
		rm, ok := msg.(router.ReplaceScreenMsg)
		if !ok {
			t.Fatalf("expected ReplaceScreenMsg, got %T", msg)
		}
		if _, ok := rm.Screen.(*report.ReportScreen); !ok {
			t.Errorf("replacement is %T, want report", rm.Screen)
		}
	}

	sess, err := s.svc.Viva().Session(s.sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(sess.Answers) != 2 {
		t.Fatalf("answers = %d, want 2", len(sess.Answers))
	}
	if sess.Answers[0].DurationSeconds != 5 {
		t.Errorf("duration = %v, want 5", sess.Answers[0].DurationSeconds)
	}
}

func TestExam_EmptyAnswerIgnored(t *testing.T) {
	s := newTestScreen(t)
	run(t, s, s.start())

	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd != nil || s.phase != phaseAsking {
		t.Errorf("blank answer submitted, phase = %v", s.phase)
	}
}

func TestExam_StartFailure(t *testing.T) {
	s := newTestScreen(t)
	s.studentID = ""

	run(t, s, s.start())
	if s.phase != phaseFailed {
		t.Fatalf("phase = %v, want failed", s.phase)
	}
	if !strings.Contains(s.View(100, 30), "went wrong") {
		t.Error("error view missing")
	}

	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Error("expected pop after failure")
	}
}

func TestExam_KeyHints(t *testing.T) {
	s := newTestScreen(t)
	if len(s.KeyHints()) != 1 {
		t.Errorf("loading hints = %v", s.KeyHints())
	}
	run(t, s, s.start())
	if len(s.KeyHints()) != 2 {
		t.Errorf("asking hints = %v", s.KeyHints())
	}
}
