// Package exam is the terminal viva: one question at a time, typed
// answers, per-answer feedback and a final report.
package exam

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/sapiocode/sapio/internal/router"
	"github.com/sapiocode/sapio/internal/screen"
	"github.com/sapiocode/sapio/internal/screens/report"
	"github.com/sapiocode/sapio/internal/tutor"
	"github.com/sapiocode/sapio/internal/ui/components"
	"github.com/sapiocode/sapio/internal/ui/layout"
	"github.com/sapiocode/sapio/internal/viva"
)

const answerLimit = 500

type phase int

const (
	phaseLoading phase = iota
	phaseAsking
	phaseScoring
	phaseFeedback
	phaseGrading
	phaseFailed
)

// Screen runs one viva session against the tutor service.
type Screen struct {
	svc       *tutor.Service
	studentID string
	code      string
	n         int

	sess  viva.Session
	index int
	last  viva.Evaluation
	input components.AnswerInput
	phase phase
	asked time.Time
	err   error
	now   func() time.Time
}

var (
	_ screen.Screen          = (*Screen)(nil)
	_ screen.KeyHintProvider = (*Screen)(nil)
	_ screen.StatusProvider  = (*Screen)(nil)
)

func New(svc *tutor.Service, studentID, code string, n int) *Screen {
	return &Screen{
		svc:       svc,
		studentID: studentID,
		code:      code,
		n:         n,
		input:     components.NewAnswerInput("Explain in your own words...", answerLimit),
		now:       time.Now,
	}
}

func (s *Screen) Init() tea.Cmd {
	return tea.Batch(s.start(), s.input.Init())
}

func (s *Screen) Title() string { return "Viva" }

func (s *Screen) Status() string {
	if len(s.sess.Questions) == 0 {
		return ""
	}
	return fmt.Sprintf("Q %d/%d", min(s.index+1, len(s.sess.Questions)), len(s.sess.Questions))
}

func (s *Screen) KeyHints() []layout.KeyHint {
	switch s.phase {
	case phaseAsking:
		return []layout.KeyHint{{Key: "Enter", Description: "Submit answer"}, {Key: "Esc", Description: "Abandon"}}
	case phaseFeedback, phaseFailed:
		return []layout.KeyHint{{Key: "any key", Description: "Continue"}}
	default:
		return []layout.KeyHint{{Key: "Ctrl+C", Description: "Quit"}}
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case startedMsg:
		if msg.Err != nil {
			return s.fail(msg.Err)
		}
		s.sess = msg.Session
		return s.ask()

	case scoredMsg:
		if errors.Is(msg.Err, viva.ErrNoMoreQuestions) {
			return s.grade()
		}
		if msg.Err != nil {
			return s.fail(msg.Err)
		}
		s.last = msg.Eval
		s.index++
		s.phase = phaseFeedback
		return s, nil

	case verdictMsg:
		if msg.Err != nil {
			return s.fail(msg.Err)
		}
		rep := report.New(msg.Report)
		return s, func() tea.Msg { return router.ReplaceScreenMsg{Screen: rep} }

	case tea.KeyPressMsg:
		return s.handleKey(msg)
	}

	if s.phase == phaseAsking {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *Screen) handleKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	switch s.phase {
	case phaseAsking:
		if msg.String() == "enter" {
			answer := s.input.Value()
			if answer == "" {
				return s, nil
			}
			s.phase = phaseScoring
			return s, s.submit(answer, s.now().Sub(s.asked).Seconds())
		}
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd

	case phaseFeedback:
		if s.index < len(s.sess.Questions) {
			return s.ask()
		}
		return s.grade()

	case phaseFailed:
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	}
	return s, nil
}

func (s *Screen) ask() (screen.Screen, tea.Cmd) {
	s.phase = phaseAsking
	s.input.Reset()
	s.asked = s.now()
	return s, nil
}

func (s *Screen) grade() (screen.Screen, tea.Cmd) {
	s.phase = phaseGrading
	return s, s.verdict()
}

func (s *Screen) fail(err error) (screen.Screen, tea.Cmd) {
	s.phase = phaseFailed
	s.err = err
	return s, nil
}

func (s *Screen) start() tea.Cmd {
	return func() tea.Msg {
		sess, err := s.svc.StartViva(context.Background(), s.studentID, s.code, s.n)
		return startedMsg{Session: sess, Err: err}
	}
}

func (s *Screen) submit(answer string, seconds float64) tea.Cmd {
	id := s.sess.ID
	return func() tea.Msg {
		ev, err := s.svc.SubmitVivaAnswer(context.Background(), id, answer, seconds)
		return scoredMsg{Eval: ev, Err: err}
	}
}

func (s *Screen) verdict() tea.Cmd {
	id := s.sess.ID
	return func() tea.Msg {
		rep, err := s.svc.VivaVerdict(context.Background(), id)
		return verdictMsg{Report: rep, Err: err}
	}
}
