package exam

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/sapiocode/sapio/internal/ui/components"
	"github.com/sapiocode/sapio/internal/ui/layout"
	"github.com/sapiocode/sapio/internal/ui/theme"
)

func (s *Screen) View(width, height int) string {
	cw := min(width-4, 80)

	var body string
	switch s.phase {
	case phaseLoading:
		body = theme.Hint.Render("Reading your code and preparing questions...")
	case phaseScoring:
		body = theme.Hint.Render("Scoring your answer...")
	case phaseGrading:
		body = theme.Hint.Render("Working out the verdict...")
	case phaseFailed:
		body = lipgloss.NewStyle().Foreground(theme.Error).Render("Something went wrong") +
			"\n\n" + layout.Wrap(s.err.Error(), cw)
	case phaseAsking:
		body = s.renderQuestion(cw)
	case phaseFeedback:
		body = s.renderFeedback(cw)
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, body)
}

func (s *Screen) renderQuestion(width int) string {
	q := s.sess.Questions[s.index]

	var b strings.Builder
	b.WriteString(theme.Title.Render(fmt.Sprintf("Question %d", s.index+1)))
	b.WriteString("  " + theme.Hint.Render(fmt.Sprintf("%s, difficulty %d", q.Type, q.Difficulty)))
	b.WriteString("\n\n")
	b.WriteString(layout.Wrap(theme.Body.Render(q.Text), width))
	b.WriteString("\n\n")
	if q.TargetCode != "" {
		b.WriteString(theme.Code.Render(firstLines(q.TargetCode, 6)))
		b.WriteString("\n\n")
	}
	b.WriteString(s.input.View())
	return b.String()
}

func (s *Screen) renderFeedback(width int) string {
	ev := s.last

	var b strings.Builder
	verdict := lipgloss.NewStyle().Bold(true).Foreground(theme.ScoreColor(ev.Score))
	if ev.Acceptable {
		b.WriteString(verdict.Render("Good answer"))
	} else {
		b.WriteString(verdict.Render("Not quite"))
	}
	b.WriteString("\n\n")
	b.WriteString(components.ProgressBar{Label: "Score", LabelWidth: 8, Value: ev.Score, Width: width}.View())
	b.WriteString("\n\n")
	if ev.Feedback != "" {
		b.WriteString(layout.Wrap(theme.Body.Render(ev.Feedback), width) + "\n\n")
	}
	if len(ev.Matched) > 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Success).Render("Covered: ") + strings.Join(ev.Matched, ", ") + "\n")
	}
	if len(ev.Missing) > 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Warning).Render("Missing: ") + strings.Join(ev.Missing, ", ") + "\n")
	}
	return b.String()
}

func firstLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = append(lines[:n], "...")
	}
	return strings.Join(lines, "\n")
}
