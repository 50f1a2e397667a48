package home

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/sapiocode/sapio/internal/mastery"
	"github.com/sapiocode/sapio/internal/router"
	"github.com/sapiocode/sapio/internal/screen"
	"github.com/sapiocode/sapio/internal/screens/concepts"
	"github.com/sapiocode/sapio/internal/screens/exam"
	"github.com/sapiocode/sapio/internal/tutor"
	"github.com/sapiocode/sapio/internal/ui/components"
	"github.com/sapiocode/sapio/internal/ui/layout"
	"github.com/sapiocode/sapio/internal/ui/theme"
)

// HomeScreen shows what the analyzer found in the submitted file and
// offers the exam.
type HomeScreen struct {
	svc       *tutor.Service
	studentID string
	filename  string
	analysis  tutor.Analysis
	menu      components.Menu
}

var _ screen.Screen = (*HomeScreen)(nil)

func New(svc *tutor.Service, studentID, filename, code string, questions int) *HomeScreen {
	h := &HomeScreen{
		svc:       svc,
		studentID: studentID,
		filename:  filename,
		analysis:  svc.Analyze(context.Background(), code),
	}

	canExam := h.analysis.IsValid && len(h.analysis.Functions) > 0
	examDetail := fmt.Sprintf("%d questions", questions)
	if !canExam {
		examDetail = "needs a file with at least one valid function"
	}

	h.menu = components.NewMenu([]components.MenuItem{
		{Label: "Start viva", Detail: examDetail, Disabled: !canExam, Action: func() tea.Cmd {
			return func() tea.Msg {
				return router.PushScreenMsg{Screen: exam.New(svc, studentID, code, questions)}
			}
		}},
		{Label: "Mastery", Detail: studentID, Action: func() tea.Cmd {
			return func() tea.Msg {
				sum, err := svc.MasterySummary(studentID)
				switch {
				case errors.Is(err, tutor.ErrStudentNotFound):
					sum = mastery.Summary{StudentID: studentID}
				case err != nil:
					return nil
				}
				return router.PushScreenMsg{Screen: concepts.New(sum)}
			}
		}},
		{Label: "Quit", Action: func() tea.Cmd { return tea.Quit }},
	})
	return h
}

func (h *HomeScreen) Init() tea.Cmd { return nil }

func (h *HomeScreen) Title() string { return h.filename }

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	cw := min(width-4, 76)
	a := h.analysis

	var b strings.Builder
	b.WriteString(theme.Title.Render("Analysis") + "\n\n")

	if !a.IsValid {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Error).Render("Syntax error") + "\n")
	} else {
		fmt.Fprintf(&b, "Pattern      %s\n", a.Pattern)
		fmt.Fprintf(&b, "Functions    %d\n", len(a.Functions))
		fmt.Fprintf(&b, "Complexity   %d\n", a.ComplexityScore)
		if len(a.Issues) > 0 {
			issues := make([]string, len(a.Issues))
			for i, is := range a.Issues {
				issues[i] = string(is)
			}
			fmt.Fprintf(&b, "Issues       %s\n", strings.Join(issues, ", "))
		}
	}

	if m := a.Moment; m.Headline != "" {
		b.WriteString("\n" + lipgloss.NewStyle().Foreground(theme.Accent).Bold(true).Render(m.Headline) + "\n")
		if m.Question != "" {
			b.WriteString(layout.Wrap(theme.Hint.Render(m.Question), cw) + "\n")
		}
	}

	b.WriteString("\n" + h.menu.View())

	card := theme.Card.Width(cw).Render(b.String())
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, card)
}
