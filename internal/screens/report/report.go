// Package report shows the verdict of a finished viva.
package report

import (
	"fmt"
	"image/color"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/sapiocode/sapio/internal/router"
	"github.com/sapiocode/sapio/internal/screen"
	"github.com/sapiocode/sapio/internal/ui/components"
	"github.com/sapiocode/sapio/internal/ui/layout"
	"github.com/sapiocode/sapio/internal/ui/theme"
	"github.com/sapiocode/sapio/internal/viva"
)

type ReportScreen struct {
	report viva.Report
}

var (
	_ screen.Screen          = (*ReportScreen)(nil)
	_ screen.KeyHintProvider = (*ReportScreen)(nil)
)

func New(r viva.Report) *ReportScreen {
	return &ReportScreen{report: r}
}

func (s *ReportScreen) Init() tea.Cmd { return nil }

func (s *ReportScreen) Title() string { return "Viva Report" }

func (s *ReportScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{{Key: "Enter", Description: "Done"}}
}

func (s *ReportScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if k, ok := msg.(tea.KeyPressMsg); ok {
		switch k.String() {
		case "enter", "esc", "q":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
	}
	return s, nil
}

func (s *ReportScreen) View(width, height int) string {
	r := s.report
	cw := min(width-4, 80)

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(verdictColor(r.Verdict)).
		Render(strings.ToUpper(string(r.Verdict))))
	b.WriteString("\n")
	b.WriteString(layout.Wrap(theme.Body.Render(r.Message), cw))
	b.WriteString("\n\n")
	b.WriteString(components.ProgressBar{Label: "Average", LabelWidth: 10, Value: r.AverageScore, Width: cw}.View())
	b.WriteString("\n")
	b.WriteString(theme.Hint.Render(fmt.Sprintf("%d of %d questions answered", r.Answered, r.TotalQuestions)))
	b.WriteString("\n\n")

	for i, q := range r.Breakdown {
		b.WriteString(components.ProgressBar{
			Label:      fmt.Sprintf("Q%d", i+1),
			LabelWidth: 10,
			Value:      q.Score,
			Width:      cw,
		}.View())
		b.WriteString("\n")
	}

	if len(r.ImprovementAreas) > 0 {
		b.WriteString("\n" + theme.Title.Render("To review") + "\n")
		for _, area := range r.ImprovementAreas {
			b.WriteString("  " + area + "\n")
		}
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, b.String())
}

func verdictColor(v viva.Verdict) color.Color {
	switch v {
	case viva.VerdictPass:
		return theme.Success
	case viva.VerdictWeak:
		return theme.Warning
	case viva.VerdictFail:
		return theme.Error
	default:
		return theme.TextDim
	}
}
