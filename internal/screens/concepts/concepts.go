// Package concepts lists a student's concept mastery.
package concepts

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/sapiocode/sapio/internal/mastery"
	"github.com/sapiocode/sapio/internal/router"
	"github.com/sapiocode/sapio/internal/screen"
	"github.com/sapiocode/sapio/internal/ui/components"
	"github.com/sapiocode/sapio/internal/ui/layout"
	"github.com/sapiocode/sapio/internal/ui/theme"
)

type ConceptsScreen struct {
	summary mastery.Summary
	offset  int
}

var (
	_ screen.Screen          = (*ConceptsScreen)(nil)
	_ screen.KeyHintProvider = (*ConceptsScreen)(nil)
)

func New(sum mastery.Summary) *ConceptsScreen {
	return &ConceptsScreen{summary: sum}
}

func (s *ConceptsScreen) Init() tea.Cmd { return nil }

func (s *ConceptsScreen) Title() string { return "Mastery" }

func (s *ConceptsScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{{Key: "↑↓", Description: "Scroll"}, {Key: "Esc", Description: "Back"}}
}

func (s *ConceptsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	k, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return s, nil
	}
	switch k.String() {
	case "up", "k":
		s.offset = max(s.offset-1, 0)
	case "down", "j":
		s.offset = min(s.offset+1, max(len(s.summary.Concepts)-1, 0))
	case "enter", "q":
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	}
	return s, nil
}

func (s *ConceptsScreen) View(width, height int) string {
	sum := s.summary
	cw := min(width-4, 76)

	var b strings.Builder
	b.WriteString(theme.Title.Render(sum.StudentID) + "\n")
	b.WriteString(theme.Hint.Render(fmt.Sprintf("%d concepts, %d mastered, %d attempts",
		len(sum.Concepts), sum.MasteredCount, sum.TotalAttempts)) + "\n\n")

	if len(sum.Concepts) == 0 {
		b.WriteString(theme.Body.Render("No attempts recorded yet."))
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, b.String())
	}

	b.WriteString(components.ProgressBar{Label: "average", LabelWidth: 22, Value: sum.AverageMastery, Width: cw}.View())
	b.WriteString("\n\n")

	// Header plus footer lines above leave this many rows for concepts.
	rows := max(height-8, 1)
	end := min(s.offset+rows, len(sum.Concepts))
	for _, c := range sum.Concepts[s.offset:end] {
		label := c.Concept
		if c.Mastered {
			label += " *"
		}
		b.WriteString(components.ProgressBar{Label: label, LabelWidth: 22, Value: c.Mastery, Width: cw}.View())
		b.WriteString("\n")
	}
	if len(sum.WeakestConcepts) > 0 {
		b.WriteString("\n" + theme.Hint.Render("Weakest: "+strings.Join(sum.WeakestConcepts, ", ")))
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, b.String())
}
