package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/sapiocode/sapio/internal/ui/theme"
)

// ProgressBar draws a labelled horizontal bar for a value in [0,1]. The
// fill is coloured by theme.ScoreColor.
type ProgressBar struct {
	Label      string
	LabelWidth int
	Value      float64
	Width      int
}

func (p ProgressBar) View() string {
	label := ""
	if p.Label != "" {
		label = lipgloss.NewStyle().Foreground(theme.Text).Width(p.LabelWidth).Render(p.Label) + "  "
	}
	const pctWidth = 6
	bar := max(p.Width-lipgloss.Width(label)-pctWidth, 4)

	v := min(max(p.Value, 0), 1)
	filled := int(float64(bar) * v)

	return label +
		lipgloss.NewStyle().Background(theme.ScoreColor(v)).Render(strings.Repeat(" ", filled)) +
		lipgloss.NewStyle().Background(theme.Border).Render(strings.Repeat(" ", bar-filled)) +
		lipgloss.NewStyle().Foreground(theme.TextDim).Render(fmt.Sprintf("  %3d%%", int(v*100+0.5)))
}
