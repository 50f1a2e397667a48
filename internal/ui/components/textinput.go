package components

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/sapiocode/sapio/internal/ui/theme"
)

// AnswerInput is a single-line free-text input with a character counter.
type AnswerInput struct {
	Model textinput.Model
	Limit int
}

func NewAnswerInput(placeholder string, limit int) AnswerInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "> "
	if limit > 0 {
		ti.CharLimit = limit
	}
	ti.Focus()
	return AnswerInput{Model: ti, Limit: limit}
}

func (a AnswerInput) Init() tea.Cmd {
	return a.Model.Focus()
}

func (a AnswerInput) Update(msg tea.Msg) (AnswerInput, tea.Cmd) {
	var cmd tea.Cmd
	a.Model, cmd = a.Model.Update(msg)
	return a, cmd
}

func (a AnswerInput) View() string {
	v := a.Model.View()
	if a.Limit > 0 {
		v += "  " + theme.Hint.Render(fmt.Sprintf("%d/%d", len([]rune(a.Model.Value())), a.Limit))
	}
	return v
}

// Value returns the trimmed input.
func (a AnswerInput) Value() string {
	return strings.TrimSpace(a.Model.Value())
}

func (a *AnswerInput) Reset() {
	a.Model.Reset()
}
