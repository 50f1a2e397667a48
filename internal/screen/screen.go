package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/sapiocode/sapio/internal/ui/layout"
)

// Screen is one page of the terminal exam.
type Screen interface {
	Init() tea.Cmd

	// Update handles a message and returns the screen to keep on the stack.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the content area between header and footer.
	View(width, height int) string

	// Title is shown in the header.
	Title() string
}

// KeyHintProvider is implemented by screens with their own footer hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// StatusProvider is implemented by screens that show a status on the
// right side of the header, e.g. exam progress.
type StatusProvider interface {
	Status() string
}
