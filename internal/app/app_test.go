package app

import (
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/sapiocode/sapio/internal/router"
	"github.com/sapiocode/sapio/internal/screen"
)

type stubScreen struct{ title string }

func (s *stubScreen) Init() tea.Cmd                          { return nil }
func (s *stubScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return s, nil }
func (s *stubScreen) View(int, int) string                   { return s.title }
func (s *stubScreen) Title() string                          { return s.title }
func (s *stubScreen) Status() string                         { return "Q 1/3" }

func TestModel_EscPopsOnlyAboveRoot(t *testing.T) {
	m := NewModel(&stubScreen{title: "home"})

	_, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if cmd != nil {
		t.Error("esc on the root screen should do nothing")
	}

	m.router.Push(&stubScreen{title: "viva"})
	_, cmd = m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if cmd == nil {
		t.Fatal("expected a pop command")
	}
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Error("expected PopScreenMsg")
	}
}

func TestModel_ViewAfterResize(t *testing.T) {
	m := NewModel(&stubScreen{title: "home"})

	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	nm := next.(Model)
	if nm.width != 100 || nm.height != 30 {
		t.Fatalf("size = %dx%d", nm.width, nm.height)
	}
	if !nm.View().AltScreen {
		t.Error("expected alt screen")
	}
}

func TestModel_Hints(t *testing.T) {
	m := NewModel(&stubScreen{title: "home"})
	if got := m.hints(m.router.Active()); len(got) != 3 {
		t.Errorf("root hints = %v", got)
	}
	m.router.Push(&stubScreen{title: "viva"})
	if got := m.hints(m.router.Active()); len(got) != 2 || got[0].Key != "Esc" {
		t.Errorf("nested hints = %v", got)
	}
}
