package home

import (
	"context"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/sapiocode/sapio/internal/intervention"
	"github.com/sapiocode/sapio/internal/mastery"
	"github.com/sapiocode/sapio/internal/router"
	"github.com/sapiocode/sapio/internal/screens/concepts"
	"github.com/sapiocode/sapio/internal/screens/exam"
	"github.com/sapiocode/sapio/internal/tutor"
	"github.com/sapiocode/sapio/internal/viva"
)

func newService(t *testing.T) *tutor.Service {
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
	return svc
}

func TestHome_ValidFile(t *testing.T) {
	h := New(newService(t), "s1", "sum.py", "def total(xs):\n    s = 0\n    for x in xs:\n        s += x\n    return s\n", 3)

	if h.Title() != "sum.py" {
		t.Errorf("Title = %q", h.Title())
	}
	view := h.View(100, 30)
	for _, want := range []string{"Pattern", "Functions    1", "Start viva"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	_, cmd := h.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a command on Enter")
	}
	push, ok := cmd().(router.PushScreenMsg)
	if !ok {
		t.Fatal("expected PushScreenMsg")
	}
	if _, ok := push.Screen.(*exam.Screen); !ok {
		t.Errorf("pushed %T, want exam", push.Screen)
	}
}

func TestHome_SyntaxErrorDisablesExam(t *testing.T) {
	h := New(newService(t), "s1", "bad.py", "def broken(:\n", 3)

	if !strings.Contains(h.View(100, 30), "Syntax error") {
		t.Error("expected syntax error notice")
	}
	if h.menu.Selected != 1 {
		t.Errorf("selected = %d, want the mastery entry", h.menu.Selected)
	}
}

func TestHome_MasteryForNewStudent(t *testing.T) {
	h := New(newService(t), "newcomer", "bad.py", "def broken(:\n", 3)

	_, cmd := h.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a command on Enter")
	}
	push, ok := cmd().(router.PushScreenMsg)
	if !ok {
		t.Fatal("student without history should still open the mastery screen")
	}
	if _, ok := push.Screen.(*concepts.ConceptsScreen); !ok {
		t.Errorf("pushed %T, want concepts", push.Screen)
	}
}
