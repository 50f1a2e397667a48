package concepts

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/sapiocode/sapio/internal/mastery"
)

func testSummary() mastery.Summary {
	return mastery.Summary{
		StudentID: "s1",
		Concepts: []mastery.ConceptSummary{
			{Concept: "recursion", Mastery: 0.85, Attempts: 4, Correct: 4, Mastered: true},
			{Concept: "loops", Mastery: 0.3, Attempts: 2},
		},
		AverageMastery:  0.575,
		MasteredCount:   1,
		TotalAttempts:   6,
		WeakestConcepts: []string{"loops"},
	}
}

func TestConceptsScreen_View(t *testing.T) {
	view := New(testSummary()).View(100, 30)
	for _, want := range []string{"recursion *", "loops", "1 mastered", "Weakest: loops"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestConceptsScreen_Empty(t *testing.T) {
	view := New(mastery.Summary{StudentID: "new"}).View(100, 30)
	if !strings.Contains(view, "No attempts") {
		t.Error("expected empty message")
	}
}

func TestConceptsScreen_ScrollBounds(t *testing.T) {
	s := New(testSummary())
	for range 5 {
		s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	}
	if s.offset != 1 {
		t.Errorf("offset = %d, want 1", s.offset)
	}
	for range 5 {
		s.Update(tea.KeyPressMsg{Code: tea.KeyUp})
	}
	if s.offset != 0 {
		t.Errorf("offset = %d, want 0", s.offset)
	}
}
