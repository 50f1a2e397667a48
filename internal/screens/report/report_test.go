package report

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/sapiocode/sapio/internal/router"
	"github.com/sapiocode/sapio/internal/viva"
)

func testReport() viva.Report {
	return viva.Report{
		SessionID:      "abc",
		StudentID:      "s1",
		Verdict:        viva.VerdictWeak,
		Message:        "Partial understanding; review the highlighted concepts",
		AverageScore:   0.55,
		Answered:       3,
		TotalQuestions: 3,
		Breakdown: []viva.QuestionScore{
			{QuestionID: "q1", Score: 0.9},
			{QuestionID: "q2", Score: 0.5},
			{QuestionID: "q3", Score: 0.25},
		},
		ImprovementAreas: []string{"Review: base case"},
	}
}

func TestReportScreen_View(t *testing.T) {
	view := New(testReport()).View(100, 30)
	for _, want := range []string{"WEAK", "Q3", "Review: base case", "3 of 3"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestReportScreen_EnterPops(t *testing.T) {
	s := New(testReport())
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a command on Enter")
	}
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Error("expected PopScreenMsg")
	}
}

func TestVerdictColor(t *testing.T) {
	if verdictColor(viva.VerdictPass) == verdictColor(viva.VerdictFail) {
		t.Error("pass and fail share a colour")
	}
}
