package graph

import (
	"context"
	"testing"
	"time"

	"github.com/sapiocode/sapio/internal/mastery"
)

func TestNewWithoutURIIsNop(t *testing.T) {
	s, err := New(context.Background(), Config{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := s.(Nop); !ok {
		t.Fatalf("got %T, want Nop", s)
	}
	if err := s.SyncMastery(context.Background(), "s1", []mastery.ConceptMastery{{Concept: "loops"}}); err != nil {
		t.Errorf("Nop.SyncMastery: %v", err)
	}
}

func TestMasteryParams(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	concepts := []mastery.ConceptMastery{
		{Concept: "recursion", Mastery: 0.42, Attempts: 3, Correct: 1,
			Params: mastery.Params{Learn: 0.1, Slip: 0.1, Guess: 0.2}, UpdatedAt: now},
		{Concept: ""},
		{Concept: "loops", Mastery: 0.3},
	}

	p := masteryParams("s1", concepts, now)

	if p["student_id"] != "s1" {
		t.Errorf("student_id = %v", p["student_id"])
	}
	if p["synced_at"] != "2026-03-01T12:00:00Z" {
		t.Errorf("synced_at = %v", p["synced_at"])
	}
	rows := p["rows"].([]map[string]any)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2 (blank concept skipped)", len(rows))
	}
	if rows[0]["attempts"] != int64(3) || rows[0]["learn"] != 0.1 {
		t.Errorf("row 0 = %v", rows[0])
	}
	if rows[0]["updated_at"] != "2026-03-01T12:00:00Z" {
		t.Errorf("updated_at = %v", rows[0]["updated_at"])
	}
	if rows[1]["updated_at"] != "" {
		t.Errorf("zero time should be empty, got %v", rows[1]["updated_at"])
	}
}
