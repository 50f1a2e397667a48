package mastery

import (
	"errors"
	"fmt"

	"golang.org/x/mod/semver"

	"github.com/sapiocode/sapio/internal/affect"
	"github.com/sapiocode/sapio/internal/store"
)

// SnapshotFormat is the semantic version of the snapshot layout written by
// Snapshot. Restore accepts any layout with the same major version.
const SnapshotFormat = "v1.1.0"

// ErrIncompatibleSnapshot is returned when a snapshot was written by an
// incompatible layout.
var ErrIncompatibleSnapshot = errors.New("incompatible mastery snapshot")

// Snapshot exports every student's concepts.
func (t *Tracker) Snapshot() *store.MasterySnapshotData {
	data := &store.MasterySnapshotData{
		Format:   SnapshotFormat,
		Students: make(map[string][]store.ConceptMasteryData),
	}
	for _, id := range t.Students() {
		all := t.All(id)
		rows := make([]store.ConceptMasteryData, len(all))
		for i, cm := range all {
			rows[i] = store.ConceptMasteryData{
				Concept:   cm.Concept,
				Mastery:   cm.Mastery,
				Learn:     cm.Params.Learn,
				Slip:      cm.Params.Slip,
				Guess:     cm.Params.Guess,
				Attempts:  cm.Attempts,
				Correct:   cm.Correct,
				UpdatedAt: cm.UpdatedAt,
			}
		}
		data.Students[id] = rows
	}
	return data
}

// Restore loads a snapshot into the tracker, replacing any students it
// names. Snapshots without a format tag predate versioning and are read as
// v1.0.0.
func (t *Tracker) Restore(data *store.MasterySnapshotData) error {
	if data == nil {
		return nil
	}
	format := data.Format
	if format == "" {
		format = "v1.0.0"
	}
	if !semver.IsValid(format) {
		return fmt.Errorf("%w: invalid format %q", ErrIncompatibleSnapshot, data.Format)
	}
	if semver.Major(format) != semver.Major(SnapshotFormat) {
		return fmt.Errorf("%w: format %s, want %s.x", ErrIncompatibleSnapshot, format, semver.Major(SnapshotFormat))
	}

	for id, rows := range data.Students {
		s := &student{concepts: make(map[string]*ConceptMastery, len(rows))}
		for _, r := range rows {
			params := Params{Learn: r.Learn, Slip: r.Slip, Guess: r.Guess}
			// v1.0.0 snapshots carried no parameters.
			if params == (Params{}) {
				params = t.cfg.Params
			}
			if _, dup := s.concepts[r.Concept]; dup {
				continue
			}
			s.concepts[r.Concept] = &ConceptMastery{
				Concept:   r.Concept,
				Mastery:   affect.Clamp01(r.Mastery),
				Params:    params,
				Attempts:  r.Attempts,
				Correct:   r.Correct,
				UpdatedAt: r.UpdatedAt,
			}
			s.order = append(s.order, r.Concept)
		}
		t.mu.Lock()
		t.students[id] = s
		t.mu.Unlock()
	}
	return nil
}
