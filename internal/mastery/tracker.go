// Package mastery tracks per-student, per-concept mastery with Bayesian
// Knowledge Tracing whose parameters adapt to the learner's affect.
package mastery

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/sapiocode/sapio/internal/affect"
)

// ConceptMastery is the tracked state of one concept for one student.
type ConceptMastery struct {
	Concept   string    `json:"concept"`
	Mastery   float64   `json:"mastery"`
	Params    Params    `json:"params"`
	Attempts  int       `json:"attempts"`
	Correct   int       `json:"correct"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Change is the outcome of a single mastery update.
type Change struct {
	StudentID   string  `json:"student_id"`
	Concept     string  `json:"concept"`
	Correct     bool    `json:"correct"`
	Old         float64 `json:"old_mastery"`
	New         float64 `json:"new_mastery"`
	Delta       float64 `json:"delta"`
	Params      Params  `json:"adapted_params"`
	Explanation string  `json:"explanation"`
}

// student holds one learner's concepts. Its mutex serializes every
// read-modify-write on that learner.
type student struct {
	mu       sync.Mutex
	order    []string
	concepts map[string]*ConceptMastery
}

// Tracker owns all students' mastery state for the process lifetime.
type Tracker struct {
	cfg Config
	now func() time.Time

	mu       sync.RWMutex
	students map[string]*student
}

// NewTracker creates an empty tracker.
func NewTracker(cfg Config) *Tracker {
	if cfg.Threshold == 0 {
		cfg.Threshold = DefaultConfig().Threshold
	}
	if cfg.Params == (Params{}) {
		cfg.Params = DefaultParams()
	}
	return &Tracker{
		cfg:      cfg,
		now:      time.Now,
		students: make(map[string]*student),
	}
}

// student returns the record for id, creating it on first use. Only the
// creation takes the write lock, so different students never contend on
// their updates.
func (t *Tracker) student(id string) *student {
	t.mu.RLock()
	s, ok := t.students[id]
	t.mu.RUnlock()
	if ok {
		return s
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok = t.students[id]; ok {
		return s
	}
	s = &student{concepts: make(map[string]*ConceptMastery)}
	t.students[id] = s
	return s
}

// lookup returns the record for id without creating it.
func (t *Tracker) lookup(id string) (*student, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.students[id]
	return s, ok
}

// Known reports whether the student has been updated or restored.
func (t *Tracker) Known(studentID string) bool {
	_, ok := t.lookup(studentID)
	return ok
}

// concept returns the concept record, creating it with the prior. Caller
// must hold s.mu.
func (t *Tracker) concept(s *student, name string) *ConceptMastery {
	if cm, ok := s.concepts[name]; ok {
		return cm
	}
	cm := &ConceptMastery{
		Concept: name,
		Mastery: affect.Clamp01(t.cfg.Prior),
		Params:  t.cfg.Params,
	}
	s.concepts[name] = cm
	s.order = append(s.order, name)
	return cm
}

// Update records one correctness observation. When state is non-nil the
// concept's parameters are modulated by it first.
func (t *Tracker) Update(studentID, concept string, correct bool, state *affect.CognitiveState) Change {
	s := t.student(studentID)
	s.mu.Lock()
	defer s.mu.Unlock()
	return t.update(s, studentID, concept, correct, state)
}

func (t *Tracker) update(s *student, studentID, concept string, correct bool, state *affect.CognitiveState) Change {
	cm := t.concept(s, concept)
	params := cm.Params
	if state != nil {
		params = Modulate(cm.Params, *state)
	}

	old := cm.Mastery
	cm.Mastery = Update(old, correct, params)
	cm.Attempts++
	if correct {
		cm.Correct++
	}
	cm.UpdatedAt = t.now()

	return Change{
		StudentID:   studentID,
		Concept:     concept,
		Correct:     correct,
		Old:         round4(old),
		New:         round4(cm.Mastery),
		Delta:       round4(cm.Mastery - old),
		Params:      params,
		Explanation: Explain(old, cm.Mastery, state),
	}
}

// ProcessSubmission updates every concept a submission exercised under a
// single lock, so a concurrent reader never sees half of the submission.
func (t *Tracker) ProcessSubmission(studentID string, concepts []string, correct bool, state *affect.CognitiveState) []Change {
	s := t.student(studentID)
	s.mu.Lock()
	defer s.mu.Unlock()

	changes := make([]Change, 0, len(concepts))
	for _, c := range concepts {
		changes = append(changes, t.update(s, studentID, c, correct, state))
	}
	return changes
}

// Get returns the concept's mastery, or the prior for a student or concept
// that has never been updated. Reads never create records.
func (t *Tracker) Get(studentID, concept string) float64 {
	prior := affect.Clamp01(t.cfg.Prior)
	s, ok := t.lookup(studentID)
	if !ok {
		return prior
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if cm, ok := s.concepts[concept]; ok {
		return cm.Mastery
	}
	return prior
}

// IsMastered reports whether the concept is at or above the threshold.
func (t *Tracker) IsMastered(studentID, concept string) bool {
	return t.Get(studentID, concept) >= t.cfg.Threshold
}

// All returns copies of the student's concepts in first-reference order.
func (t *Tracker) All(studentID string) []ConceptMastery {
	s, ok := t.lookup(studentID)
	if !ok {
		return []ConceptMastery{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ConceptMastery, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, *s.concepts[name])
	}
	return out
}

// Weakest returns the n lowest-mastery concepts. Ties keep first-reference
// order.
func (t *Tracker) Weakest(studentID string, n int) []string {
	all := t.All(studentID)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Mastery < all[j].Mastery
	})
	if n > len(all) {
		n = len(all)
	}
	if n < 0 {
		n = 0
	}
	out := make([]string, n)
	for i := range out {
		out[i] = all[i].Concept
	}
	return out
}

// Average returns the mean mastery over referenced concepts, or ok=false
// when the student has none.
func (t *Tracker) Average(studentID string) (avg float64, ok bool) {
	all := t.All(studentID)
	if len(all) == 0 {
		return 0, false
	}
	var sum float64
	for _, cm := range all {
		sum += cm.Mastery
	}
	return sum / float64(len(all)), true
}

// ConceptSummary is one row of a student summary.
type ConceptSummary struct {
	Concept  string  `json:"concept"`
	Mastery  float64 `json:"mastery"`
	Attempts int     `json:"attempts"`
	Correct  int     `json:"correct"`
	Mastered bool    `json:"mastered"`
}

// Summary is a student's mastery overview.
type Summary struct {
	StudentID       string           `json:"student_id"`
	Concepts        []ConceptSummary `json:"concepts"`
	AverageMastery  float64          `json:"average_mastery"`
	MasteredCount   int              `json:"mastered_count"`
	TotalAttempts   int              `json:"total_attempts"`
	WeakestConcepts []string         `json:"weakest_concepts"`
}

// Summary builds the student's overview. Average is 0 with no concepts.
func (t *Tracker) Summary(studentID string) Summary {
	sum := Summary{StudentID: studentID, Concepts: []ConceptSummary{}}
	var total float64
	for _, cm := range t.All(studentID) {
		mastered := cm.Mastery >= t.cfg.Threshold
		sum.Concepts = append(sum.Concepts, ConceptSummary{
			Concept:  cm.Concept,
			Mastery:  round4(cm.Mastery),
			Attempts: cm.Attempts,
			Correct:  cm.Correct,
			Mastered: mastered,
		})
		total += cm.Mastery
		sum.TotalAttempts += cm.Attempts
		if mastered {
			sum.MasteredCount++
		}
	}
	if n := len(sum.Concepts); n > 0 {
		sum.AverageMastery = round4(total / float64(n))
	}
	sum.WeakestConcepts = t.Weakest(studentID, 3)
	return sum
}

// Students returns the ids of every tracked student, sorted.
func (t *Tracker) Students() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ids := make([]string, 0, len(t.students))
	for id := range t.students {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Threshold returns the mastered threshold.
func (t *Tracker) Threshold() float64 { return t.cfg.Threshold }

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
