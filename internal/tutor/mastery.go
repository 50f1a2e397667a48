package tutor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sapiocode/sapio/internal/affect"
	"github.com/sapiocode/sapio/internal/analyzer"
	"github.com/sapiocode/sapio/internal/mastery"
	"github.com/sapiocode/sapio/internal/metrics"
	"github.com/sapiocode/sapio/internal/store"
	"github.com/sapiocode/sapio/internal/teaching"
)

// graphSyncTimeout bounds one background graph write.
const graphSyncTimeout = 10 * time.Second

// UpdateMastery records one correctness observation for a concept.
func (s *Service) UpdateMastery(ctx context.Context, studentID, concept string, correct bool, state *affect.CognitiveState) (mastery.Change, error) {
	if strings.TrimSpace(studentID) == "" {
		return mastery.Change{}, ErrStudentRequired
	}
	if strings.TrimSpace(concept) == "" {
		return mastery.Change{}, ErrConceptRequired
	}
	ch := s.tracker.Update(studentID, concept, correct, state)
	s.afterMastery(ctx, studentID, []mastery.Change{ch})
	return ch, nil
}

// Submission is one graded attempt at a problem.
type Submission struct {
	StudentID string
	Code      string
	Correct   bool
	Concepts  []string // inferred from the analysis when empty
	Affect    *affect.CognitiveState
}

// SubmissionResult is everything a submission produced.
type SubmissionResult struct {
	StudentID string           `json:"student_id"`
	Analysis  Analysis         `json:"analysis"`
	Concepts  []string         `json:"concepts"`
	Changes   []mastery.Change `json:"mastery_updates"`
	Moment    teaching.Moment  `json:"teaching_moment"`
	Hint      HintRecord       `json:"hint"`
}

// HintRecord is the level-one hint derived from a submission's teaching
// moment. It is produced without the text-generation service.
type HintRecord struct {
	Level    int    `json:"hint_level"`
	Focus    string `json:"focus"`
	Concept  string `json:"concept"`
	Question string `json:"question"`
}

// ProcessSubmission analyzes the code, updates every exercised concept
// and picks the next teaching moment.
func (s *Service) ProcessSubmission(ctx context.Context, sub Submission) (SubmissionResult, error) {
	if strings.TrimSpace(sub.StudentID) == "" {
		return SubmissionResult{}, ErrStudentRequired
	}
	a := s.Analyze(ctx, sub.Code)

	concepts := sub.Concepts
	if len(concepts) == 0 {
		concepts = analyzer.InferConcepts(a.Result)
	}
	state := sub.Affect
	if state != nil {
		smoothed := s.affect.Observe(sub.StudentID, *state)
		state = &smoothed
	}

	changes := s.tracker.ProcessSubmission(sub.StudentID, concepts, sub.Correct, state)
	s.afterMastery(ctx, sub.StudentID, changes)

	question := a.Moment.Question
	if state != nil {
		question = affect.AdjustTone(question, s.affect.Assess(sub.StudentID).Tone)
	}

	return SubmissionResult{
		StudentID: sub.StudentID,
		Analysis:  a,
		Concepts:  concepts,
		Changes:   changes,
		Moment:    a.Moment,
		Hint: HintRecord{
			Level:    1,
			Focus:    a.Moment.FocusType,
			Concept:  a.Moment.Concept,
			Question: question,
		},
	}, nil
}

// MasterySummary returns the student's mastery overview. A student with no
// recorded update is ErrStudentNotFound.
func (s *Service) MasterySummary(studentID string) (mastery.Summary, error) {
	if strings.TrimSpace(studentID) == "" {
		return mastery.Summary{}, ErrStudentRequired
	}
	if !s.tracker.Known(studentID) {
		return mastery.Summary{}, fmt.Errorf("%w: %s", ErrStudentNotFound, studentID)
	}
	return s.tracker.Summary(studentID), nil
}

// afterMastery records the changes and mirrors the student's state into
// the graph in the background.
func (s *Service) afterMastery(ctx context.Context, studentID string, changes []mastery.Change) {
	for _, ch := range changes {
		metrics.RecordMasteryUpdate(ch.Correct)
		s.record("mastery", func(repo store.EventRepo) error {
			return repo.AppendMasteryEvent(ctx, store.MasteryEventData{
				StudentID:   studentID,
				Concept:     ch.Concept,
				Correct:     ch.Correct,
				OldMastery:  ch.Old,
				NewMastery:  ch.New,
				Learn:       ch.Params.Learn,
				Slip:        ch.Params.Slip,
				Guess:       ch.Params.Guess,
				Explanation: ch.Explanation,
			})
		})
	}

	concepts := s.tracker.All(studentID)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), graphSyncTimeout)
		defer cancel()
		if err := s.graph.SyncMastery(ctx, studentID, concepts); err != nil {
			s.log.Warn("graph sync failed", "student_id", studentID, "error", err)
		}
	}()
}
