package tutor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sapiocode/sapio/internal/llm"
	"github.com/sapiocode/sapio/internal/logger"
	"github.com/sapiocode/sapio/internal/mastery"
	"github.com/sapiocode/sapio/internal/store"
)

// LearnerProfile is a short generated description of a student.
type LearnerProfile struct {
	StudentID   string    `json:"student_id"`
	Summary     string    `json:"summary"`
	Strengths   []string  `json:"strengths"`
	Weaknesses  []string  `json:"weaknesses"`
	GeneratedAt time.Time `json:"generated_at"`
}

// ProfileInput is what a profile is generated from.
type ProfileInput struct {
	StudentID   string
	Mastery     mastery.Summary
	RecentHints []store.HintEventRecord
	Previous    *LearnerProfile
}

// ProfileSchema constrains generated profiles.
var ProfileSchema = &llm.Schema{
	Name:        "learner-profile",
	Description: "Short profile of a programming student's strengths and weaknesses",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary": map[string]any{
				"type":        "string",
				"description": "2-4 sentence overview of the student's programming abilities",
			},
			"strengths": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "1-4 specific strengths (5-10 words each)",
			},
			"weaknesses": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "1-4 specific weaknesses (5-10 words each)",
			},
		},
		"required":             []any{"summary", "strengths", "weaknesses"},
		"additionalProperties": false,
	},
}

const profileSystemPrompt = `You are creating a learner profile for a programming tutor. The profile helps the tutor pick better questions for a student learning Python.`

func buildProfileUserMessage(in ProfileInput) string {
	var b strings.Builder

	b.WriteString("Concept Mastery:\n")
	if len(in.Mastery.Concepts) == 0 {
		b.WriteString("None recorded\n")
	}
	for _, c := range in.Mastery.Concepts {
		fmt.Fprintf(&b, "- %s: mastery=%.2f, %d/%d correct", c.Concept, c.Mastery, c.Correct, c.Attempts)
		if c.Mastered {
			b.WriteString(" (mastered)")
		}
		b.WriteString("\n")
	}

	if len(in.RecentHints) > 0 {
		b.WriteString("\nRecent Hints:\n")
		for _, h := range in.RecentHints {
			fmt.Fprintf(&b, "- level %d on %s (%s)\n", h.HintLevel, h.Concept, h.FocusType)
		}
	}

	if in.Previous != nil {
		fmt.Fprintf(&b, "\nPrevious Profile:\n%s\n", in.Previous.Summary)
		fmt.Fprintf(&b, "Strengths: %s\n", strings.Join(in.Previous.Strengths, ", "))
		fmt.Fprintf(&b, "Weaknesses: %s\n", strings.Join(in.Previous.Weaknesses, ", "))
	}

	b.WriteString(`
Instructions:
Write a concise learner profile. Name concrete programming concepts. If a previous profile exists, update it with the new evidence rather than starting fresh.`)
	return b.String()
}

type profileOutput struct {
	Summary    string   `json:"summary"`
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
}

type profileJob struct {
	ctx context.Context
	in  ProfileInput
}

// Profiler generates learner profiles on a background worker. Requests
// beyond the queue's capacity are dropped; a profile is a convenience.
type Profiler struct {
	provider llm.Provider
	log      *logger.Logger
	pending  chan profileJob
	done     chan struct{}

	mu       sync.RWMutex
	profiles map[string]*LearnerProfile
}

// NewProfiler starts the worker.
func NewProfiler(provider llm.Provider, log *logger.Logger) *Profiler {
	p := &Profiler{
		provider: provider,
		log:      logger.OrNop(log),
		pending:  make(chan profileJob, 32),
		done:     make(chan struct{}),
		profiles: make(map[string]*LearnerProfile),
	}
	go p.processLoop()
	return p
}

// Request queues a profile refresh for in.StudentID.
func (p *Profiler) Request(ctx context.Context, in ProfileInput) {
	in.Previous, _ = p.Get(in.StudentID)
	select {
	case p.pending <- profileJob{ctx: context.WithoutCancel(ctx), in: in}:
	default:
		p.log.Debug("profile queue full, dropping request", "student_id", in.StudentID)
	}
}

// Get returns the latest profile of the student.
func (p *Profiler) Get(studentID string) (*LearnerProfile, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	prof, ok := p.profiles[studentID]
	return prof, ok
}

func (p *Profiler) processLoop() {
	defer close(p.done)
	for job := range p.pending {
		prof, err := p.Generate(job.ctx, job.in)
		if err != nil {
			p.log.Warn("profile generation failed", "student_id", job.in.StudentID, "error", err)
			continue
		}
		p.mu.Lock()
		p.profiles[prof.StudentID] = prof
		p.mu.Unlock()
	}
}

// Generate creates a profile synchronously.
func (p *Profiler) Generate(ctx context.Context, in ProfileInput) (*LearnerProfile, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeProfile)
	resp, err := p.provider.Generate(ctx, llm.Request{
		System:      profileSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildProfileUserMessage(in)}},
		Schema:      ProfileSchema,
		MaxTokens:   600,
		Temperature: 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("profile generation: %w", err)
	}

	var out profileOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("parse profile response: %w", err)
	}
	return &LearnerProfile{
		StudentID:   in.StudentID,
		Summary:     out.Summary,
		Strengths:   out.Strengths,
		Weaknesses:  out.Weaknesses,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// Close stops the worker after the queued requests are processed.
func (p *Profiler) Close() {
	close(p.pending)
	<-p.done
}

// profileInput gathers the student's mastery and recent hints.
func (s *Service) profileInput(ctx context.Context, studentID string) ProfileInput {
	in := ProfileInput{StudentID: studentID, Mastery: s.tracker.Summary(studentID)}
	if s.events != nil {
		hints, err := s.events.QueryHintEvents(ctx, studentID, store.QueryOpts{Limit: 10})
		if err != nil {
			s.log.Warn("failed to load recent hints", "student_id", studentID, "error", err)
		}
		in.RecentHints = hints
	}
	return in
}

// RefreshProfile queues a profile regeneration for the student. It
// returns false when no LLM is configured and ErrStudentNotFound for a
// student without mastery history.
func (s *Service) RefreshProfile(ctx context.Context, studentID string) (bool, error) {
	if strings.TrimSpace(studentID) == "" {
		return false, ErrStudentRequired
	}
	if s.profiles == nil {
		return false, nil
	}
	if !s.tracker.Known(studentID) {
		return false, fmt.Errorf("%w: %s", ErrStudentNotFound, studentID)
	}
	s.profiles.Request(ctx, s.profileInput(ctx, studentID))
	return true, nil
}

// Profile returns the student's latest learner profile. ok is false when
// none has been generated, including when no LLM is configured.
func (s *Service) Profile(studentID string) (*LearnerProfile, bool) {
	if s.profiles == nil {
		return nil, false
	}
	return s.profiles.Get(studentID)
}
