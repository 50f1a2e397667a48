package viva

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sapiocode/sapio/internal/analyzer"
	"github.com/sapiocode/sapio/internal/logger"
	"github.com/sapiocode/sapio/internal/metrics"
	"github.com/sapiocode/sapio/internal/store"
)

var (
	// ErrSessionNotFound is returned for an unknown session id.
	ErrSessionNotFound = errors.New("viva session not found")
	// ErrNoMoreQuestions is returned when every question has been answered.
	ErrNoMoreQuestions = errors.New("no more questions in session")
	// ErrSessionComplete is returned when a verdict has already been issued.
	ErrSessionComplete = errors.New("viva session already complete")
)

// Config holds viva thresholds.
type Config struct {
	Questions     int           `yaml:"questions"`
	MinAnswers    int           `yaml:"min_answers"`
	PassThreshold float64       `yaml:"pass_threshold"`
	WeakThreshold float64       `yaml:"weak_threshold"`
	JudgeTimeout  time.Duration `yaml:"judge_timeout"`
	Judge         JudgeConfig   `yaml:"judge"`
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		Questions:     DefaultQuestions,
		MinAnswers:    2,
		PassThreshold: 0.7,
		WeakThreshold: 0.4,
		JudgeTimeout:  DefaultJudgeTimeout,
		Judge:         DefaultJudgeConfig(),
	}
}

// Options wires a Service's collaborators. Every field is optional.
type Options struct {
	Judge     Judge
	Events    store.EventRepo
	Logger    *logger.Logger
	Generator *Generator

	// Analyze replaces analyzer.Analyze, e.g. with a cached lookup.
	Analyze func(code string) *analyzer.Result
}

// Service owns the viva sessions of a running process. Submissions to one
// session are serialized; different sessions proceed in parallel.
type Service struct {
	cfg      Config
	gen      *Generator
	verifier *Verifier
	events   store.EventRepo
	log      *logger.Logger
	analyze  func(string) *analyzer.Result

	mu       sync.Mutex
	sessions map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	sess *Session
}

// NewService creates a session service.
func NewService(cfg Config, opts Options) *Service {
	def := DefaultConfig()
	if cfg.MinAnswers <= 0 {
		cfg.MinAnswers = def.MinAnswers
	}
	if cfg.Questions <= 0 {
		cfg.Questions = def.Questions
	}
	if cfg.PassThreshold <= 0 {
		cfg.PassThreshold = def.PassThreshold
	}
	if cfg.WeakThreshold <= 0 {
		cfg.WeakThreshold = def.WeakThreshold
	}

	s := &Service{
		cfg:      cfg,
		gen:      opts.Generator,
		events:   opts.Events,
		log:      logger.OrNop(opts.Logger),
		analyze:  opts.Analyze,
		sessions: make(map[string]*entry),
	}
	if s.gen == nil {
		s.gen = NewGenerator()
	}
	if s.analyze == nil {
		s.analyze = analyzer.Analyze
	}
	s.verifier = NewVerifier(opts.Judge, cfg.JudgeTimeout, s.log)
	return s
}

// Config returns the effective configuration.
func (s *Service) Config() Config {
	return s.cfg
}

// Start analyzes code and opens a session with up to n questions. A
// non-positive n uses the configured default.
func (s *Service) Start(ctx context.Context, studentID, code string, n int) (Session, error) {
	if strings.TrimSpace(studentID) == "" {
		return Session{}, errors.New("student id is required")
	}
	if n <= 0 {
		n = s.cfg.Questions
	}

	r := s.analyze(code)
	sess := &Session{
		ID:          uuid.NewString(),
		StudentID:   studentID,
		Code:        code,
		Analysis:    r,
		Questions:   s.gen.Generate(r, n),
		Answers:     []Answer{},
		Evaluations: []Evaluation{},
		StartedAt:   time.Now().UTC(),
	}

	s.mu.Lock()
	s.sessions[sess.ID] = &entry{sess: sess}
	s.mu.Unlock()

	s.log.Info("viva started", "session_id", sess.ID, "student_id", studentID,
		"questions", len(sess.Questions), "pattern", r.Pattern)
	return sess.clone(), nil
}

func (s *Service) lookup(id string) (*entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return e, nil
}

// Session returns a copy of the session.
func (s *Service) Session(id string) (Session, error) {
	e, err := s.lookup(id)
	if err != nil {
		return Session{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sess.clone(), nil
}

// Current returns the question awaiting an answer.
func (s *Service) Current(id string) (Question, error) {
	e, err := s.lookup(id)
	if err != nil {
		return Question{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess.Complete() {
		return Question{}, ErrSessionComplete
	}
	q, ok := e.sess.Current()
	if !ok {
		return Question{}, ErrNoMoreQuestions
	}
	return q, nil
}

// Submit records an answer to the current question, scores it and moves
// to the next question.
func (s *Service) Submit(ctx context.Context, id, transcript string, durationSeconds float64) (Evaluation, error) {
	e, err := s.lookup(id)
	if err != nil {
		return Evaluation{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	sess := e.sess

	if sess.Complete() {
		return Evaluation{}, ErrSessionComplete
	}
	q, ok := sess.Current()
	if !ok {
		return Evaluation{}, ErrNoMoreQuestions
	}

	ans := Answer{
		QuestionID:      q.ID,
		Transcript:      transcript,
		DurationSeconds: durationSeconds,
		At:              time.Now().UTC(),
	}
	sess.Answers = append(sess.Answers, ans)

	ev := s.verifier.Evaluate(ctx, JudgeInput{
		Question: q,
		Answer:   ans,
		Code:     sess.Code,
		Analysis: sess.Analysis,
	})
	ev.QuestionID = q.ID
	sess.Evaluations = append(sess.Evaluations, ev)
	sess.Index++

	metrics.RecordVivaScore(string(ev.Scorer), ev.Score)
	s.record(func(repo store.EventRepo) error {
		return repo.AppendVivaAnswer(ctx, store.VivaAnswerEventData{
			SessionID:       sess.ID,
			StudentID:       sess.StudentID,
			QuestionID:      q.ID,
			QuestionType:    string(q.Type),
			Transcript:      transcript,
			DurationSeconds: durationSeconds,
			Score:           ev.Score,
			Matched:         ev.Matched,
			Missing:         ev.Missing,
			Scorer:          string(ev.Scorer),
			Acceptable:      ev.Acceptable,
		})
	})
	return ev, nil
}

// Verdict grades the session. The first conclusive verdict completes the
// session; later calls return the same report.
func (s *Service) Verdict(ctx context.Context, id string) (Report, error) {
	e, err := s.lookup(id)
	if err != nil {
		return Report{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	sess := e.sess

	rep := BuildReport(sess, s.cfg)
	if !rep.Conclusive() || sess.Complete() {
		return rep, nil
	}

	now := time.Now().UTC()
	sess.CompletedAt = &now
	sess.Verdict = rep.Verdict

	metrics.RecordVerdict(string(rep.Verdict))
	s.log.Info("viva verdict", "session_id", sess.ID, "student_id", sess.StudentID,
		"verdict", rep.Verdict, "average_score", rep.AverageScore)
	s.record(func(repo store.EventRepo) error {
		return repo.AppendVivaVerdict(ctx, store.VivaVerdictEventData{
			SessionID:      sess.ID,
			StudentID:      sess.StudentID,
			Verdict:        string(rep.Verdict),
			AverageScore:   rep.AverageScore,
			Answered:       rep.Answered,
			TotalQuestions: rep.TotalQuestions,
		})
	})
	return rep, nil
}

// Prune drops sessions started before cutoff and returns how many went.
func (s *Service) Prune(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, e := range s.sessions {
		if e.sess.StartedAt.Before(cutoff) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// Len returns the number of live sessions.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Service) record(fn func(store.EventRepo) error) {
	if s.events == nil {
		return
	}
	if err := fn(s.events); err != nil {
		s.log.Warn("failed to record viva event", "error", err)
	}
}
