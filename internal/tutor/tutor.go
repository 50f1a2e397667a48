// Package tutor is the entry point of the tutoring pipeline. It wires the
// analyzer, mastery tracker, intervention engine, viva verifier and the
// external collaborators into one service.
package tutor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sapiocode/sapio/internal/affect"
	"github.com/sapiocode/sapio/internal/analyzer"
	"github.com/sapiocode/sapio/internal/cache"
	"github.com/sapiocode/sapio/internal/graph"
	"github.com/sapiocode/sapio/internal/intervention"
	"github.com/sapiocode/sapio/internal/llm"
	"github.com/sapiocode/sapio/internal/logger"
	"github.com/sapiocode/sapio/internal/mastery"
	"github.com/sapiocode/sapio/internal/store"
	"github.com/sapiocode/sapio/internal/transcribe"
	"github.com/sapiocode/sapio/internal/viva"
)

var (
	ErrStudentRequired = errors.New("student id is required")
	ErrConceptRequired = errors.New("concept is required")
	ErrSessionRequired = errors.New("session id is required")
	ErrStudentNotFound = errors.New("student not found")
)

// affectWindow is the number of affect samples averaged per student.
const affectWindow = 10

// Options wires the collaborators. Only the config fields are required;
// every collaborator may be nil and the matching feature degrades.
type Options struct {
	Mastery      mastery.Config
	Intervention intervention.Config
	Viva         viva.Config
	Hint         HintConfig

	Provider    llm.Provider
	Transcriber transcribe.Transcriber
	Events      store.EventRepo
	Snapshots   store.SnapshotRepo
	Graph       graph.Syncer
	Cache       *cache.AnalysisCache
	Logger      *logger.Logger
}

// Service implements the tutoring pipeline's inbound operations.
type Service struct {
	hintCfg     HintConfig
	analyses    *cache.AnalysisCache
	tracker     *mastery.Tracker
	engine      *intervention.Engine
	affect      *affect.Adapter
	viva        *viva.Service
	provider    llm.Provider
	transcriber transcribe.Transcriber
	events      store.EventRepo
	snapshots   store.SnapshotRepo
	graph       graph.Syncer
	profiles    *Profiler
	log         *logger.Logger

	wg sync.WaitGroup // background graph syncs
}

// New builds the service and restores mastery from the latest snapshot.
func New(ctx context.Context, opts Options) (*Service, error) {
	log := logger.OrNop(opts.Logger)
	s := &Service{
		hintCfg:     opts.Hint,
		analyses:    opts.Cache,
		tracker:     mastery.NewTracker(opts.Mastery),
		engine:      intervention.NewEngine(opts.Intervention, nil),
		affect:      affect.NewAdapter(affectWindow),
		provider:    opts.Provider,
		transcriber: opts.Transcriber,
		events:      opts.Events,
		snapshots:   opts.Snapshots,
		graph:       opts.Graph,
		log:         log,
	}
	if s.hintCfg == (HintConfig{}) {
		s.hintCfg = DefaultHintConfig()
	}
	if s.analyses == nil {
		s.analyses = cache.NewAnalysisCache(nil, 0, log)
	}
	if s.graph == nil {
		s.graph = graph.Nop{}
	}

	var judge viva.Judge
	if s.provider != nil {
		judge = viva.NewLLMJudge(s.provider, opts.Viva.Judge)
		s.profiles = NewProfiler(s.provider, log)
	}
	s.viva = viva.NewService(opts.Viva, viva.Options{
		Judge:   judge,
		Events:  opts.Events,
		Logger:  log,
		Analyze: func(code string) *analyzer.Result { return s.analyses.Analyze(context.Background(), code) },
	})

	if err := s.restore(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) restore(ctx context.Context) error {
	if s.snapshots == nil {
		return nil
	}
	snap, err := s.snapshots.Latest(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	if snap == nil || snap.Data.Mastery == nil {
		return nil
	}
	if err := s.tracker.Restore(snap.Data.Mastery); err != nil {
		if errors.Is(err, mastery.ErrIncompatibleSnapshot) {
			s.log.Warn("skipping mastery snapshot", "sequence", snap.Sequence, "error", err)
			return nil
		}
		return fmt.Errorf("restore mastery: %w", err)
	}
	s.log.Info("restored mastery snapshot", "sequence", snap.Sequence, "students", len(snap.Data.Mastery.Students))
	return nil
}

// SaveSnapshot persists every student's mastery, keeping the latest few
// snapshots.
func (s *Service) SaveSnapshot(ctx context.Context) error {
	if s.snapshots == nil {
		return nil
	}
	snap := &store.Snapshot{Data: store.SnapshotData{Version: 1, Mastery: s.tracker.Snapshot()}}
	if err := s.snapshots.Save(ctx, snap); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return s.snapshots.Prune(ctx, 5)
}

// Prune forgets intervention sessions and affect profiles untouched since
// cutoff. Mastery is kept.
func (s *Service) Prune(cutoff time.Time) (sessions, profiles int) {
	return s.engine.Prune(cutoff), s.affect.Prune(cutoff)
}

// Viva exposes the session service for callers that drive a viva directly.
func (s *Service) Viva() *viva.Service { return s.viva }

// Close waits for background work and saves a final snapshot.
func (s *Service) Close(ctx context.Context) error {
	s.wg.Wait()
	if s.profiles != nil {
		s.profiles.Close()
	}
	return s.SaveSnapshot(ctx)
}

// record appends an event when a store is configured. Failures are logged
// and never fail the operation.
func (s *Service) record(what string, fn func(store.EventRepo) error) {
	if s.events == nil {
		return
	}
	if err := fn(s.events); err != nil {
		s.log.Warn("failed to record event", "event", what, "error", err)
	}
}
