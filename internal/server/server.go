// Package server exposes the tutoring service over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/sapiocode/sapio/internal/config"
	"github.com/sapiocode/sapio/internal/logger"
	"github.com/sapiocode/sapio/internal/tutor"
)

const shutdownTimeout = 15 * time.Second

// Server serves the HTTP API and prunes idle viva sessions.
type Server struct {
	cfg    config.ServerConfig
	svc    *tutor.Service
	log    *logger.Logger
	engine *gin.Engine
}

// New builds the router.
func New(cfg config.ServerConfig, svc *tutor.Service, log *logger.Logger) *Server {
	log = logger.OrNop(log)

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), max(cfg.Burst, 1))
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1", rateLimit(limiter))
	(&handlers{svc: svc}).register(v1)

	return &Server{cfg: cfg, svc: svc, log: log, engine: r}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.pruneLoop(ctx)

	errc := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// pruneLoop drops viva and tutoring sessions idle longer than SessionTTL
// and saves a mastery snapshot on every tick.
func (s *Server) pruneLoop(ctx context.Context) {
	if s.cfg.PruneInterval <= 0 || s.cfg.SessionTTL <= 0 {
		return
	}
	t := time.NewTicker(s.cfg.PruneInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			cutoff := now.Add(-s.cfg.SessionTTL)
			if n := s.svc.Viva().Prune(cutoff); n > 0 {
				s.log.Info("pruned viva sessions", "count", n)
			}
			if sessions, profiles := s.svc.Prune(cutoff); sessions+profiles > 0 {
				s.log.Info("pruned tutoring state", "sessions", sessions, "profiles", profiles)
			}
			if err := s.svc.SaveSnapshot(ctx); err != nil {
				s.log.Warn("periodic snapshot failed", "error", err)
			}
		}
	}
}
