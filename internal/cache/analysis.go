package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sapiocode/sapio/internal/analyzer"
	"github.com/sapiocode/sapio/internal/logger"
	"github.com/sapiocode/sapio/internal/metrics"
)

// DefaultTTL is how long an analysis stays cached.
const DefaultTTL = 24 * time.Hour

// AnalysisCache returns cached analyses and collapses concurrent analyses
// of identical source into one. Backend failures degrade to a direct
// analysis.
type AnalysisCache struct {
	backend Backend
	ttl     time.Duration
	flight  singleflight.Group
	log     *logger.Logger
	analyze func(string) *analyzer.Result
}

// NewAnalysisCache wraps backend. A nil backend gets an in-memory one.
func NewAnalysisCache(backend Backend, ttl time.Duration, log *logger.Logger) *AnalysisCache {
	if backend == nil {
		backend = NewMemory(0)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &AnalysisCache{
		backend: backend,
		ttl:     ttl,
		log:     logger.OrNop(log),
		analyze: analyzer.Analyze,
	}
}

// Key returns the cache key of source.
func Key(source string) string {
	sum := sha256.Sum256([]byte(source))
	return "analysis:" + hex.EncodeToString(sum[:])
}

// Analyze returns the analysis of source.
func (c *AnalysisCache) Analyze(ctx context.Context, source string) *analyzer.Result {
	key := Key(source)
	if r, ok := c.lookup(ctx, key, source); ok {
		metrics.RecordCacheLookup(true)
		return r
	}
	metrics.RecordCacheLookup(false)

	v, _, _ := c.flight.Do(key, func() (any, error) {
		r := c.analyze(source)
		if raw, err := json.Marshal(r); err == nil {
			if err := c.backend.Set(ctx, key, raw, c.ttl); err != nil {
				c.log.Warn("analysis cache write failed", "error", err)
			}
		}
		return r, nil
	})
	return v.(*analyzer.Result)
}

func (c *AnalysisCache) lookup(ctx context.Context, key, source string) (*analyzer.Result, bool) {
	raw, ok, err := c.backend.Get(ctx, key)
	if err != nil {
		c.log.Warn("analysis cache read failed", "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var r analyzer.Result
	if err := json.Unmarshal(raw, &r); err != nil {
		c.log.Warn("discarding corrupt cached analysis", "error", err)
		return nil, false
	}
	r.Lines = strings.Split(source, "\n")
	return &r, true
}

// Close closes the backend.
func (c *AnalysisCache) Close() error { return c.backend.Close() }
