// Package graph mirrors student concept mastery into a Neo4j property graph
// as (:Student)-[:MASTERY]->(:Concept) edges.
package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/sapiocode/sapio/internal/logger"
	"github.com/sapiocode/sapio/internal/mastery"
)

// Syncer pushes a student's concept mastery to the graph.
type Syncer interface {
	SyncMastery(ctx context.Context, studentID string, concepts []mastery.ConceptMastery) error
	Close(ctx context.Context) error
}

// Config holds the Neo4j connection settings. An empty URI disables sync.
type Config struct {
	URI      string        `yaml:"uri"`
	User     string        `yaml:"user"`
	Password string        `yaml:"-"`
	Database string        `yaml:"database"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Nop discards every sync.
type Nop struct{}

func (Nop) SyncMastery(context.Context, string, []mastery.ConceptMastery) error { return nil }
func (Nop) Close(context.Context) error                                      { return nil }

// Neo4j writes mastery with one UNWIND per sync.
type Neo4j struct {
	driver   neo4j.DriverWithContext
	database string
	log      *logger.Logger
}

// New connects to Neo4j, or returns Nop when cfg.URI is empty.
func New(ctx context.Context, cfg Config, log *logger.Logger) (Syncer, error) {
	if cfg.URI == "" {
		return Nop{}, nil
	}
	user := cfg.User
	if user == "" {
		user = "neo4j"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(user, cfg.Password, ""), func(c *neo4j.Config) {
		c.SocketConnectTimeout = timeout
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j driver: %w", err)
	}

	vctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := driver.VerifyConnectivity(vctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("neo4j verify connectivity: %w", err)
	}

	g := &Neo4j{driver: driver, database: cfg.Database, log: logger.OrNop(log).With("client", "neo4j")}
	g.ensureSchema(ctx)
	return g, nil
}

// ensureSchema creates uniqueness constraints. Failures are logged only.
func (g *Neo4j) ensureSchema(ctx context.Context) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite, DatabaseName: g.database})
	defer session.Close(ctx)
	for _, q := range []string{
		`CREATE CONSTRAINT student_id_unique IF NOT EXISTS FOR (s:Student) REQUIRE s.id IS UNIQUE`,
		`CREATE CONSTRAINT concept_id_unique IF NOT EXISTS FOR (c:Concept) REQUIRE c.id IS UNIQUE`,
	} {
		res, err := session.Run(ctx, q, nil)
		if err != nil {
			g.log.Warn("neo4j schema init failed (continuing)", "error", err)
			continue
		}
		_, _ = res.Consume(ctx)
	}
}

const upsertMastery = `
MERGE (s:Student {id: $student_id})
SET s.synced_at = $synced_at
WITH s
UNWIND $rows AS r
MERGE (c:Concept {id: r.concept})
MERGE (s)-[m:MASTERY]->(c)
SET m.mastery = r.mastery,
    m.attempts = r.attempts,
    m.correct = r.correct,
    m.learn = r.learn,
    m.slip = r.slip,
    m.guess = r.guess,
    m.updated_at = r.updated_at,
    m.synced_at = $synced_at
`

func (g *Neo4j) SyncMastery(ctx context.Context, studentID string, concepts []mastery.ConceptMastery) error {
	if studentID == "" || len(concepts) == 0 {
		return nil
	}
	params := masteryParams(studentID, concepts, time.Now())

	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite, DatabaseName: g.database})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, upsertMastery, params)
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	if err != nil {
		return fmt.Errorf("sync mastery: %w", err)
	}
	return nil
}

func (g *Neo4j) Close(ctx context.Context) error { return g.driver.Close(ctx) }

// masteryParams builds the query parameters. The driver only accepts
// primitive values, so times are RFC 3339 strings and counts int64.
func masteryParams(studentID string, concepts []mastery.ConceptMastery, now time.Time) map[string]any {
	rows := make([]map[string]any, 0, len(concepts))
	for _, cm := range concepts {
		if cm.Concept == "" {
			continue
		}
		var updated string
		if !cm.UpdatedAt.IsZero() {
			updated = cm.UpdatedAt.UTC().Format(time.RFC3339Nano)
		}
		rows = append(rows, map[string]any{
			"concept":    cm.Concept,
			"mastery":    cm.Mastery,
			"attempts":   int64(cm.Attempts),
			"correct":    int64(cm.Correct),
			"learn":      cm.Params.Learn,
			"slip":       cm.Params.Slip,
			"guess":      cm.Params.Guess,
			"updated_at": updated,
		})
	}
	return map[string]any{
		"student_id": studentID,
		"synced_at":  now.UTC().Format(time.RFC3339Nano),
		"rows":       rows,
	}
}
