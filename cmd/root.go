package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sapiocode/sapio/internal/cache"
	"github.com/sapiocode/sapio/internal/config"
	"github.com/sapiocode/sapio/internal/graph"
	"github.com/sapiocode/sapio/internal/llm"
	"github.com/sapiocode/sapio/internal/logger"
	"github.com/sapiocode/sapio/internal/store"
	"github.com/sapiocode/sapio/internal/transcribe"
	"github.com/sapiocode/sapio/internal/tutor"
)

var rootCmd = &cobra.Command{
	Use:           "sapio",
	Short:         "Adaptive coding tutor",
	Long:          "sapio analyses student Python code, tracks concept mastery, decides when to step in with a hint and checks understanding with a short viva.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (overrides SAPIO_CONFIG)")
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides SAPIO_DB)")
	rootCmd.PersistentFlags().String("log-mode", "", "Log encoder: dev or prod")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(vivaCmd)
	rootCmd.AddCommand(masteryCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	explicit := path != ""
	if !explicit {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path, explicit)
	if err != nil {
		return config.Config{}, err
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.Store.DBPath = p
	}
	if m, _ := cmd.Flags().GetString("log-mode"); m != "" {
		cfg.Log.Mode = m
	}
	return cfg, nil
}

// openStore opens the configured database, falling back to the default
// data directory.
func openStore(cfg config.Config) (*store.Store, error) {
	path := cfg.Store.DBPath
	if path == "" {
		var err error
		if path, err = store.DefaultDBPath(); err != nil {
			return nil, fmt.Errorf("resolve database path: %w", err)
		}
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return st, nil
}

// deps holds everything a long-running command needs.
type deps struct {
	cfg   config.Config
	log   *logger.Logger
	store *store.Store
	cache *cache.AnalysisCache
	graph graph.Syncer
	svc   *tutor.Service
}

// features selects the optional collaborators to build.
type features struct {
	llm        bool
	transcribe bool
	graph      bool
}

// openDeps builds the tutor service and its collaborators. Optional
// collaborators that fail to start are logged and left out.
func openDeps(ctx context.Context, cfg config.Config, f features) (*deps, error) {
	log, err := logger.New(cfg.Log.Mode, cfg.Log.LoggerOptions())
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	d := &deps{cfg: cfg, log: log, graph: graph.Nop{}}

	if d.store, err = openStore(cfg); err != nil {
		d.Close(ctx)
		return nil, err
	}
	events := d.store.EventRepo()

	var backend cache.Backend
	if cfg.Cache.RedisAddr != "" {
		r, err := cache.NewRedis(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
		if err != nil {
			log.Warn("redis unavailable, using in-memory cache", "addr", cfg.Cache.RedisAddr, "error", err)
		} else {
			backend = r
		}
	}
	if backend == nil {
		backend = cache.NewMemory(cfg.Cache.MaxEntries)
	}
	d.cache = cache.NewAnalysisCache(backend, cfg.Cache.TTL, log)

	if f.graph {
		g, err := graph.New(ctx, cfg.Graph, log)
		if err != nil {
			log.Warn("concept graph unavailable", "error", err)
		} else {
			d.graph = g
		}
	}

	opts := tutor.Options{
		Mastery:      cfg.Mastery,
		Intervention: cfg.Intervention,
		Viva:         cfg.Viva,
		Events:       events,
		Snapshots:    d.store.SnapshotRepo(),
		Graph:        d.graph,
		Cache:        d.cache,
		Logger:       log,
	}

	if f.llm && cfg.LLM.Provider != "" {
		p, err := llm.NewProvider(ctx, cfg.LLM, events, log)
		if err != nil {
			log.Warn("LLM provider not configured, using local fallbacks", "error", err)
		} else {
			opts.Provider = p
		}
	}

	if f.transcribe {
		t, err := transcribe.New(ctx, cfg.Transcribe, log)
		switch {
		case errors.Is(err, transcribe.ErrDisabled):
		case err != nil:
			log.Warn("transcription unavailable", "error", err)
		default:
			opts.Transcriber = t
		}
	}

	if d.svc, err = tutor.New(ctx, opts); err != nil {
		d.Close(ctx)
		return nil, fmt.Errorf("start tutor: %w", err)
	}
	return d, nil
}

// Close saves state and releases every collaborator in reverse order.
func (d *deps) Close(ctx context.Context) {
	if d.svc != nil {
		if err := d.svc.Close(ctx); err != nil {
			d.log.Warn("tutor shutdown", "error", err)
		}
	}
	if d.graph != nil {
		if err := d.graph.Close(ctx); err != nil {
			d.log.Warn("graph shutdown", "error", err)
		}
	}
	if d.cache != nil {
		if err := d.cache.Close(); err != nil {
			d.log.Warn("cache shutdown", "error", err)
		}
	}
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			d.log.Warn("store shutdown", "error", err)
		}
	}
	d.log.Sync()
}
