// Package config loads sapio's settings from an optional YAML file and
// SAPIO_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sapiocode/sapio/internal/graph"
	"github.com/sapiocode/sapio/internal/intervention"
	"github.com/sapiocode/sapio/internal/llm"
	"github.com/sapiocode/sapio/internal/logger"
	"github.com/sapiocode/sapio/internal/mastery"
	"github.com/sapiocode/sapio/internal/transcribe"
	"github.com/sapiocode/sapio/internal/viva"
)

type Config struct {
	Server       ServerConfig        `yaml:"server"`
	Store        StoreConfig         `yaml:"store"`
	LLM          llm.Config          `yaml:"llm"`
	Viva         viva.Config         `yaml:"viva"`
	Mastery      mastery.Config      `yaml:"mastery"`
	Intervention intervention.Config `yaml:"intervention"`
	Cache        CacheConfig         `yaml:"cache"`
	Graph        graph.Config        `yaml:"graph"`
	Transcribe   transcribe.Config   `yaml:"transcribe"`
	Log          LogConfig           `yaml:"log"`
}

type ServerConfig struct {
	Addr          string        `yaml:"addr"`
	RateLimitRPS  float64       `yaml:"rate_limit_rps"` // 0 disables limiting
	Burst         int           `yaml:"burst"`
	SessionTTL    time.Duration `yaml:"session_ttl"`    // idle viva sessions older than this are pruned
	PruneInterval time.Duration `yaml:"prune_interval"`
}

type StoreConfig struct {
	// DBPath is the sqlite file. Empty resolves to store.DefaultDBPath.
	DBPath string `yaml:"db_path"`
}

type CacheConfig struct {
	RedisAddr     string        `yaml:"redis_addr"` // empty selects the in-memory cache
	RedisPassword string        `yaml:"-"`
	RedisDB       int           `yaml:"redis_db"`
	TTL           time.Duration `yaml:"ttl"`
	MaxEntries    int           `yaml:"max_entries"`
}

type LogConfig struct {
	Mode     string `yaml:"mode"` // dev, prod or nop
	HashIDs  bool   `yaml:"hash_ids"`
	HashSalt string `yaml:"-"`
}

// LoggerOptions converts the log section for logger.New.
func (l LogConfig) LoggerOptions() logger.Options {
	return logger.Options{HashIDs: l.HashIDs, HashSalt: l.HashSalt}
}

// Default returns the configuration used when nothing is set. The LLM is
// disabled until a provider is configured or discovered.
func Default() Config {
	lc := llm.DefaultConfig()
	lc.Provider = ""
	return Config{
		Server: ServerConfig{
			Addr:          ":8080",
			RateLimitRPS:  20,
			Burst:         40,
			SessionTTL:    2 * time.Hour,
			PruneInterval: 10 * time.Minute,
		},
		LLM:          lc,
		Viva:         viva.DefaultConfig(),
		Mastery:      mastery.DefaultConfig(),
		Intervention: intervention.DefaultConfig(),
		Cache:        CacheConfig{TTL: 24 * time.Hour, MaxEntries: 1024},
		Graph:        graph.Config{User: "neo4j", Timeout: 10 * time.Second},
		Log:          LogConfig{Mode: "dev"},
	}
}

// DefaultPath returns SAPIO_CONFIG, or ~/.config/sapio/config.yaml.
func DefaultPath() string {
	if p := os.Getenv("SAPIO_CONFIG"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "sapio", "config.yaml")
}

// Load reads path over the defaults, overlays the environment and
// validates the result. A missing file is only an error when explicit is
// true.
func Load(path string, explicit bool) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overlays SAPIO_* variables. When no LLM provider is set, the
// vendors' standard API key variables are probed.
func (c *Config) ApplyEnv() {
	setString(&c.Server.Addr, "SAPIO_ADDR")
	setFloat(&c.Server.RateLimitRPS, "SAPIO_RATE_LIMIT_RPS")
	setString(&c.Store.DBPath, "SAPIO_DB")
	setString(&c.Cache.RedisAddr, "SAPIO_REDIS_ADDR")
	setString(&c.Cache.RedisPassword, "SAPIO_REDIS_PASSWORD")
	setString(&c.Graph.URI, "SAPIO_NEO4J_URI")
	setString(&c.Graph.User, "SAPIO_NEO4J_USER")
	setString(&c.Graph.Password, "SAPIO_NEO4J_PASSWORD")
	setString(&c.Graph.Database, "SAPIO_NEO4J_DATABASE")
	setString(&c.Transcribe.Provider, "SAPIO_TRANSCRIBE_PROVIDER")
	setString(&c.Log.Mode, "SAPIO_LOG_MODE")
	setString(&c.Log.HashSalt, "LOG_HASH_SALT")
	if v := os.Getenv("LOG_REDACTION_ENABLED"); v != "" {
		c.Log.HashIDs, _ = strconv.ParseBool(v)
	}

	c.LLM.ApplyEnv()
	if c.LLM.Provider == "" {
		if d, ok := llm.DiscoverConfig(); ok {
			c.adoptDiscovered(d)
		}
	}
	c.Transcribe.ApplyEnv()
}

func (c *Config) adoptDiscovered(d llm.Config) {
	c.LLM.Provider = d.Provider
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&c.LLM.Anthropic.APIKey, d.Anthropic.APIKey)
	fill(&c.LLM.OpenAI.APIKey, d.OpenAI.APIKey)
	fill(&c.LLM.Gemini.APIKey, d.Gemini.APIKey)
	fill(&c.LLM.Groq.APIKey, d.Groq.APIKey)
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	if c.LLM.Provider != "" {
		if err := c.LLM.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	check(c.Server.RateLimitRPS >= 0, "server.rate_limit_rps must not be negative")
	check(c.Viva.Questions >= 1, "viva.questions must be at least 1")
	check(c.Viva.MinAnswers >= 1, "viva.min_answers must be at least 1")
	check(c.Viva.MinAnswers <= c.Viva.Questions, "viva.min_answers (%d) exceeds viva.questions (%d)", c.Viva.MinAnswers, c.Viva.Questions)
	check(inUnit(c.Viva.PassThreshold) && inUnit(c.Viva.WeakThreshold), "viva thresholds must be within [0,1]")
	check(c.Viva.WeakThreshold <= c.Viva.PassThreshold, "viva.weak_threshold must not exceed viva.pass_threshold")
	check(inUnit(c.Mastery.Prior), "mastery.prior must be within [0,1]")
	check(inUnit(c.Mastery.Threshold), "mastery.threshold must be within [0,1]")
	p := c.Mastery.Params
	check(inOpenUnit(p.Learn) && inOpenUnit(p.Slip) && inOpenUnit(p.Guess), "mastery.params must be within (0,1)")
	check(c.Intervention.MinStuckSeconds <= c.Intervention.MaxStuckSeconds, "intervention.min_stuck_seconds exceeds max_stuck_seconds")

	return errors.Join(errs...)
}

func inUnit(v float64) bool     { return v >= 0 && v <= 1 }
func inOpenUnit(v float64) bool { return v > 0 && v < 1 }

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}
