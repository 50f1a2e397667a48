package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load consults so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"SAPIO_ADDR", "SAPIO_RATE_LIMIT_RPS", "SAPIO_DB", "SAPIO_REDIS_ADDR", "SAPIO_REDIS_PASSWORD",
		"SAPIO_NEO4J_URI", "SAPIO_NEO4J_USER", "SAPIO_NEO4J_PASSWORD", "SAPIO_NEO4J_DATABASE",
		"SAPIO_TRANSCRIBE_PROVIDER", "SAPIO_TRANSCRIBE_API_KEY", "SAPIO_LOG_MODE", "LOG_HASH_SALT",
		"LOG_REDACTION_ENABLED", "SAPIO_LLM_PROVIDER", "SAPIO_LLM_TIMEOUT",
		"SAPIO_ANTHROPIC_API_KEY", "SAPIO_OPENAI_API_KEY", "SAPIO_GEMINI_API_KEY", "SAPIO_GROQ_API_KEY",
		"SAPIO_ANTHROPIC_MODEL", "SAPIO_OPENAI_MODEL", "SAPIO_OPENAI_BASE_URL", "SAPIO_GEMINI_MODEL", "SAPIO_GROQ_MODEL",
		"GROQ_API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY",
	} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("", false)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Empty(t, cfg.LLM.Provider, "LLM disabled without keys")
	assert.Equal(t, 3, cfg.Viva.Questions)
	assert.Equal(t, 2, cfg.Viva.MinAnswers)
	assert.Equal(t, 0.3, cfg.Mastery.Prior)
	assert.Equal(t, 30.0, cfg.Intervention.MinStuckSeconds)
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	_, err := Load(missing, false)
	assert.NoError(t, err, "implicit path may be absent")

	_, err = Load(missing, true)
	assert.Error(t, err, "explicit path must exist")
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	p := writeConfig(t, `
server:
  addr: ":9000"
  session_ttl: 30m
viva:
  questions: 4
  min_answers: 3
  judge_timeout: 5s
mastery:
  prior: 0.25
cache:
  redis_addr: localhost:6379
`)
	cfg, err := Load(p, true)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 30*time.Minute, cfg.Server.SessionTTL)
	assert.Equal(t, 4, cfg.Viva.Questions)
	assert.Equal(t, 5*time.Second, cfg.Viva.JudgeTimeout)
	assert.Equal(t, 0.7, cfg.Viva.PassThreshold, "unset keys keep defaults")
	assert.Equal(t, 0.25, cfg.Mastery.Prior)
	assert.Equal(t, 0.8, cfg.Mastery.Threshold)
	assert.Equal(t, "localhost:6379", cfg.Cache.RedisAddr)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	p := writeConfig(t, "server:\n  addr: \":9000\"\n")
	t.Setenv("SAPIO_ADDR", ":7000")
	t.Setenv("SAPIO_NEO4J_URI", "neo4j://localhost:7687")
	t.Setenv("LOG_REDACTION_ENABLED", "true")

	cfg, err := Load(p, true)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, "neo4j://localhost:7687", cfg.Graph.URI)
	assert.True(t, cfg.Log.LoggerOptions().HashIDs)
}

func TestLoad_DiscoversLLM(t *testing.T) {
	clearEnv(t)
	t.Setenv("GROQ_API_KEY", "gsk-test")

	cfg, err := Load("", false)
	require.NoError(t, err)
	assert.Equal(t, "groq", cfg.LLM.Provider)
	assert.Equal(t, "gsk-test", cfg.LLM.Groq.APIKey)
	assert.Equal(t, "gsk-test", cfg.Transcribe.APIKey, "whisper shares the groq key")
}

func TestLoad_ExplicitProviderNeedsKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("SAPIO_LLM_PROVIDER", "anthropic")
	_, err := Load("", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SAPIO_ANTHROPIC_API_KEY")
}

func TestValidate_ReportsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Viva.MinAnswers = 5
	cfg.Viva.WeakThreshold = 0.9
	cfg.Mastery.Prior = 1.5
	cfg.Mastery.Params.Slip = 0

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	for _, want := range []string{"min_answers", "weak_threshold", "mastery.prior", "mastery.params"} {
		assert.True(t, strings.Contains(msg, want), "missing %q in %q", want, msg)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	clearEnv(t)
	p := writeConfig(t, "server: [unclosed")
	_, err := Load(p, true)
	assert.Error(t, err)
}
