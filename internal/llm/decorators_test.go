package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sapiocode/sapio/internal/logger"
	"github.com/sapiocode/sapio/internal/store"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open("file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func observedLogger() (*logger.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return &logger.Logger{SugaredLogger: zap.New(core).Sugar()}, logs
}

func TestLogging_RecordsSuccess(t *testing.T) {
	s := openStore(t)
	mock := NewMockProvider(MockResponse{
		Content: json.RawMessage(`"Which input ends the recursion?"`),
		Usage:   Usage{InputTokens: 120, OutputTokens: 12},
	})
	log, logs := observedLogger()
	p := WithLogging(mock, "groq", s.EventRepo(), log)

	ctx := WithPurpose(context.Background(), PurposeHint)
	_, err := p.Generate(ctx, Request{System: "tutor", Messages: []Message{{Role: RoleUser, Content: "help"}}})
	require.NoError(t, err)

	events, err := s.EventRepo().QueryLLMEvents(context.Background(), store.QueryOpts{Limit: 10})
	require.NoError(t, err)
	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, "groq", ev.Provider)
	assert.Equal(t, "mock", ev.Model)
	assert.Equal(t, PurposeHint, ev.Purpose)
	assert.Equal(t, 120, ev.InputTokens)
	assert.True(t, ev.Success)
	assert.Contains(t, ev.RequestBody, "[system]\ntutor")
	assert.Contains(t, ev.RequestBody, "[user]\nhelp")

	assert.Equal(t, 1, logs.FilterMessage("llm request").Len())
}

func TestLogging_RecordsFailure(t *testing.T) {
	s := openStore(t)
	mock := NewMockProvider(MockResponse{Err: &ErrRateLimit{Err: errors.New("429")}})
	log, logs := observedLogger()
	p := WithLogging(mock, "openai", s.EventRepo(), log)

	_, err := p.Generate(context.Background(), Request{})
	require.Error(t, err)

	events, err := s.EventRepo().QueryLLMEvents(context.Background(), store.QueryOpts{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.False(t, events[0].Success)
	assert.Contains(t, events[0].ErrorMessage, "rate limit")
	assert.Equal(t, PurposeUnspecified, events[0].Purpose)
	assert.Equal(t, 1, logs.FilterMessage("llm request failed").Len())
}

func TestLogging_NilRepoAndLogger(t *testing.T) {
	p := WithLogging(NewMockProvider(MockText("ok")), "mock", nil, nil)
	resp, err := p.Generate(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text())
}

type slowProvider struct{}

func (slowProvider) Generate(ctx context.Context, _ Request) (*Response, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(time.Second):
		return &Response{Content: json.RawMessage(`"late"`)}, nil
	}
}

func (slowProvider) ModelID() string { return "slow" }

func TestTimeout_CancelsSlowCall(t *testing.T) {
	p := WithTimeout(slowProvider{}, 10*time.Millisecond)
	_, err := p.Generate(context.Background(), Request{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "slow", p.ModelID())
}

func TestTimeout_ZeroIsPassthrough(t *testing.T) {
	mock := NewMockProvider()
	assert.Same(t, Provider(mock), WithTimeout(mock, 0))
}

func TestRetry_ZeroAttemptsStillCallsOnce(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: &ErrProviderUnavailable{}})
	_, err := WithRetry(mock, RetryConfig{}).Generate(context.Background(), Request{})
	require.Error(t, err)
	assert.Equal(t, 1, mock.CallCount())
}

func TestNewProvider(t *testing.T) {
	ctx := context.Background()

	p, err := NewProvider(ctx, Config{Provider: "mock"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "mock", p.ModelID())

	cfg := DefaultConfig()
	cfg.Groq.APIKey = "gsk-test"
	p, err = NewProvider(ctx, cfg, nil, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, "llama-3.3-70b-versatile", p.ModelID())
	_, isTimeout := p.(*TimeoutProvider)
	assert.True(t, isTimeout)

	_, err = NewProvider(ctx, Config{Provider: "groq"}, nil, nil)
	assert.Error(t, err)

	_, err = NewProvider(ctx, Config{Provider: "bogus"}, nil, nil)
	assert.Error(t, err)
}

func TestResponseText(t *testing.T) {
	tests := []struct {
		content string
		want    string
	}{
		{`"Try a smaller input."`, "Try a smaller input."},
		{"  plain hint \n", "plain hint"},
		{`{"score":1}`, `{"score":1}`},
		{`"unterminated`, `"unterminated`},
	}
	for _, tt := range tests {
		r := &Response{Content: json.RawMessage(tt.content)}
		assert.Equal(t, tt.want, r.Text(), tt.content)
	}
}

func TestResult(t *testing.T) {
	ok := Call(func() (string, error) { return "hint", nil })
	assert.True(t, ok.IsOk())
	assert.Equal(t, "hint", ok.Or("fallback"))

	failed := Call(func() (string, error) { return "", errors.New("offline") })
	assert.False(t, failed.IsOk())
	assert.Equal(t, "fallback", failed.Or("fallback"))
	assert.EqualError(t, failed.Err, "offline")
}

func TestMockJSON(t *testing.T) {
	mock := NewMockProvider(MockJSON(map[string]any{"score": 0.5}))
	resp, err := mock.Generate(context.Background(), Request{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"score":0.5}`, string(resp.Content))
}

func TestConfig_ApplyEnv(t *testing.T) {
	t.Setenv("SAPIO_LLM_PROVIDER", "openai")
	t.Setenv("SAPIO_OPENAI_API_KEY", "sk-env")
	t.Setenv("SAPIO_LLM_TIMEOUT", "5s")

	cfg := ConfigFromEnv()
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "sk-env", cfg.OpenAI.APIKey)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.NoError(t, cfg.Validate())
}

func TestDiscoverConfig_PrefersGroq(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk")
	t.Setenv("OPENAI_API_KEY", "sk")
	cfg, ok := DiscoverConfig()
	require.True(t, ok)
	assert.Equal(t, "groq", cfg.Provider)
	assert.Equal(t, "gsk", cfg.Groq.APIKey)
}
