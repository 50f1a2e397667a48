package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// anthropicServer serves reply to every call and captures the last request
// body and purpose header.
type anthropicServer struct {
	status  int
	header  http.Header
	reply   map[string]any
	body    map[string]any
	purpose string
}

func (a *anthropicServer) provider(t *testing.T) *AnthropicProvider {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.purpose = r.Header.Get(purposeHeader)
		a.body = nil
		json.NewDecoder(r.Body).Decode(&a.body)
		for k, v := range a.header {
			w.Header()[k] = v
		}
		w.Header().Set("Content-Type", "application/json")
		if a.status != 0 {
			w.WriteHeader(a.status)
		}
		json.NewEncoder(w).Encode(a.reply)
	}))
	t.Cleanup(srv.Close)

	p, err := NewAnthropicProvider(AnthropicConfig{APIKey: "test-key", Model: "claude-haiku", BaseURL: srv.URL})
	require.NoError(t, err)
	return p
}

func anthropicMessage(stop string, content ...map[string]any) map[string]any {
	return map[string]any{
		"id":          "msg_test",
		"type":        "message",
		"role":        "assistant",
		"model":       "claude-haiku-4-5-20251001",
		"content":     content,
		"stop_reason": stop,
		"usage":       map[string]any{"input_tokens": 50, "output_tokens": 30},
	}
}

func textBlock(text string) map[string]any {
	return map[string]any{"type": "text", "text": text}
}

func TestAnthropicProvider_Hint(t *testing.T) {
	a := &anthropicServer{reply: anthropicMessage("end_turn", textBlock("What happens when n reaches 0?"))}
	p := a.provider(t)

	resp, err := p.Generate(WithPurpose(context.Background(), PurposeHint), Request{
		System: "You are a Socratic coding tutor.",
		Messages: []Message{
			{Role: RoleAssistant, Content: "earlier hint"},
			{Role: RoleUser, Content: "TUTORING FOCUS ..."},
		},
		MaxTokens: 256,
	})
	require.NoError(t, err)

	assert.Equal(t, "What happens when n reaches 0?", resp.Text())
	assert.Equal(t, Usage{InputTokens: 50, OutputTokens: 30, TotalTokens: 80}, resp.Usage)
	assert.Equal(t, "end", resp.StopReason)
	assert.Equal(t, "claude-haiku-4-5-20251001", p.ModelID())

	assert.Equal(t, PurposeHint, a.purpose)
	assert.NotContains(t, a.body, "tools")
	msgs := a.body["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "assistant", msgs[0].(map[string]any)["role"])
}

func TestAnthropicProvider_SchemaForcesToolCall(t *testing.T) {
	a := &anthropicServer{reply: anthropicMessage("tool_use", map[string]any{
		"type":  "tool_use",
		"id":    "toolu_1",
		"name":  "viva-judgement",
		"input": map[string]any{"score": 0.7, "feedback": "Name the base case too."},
	})}
	p := a.provider(t)

	resp, err := p.Generate(WithPurpose(context.Background(), PurposeVivaJudge), Request{
		Messages:  []Message{{Role: RoleUser, Content: "Judge this viva answer."}},
		Schema:    judgementSchema(),
		MaxTokens: 256,
	})
	require.NoError(t, err)

	var got struct {
		Score    float64 `json:"score"`
		Feedback string  `json:"feedback"`
	}
	require.NoError(t, json.Unmarshal(resp.Content, &got))
	assert.Equal(t, 0.7, got.Score)
	assert.Equal(t, "end", resp.StopReason)
	assert.Equal(t, PurposeVivaJudge, a.purpose)

	tools := a.body["tools"].([]any)
	require.Len(t, tools, 1)
	tool := tools[0].(map[string]any)
	assert.Equal(t, "viva-judgement", tool["name"])
	schema := tool["input_schema"].(map[string]any)
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, []any{"score", "feedback"}, schema["required"])
	assert.Contains(t, schema["properties"], "verdict")
	choice := a.body["tool_choice"].(map[string]any)
	assert.Equal(t, "tool", choice["type"])
	assert.Equal(t, "viva-judgement", choice["name"])
}

func TestAnthropicProvider_SchemaAnsweredAsText(t *testing.T) {
	a := &anthropicServer{reply: anthropicMessage("end_turn",
		textBlock("```json\n{\"score\": 0.4, \"feedback\": \"Close.\"}\n```"))}

	resp, err := a.provider(t).Generate(context.Background(), Request{Schema: judgementSchema(), MaxTokens: 64})
	require.NoError(t, err)
	assert.JSONEq(t, `{"score":0.4,"feedback":"Close."}`, string(resp.Content))
}

func TestAnthropicProvider_SchemaViolation(t *testing.T) {
	a := &anthropicServer{reply: anthropicMessage("tool_use", map[string]any{
		"type": "tool_use", "id": "toolu_1", "name": "viva-judgement",
		"input": map[string]any{"score": 3},
	})}

	_, err := a.provider(t).Generate(context.Background(), Request{Schema: judgementSchema(), MaxTokens: 64})
	var inv *ErrInvalidResponse
	assert.ErrorAs(t, err, &inv)
}

func TestAnthropicProvider_TruncatedStructuredOutput(t *testing.T) {
	a := &anthropicServer{reply: anthropicMessage("max_tokens", textBlock(`{"score": 0.4, "feedb`))}

	_, err := a.provider(t).Generate(context.Background(), Request{Schema: judgementSchema(), MaxTokens: 8})
	var truncated *ErrMaxTokensExceeded
	assert.ErrorAs(t, err, &truncated)
}

func TestAnthropicProvider_ErrorMapping(t *testing.T) {
	apiError := func(kind string) map[string]any {
		return map[string]any{"type": "error", "error": map[string]any{"type": kind, "message": "nope"}}
	}
	t.Run("rate limited with retry-after", func(t *testing.T) {
		a := &anthropicServer{status: http.StatusTooManyRequests, header: http.Header{"Retry-After": {"3"}}, reply: apiError("rate_limit_error")}
		_, err := a.provider(t).Generate(context.Background(), Request{MaxTokens: 8})
		var rl *ErrRateLimit
		require.ErrorAs(t, err, &rl)
		assert.Equal(t, 3*time.Second, rl.RetryAfter)
	})
	t.Run("overloaded", func(t *testing.T) {
		a := &anthropicServer{status: 529, reply: apiError("overloaded_error")}
		_, err := a.provider(t).Generate(context.Background(), Request{MaxTokens: 8})
		var unavailable *ErrProviderUnavailable
		assert.ErrorAs(t, err, &unavailable)
	})
	t.Run("bad key", func(t *testing.T) {
		a := &anthropicServer{status: http.StatusUnauthorized, reply: apiError("authentication_error")}
		_, err := a.provider(t).Generate(context.Background(), Request{MaxTokens: 8})
		var rejected *ErrRejected
		require.ErrorAs(t, err, &rejected)
		assert.Equal(t, http.StatusUnauthorized, rejected.Status)
		assert.Equal(t, retryNever, retryPolicyFor(err))
	})
	t.Run("caller deadline", func(t *testing.T) {
		a := &anthropicServer{reply: anthropicMessage("end_turn", textBlock("late"))}
		p := a.provider(t)
		ctx, cancel := context.WithTimeout(context.Background(), -time.Second)
		defer cancel()
		_, err := p.Generate(ctx, Request{MaxTokens: 8})
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
	})
}

func TestNewAnthropicProvider(t *testing.T) {
	_, err := NewAnthropicProvider(AnthropicConfig{})
	assert.Error(t, err)

	for name, want := range map[string]string{
		"claude-sonnet":            "claude-sonnet-4-20250514",
		"claude-haiku":             "claude-haiku-4-5-20251001",
		"claude-sonnet-4-20250514": "claude-sonnet-4-20250514",
	} {
		p, err := NewAnthropicProvider(AnthropicConfig{APIKey: "k", Model: name})
		require.NoError(t, err)
		assert.Equal(t, want, p.ModelID(), name)
	}
}
