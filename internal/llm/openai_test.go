package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func newTestOpenAIProvider(t *testing.T, handler http.HandlerFunc, jsonObject bool) *OpenAIProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := openai.DefaultConfig("test-key")
	config.BaseURL = server.URL + "/v1"

	return &OpenAIProvider{
		client:     openai.NewClientWithConfig(config),
		model:      "gpt-4o-mini",
		jsonObject: jsonObject,
	}
}

func chatCompletion(content, finish string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1234567890,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": finish,
		}},
		"usage": map[string]any{"prompt_tokens": 40, "completion_tokens": 25, "total_tokens": 65},
	}
}

var judgeSchema = &Schema{
	Name: "viva-judgement",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"score": map[string]any{"type": "number"},
		},
		"required":             []any{"score"},
		"additionalProperties": false,
	},
}

func TestOpenAIProvider_TextHint(t *testing.T) {
	var got openai.ChatCompletionRequest
	handler := func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatCompletion("What stops `f` from calling itself forever?", "stop"))
	}

	p := newTestOpenAIProvider(t, handler, false)
	resp, err := p.Generate(context.Background(), Request{
		System: "You are a Socratic coding tutor.",
		Messages: []Message{
			{Role: RoleAssistant, Content: "earlier hint"},
			{Role: RoleUser, Content: "TUTORING FOCUS ..."},
		},
		MaxTokens: 256,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text() != "What stops `f` from calling itself forever?" {
		t.Errorf("text = %q", resp.Text())
	}
	if resp.Usage.InputTokens != 40 || resp.Usage.OutputTokens != 25 {
		t.Errorf("usage = %+v", resp.Usage)
	}
	if resp.StopReason != "end" {
		t.Errorf("stop reason = %q, want end", resp.StopReason)
	}
	if len(got.Messages) != 3 || got.Messages[0].Role != "system" || got.Messages[1].Role != "assistant" {
		t.Errorf("messages sent = %+v", got.Messages)
	}
	if got.ResponseFormat != nil {
		t.Error("text request should not set a response format")
	}
}

func TestOpenAIProvider_StrictSchema(t *testing.T) {
	var got map[string]any
	handler := func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatCompletion(`{"score":0.8}`, "stop"))
	}

	p := newTestOpenAIProvider(t, handler, false)
	resp, err := p.Generate(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "judge"}},
		Schema:   judgeSchema,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != `{"score":0.8}` {
		t.Errorf("content = %s", resp.Content)
	}
	rf := got["response_format"].(map[string]any)
	if rf["type"] != "json_schema" {
		t.Errorf("response_format.type = %v, want json_schema", rf["type"])
	}
}

func TestGroqProvider_JSONModeDescribesSchema(t *testing.T) {
	var got openai.ChatCompletionRequest
	handler := func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatCompletion(`{"score":0.4}`, "stop"))
	}

	p := newTestOpenAIProvider(t, handler, true)
	_, err := p.Generate(context.Background(), Request{
		System:   "judge answers",
		Messages: []Message{{Role: RoleUser, Content: "answer"}},
		Schema:   judgeSchema,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ResponseFormat == nil || got.ResponseFormat.Type != openai.ChatCompletionResponseFormatTypeJSONObject {
		t.Fatalf("response format = %+v, want json_object", got.ResponseFormat)
	}
	if len(got.Messages) != 3 || got.Messages[0].Role != openai.ChatMessageRoleSystem {
		t.Fatalf("messages = %+v", got.Messages)
	}
}

func TestGroqProvider_InvalidJSONRejected(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatCompletion(`{"grade":"A"}`, "stop"))
	}

	p := newTestOpenAIProvider(t, handler, true)
	_, err := p.Generate(context.Background(), Request{Schema: judgeSchema})
	var inv *ErrInvalidResponse
	if !errors.As(err, &inv) {
		t.Fatalf("expected ErrInvalidResponse, got %T (%v)", err, err)
	}
}

func TestOpenAIProvider_ErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		check  func(error) bool
	}{
		{http.StatusTooManyRequests, func(err error) bool { var e *ErrRateLimit; return errors.As(err, &e) }},
		{http.StatusInternalServerError, func(err error) bool { var e *ErrProviderUnavailable; return errors.As(err, &e) }},
		{http.StatusUnauthorized, func(err error) bool { var e *ErrRejected; return errors.As(err, &e) && e.Status == 401 }},
	}
	for _, tt := range tests {
		handler := func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(tt.status)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"type": "server_error", "message": "nope"},
			})
		}
		p := newTestOpenAIProvider(t, handler, false)
		_, err := p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "x"}}})
		if err == nil || !tt.check(err) {
			t.Errorf("status %d: unexpected error %T (%v)", tt.status, err, err)
		}
	}
}

func TestNewGroqProvider(t *testing.T) {
	if _, err := NewGroqProvider(GroqConfig{}); err == nil {
		t.Fatal("expected error for empty API key")
	}

	p, err := NewGroqProvider(GroqConfig{APIKey: "gsk-test", Model: "llama-70b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "llama-3.3-70b-versatile" {
		t.Errorf("model = %q", p.ModelID())
	}
	if !p.jsonObject {
		t.Error("groq should use JSON mode")
	}

	p, err = NewGroqProvider(GroqConfig{APIKey: "gsk-test", Model: "mixtral-8x7b-32768"})
	if err != nil {
		t.Fatal(err)
	}
	if p.ModelID() != "mixtral-8x7b-32768" {
		t.Errorf("unknown names pass through, got %q", p.ModelID())
	}
}
