// Package llm is the client side of the text-generation service: providers
// for Anthropic, OpenAI, Gemini and Groq behind one interface, with retry,
// timeout and event-logging decorators.
package llm

import (
	"context"
	"encoding/json"
	"strings"
)

// Provider generates text or schema-conforming JSON.
type Provider interface {
	// Generate sends a prompt and returns the response. When req.Schema is
	// set the provider uses its native structured output and Content is the
	// validated JSON object.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the model.
type Request struct {
	// System sets the model's role and constraints.
	System string

	// Messages is the conversation, oldest first. Hints carry the last few
	// tutoring turns followed by the current prompt.
	Messages []Message

	// Schema, when set, constrains the response to a JSON Schema.
	Schema *Schema

	MaxTokens int

	// Temperature in 0.0 - 1.0. Zero means deterministic.
	Temperature float64
}

// Message is one conversation message.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema defines the JSON structure expected from the model.
type Schema struct {
	// Name identifies the schema, kebab-case, e.g. "viva-judgement".
	Name string

	Description string

	// Definition is the JSON Schema as a map.
	Definition map[string]any
}

// Response holds the model output.
type Response struct {
	// Content is the validated JSON object for schema requests and the raw
	// text otherwise.
	Content json.RawMessage

	Usage Usage

	// Model is the model that actually served the request.
	Model string

	// StopReason is normalized to "end", "max_tokens" or "error".
	StopReason string
}

// Text returns the response as plain text, unquoting it when a provider
// returned a JSON string.
func (r *Response) Text() string {
	raw := strings.TrimSpace(string(r.Content))
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(r.Content, &s); err == nil {
			return strings.TrimSpace(s)
		}
	}
	return raw
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
