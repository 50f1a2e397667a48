package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// purposeHeader carries the request's purpose label to the API so usage
// can be split by feature on the provider side too.
const purposeHeader = "X-Sapio-Purpose"

var anthropicModels = map[string]string{
	"claude-sonnet": "claude-sonnet-4-20250514",
	"claude-haiku":  "claude-haiku-4-5-20251001",
}

// AnthropicProvider talks to the Messages API. Schema requests force a
// single tool call whose input schema is the requested one; the tool input
// is the answer.
type AnthropicProvider struct {
	client *anthropic.Client
	model  string
}

func NewAnthropicProvider(cfg AnthropicConfig) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// RetryProvider owns retries.
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)
	return &AnthropicProvider{client: &client, model: resolveModel(cfg.Model, anthropicModels)}, nil
}

func (p *AnthropicProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(max(req.MaxTokens, 1)),
		Messages:  anthropicMessages(req.Messages),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}
	if req.Schema != nil {
		tool, choice := answerTool(req.Schema)
		params.Tools = []anthropic.ToolUnionParam{{OfTool: &tool}}
		params.ToolChoice = choice
	}

	msg, err := p.client.Messages.New(ctx, params, option.WithHeader(purposeHeader, PurposeFrom(ctx)))
	if err != nil {
		return nil, mapAnthropicError(ctx, err)
	}

	resp := &Response{
		Usage: Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
			TotalTokens:  int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
		Model:      string(msg.Model),
		StopReason: anthropicStopReason(msg.StopReason),
	}

	if req.Schema == nil {
		text := anthropicText(msg)
		if text == "" {
			return nil, &ErrInvalidResponse{Err: errors.New("reply has no text")}
		}
		resp.Content = []byte(text)
		return resp, nil
	}

	if resp.StopReason == "max_tokens" {
		return nil, &ErrMaxTokensExceeded{Content: []byte(anthropicText(msg))}
	}
	reply := anthropicText(msg)
	for _, block := range msg.Content {
		if block.Type == "tool_use" && block.Name == req.Schema.Name {
			reply = string(block.Input)
			break
		}
	}
	if resp.Content, err = decodeStructured(req.Schema, reply); err != nil {
		return nil, err
	}
	return resp, nil
}

func (p *AnthropicProvider) ModelID() string {
	return p.model
}

// answerTool turns s into the one tool the model must call.
func answerTool(s *Schema) (anthropic.ToolParam, anthropic.ToolChoiceUnionParam) {
	input := anthropic.ToolInputSchemaParam{
		Properties:  s.Definition["properties"],
		ExtraFields: map[string]any{},
	}
	for k, v := range s.Definition {
		switch k {
		case "type", "properties":
		case "required":
			input.Required = stringList(v)
		default:
			input.ExtraFields[k] = v
		}
	}

	tool := anthropic.ToolParam{Name: s.Name, InputSchema: input}
	if s.Description != "" {
		tool.Description = anthropic.String(s.Description)
	}
	choice := anthropic.ToolChoiceUnionParam{OfTool: &anthropic.ToolChoiceToolParam{Name: s.Name}}
	return tool, choice
}

func stringList(v any) []string {
	switch l := v.(type) {
	case []string:
		return l
	case []any:
		out := make([]string, 0, len(l))
		for _, e := range l {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func anthropicMessages(msgs []Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(block))
		} else {
			out = append(out, anthropic.NewUserMessage(block))
		}
	}
	return out
}

// anthropicText joins the reply's text blocks.
func anthropicText(msg *anthropic.Message) string {
	text := ""
	for _, block := range msg.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return text
}

func anthropicStopReason(r anthropic.StopReason) string {
	if r == anthropic.StopReasonMaxTokens {
		return "max_tokens"
	}
	return "end"
}

func mapAnthropicError(ctx context.Context, err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return providerError(ctx, 0, nil, err)
	}
	var header http.Header
	if apiErr.Response != nil {
		header = apiErr.Response.Header
	}
	// 529 is Anthropic's "overloaded".
	return providerError(ctx, apiErr.StatusCode, header, err)
}

// resolveModel maps a friendly model name to a provider model ID. Unknown
// names are taken as IDs.
func resolveModel(name string, models map[string]string) string {
	if id, ok := models[name]; ok {
		return id
	}
	return name
}
