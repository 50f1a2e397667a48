package llm

import (
	"context"
	"fmt"

	"github.com/sapiocode/sapio/internal/logger"
	"github.com/sapiocode/sapio/internal/store"
)

// NewProvider creates a Provider from configuration, wrapped as
// caller → timeout → retry → logging → base. A nil repo disables event
// recording.
func NewProvider(ctx context.Context, cfg Config, repo store.EventRepo, log *logger.Logger) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "groq":
		base, err = NewGroqProvider(cfg.Groq)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	return decorate(base, cfg, repo, log), nil
}

// decorate wraps base as timeout → retry → logging, so every attempt is
// logged and the timeout covers all of them.
func decorate(base Provider, cfg Config, repo store.EventRepo, log *logger.Logger) Provider {
	logged := WithLogging(base, cfg.Provider, repo, log)
	return WithTimeout(WithRetry(logged, cfg.Retry), cfg.Timeout)
}
