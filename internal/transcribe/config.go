package transcribe

import (
	"context"
	"fmt"
	"os"

	"github.com/sapiocode/sapio/internal/logger"
)

// Config selects and configures a transcription provider.
type Config struct {
	Provider string `yaml:"provider"` // whisper, google, mock or empty
	APIKey   string `yaml:"-"`
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`
}

// ApplyEnv fills the API key from the environment when unset.
func (c *Config) ApplyEnv() {
	if c.APIKey != "" {
		return
	}
	for _, k := range []string{"SAPIO_TRANSCRIBE_API_KEY", "GROQ_API_KEY"} {
		if v := os.Getenv(k); v != "" {
			c.APIKey = v
			return
		}
	}
}

// New builds the configured transcriber wrapped with validation and
// metrics. An empty provider returns ErrDisabled.
func New(ctx context.Context, cfg Config, log *logger.Logger) (Transcriber, error) {
	var (
		t   Transcriber
		err error
	)
	switch cfg.Provider {
	case "":
		return nil, ErrDisabled
	case "whisper", "groq":
		t, err = NewWhisper(cfg)
	case "google":
		t, err = NewGoogle(ctx)
	case "mock":
		t = NewMock("I am not sure what this code does.")
	default:
		return nil, fmt.Errorf("unknown transcription provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return Instrument(t, log), nil
}
