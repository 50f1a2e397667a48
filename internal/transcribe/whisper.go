package transcribe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultWhisperBaseURL = "https://api.groq.com/openai/v1"
	defaultWhisperModel   = "whisper-large-v3"
)

// WhisperTranscriber calls an OpenAI-compatible transcription endpoint,
// Groq's by default.
type WhisperTranscriber struct {
	client *openai.Client
	model  string
}

// NewWhisper creates a Whisper transcriber.
func NewWhisper(cfg Config) (*WhisperTranscriber, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("whisper API key is required")
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = defaultWhisperBaseURL
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultWhisperModel
	}
	return &WhisperTranscriber{client: openai.NewClientWithConfig(oc), model: model}, nil
}

func (w *WhisperTranscriber) Name() string { return "whisper" }

func (w *WhisperTranscriber) Transcribe(ctx context.Context, a Audio) (*Transcript, error) {
	a = withDefaults(a)
	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: a.Filename,
		Reader:   bytes.NewReader(a.Data),
		Language: a.Language,
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("transcription failed: %s", apiErr.Message)
		}
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return nil, ErrNoSpeech
	}

	noSpeech := make([]float64, len(resp.Segments))
	for i, s := range resp.Segments {
		noSpeech[i] = s.NoSpeechProb
	}

	lang := resp.Language
	if lang == "" {
		lang = a.Language
	}
	return &Transcript{
		Text:            text,
		DurationSeconds: resp.Duration,
		Language:        lang,
		Confidence:      whisperConfidence(noSpeech),
		Provider:        w.Name(),
	}, nil
}

// whisperConfidence inverts the mean no-speech probability of the
// segments. Whisper reports no direct confidence.
func whisperConfidence(noSpeech []float64) float64 {
	if len(noSpeech) == 0 {
		return 0.8
	}
	var sum float64
	for _, p := range noSpeech {
		sum += p
	}
	return round2(1 - sum/float64(len(noSpeech)))
}
