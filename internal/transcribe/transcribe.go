// Package transcribe turns recorded viva answers into text. Audio is
// validated locally before any provider sees it.
package transcribe

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/sapiocode/sapio/internal/logger"
	"github.com/sapiocode/sapio/internal/metrics"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrAudioTooShort     = errors.New("audio too short, record at least 1 second")
	ErrAudioTooLong      = errors.New("audio too long")
	ErrNoSpeech          = errors.New("no speech detected in audio")
	ErrDisabled          = errors.New("transcription is not configured")
)

// Limits on accepted audio. Sizes are rough: about 1 KiB per second of
// compressed speech at the low end and 100 KiB per second at the high end.
const (
	MinAudioBytes      = 1000
	MaxDurationSeconds = 120
	MaxAudioBytes      = MaxDurationSeconds * 100 * 1024

	defaultFilename = "audio.webm"
)

// SupportedFormats lists accepted file extensions.
var SupportedFormats = []string{"mp3", "mp4", "mpeg", "mpga", "m4a", "wav", "webm", "ogg", "flac"}

// Audio is a recorded answer.
type Audio struct {
	Data     []byte
	Filename string
	Language string // ISO 639-1, default "en"
}

// Transcript is the recognized text of an Audio.
type Transcript struct {
	Text            string  `json:"text"`
	DurationSeconds float64 `json:"duration_seconds"`
	Language        string  `json:"language"`
	Confidence      float64 `json:"confidence"`
	Provider        string  `json:"provider"`
}

// Transcriber converts speech to text.
type Transcriber interface {
	Transcribe(ctx context.Context, a Audio) (*Transcript, error)
	Name() string
}

// Format returns the lower-case extension of filename, "webm" when it has
// none.
func Format(filename string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "" {
		return "webm"
	}
	return ext
}

// Validate checks format and size and returns the format.
func Validate(a Audio) (string, error) {
	format := Format(a.Filename)
	if !slices.Contains(SupportedFormats, format) {
		return "", fmt.Errorf("%w: %s (use one of %s)", ErrUnsupportedFormat, format, strings.Join(SupportedFormats, ", "))
	}
	if len(a.Data) < MinAudioBytes {
		return "", ErrAudioTooShort
	}
	if len(a.Data) > MaxAudioBytes {
		return "", fmt.Errorf("%w: maximum %d seconds", ErrAudioTooLong, MaxDurationSeconds)
	}
	return format, nil
}

// Rejected reports whether err came from local validation rather than
// the provider.
func Rejected(err error) bool {
	return errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrAudioTooShort) ||
		errors.Is(err, ErrAudioTooLong)
}

// DecodeBase64 decodes base64 audio, accepting a data URL prefix.
func DecodeBase64(s string) ([]byte, error) {
	if i := strings.Index(s, ","); i >= 0 {
		s = s[i+1:]
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64 audio: %v", ErrUnsupportedFormat, err)
	}
	return data, nil
}

func withDefaults(a Audio) Audio {
	if a.Filename == "" {
		a.Filename = defaultFilename
	}
	if a.Language == "" {
		a.Language = "en"
	}
	return a
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// instrumented adds validation, metrics and logging around a provider.
type instrumented struct {
	inner Transcriber
	log   *logger.Logger
}

// Instrument wraps t so every call is validated first and counted.
func Instrument(t Transcriber, log *logger.Logger) Transcriber {
	return &instrumented{inner: t, log: logger.OrNop(log)}
}

func (i *instrumented) Name() string { return i.inner.Name() }

func (i *instrumented) Transcribe(ctx context.Context, a Audio) (*Transcript, error) {
	a = withDefaults(a)
	if _, err := Validate(a); err != nil {
		metrics.RecordTranscription(i.inner.Name(), "rejected")
		return nil, err
	}

	start := time.Now()
	tr, err := i.inner.Transcribe(ctx, a)
	if err != nil {
		metrics.RecordTranscription(i.inner.Name(), "error")
		i.log.Warn("transcription failed", "provider", i.inner.Name(), "bytes", len(a.Data), "error", err)
		return nil, err
	}
	metrics.RecordTranscription(i.inner.Name(), "success")
	i.log.Debug("transcribed audio", "provider", i.inner.Name(), "bytes", len(a.Data),
		"latency_ms", time.Since(start).Milliseconds(), "confidence", tr.Confidence)
	return tr, nil
}
