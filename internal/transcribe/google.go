package transcribe

import (
	"context"
	"fmt"
	"os"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// recognizer is the slice of the Speech client used here.
type recognizer interface {
	Recognize(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)
	Close() error
}

type speechClient struct{ c *speech.Client }

func (s speechClient) Recognize(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
	return s.c.Recognize(ctx, req)
}

func (s speechClient) Close() error { return s.c.Close() }

// GoogleTranscriber uses Cloud Speech-to-Text synchronous recognition.
type GoogleTranscriber struct {
	client recognizer
}

// NewGoogle creates a Speech-to-Text client with credentials taken from
// the environment.
func NewGoogle(ctx context.Context) (*GoogleTranscriber, error) {
	c, err := speech.NewClient(ctx, clientOptionsFromEnv()...)
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}
	return &GoogleTranscriber{client: speechClient{c}}, nil
}

func clientOptionsFromEnv() []option.ClientOption {
	if raw := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON")); raw != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(raw))}
	}
	if path := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")); path != "" {
		return []option.ClientOption{option.WithCredentialsFile(path)}
	}
	return nil
}

func (g *GoogleTranscriber) Name() string { return "google" }

// Close releases the underlying connection.
func (g *GoogleTranscriber) Close() error { return g.client.Close() }

func (g *GoogleTranscriber) Transcribe(ctx context.Context, a Audio) (*Transcript, error) {
	a = withDefaults(a)
	resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   speechEncoding(Format(a.Filename)),
			LanguageCode:               a.Language,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: a.Data},
		},
	})
	if err != nil {
		return nil, mapSpeechError(err)
	}

	var parts []string
	var confSum float64
	for _, r := range resp.GetResults() {
		alts := r.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		if t := strings.TrimSpace(alts[0].GetTranscript()); t != "" {
			parts = append(parts, t)
			confSum += float64(alts[0].GetConfidence())
		}
	}
	if len(parts) == 0 {
		return nil, ErrNoSpeech
	}

	var duration float64
	if d := resp.GetTotalBilledTime(); d != nil {
		duration = d.AsDuration().Seconds()
	}
	return &Transcript{
		Text:            strings.Join(parts, " "),
		DurationSeconds: duration,
		Language:        a.Language,
		Confidence:      round2(confSum / float64(len(parts))),
		Provider:        g.Name(),
	}, nil
}

// speechEncoding maps a file extension to a v1 encoding. Containers the
// API detects itself map to unspecified.
func speechEncoding(format string) speechpb.RecognitionConfig_AudioEncoding {
	switch format {
	case "wav":
		return speechpb.RecognitionConfig_LINEAR16
	case "flac":
		return speechpb.RecognitionConfig_FLAC
	case "mp3", "mpeg", "mpga":
		return speechpb.RecognitionConfig_MP3
	case "ogg":
		return speechpb.RecognitionConfig_OGG_OPUS
	case "webm":
		return speechpb.RecognitionConfig_WEBM_OPUS
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED
	}
}

func mapSpeechError(err error) error {
	switch status.Code(err) {
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, status.Convert(err).Message())
	case codes.DeadlineExceeded, codes.Canceled:
		return fmt.Errorf("transcription timed out: %w", err)
	default:
		return fmt.Errorf("transcription failed: %w", err)
	}
}
