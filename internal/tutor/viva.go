package tutor

import (
	"context"
	"strings"

	"github.com/sapiocode/sapio/internal/transcribe"
	"github.com/sapiocode/sapio/internal/viva"
)

// StartViva opens a viva on code with up to n questions.
func (s *Service) StartViva(ctx context.Context, studentID, code string, n int) (viva.Session, error) {
	if strings.TrimSpace(studentID) == "" {
		return viva.Session{}, ErrStudentRequired
	}
	return s.viva.Start(ctx, studentID, code, n)
}

// SubmitVivaAnswer scores a text answer to the session's current question.
func (s *Service) SubmitVivaAnswer(ctx context.Context, sessionID, transcript string, durationSeconds float64) (viva.Evaluation, error) {
	return s.viva.Submit(ctx, sessionID, transcript, durationSeconds)
}

// AudioEvaluation is a scored spoken answer.
type AudioEvaluation struct {
	Transcript transcribe.Transcript `json:"transcription"`
	Evaluation viva.Evaluation       `json:"evaluation"`
}

// SubmitVivaAudio transcribes a spoken answer and scores it like a text
// answer. The session is checked before any audio leaves the process.
func (s *Service) SubmitVivaAudio(ctx context.Context, sessionID string, audio transcribe.Audio) (AudioEvaluation, error) {
	if s.transcriber == nil {
		return AudioEvaluation{}, transcribe.ErrDisabled
	}
	if _, err := s.viva.Current(sessionID); err != nil {
		return AudioEvaluation{}, err
	}
	tr, err := s.transcriber.Transcribe(ctx, audio)
	if err != nil {
		return AudioEvaluation{}, err
	}
	ev, err := s.viva.Submit(ctx, sessionID, tr.Text, tr.DurationSeconds)
	if err != nil {
		return AudioEvaluation{}, err
	}
	return AudioEvaluation{Transcript: *tr, Evaluation: ev}, nil
}

// VivaVerdict grades the session.
func (s *Service) VivaVerdict(ctx context.Context, sessionID string) (viva.Report, error) {
	return s.viva.Verdict(ctx, sessionID)
}
