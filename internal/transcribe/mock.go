package transcribe

import (
	"context"
	"sync"
)

// MockTranscriber returns queued transcripts in order, then repeats the
// last one.
type MockTranscriber struct {
	mu    sync.Mutex
	texts []string
	err   error
	calls int
}

// NewMock creates a mock that answers with texts.
func NewMock(texts ...string) *MockTranscriber {
	return &MockTranscriber{texts: texts}
}

// NewFailingMock creates a mock that always fails with err.
func NewFailingMock(err error) *MockTranscriber {
	return &MockTranscriber{err: err}
}

func (m *MockTranscriber) Name() string { return "mock" }

func (m *MockTranscriber) Transcribe(_ context.Context, a Audio) (*Transcript, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.texts) == 0 {
		return nil, ErrNoSpeech
	}
	text := m.texts[0]
	if len(m.texts) > 1 {
		m.texts = m.texts[1:]
	}
	a = withDefaults(a)
	return &Transcript{Text: text, Language: a.Language, Confidence: 1, Provider: m.Name()}, nil
}

// Calls returns how many times Transcribe ran.
func (m *MockTranscriber) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
