package speech

import (
	"context"
	"sync"
)

// MockSynthesizer is a test implementation of the Synthesizer interface.
// It records synthesized phrases and returns canned audio.
type MockSynthesizer struct {
	mu      sync.Mutex
	phrases []string
	audio   []byte
	err     error
}

// NewMockSynthesizer creates a MockSynthesizer returning placeholder audio.
func NewMockSynthesizer() *MockSynthesizer {
	return &MockSynthesizer{audio: []byte("mp3")}
}

// SetError sets the error returned by Synthesize.
func (m *MockSynthesizer) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Synthesize records the phrase and returns the canned audio or error.
func (m *MockSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.phrases = append(m.phrases, text)
	return m.audio, nil
}

// Phrases returns the phrases synthesized so far.
func (m *MockSynthesizer) Phrases() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.phrases))
	copy(out, m.phrases)
	return out
}
