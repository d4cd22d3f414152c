package assistant

import (
	"context"
	"sync"
)

// MockAssistant is a test implementation of the Assistant interface.
type MockAssistant struct {
	mu          sync.Mutex
	description *SceneDescription
	answer      string
	err         error
	calls       int
	block       chan struct{}
}

// NewMockAssistant creates a MockAssistant with a canned description.
func NewMockAssistant() *MockAssistant {
	return &MockAssistant{
		description: &SceneDescription{
			Summary:          "Una persona y un carro al frente",
			NavigationAdvice: "Muévete a la derecha",
			PotentialHazards: []string{"carro"},
			SafeDirection:    "derecha",
		},
		answer: "Hay un carro al frente",
	}
}

// SetDescription sets the description returned by DescribeScene.
func (m *MockAssistant) SetDescription(d *SceneDescription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.description = d
}

// SetError sets the error returned by all calls.
func (m *MockAssistant) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Block makes DescribeScene wait until Unblock is called. Used to test
// latest-result-wins behavior.
func (m *MockAssistant) Block() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.block = make(chan struct{})
}

// Unblock releases a pending Block.
func (m *MockAssistant) Unblock() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.block != nil {
		close(m.block)
		m.block = nil
	}
}

// Calls returns how many DescribeScene calls were made.
func (m *MockAssistant) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// DescribeScene returns the canned description or error.
func (m *MockAssistant) DescribeScene(ctx context.Context, detections string) (*SceneDescription, error) {
	m.mu.Lock()
	m.calls++
	block := m.block
	err := m.err
	description := m.description
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return description, nil
}

// QuickDescription returns the canned summary or error.
func (m *MockAssistant) QuickDescription(ctx context.Context, detections string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	return m.description.Summary, nil
}

// Answer returns the canned answer or error.
func (m *MockAssistant) Answer(ctx context.Context, detections string, question string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	return m.answer, nil
}
