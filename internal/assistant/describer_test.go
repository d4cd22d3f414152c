package assistant

import (
	"sync"
	"testing"
	"time"
)

func TestDescriber_DeliversResult(t *testing.T) {
	mock := NewMockAssistant()

	var mu sync.Mutex
	var delivered []*SceneDescription
	done := make(chan struct{}, 4)

	d := NewDescriber(mock, func(desc *SceneDescription, err error) {
		mu.Lock()
		delivered = append(delivered, desc)
		mu.Unlock()
		done <- struct{}{}
	})

	d.Request("persona, carro")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for description")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(delivered) != 1 {
		t.Fatalf("delivered %d results, want 1", len(delivered))
	}
	if delivered[0].Summary == "" {
		t.Error("expected a non-empty summary")
	}
	if d.Last() == nil {
		t.Error("Last() should return the delivered description")
	}
}

func TestDescriber_NewRequestSupersedesInFlight(t *testing.T) {
	mock := NewMockAssistant()
	mock.Block()

	var mu sync.Mutex
	deliveries := 0
	done := make(chan struct{}, 4)

	d := NewDescriber(mock, func(desc *SceneDescription, err error) {
		mu.Lock()
		deliveries++
		mu.Unlock()
		done <- struct{}{}
	})

	// First request blocks inside the assistant.
	d.Request("persona")

	// Wait for the first call to be in flight before superseding it.
	deadline := time.Now().Add(2 * time.Second)
	for mock.Calls() < 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	// Second request supersedes the first, then both are released.
	d.Request("persona, carro")
	for mock.Calls() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	mock.Unblock()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for latest result")
	}

	// Give the superseded goroutine a chance to (incorrectly) deliver.
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if deliveries != 1 {
		t.Errorf("deliveries = %d, want 1 (superseded result dropped)", deliveries)
	}
}

func TestDescriber_SlowDeliveryCannotOverwriteNewer(t *testing.T) {
	mock := NewMockAssistant()
	mock.SetDescription(&SceneDescription{Summary: "vieja"})

	var mu sync.Mutex
	var applied []string
	firstEntered := make(chan struct{})
	release := make(chan struct{})
	first := true

	d := NewDescriber(mock, func(desc *SceneDescription, err error) {
		if first {
			// The first result is slow to apply, as when the callback
			// contends on a busy state lock.
			first = false
			close(firstEntered)
			<-release
		}
		mu.Lock()
		applied = append(applied, desc.Summary)
		mu.Unlock()
	})

	d.Request("persona")

	select {
	case <-firstEntered:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the first delivery to start")
	}

	// A newer request is issued while the first result's delivery is still
	// pending. Its result must be the one left applied.
	mock.SetDescription(&SceneDescription{Summary: "nueva"})
	go func() {
		time.Sleep(50 * time.Millisecond)
		close(release)
	}()
	d.Request("persona, carro")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(applied)
		mu.Unlock()
		if n >= 2 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(applied) == 0 {
		t.Fatal("no deliveries applied")
	}
	if got := applied[len(applied)-1]; got != "nueva" {
		t.Errorf("final applied description = %q, want %q", got, "nueva")
	}
	if last := d.Last(); last == nil || last.Summary != "nueva" {
		t.Errorf("Last() = %+v, want the newer description", last)
	}
}
