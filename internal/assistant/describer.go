package assistant

import (
	"context"
	"sync"
	"time"
)

// requestTimeout bounds a single scene-analysis call.
const requestTimeout = 20 * time.Second

// Describer issues scene analyses asynchronously so frame capture is never
// stalled on network I/O. A new request supersedes an in-flight one: only the
// latest request's result is kept and delivered.
type Describer struct {
	assistant Assistant
	onResult  func(*SceneDescription, error)

	mu   sync.Mutex
	seq  uint64
	last *SceneDescription
}

// NewDescriber creates a Describer. onResult is invoked from a background
// goroutine with the outcome of the latest request; superseded results are
// dropped silently. onResult may be nil. It runs with the Describer's lock
// held and must not call back into the Describer.
func NewDescriber(a Assistant, onResult func(*SceneDescription, error)) *Describer {
	return &Describer{
		assistant: a,
		onResult:  onResult,
	}
}

// Request starts a scene analysis for the given detection summary and
// returns immediately.
func (d *Describer) Request(detections string) {
	d.mu.Lock()
	d.seq++
	id := d.seq
	d.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		description, err := d.assistant.DescribeScene(ctx, detections)

		// The mutex stays held through delivery so the staleness check and
		// the callback are atomic with respect to newer requests. Otherwise
		// a result that passed the check could apply after a newer one.
		d.mu.Lock()
		defer d.mu.Unlock()
		if id != d.seq {
			// A newer request is in flight or already done.
			return
		}
		if err == nil {
			d.last = description
		}
		if d.onResult != nil {
			d.onResult(description, err)
		}
	}()
}

// Last returns the most recently delivered scene description, if any.
func (d *Describer) Last() *SceneDescription {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}
