// Package alert decides when a classified detection may be vocalized.
package alert

import (
	"sync"
	"time"

	"github.com/ayusman/lazarillo/internal/risk"
)

// Cooldowns maps danger levels to the minimum time between successive voice
// alerts for the same object label. High gets the shortest cooldown so
// escalating danger surfaces promptly; Low never alerts.
type Cooldowns struct {
	High   time.Duration
	Medium time.Duration
}

// DefaultCooldowns returns the default per-level alert cooldowns.
func DefaultCooldowns() Cooldowns {
	return Cooldowns{
		High:   2 * time.Second,
		Medium: 5 * time.Second,
	}
}

// Scheduler tracks per-label last-alert timestamps for one capture session
// and decides whether a classified detection is eligible to be vocalized.
// Safe for concurrent use; the capture loop and HTTP handlers share it.
type Scheduler struct {
	cooldowns Cooldowns
	mu        sync.Mutex
	lastAlert map[string]time.Time
}

// NewScheduler creates a Scheduler with the given cooldowns.
func NewScheduler(cooldowns Cooldowns) *Scheduler {
	return &Scheduler{
		cooldowns: cooldowns,
		lastAlert: make(map[string]time.Time),
	}
}

// ShouldAlert reports whether an alert for label at the given danger level
// may fire at time now. When it returns true, now is recorded as the label's
// last alert time. Low level detections never alert.
//
// A label's recorded timestamp is monotonically non-decreasing: a call with
// now earlier than the label's last alert is treated as still in cooldown.
func (s *Scheduler) ShouldAlert(label string, level risk.Level, now time.Time) bool {
	if level == risk.Low {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	last, seen := s.lastAlert[label]
	if seen {
		if now.Before(last) {
			return false
		}
		if now.Sub(last) < s.cooldown(level) {
			return false
		}
	}

	s.lastAlert[label] = now
	return true
}

// LastAlert returns the last alert time recorded for a label, if any.
func (s *Scheduler) LastAlert(label string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.lastAlert[label]
	return t, ok
}

// Reset clears all per-label alert history. Called when a session restarts.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAlert = make(map[string]time.Time)
}

func (s *Scheduler) cooldown(level risk.Level) time.Duration {
	if level == risk.High {
		return s.cooldowns.High
	}
	return s.cooldowns.Medium
}

// Reduce collapses multiple assessments of the same label within one frame
// batch to the single highest danger level, so the cooldown is evaluated
// against the worst case. Ties keep the higher score.
func Reduce(assessments []risk.Assessment) map[string]risk.Assessment {
	reduced := make(map[string]risk.Assessment, len(assessments))
	for _, a := range assessments {
		best, ok := reduced[a.Detection.Label]
		if !ok || a.Level > best.Level || (a.Level == best.Level && a.Score > best.Score) {
			reduced[a.Detection.Label] = a
		}
	}
	return reduced
}
