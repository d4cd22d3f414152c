// Package assistant provides scene descriptions, navigation advice and Q&A
// through the Gemini API.
package assistant

import (
	"context"
	"fmt"
	"time"
)

// APIError reports a Gemini call failure (invalid key, rate limit, network).
// It is surfaced as a user-visible message and never crashes the capture loop.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("assistant api error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("assistant api error: %s", e.Message)
}

// SceneDescription is the structured scene analysis for the user.
type SceneDescription struct {
	Summary          string   `json:"summary"`
	NavigationAdvice string   `json:"navigation_advice"`
	PotentialHazards []string `json:"potential_hazards"`
	SafeDirection    string   `json:"safe_direction"`
}

// Assistant answers scene questions from a textual summary of the current
// detections. Implementations are thin call-through bindings to a language
// model; the capture pipeline never depends on one being configured.
type Assistant interface {
	// DescribeScene returns a structured description of the scene.
	DescribeScene(ctx context.Context, detections string) (*SceneDescription, error)

	// QuickDescription returns a one-sentence spoken summary of the scene.
	QuickDescription(ctx context.Context, detections string) (string, error)

	// Answer responds to a user question about the detected objects.
	Answer(ctx context.Context, detections string, question string) (string, error)
}

// Config holds assistant settings.
type Config struct {
	// APIKey enables the Gemini features when present.
	APIKey string

	// Model is the Gemini model name.
	Model string

	// AnalysisCooldown is the minimum interval between scene analyses;
	// requests inside the window are answered from the cached description.
	AnalysisCooldown time.Duration
}

// DefaultConfig returns the default assistant settings (no API key).
func DefaultConfig() Config {
	return Config{
		Model:            "gemini-flash-latest",
		AnalysisCooldown: 5 * time.Second,
	}
}
