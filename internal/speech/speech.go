// Package speech turns alert messages into audio the browser UI can play.
package speech

import (
	"context"
	"errors"
)

// ErrAudioUnavailable is returned when speech synthesis fails. The pipeline
// skips the voice alert and keeps processing frames.
var ErrAudioUnavailable = errors.New("audio synthesis unavailable")

// Synthesizer converts text to spoken audio.
type Synthesizer interface {
	// Synthesize returns MP3 audio for the given text.
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Config holds voice settings.
type Config struct {
	// Language is the BCP-47 speech language code.
	Language string

	// Rate is the playback rate hint forwarded to the UI player (1.0 =
	// normal). Values below 1.0 also request slow synthesis.
	Rate float64
}

// DefaultConfig returns the default Spanish voice settings.
func DefaultConfig() Config {
	return Config{
		Language: "es",
		Rate:     1.0,
	}
}
