package speech

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"
)

const (
	defaultEndpoint = "https://translate.google.com/translate_tts"

	// maxCacheEntries bounds the in-memory phrase cache. Alert phrases
	// repeat heavily, so even a small cache avoids most network calls.
	maxCacheEntries = 128

	requestTimeout = 5 * time.Second
)

// GoogleTTS synthesizes speech through the Google Translate TTS endpoint,
// returning MP3 bytes. Repeated phrases are served from an in-memory cache.
type GoogleTTS struct {
	config   Config
	endpoint string
	client   *http.Client

	mu    sync.Mutex
	cache map[string][]byte
}

// NewGoogleTTS creates a GoogleTTS synthesizer with the given voice config.
func NewGoogleTTS(config Config) *GoogleTTS {
	if config.Language == "" {
		config.Language = "es"
	}
	return &GoogleTTS{
		config:   config,
		endpoint: defaultEndpoint,
		client:   &http.Client{Timeout: requestTimeout},
		cache:    make(map[string][]byte),
	}
}

// SetEndpoint overrides the TTS endpoint. Used by tests.
func (g *GoogleTTS) SetEndpoint(endpoint string) {
	g.endpoint = endpoint
}

// Synthesize returns MP3 audio for the given text, from cache when possible.
// Failures are reported as ErrAudioUnavailable.
func (g *GoogleTTS) Synthesize(ctx context.Context, text string) ([]byte, error) {
	g.mu.Lock()
	if audio, ok := g.cache[text]; ok {
		g.mu.Unlock()
		return audio, nil
	}
	g.mu.Unlock()

	audio, err := g.fetch(ctx, text)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	if len(g.cache) >= maxCacheEntries {
		// Drop everything rather than track recency; the hot phrases
		// repopulate within a few frames.
		g.cache = make(map[string][]byte)
	}
	g.cache[text] = audio
	g.mu.Unlock()

	return audio, nil
}

func (g *GoogleTTS) fetch(ctx context.Context, text string) ([]byte, error) {
	params := url.Values{}
	params.Set("ie", "UTF-8")
	params.Set("client", "tw-ob")
	params.Set("tl", g.config.Language)
	params.Set("q", text)
	if g.config.Rate < 1.0 {
		params.Set("ttsspeed", "0.5")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAudioUnavailable, err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAudioUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrAudioUnavailable, resp.StatusCode)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAudioUnavailable, err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrAudioUnavailable)
	}

	return audio, nil
}
