// Package app orchestrates the Lazarillo detection sessions: camera capture,
// object detection, danger classification and voice alerts.
package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ayusman/lazarillo/internal/alert"
	"github.com/ayusman/lazarillo/internal/assistant"
	"github.com/ayusman/lazarillo/internal/capture"
	"github.com/ayusman/lazarillo/internal/detect"
	"github.com/ayusman/lazarillo/internal/metrics"
	"github.com/ayusman/lazarillo/internal/risk"
	"github.com/ayusman/lazarillo/internal/speech"
	"github.com/ayusman/lazarillo/internal/store"
)

// Pipeline timing constants.
const (
	// IdleFPS is the frame rate while the scene is static.
	IdleFPS = 5
	// ActiveFPS is the frame rate while motion is present.
	ActiveFPS = 15
	// IdleTimeoutMs is how long motion must be absent before dropping back to idle.
	IdleTimeoutMs = 2000
)

// Config holds configuration options for the application.
type Config struct {
	Store        *store.Store
	Metrics      *metrics.Metrics
	Logger       zerolog.Logger
	CameraID     int
	MotionThresh float64
	Thresholds   risk.Thresholds
	Cooldowns    alert.Cooldowns

	// Detector is the object detector to use. The caller builds it from
	// configuration; when nil the mock detector is used.
	Detector detect.Detector

	// VoiceVolume is the playback volume hint carried on alerts, 0.0-1.0.
	// Zero means full volume.
	VoiceVolume float64
}

// Alert is one vocalized warning pushed to subscribers. Audio carries MP3
// bytes for browser playback; it is nil when synthesis failed. Volume is the
// configured playback volume hint, 0.0-1.0.
type Alert struct {
	SessionID string    `json:"session_id"`
	Label     string    `json:"label"`
	Level     string    `json:"level"`
	Score     float64   `json:"score"`
	Message   string    `json:"message"`
	Audio     []byte    `json:"audio,omitempty"`
	Volume    float64   `json:"volume"`
	At        time.Time `json:"at"`
}

// State is a snapshot of the current session for the UI.
type State struct {
	Running     bool                        `json:"running"`
	Enabled     bool                        `json:"enabled"`
	SessionID   string                      `json:"session_id,omitempty"`
	DangerLevel string                      `json:"danger_level"`
	Assessments []risk.Assessment           `json:"assessments"`
	Frames      int64                       `json:"frames"`
	Alerts      int64                       `json:"alerts"`
	DetectorOK  bool                        `json:"detector_ok"`
	LastError   string                      `json:"last_error,omitempty"`
	Description *assistant.SceneDescription `json:"description,omitempty"`
}

// App drives one detection session at a time and holds the shared state the
// HTTP handlers and the describer read and write.
type App struct {
	config    Config
	logger    zerolog.Logger
	camera    capture.Camera
	motion    *capture.MotionDetector
	detector  detect.Detector
	assessor  *risk.Assessor
	scheduler *alert.Scheduler
	synth     speech.Synthesizer
	metrics   *metrics.Metrics

	mu          sync.RWMutex
	assist      assistant.Assistant
	describer   *assistant.Describer
	enabled     bool
	stopCh      chan struct{}
	sessionID   string
	frames      int64
	alertCount  int64
	current     []risk.Assessment
	danger      risk.Level
	detectorOK  bool
	lastErr     string
	description *assistant.SceneDescription

	subMu sync.RWMutex
	subs  map[chan Alert]struct{}
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	motionThreshold := config.MotionThresh
	if motionThreshold <= 0 {
		motionThreshold = 1.0
	}
	m := config.Metrics
	if m == nil {
		m = metrics.New()
	}
	if config.VoiceVolume <= 0 || config.VoiceVolume > 1 {
		config.VoiceVolume = 1.0
	}

	a := &App{
		config:     config,
		logger:     config.Logger,
		camera:     capture.NewCamera(config.CameraID),
		motion:     capture.NewMotionDetector(motionThreshold),
		assessor:   risk.NewAssessor(config.Thresholds),
		scheduler:  alert.NewScheduler(config.Cooldowns),
		synth:      speech.NewGoogleTTS(speech.DefaultConfig()),
		metrics:    m,
		enabled:    true,
		detectorOK: true,
		subs:       make(map[chan Alert]struct{}),
	}

	if config.Detector != nil {
		a.detector = config.Detector
	} else {
		a.detector = detect.NewMockDetector()
	}

	return a
}

// SetEnabled enables or disables object detection without ending the session.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether detection is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetCamera replaces the camera implementation. Used by tests.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// SetDetector replaces the object detector implementation.
func (a *App) SetDetector(d detect.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// SetSynthesizer replaces the speech synthesizer implementation.
func (a *App) SetSynthesizer(s speech.Synthesizer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.synth = s
}

// SetAssistant installs the scene assistant. Passing nil disables scene
// descriptions. Called at startup and again when the API key is changed
// through the settings endpoint.
func (a *App) SetAssistant(as assistant.Assistant) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.assist = as
	if as == nil {
		a.describer = nil
		return
	}
	a.describer = assistant.NewDescriber(as, func(d *assistant.SceneDescription, err error) {
		a.mu.Lock()
		defer a.mu.Unlock()
		if err != nil {
			a.metrics.AssistantErrors.Inc()
			a.lastErr = err.Error()
			a.logger.Warn().Err(err).Msg("scene description failed")
			return
		}
		a.description = d
	})
}

// Start opens the camera and begins a new detection session.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}
	a.camera.SetFPS(IdleFPS)

	a.sessionID = uuid.New().String()
	a.frames = 0
	a.alertCount = 0
	a.current = nil
	a.danger = risk.Low
	a.description = nil
	a.lastErr = ""
	a.scheduler.Reset()
	a.motion.Reset()

	if a.config.Store != nil {
		session := &store.Session{
			ID:        a.sessionID,
			CameraID:  a.config.CameraID,
			StartedAt: time.Now(),
		}
		if err := a.config.Store.Sessions().Create(session); err != nil {
			a.logger.Error().Err(err).Msg("failed to record session start")
		}
	}

	a.stopCh = make(chan struct{})
	go a.runPipeline(a.stopCh)

	a.logger.Info().Str("session", a.sessionID).Msg("detection session started")
	return nil
}

// Stop ends the current session and releases the camera.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh == nil {
		return
	}
	close(a.stopCh)
	a.stopCh = nil

	if err := a.camera.Close(); err != nil {
		a.logger.Error().Err(err).Msg("error closing camera")
	}
	a.motion.Reset()

	if a.config.Store != nil && a.sessionID != "" {
		if err := a.config.Store.Sessions().End(a.sessionID, time.Now(), a.frames, a.alertCount); err != nil {
			a.logger.Error().Err(err).Msg("failed to record session end")
		}
	}

	a.logger.Info().
		Str("session", a.sessionID).
		Int64("frames", a.frames).
		Int64("alerts", a.alertCount).
		Msg("detection session stopped")
	a.sessionID = ""
}

// Close stops the session and releases the detector and motion resources.
func (a *App) Close() {
	a.Stop()
	a.motion.Close()

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			a.logger.Error().Err(err).Msg("error closing detector")
		}
	}
}

// Running reports whether a session is active.
func (a *App) Running() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stopCh != nil
}

// SessionID returns the ID of the active session, or "".
func (a *App) SessionID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.sessionID
}

// State returns a snapshot of the current session state.
func (a *App) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()

	assessments := make([]risk.Assessment, len(a.current))
	copy(assessments, a.current)

	return State{
		Running:     a.stopCh != nil,
		Enabled:     a.enabled,
		SessionID:   a.sessionID,
		DangerLevel: a.danger.String(),
		Assessments: assessments,
		Frames:      a.frames,
		Alerts:      a.alertCount,
		DetectorOK:  a.detectorOK,
		LastError:   a.lastErr,
		Description: a.description,
	}
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.camera
}

// Detector returns the object detector.
func (a *App) Detector() detect.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// Metrics returns the application metrics.
func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}

// RequestDescription asks the assistant for a full scene description of the
// current detections. The result lands in the state snapshot asynchronously.
func (a *App) RequestDescription() bool {
	a.mu.RLock()
	d := a.describer
	summary := detectionSummary(a.current)
	a.mu.RUnlock()

	if d == nil {
		return false
	}
	d.Request(summary)
	return true
}

// QuickDescribe asks the assistant for a one-sentence description of the
// surroundings, suitable for immediate vocalization.
func (a *App) QuickDescribe(ctx context.Context) (string, error) {
	a.mu.RLock()
	as := a.assist
	summary := detectionSummary(a.current)
	a.mu.RUnlock()

	if as == nil {
		return "", &assistant.APIError{Status: 503, Message: "asistente no configurado"}
	}
	text, err := as.QuickDescription(ctx, summary)
	if err != nil {
		a.metrics.AssistantErrors.Inc()
	}
	return text, err
}

// Answer forwards a spoken question about the surroundings to the assistant.
func (a *App) Answer(ctx context.Context, question string) (string, error) {
	a.mu.RLock()
	as := a.assist
	summary := detectionSummary(a.current)
	a.mu.RUnlock()

	if as == nil {
		return "", &assistant.APIError{Status: 503, Message: "asistente no configurado"}
	}
	answer, err := as.Answer(ctx, summary, question)
	if err != nil {
		a.metrics.AssistantErrors.Inc()
	}
	return answer, err
}

// Subscribe registers an alert channel. The returned function unsubscribes.
// Slow subscribers miss alerts rather than blocking the pipeline.
func (a *App) Subscribe() (<-chan Alert, func()) {
	ch := make(chan Alert, 8)

	a.subMu.Lock()
	a.subs[ch] = struct{}{}
	a.subMu.Unlock()

	cancel := func() {
		a.subMu.Lock()
		delete(a.subs, ch)
		a.subMu.Unlock()
	}
	return ch, cancel
}

func (a *App) publish(alert Alert) {
	a.subMu.RLock()
	defer a.subMu.RUnlock()
	for ch := range a.subs {
		select {
		case ch <- alert:
		default:
		}
	}
}

// detectionSummary renders the current assessments as the Spanish context
// string the assistant prompts are built from.
func detectionSummary(assessments []risk.Assessment) string {
	if len(assessments) == 0 {
		return "ningún objeto detectado"
	}
	parts := make([]string, 0, len(assessments))
	for _, as := range assessments {
		parts = append(parts, risk.TranslateLabel(as.Detection.Label)+" (peligro "+levelSpanish(as.Level)+")")
	}
	out := parts[0]
	for _, p := range parts[1:] {
		out += ", " + p
	}
	return out
}

func levelSpanish(l risk.Level) string {
	switch l {
	case risk.High:
		return "alto"
	case risk.Medium:
		return "medio"
	default:
		return "bajo"
	}
}
