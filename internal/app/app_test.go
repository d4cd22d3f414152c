package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"github.com/ayusman/lazarillo/internal/alert"
	"github.com/ayusman/lazarillo/internal/assistant"
	"github.com/ayusman/lazarillo/internal/capture"
	"github.com/ayusman/lazarillo/internal/detect"
	"github.com/ayusman/lazarillo/internal/risk"
	"github.com/ayusman/lazarillo/internal/speech"
)

func newTestApp() *App {
	return New(Config{
		Logger:     zerolog.Nop(),
		Thresholds: risk.DefaultThresholds(),
		Cooldowns:  alert.DefaultCooldowns(),
	})
}

// alternating bright and dark frames so every frame after the first
// registers as motion.
func motionFrames(t *testing.T) []*gocv.Mat {
	t.Helper()

	dark := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	bright := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(200, 200, 200, 0), 480, 640, gocv.MatTypeCV8UC3)
	t.Cleanup(func() {
		dark.Close()
		bright.Close()
	})
	return []*gocv.Mat{&dark, &bright}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func TestApp_DetectorFromConfig(t *testing.T) {
	det := detect.NewMockDetector()
	a := New(Config{
		Logger:     zerolog.Nop(),
		Thresholds: risk.DefaultThresholds(),
		Cooldowns:  alert.DefaultCooldowns(),
		Detector:   det,
	})

	if a.Detector() != detect.Detector(det) {
		t.Error("New should use the configured detector")
	}

	b := newTestApp()
	if _, ok := b.Detector().(*detect.MockDetector); !ok {
		t.Errorf("default detector = %T, want the mock", b.Detector())
	}
}

func TestApp_AlertCarriesVolumeHint(t *testing.T) {
	a := New(Config{
		Logger:      zerolog.Nop(),
		Thresholds:  risk.DefaultThresholds(),
		Cooldowns:   alert.DefaultCooldowns(),
		VoiceVolume: 0.7,
	})
	a.SetSynthesizer(speech.NewMockSynthesizer())

	alerts, cancel := a.Subscribe()
	defer cancel()

	as := risk.Assessment{
		Detection: detect.CarAhead(),
		Level:     risk.High,
		LevelName: "high",
		Score:     50,
		Message:   "¡Cuidado! carro muy cerca",
	}
	a.emitAlert("", as, time.Now())

	select {
	case al := <-alerts:
		if al.Volume != 0.7 {
			t.Errorf("alert volume = %v, want 0.7", al.Volume)
		}
	case <-time.After(time.Second):
		t.Fatal("no alert published")
	}
}

func TestApp_VolumeDefaultsToFull(t *testing.T) {
	a := newTestApp()
	a.SetSynthesizer(speech.NewMockSynthesizer())

	alerts, cancel := a.Subscribe()
	defer cancel()

	as := risk.Assessment{
		Detection: detect.CarAhead(),
		Level:     risk.High,
		LevelName: "high",
		Score:     50,
		Message:   "¡Cuidado! carro muy cerca",
	}
	a.emitAlert("", as, time.Now())

	select {
	case al := <-alerts:
		if al.Volume != 1.0 {
			t.Errorf("alert volume = %v, want 1.0", al.Volume)
		}
	case <-time.After(time.Second):
		t.Fatal("no alert published")
	}
}

func TestApp_EnableDisable(t *testing.T) {
	a := newTestApp()

	if !a.IsEnabled() {
		t.Error("detection should be enabled by default")
	}
	a.SetEnabled(false)
	if a.IsEnabled() {
		t.Error("SetEnabled(false) should disable detection")
	}
}

func TestApp_StateWhenStopped(t *testing.T) {
	a := newTestApp()

	state := a.State()
	if state.Running {
		t.Error("state should not be running before Start")
	}
	if state.SessionID != "" {
		t.Errorf("SessionID = %q, want empty", state.SessionID)
	}
	if state.DangerLevel != "low" {
		t.Errorf("DangerLevel = %q, want low", state.DangerLevel)
	}
}

func TestApp_PipelineEmitsAlert(t *testing.T) {
	if testing.Short() {
		t.Skip("requires OpenCV")
	}

	a := newTestApp()
	a.SetCamera(capture.NewMockCamera(motionFrames(t), true))

	det := detect.NewMockDetector()
	det.SetObjects([]detect.Detection{detect.CarAhead()})
	a.SetDetector(det)

	synth := speech.NewMockSynthesizer()
	a.SetSynthesizer(synth)

	alerts, cancel := a.Subscribe()
	defer cancel()

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer a.Stop()

	select {
	case al := <-alerts:
		if al.Level != "high" {
			t.Errorf("alert level = %q, want high", al.Level)
		}
		if al.Label != "car" {
			t.Errorf("alert label = %q, want car", al.Label)
		}
		if len(al.Audio) == 0 {
			t.Error("alert should carry synthesized audio")
		}
		if al.SessionID != a.SessionID() {
			t.Errorf("alert session = %q, want %q", al.SessionID, a.SessionID())
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no alert emitted")
	}

	if !waitFor(t, 2*time.Second, func() bool { return a.State().Frames > 0 }) {
		t.Error("state frame counter never advanced")
	}
	if got := a.State().DangerLevel; got != "high" {
		t.Errorf("DangerLevel = %q, want high", got)
	}
	if len(synth.Phrases()) == 0 {
		t.Error("synthesizer was never invoked")
	}
}

func TestApp_LowDangerNeverAlerts(t *testing.T) {
	if testing.Short() {
		t.Skip("requires OpenCV")
	}

	a := newTestApp()
	a.SetCamera(capture.NewMockCamera(motionFrames(t), true))

	det := detect.NewMockDetector()
	det.SetObjects([]detect.Detection{detect.ChairFar()})
	a.SetDetector(det)
	a.SetSynthesizer(speech.NewMockSynthesizer())

	alerts, cancel := a.Subscribe()
	defer cancel()

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer a.Stop()

	if !waitFor(t, 5*time.Second, func() bool { return a.State().Frames > 2 }) {
		t.Fatal("pipeline never processed frames")
	}

	select {
	case al := <-alerts:
		t.Errorf("unexpected alert for low-danger object: %+v", al)
	default:
	}
	if got := a.State().DangerLevel; got != "low" {
		t.Errorf("DangerLevel = %q, want low", got)
	}
}

func TestApp_DetectorFailureSkipsFrame(t *testing.T) {
	if testing.Short() {
		t.Skip("requires OpenCV")
	}

	a := newTestApp()
	a.SetCamera(capture.NewMockCamera(motionFrames(t), true))

	det := detect.NewMockDetector()
	det.SetError(detect.ErrModelUnavailable)
	a.SetDetector(det)
	a.SetSynthesizer(speech.NewMockSynthesizer())

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer a.Stop()

	if !waitFor(t, 5*time.Second, func() bool { return !a.State().DetectorOK }) {
		t.Fatal("detector failure never surfaced in state")
	}
	if a.State().LastError == "" {
		t.Error("LastError should describe the detector failure")
	}
	// The loop keeps running on detector errors.
	if !a.Running() {
		t.Error("pipeline should survive detector failures")
	}
}

func TestApp_MalformedDetectionDiscardedAlone(t *testing.T) {
	if testing.Short() {
		t.Skip("requires OpenCV")
	}

	a := newTestApp()
	a.SetCamera(capture.NewMockCamera(motionFrames(t), true))

	det := detect.NewMockDetector()
	det.SetObjects([]detect.Detection{
		{Label: "person", Confidence: 0.9, X1: 300, Y1: 200, X2: 100, Y2: 100}, // inverted box
		detect.CarAhead(),
	})
	a.SetDetector(det)
	a.SetSynthesizer(speech.NewMockSynthesizer())

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer a.Stop()

	if !waitFor(t, 5*time.Second, func() bool { return len(a.State().Assessments) > 0 }) {
		t.Fatal("valid detection never assessed")
	}

	state := a.State()
	if len(state.Assessments) != 1 {
		t.Fatalf("got %d assessments, want 1 (malformed one discarded)", len(state.Assessments))
	}
	if state.Assessments[0].Detection.Label != "car" {
		t.Errorf("kept label = %q, want car", state.Assessments[0].Detection.Label)
	}
}

func TestApp_StartStopIdempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("requires OpenCV")
	}

	a := newTestApp()
	a.SetCamera(capture.NewMockCamera(motionFrames(t), true))
	a.SetDetector(detect.NewMockDetector())
	a.SetSynthesizer(speech.NewMockSynthesizer())

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	first := a.SessionID()
	if err := a.Start(); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}
	if a.SessionID() != first {
		t.Error("second Start should not begin a new session")
	}

	a.Stop()
	if a.Running() {
		t.Error("Stop should end the session")
	}
	a.Stop() // no-op
}

func TestApp_AnswerWithoutAssistant(t *testing.T) {
	a := newTestApp()

	_, err := a.Answer(context.Background(), "¿qué hay delante?")
	var apiErr *assistant.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Answer without assistant = %v, want APIError", err)
	}
}

func TestApp_DescriptionFlowsIntoState(t *testing.T) {
	a := newTestApp()

	mock := assistant.NewMockAssistant()
	a.SetAssistant(mock)

	if !a.RequestDescription() {
		t.Fatal("RequestDescription should accept when an assistant is set")
	}

	if !waitFor(t, 2*time.Second, func() bool { return a.State().Description != nil }) {
		t.Fatal("description never landed in state")
	}
	if a.State().Description.Summary == "" {
		t.Error("description summary should not be empty")
	}
}

func TestApp_DetectionSummary(t *testing.T) {
	if got := detectionSummary(nil); got != "ningún objeto detectado" {
		t.Errorf("empty summary = %q", got)
	}

	assessments := []risk.Assessment{
		{Detection: detect.Detection{Label: "car"}, Level: risk.High},
		{Detection: detect.Detection{Label: "dog"}, Level: risk.Medium},
	}
	got := detectionSummary(assessments)
	want := "carro (peligro alto), perro (peligro medio)"
	if got != want {
		t.Errorf("summary = %q, want %q", got, want)
	}
}
