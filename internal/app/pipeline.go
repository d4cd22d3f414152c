package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/lazarillo/internal/alert"
	"github.com/ayusman/lazarillo/internal/risk"
	"github.com/ayusman/lazarillo/internal/store"
)

// runPipeline is the per-session loop. It reads frames off a ticker, gates
// the frame rate on motion, and pushes each processed frame through
// detection, danger classification and the alert scheduler.
//
// Failure policy: a camera or detector error skips the frame, a malformed
// detection is discarded on its own, and a synthesis failure drops that
// alert's audio. Nothing in here stops the loop except the stop channel.
func (a *App) runPipeline(stopCh chan struct{}) {
	activeMode := false
	lastMotionTime := time.Now()
	frameInterval := time.Second / time.Duration(IdleFPS)

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if !a.IsEnabled() {
				continue
			}

			a.mu.RLock()
			camera := a.camera
			detector := a.detector
			a.mu.RUnlock()

			frame, err := camera.ReadFrame()
			if err != nil {
				a.logger.Warn().Err(err).Msg("error reading frame")
				continue
			}
			a.metrics.FramesRead.Inc()

			motionDetected, _ := a.motion.Detect(frame)
			if motionDetected {
				lastMotionTime = time.Now()
				if !activeMode {
					activeMode = true
					camera.SetFPS(ActiveFPS)
					frameInterval = time.Second / time.Duration(ActiveFPS)
					ticker.Reset(frameInterval)
					a.logger.Debug().Msg("switched to active mode")
				}
			} else if activeMode {
				if time.Since(lastMotionTime) > time.Duration(IdleTimeoutMs)*time.Millisecond {
					activeMode = false
					camera.SetFPS(IdleFPS)
					frameInterval = time.Second / time.Duration(IdleFPS)
					ticker.Reset(frameInterval)
					a.logger.Debug().Msg("switched to idle mode")
				}
			}

			if !activeMode || detector == nil {
				frame.Close()
				continue
			}

			frameWidth := frame.Cols()
			frameHeight := frame.Rows()

			detections, err := detector.Detect(frame)
			frame.Close()

			if err != nil {
				a.metrics.DetectorErrors.Inc()
				a.metrics.FramesSkipped.Inc()
				a.mu.Lock()
				a.detectorOK = false
				a.lastErr = err.Error()
				a.mu.Unlock()
				a.logger.Warn().Err(err).Msg("detection failed, skipping frame")
				continue
			}

			a.metrics.FramesProcessed.Inc()
			a.metrics.Detections.Add(float64(len(detections)))

			assessments := make([]risk.Assessment, 0, len(detections))
			for _, det := range detections {
				as, err := a.assessor.Assess(det, frameWidth, frameHeight)
				if err != nil {
					if errors.Is(err, risk.ErrInvalidBox) {
						a.logger.Debug().Str("label", det.Label).Msg("discarding malformed detection")
						continue
					}
					a.logger.Warn().Err(err).Msg("assessment failed")
					continue
				}
				assessments = append(assessments, as)
			}
			risk.SortByScore(assessments)

			danger := risk.Low
			for _, as := range assessments {
				if as.Level > danger {
					danger = as.Level
				}
			}

			a.mu.Lock()
			a.frames++
			a.current = assessments
			a.danger = danger
			a.detectorOK = true
			sessionID := a.sessionID
			a.mu.Unlock()

			now := time.Now()
			for label, as := range alert.Reduce(assessments) {
				if !a.scheduler.ShouldAlert(label, as.Level, now) {
					continue
				}
				a.mu.Lock()
				a.alertCount++
				a.mu.Unlock()
				a.metrics.AlertsEmitted.WithLabelValues(as.LevelName).Inc()
				go a.emitAlert(sessionID, as, now)
			}
		}
	}
}

// emitAlert synthesizes the spoken message, persists the event and fans it
// out to subscribers. Runs off the pipeline goroutine so a slow TTS round
// trip never delays frame capture.
func (a *App) emitAlert(sessionID string, as risk.Assessment, at time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a.mu.RLock()
	synth := a.synth
	a.mu.RUnlock()

	audio, err := synth.Synthesize(ctx, as.Message)
	if err != nil {
		a.metrics.SpeechErrors.Inc()
		a.logger.Warn().Err(err).Str("label", as.Detection.Label).Msg("speech synthesis failed")
		audio = nil
	}

	if a.config.Store != nil && sessionID != "" {
		event := &store.AlertEvent{
			ID:        uuid.New().String(),
			SessionID: sessionID,
			Label:     as.Detection.Label,
			Level:     as.LevelName,
			Score:     as.Score,
			Message:   as.Message,
			CreatedAt: at,
		}
		if err := a.config.Store.Alerts().Insert(event); err != nil {
			a.logger.Error().Err(err).Msg("failed to record alert event")
		}
	}

	a.publish(Alert{
		SessionID: sessionID,
		Label:     as.Detection.Label,
		Level:     as.LevelName,
		Score:     as.Score,
		Message:   as.Message,
		Audio:     audio,
		Volume:    a.config.VoiceVolume,
		At:        at,
	})

	a.logger.Info().
		Str("label", as.Detection.Label).
		Str("level", as.LevelName).
		Float64("score", as.Score).
		Msg(as.Message)
}
