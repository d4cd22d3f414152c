// Package detect provides object detection interfaces and types for the
// Lazarillo visual assistant.
package detect

import (
	"errors"

	"gocv.io/x/gocv"
)

// ErrModelUnavailable is returned when the detection model cannot be reached.
// The pipeline skips the frame and surfaces the condition to the UI.
var ErrModelUnavailable = errors.New("detection model unavailable")

// Detection represents one object instance located in a single frame.
// The bounding box is in pixel coordinates with the origin at the top-left.
type Detection struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	X1         int     `json:"x1"`
	Y1         int     `json:"y1"`
	X2         int     `json:"x2"`
	Y2         int     `json:"y2"`
}

// Center returns the center point of the bounding box.
func (d Detection) Center() (int, int) {
	return (d.X1 + d.X2) / 2, (d.Y1 + d.Y2) / 2
}

// Area returns the bounding box area in pixels.
func (d Detection) Area() int {
	return (d.X2 - d.X1) * (d.Y2 - d.Y1)
}

// RelativeArea returns the box area as a fraction of the frame area.
// Returns 0 for non-positive frame dimensions.
func (d Detection) RelativeArea(frameWidth, frameHeight int) float64 {
	if frameWidth <= 0 || frameHeight <= 0 {
		return 0
	}
	return float64(d.Area()) / float64(frameWidth*frameHeight)
}

// Detector defines the interface for object detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns detected objects.
	// Returns an empty slice if nothing is detected.
	Detect(frame *gocv.Mat) ([]Detection, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for object detection.
type Config struct {
	// Model is the YOLO model name loaded by the inference service.
	Model string

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	// Detections below it are dropped before classification.
	MinConfidence float64

	// ScriptPath overrides the detection service script location.
	ScriptPath string
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Model:         "yolov8n.pt",
		MinConfidence: 0.5,
	}
}
