package detect

import (
	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	objects []Detection
	err     error
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetObjects sets the detections that will be returned by Detect.
func (m *MockDetector) SetObjects(objects []Detection) {
	m.objects = objects
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.err = err
}

// Detect returns the pre-configured detections or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]Detection, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.objects, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// CarAhead returns a preset Detection of a car filling much of a 640x480
// frame, centered. Classifies as high danger with default thresholds.
func CarAhead() Detection {
	return Detection{
		Label:      "car",
		Confidence: 0.91,
		X1:         140,
		Y1:         120,
		X2:         500,
		Y2:         420,
	}
}

// PersonLeft returns a preset Detection of a person at the left edge of a
// 640x480 frame at medium distance.
func PersonLeft() Detection {
	return Detection{
		Label:      "person",
		Confidence: 0.84,
		X1:         20,
		Y1:         160,
		X2:         140,
		Y2:         400,
	}
}

// ChairFar returns a preset Detection of a small, distant chair in a 640x480
// frame. Classifies as low danger with default thresholds.
func ChairFar() Detection {
	return Detection{
		Label:      "chair",
		Confidence: 0.62,
		X1:         280,
		Y1:         200,
		X2:         360,
		Y2:         280,
	}
}
