// Package risk maps detections to danger levels using box size and position
// heuristics.
package risk

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/ayusman/lazarillo/internal/detect"
)

// ErrInvalidBox is returned for a degenerate or out-of-frame bounding box.
// Only the offending detection is discarded, never the whole frame.
var ErrInvalidBox = errors.New("invalid bounding box")

// Level represents the danger level of a detected object.
// Levels are totally ordered: High > Medium > Low.
type Level int

const (
	// Low means the object is small and distant. Low never triggers a voice alert.
	Low Level = iota
	// Medium means the object is at medium distance.
	Medium
	// High means the object is large/near, or at medium distance directly ahead.
	High
)

// String returns the level name used in API responses and stored events.
func (l Level) String() string {
	switch l {
	case High:
		return "high"
	case Medium:
		return "medium"
	default:
		return "low"
	}
}

// ParseLevel converts a stored level name back to a Level. Matching is
// case-insensitive and ignores surrounding whitespace; unknown names
// parse as Low.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return High
	case "medium":
		return Medium
	default:
		return Low
	}
}

// Thresholds holds the tunable classification thresholds.
// All values are deployment tuning parameters, loaded from configuration.
type Thresholds struct {
	// HighArea is the relative box area at which an object counts as
	// very close regardless of position.
	HighArea float64

	// MediumArea is the relative box area at which an object counts as
	// being at medium distance.
	MediumArea float64

	// CenterTolerance is the maximum horizontal center offset (0 =
	// centered, 1 = frame edge) at which a medium-sized object is
	// escalated to high, since it sits directly in the walking path.
	CenterTolerance float64
}

// DefaultThresholds returns the default classification thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HighArea:        0.15,
		MediumArea:      0.03,
		CenterTolerance: 0.20,
	}
}

// Classify maps one detection to a danger level given the frame dimensions.
//
// Policy:
//   - High if relative area >= HighArea, or relative area >= MediumArea and
//     the box center is within CenterTolerance of the frame center.
//   - Medium if relative area >= MediumArea.
//   - Low otherwise.
//
// It has no side effects. The only failure mode is ErrInvalidBox for a box
// with zero or negative width/height, a box outside the frame bounds, or
// non-positive frame dimensions.
func Classify(det detect.Detection, frameWidth, frameHeight int, t Thresholds) (Level, error) {
	if err := validate(det, frameWidth, frameHeight); err != nil {
		return Low, err
	}

	relArea := det.RelativeArea(frameWidth, frameHeight)
	offset := centerOffset(det, frameWidth)

	switch {
	case relArea >= t.HighArea:
		return High, nil
	case relArea >= t.MediumArea && offset <= t.CenterTolerance:
		return High, nil
	case relArea >= t.MediumArea:
		return Medium, nil
	default:
		return Low, nil
	}
}

// centerOffset returns the normalized horizontal distance of the box center
// from the frame center: 0 is dead ahead, 1 is the frame edge.
func centerOffset(det detect.Detection, frameWidth int) float64 {
	cx, _ := det.Center()
	half := float64(frameWidth) / 2
	return math.Abs(float64(cx)-half) / half
}

func validate(det detect.Detection, frameWidth, frameHeight int) error {
	if frameWidth <= 0 || frameHeight <= 0 {
		return fmt.Errorf("%w: frame %dx%d", ErrInvalidBox, frameWidth, frameHeight)
	}
	if det.X2 <= det.X1 || det.Y2 <= det.Y1 {
		return fmt.Errorf("%w: degenerate box (%d,%d,%d,%d)", ErrInvalidBox, det.X1, det.Y1, det.X2, det.Y2)
	}
	if det.X1 < 0 || det.Y1 < 0 || det.X2 > frameWidth || det.Y2 > frameHeight {
		return fmt.Errorf("%w: box (%d,%d,%d,%d) outside %dx%d frame",
			ErrInvalidBox, det.X1, det.Y1, det.X2, det.Y2, frameWidth, frameHeight)
	}
	return nil
}
