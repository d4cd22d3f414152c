package detect

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestDetection_Center(t *testing.T) {
	d := Detection{X1: 100, Y1: 50, X2: 300, Y2: 250}

	x, y := d.Center()
	if x != 200 || y != 150 {
		t.Errorf("Center() = (%d, %d), want (200, 150)", x, y)
	}
}

func TestDetection_Area(t *testing.T) {
	d := Detection{X1: 10, Y1: 20, X2: 110, Y2: 70}

	if got := d.Area(); got != 5000 {
		t.Errorf("Area() = %d, want 5000", got)
	}
}

func TestDetection_RelativeArea(t *testing.T) {
	d := Detection{X1: 0, Y1: 0, X2: 320, Y2: 240}

	got := d.RelativeArea(640, 480)
	if math.Abs(got-0.25) > 1e-9 {
		t.Errorf("RelativeArea(640, 480) = %v, want 0.25", got)
	}
}

func TestDetection_RelativeAreaZeroFrame(t *testing.T) {
	d := Detection{X1: 0, Y1: 0, X2: 100, Y2: 100}

	if got := d.RelativeArea(0, 480); got != 0 {
		t.Errorf("RelativeArea with zero width = %v, want 0", got)
	}
}

func TestMockDetector(t *testing.T) {
	m := NewMockDetector()

	objects, err := m.Detect(nil)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(objects) != 0 {
		t.Errorf("fresh mock returned %d objects, want 0", len(objects))
	}

	m.SetObjects([]Detection{CarAhead(), PersonLeft()})
	objects, err = m.Detect(nil)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(objects) != 2 {
		t.Fatalf("got %d objects, want 2", len(objects))
	}
	if objects[0].Label != "car" {
		t.Errorf("first label = %q, want car", objects[0].Label)
	}

	m.SetError(ErrModelUnavailable)
	if _, err := m.Detect(nil); !errors.Is(err, ErrModelUnavailable) {
		t.Errorf("Detect() error = %v, want ErrModelUnavailable", err)
	}

	if err := m.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Model == "" {
		t.Error("default model should not be empty")
	}
	if cfg.MinConfidence != 0.5 {
		t.Errorf("MinConfidence = %v, want 0.5", cfg.MinConfidence)
	}
}

func TestJSONObjectToDetection(t *testing.T) {
	o := jsonObject{
		Label:      "person",
		Confidence: 0.87,
		Box:        [4]int{10, 20, 110, 220},
	}

	d := o.toDetection()
	if d.Label != "person" || d.Confidence != 0.87 {
		t.Errorf("unexpected detection: %+v", d)
	}
	if d.X1 != 10 || d.Y1 != 20 || d.X2 != 110 || d.Y2 != 220 {
		t.Errorf("unexpected box: %+v", d)
	}
}

func TestFindDetectScript_Override(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "yolo_service.py")
	if err := os.WriteFile(script, []byte("# service"), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}

	if got := findDetectScript(script); got != script {
		t.Errorf("findDetectScript(%q) = %q", script, got)
	}
	if got := findDetectScript(filepath.Join(dir, "missing.py")); got != "" {
		t.Errorf("findDetectScript(missing) = %q, want empty", got)
	}
}

func TestNewYOLODetector_ScriptMissing(t *testing.T) {
	_, err := NewYOLODetector(Config{ScriptPath: filepath.Join(t.TempDir(), "missing.py")})
	if !errors.Is(err, ErrModelUnavailable) {
		t.Errorf("NewYOLODetector error = %v, want ErrModelUnavailable", err)
	}
}
