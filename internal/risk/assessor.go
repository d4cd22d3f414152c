package risk

import (
	"fmt"
	"math"
	"sort"

	"github.com/ayusman/lazarillo/internal/detect"
)

// Assessment is the danger evaluation of one detected object.
type Assessment struct {
	Detection detect.Detection `json:"detection"`
	Level     Level            `json:"-"`
	LevelName string           `json:"level"`
	Score     float64          `json:"score"`
	Message   string           `json:"message"`
}

// baseWeights are per-class base threat weights (1-10). Vehicles score
// highest, small static objects lowest. Unknown classes default to 1.
var baseWeights = map[string]float64{
	"car":           10,
	"truck":         10,
	"bus":           10,
	"motorcycle":    9,
	"bicycle":       7,
	"person":        5,
	"dog":           6,
	"cat":           4,
	"horse":         7,
	"chair":         3,
	"bench":         3,
	"fire hydrant":  4,
	"stop sign":     2,
	"parking meter": 3,
	"suitcase":      3,
	"backpack":      2,
}

// messageTemplates are the spoken alert phrases per level, in Spanish.
var messageTemplates = map[Level]string{
	High:   "¡Cuidado! %s muy cerca, peligro alto",
	Medium: "Atención, %s adelante",
	Low:    "%s detectado a distancia",
}

// Assessor evaluates the danger of detected objects.
type Assessor struct {
	thresholds Thresholds
}

// NewAssessor creates an Assessor with the given thresholds.
func NewAssessor(t Thresholds) *Assessor {
	return &Assessor{thresholds: t}
}

// Assess classifies a detection and derives its danger score and spoken
// message. Returns ErrInvalidBox for malformed input.
func (a *Assessor) Assess(det detect.Detection, frameWidth, frameHeight int) (Assessment, error) {
	level, err := Classify(det, frameWidth, frameHeight, a.thresholds)
	if err != nil {
		return Assessment{}, err
	}

	score := a.score(det, frameWidth, frameHeight)

	return Assessment{
		Detection: det,
		Level:     level,
		LevelName: level.String(),
		Score:     score,
		Message:   fmt.Sprintf(messageTemplates[level], TranslateLabel(det.Label)),
	}, nil
}

// score derives a 0-100 danger score: per-class base weight scaled by
// proximity (relative area) and horizontal position (centered objects sit
// in the walking path).
func (a *Assessor) score(det detect.Detection, frameWidth, frameHeight int) float64 {
	base, ok := baseWeights[det.Label]
	if !ok {
		base = 1
	}

	relArea := det.RelativeArea(frameWidth, frameHeight)

	var proximity float64
	switch {
	case relArea >= a.thresholds.HighArea:
		proximity = 10.0
	case relArea >= a.thresholds.MediumArea*2:
		proximity = 6.0
	case relArea >= a.thresholds.MediumArea:
		proximity = 3.0
	default:
		proximity = 1.0
	}

	position := 1.5 - centerOffset(det, frameWidth)/2

	return math.Min(100, base*proximity*position)
}

// SortByScore orders assessments by danger score, highest first.
func SortByScore(assessments []Assessment) {
	sort.SliceStable(assessments, func(i, j int) bool {
		return assessments[i].Score > assessments[j].Score
	})
}

// labelTranslations maps YOLO class names to the Spanish words used in
// spoken alerts. Unmapped labels are spoken as-is.
var labelTranslations = map[string]string{
	"person":        "persona",
	"car":           "carro",
	"truck":         "camión",
	"bus":           "autobús",
	"motorcycle":    "moto",
	"bicycle":       "bicicleta",
	"dog":           "perro",
	"cat":           "gato",
	"horse":         "caballo",
	"chair":         "silla",
	"bench":         "banco",
	"fire hydrant":  "hidrante",
	"stop sign":     "señal de alto",
	"parking meter": "parquímetro",
	"suitcase":      "maleta",
	"backpack":      "mochila",
	"bottle":        "botella",
	"cup":           "taza",
	"laptop":        "laptop",
	"cell phone":    "teléfono",
	"book":          "libro",
	"clock":         "reloj",
	"scissors":      "tijeras",
	"teddy bear":    "oso de peluche",
	"potted plant":  "planta",
	"bed":           "cama",
	"dining table":  "mesa",
	"toilet":        "inodoro",
	"tv":            "televisor",
	"couch":         "sofá",
	"umbrella":      "paraguas",
}

// TranslateLabel returns the Spanish name for a detector class label.
func TranslateLabel(label string) string {
	if t, ok := labelTranslations[label]; ok {
		return t
	}
	return label
}
