package assistant

import "strings"

// parseSceneDescription extracts the four sections of the model's sectioned
// Spanish answer. The model does not always follow the numbering exactly, so
// section headers are matched loosely and stray lines fall into the section
// last seen.
func parseSceneDescription(text string) *SceneDescription {
	var (
		summary    string
		navigation string
		hazards    []string
		safeDir    = "detenerse"
	)

	section := ""

	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		lower := strings.ToLower(line)

		switch {
		case strings.Contains(lower, "resumen") || strings.Contains(line, "1."):
			section = "summary"
			if v, ok := afterColon(line); ok {
				summary = v
			}
		case strings.Contains(lower, "consejo") || strings.Contains(lower, "navegación") || strings.Contains(line, "2."):
			section = "navigation"
			if v, ok := afterColon(line); ok {
				navigation = v
			}
		case strings.Contains(lower, "peligro") || strings.Contains(line, "3."):
			section = "hazards"
			if v, ok := afterColon(line); ok {
				hazards = splitList(v)
			}
		case strings.Contains(lower, "dirección") || strings.Contains(lower, "segura") || strings.Contains(line, "4."):
			section = "safe"
			if v, ok := afterColon(line); ok {
				safeDir = v
			}
		default:
			switch section {
			case "summary":
				if summary == "" {
					summary = line
				}
			case "navigation":
				if navigation == "" {
					navigation = line
				}
			case "hazards":
				if len(hazards) == 0 {
					hazards = splitList(line)
				}
			case "safe":
				if safeDir == "detenerse" {
					safeDir = line
				}
			}
		}
	}

	if summary == "" {
		summary = "Procesando entorno..."
	}
	if navigation == "" {
		navigation = "Precaución"
	}

	return &SceneDescription{
		Summary:          summary,
		NavigationAdvice: navigation,
		PotentialHazards: hazards,
		SafeDirection:    safeDir,
	}
}

func afterColon(line string) (string, bool) {
	i := strings.Index(line, ":")
	if i < 0 {
		return "", false
	}
	v := strings.TrimSpace(line[i+1:])
	return v, v != ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
