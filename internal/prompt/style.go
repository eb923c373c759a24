package prompt

import (
	"fmt"
	"strings"

	"github.com/randomtoy/arcana-go/internal/domain"
)

// toneGuidance maps known tone preferences to style instructions. Unknown
// tones fall through to a literal instruction so new client tones degrade
// gracefully.
var toneGuidance = map[string]string{
	"gentle":   "Keep the voice soft and reassuring; lead with warmth before challenge.",
	"direct":   "Be plain and unvarnished; skip hedging, keep sentences short.",
	"poetic":   "Let imagery breathe; favor metaphor over analysis, without losing clarity.",
	"playful":  "Keep it light; humor is welcome where the cards allow it.",
	"grounded": "Stay practical and concrete; tie every theme to daily life.",
}

// frameGuidance maps interpretive frames to instructions.
var frameGuidance = map[string]string{
	"psychological": "Read the cards as inner dynamics and patterns, not external forces.",
	"spiritual":     "Read the cards as movements of meaning and growth; keep it non-dogmatic.",
	"practical":     "Read the cards as lenses on concrete situations and choices.",
}

// styleBlock renders the tone/frame/experience guidance from the request's
// personalization. Returns "" when nothing is set.
func styleBlock(p domain.Personalization, vt *domain.VisualTone) string {
	var lines []string

	if p.Tone != "" {
		if g, ok := toneGuidance[strings.ToLower(p.Tone)]; ok {
			lines = append(lines, g)
		} else {
			lines = append(lines, fmt.Sprintf("Write in a %s tone.", p.Tone))
		}
	}
	if p.Frame != "" {
		if g, ok := frameGuidance[strings.ToLower(p.Frame)]; ok {
			lines = append(lines, g)
		} else {
			lines = append(lines, fmt.Sprintf("Interpret through a %s frame.", p.Frame))
		}
	}
	switch strings.ToLower(p.ExperienceLevel) {
	case "beginner":
		lines = append(lines, "Assume no tarot background; briefly gloss any card concept you lean on.")
	case "advanced":
		lines = append(lines, "Assume deep tarot fluency; correspondences and esoteric references are welcome.")
	}
	if vt != nil {
		if vt.Mood != "" {
			lines = append(lines, fmt.Sprintf("The deck's visual mood reads as %s; let that color the prose.", vt.Mood))
		}
		if vt.Palette != "" {
			lines = append(lines, fmt.Sprintf("The deck's palette runs %s.", vt.Palette))
		}
	}

	if len(lines) == 0 {
		return ""
	}
	return "Style guidance:\n- " + strings.Join(lines, "\n- ") + "\n"
}
