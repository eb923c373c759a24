package domain

import "fmt"

// Personalization carries the user-facing style preferences woven into the
// prompt. All fields optional.
type Personalization struct {
	DisplayName     string `json:"display_name,omitempty"`
	Tone            string `json:"tone,omitempty"`
	Frame           string `json:"frame,omitempty"`
	ExperienceLevel string `json:"experience_level,omitempty"`
}

// VisualTone is an optional enrichment descriptor produced by an external
// image subsystem. Consumed as-is; never computed here.
type VisualTone struct {
	Palette string `json:"palette,omitempty"`
	Mood    string `json:"mood,omitempty"`
}

// ReadingRequest is the immutable input to the narrative pipeline: a spread
// the client already drew, plus optional question and preferences.
type ReadingRequest struct {
	SpreadKey       string
	DeckID          string
	Cards           []DrawnCard
	Question        string
	Reflections     []string
	Personalization Personalization
	VisualTone      *VisualTone
}

// Validate checks the request against the spread topology: card count must
// equal the position count, every position index must exist exactly once,
// and no card may repeat.
func (r ReadingRequest) Validate(def SpreadDefinition) error {
	if len(r.Cards) != len(def.Positions) {
		return fmt.Errorf("%w: spread %s expects %d cards, got %d",
			ErrInvalidSpreadShape, def.Key, len(def.Positions), len(r.Cards))
	}

	seenPos := make(map[int]bool, len(r.Cards))
	seenCard := make(map[string]bool, len(r.Cards))
	for _, c := range r.Cards {
		if _, ok := def.PositionAt(c.Position); !ok {
			return fmt.Errorf("%w: position %d not in spread %s",
				ErrInvalidSpreadShape, c.Position, def.Key)
		}
		if seenPos[c.Position] {
			return fmt.Errorf("%w: position %d filled twice",
				ErrInvalidSpreadShape, c.Position)
		}
		seenPos[c.Position] = true

		if seenCard[c.ID] {
			return fmt.Errorf("%w: card %s drawn twice",
				ErrInvalidSpreadShape, c.ID)
		}
		seenCard[c.ID] = true

		switch c.Orientation {
		case Upright, Reversed:
		default:
			return fmt.Errorf("%w: card %s has invalid orientation %q",
				ErrInvalidSpreadShape, c.ID, c.Orientation)
		}
	}
	return nil
}

// CardAt returns the drawn card occupying the given position index.
func (r ReadingRequest) CardAt(index int) (DrawnCard, bool) {
	for _, c := range r.Cards {
		if c.Position == index {
			return c, true
		}
	}
	return DrawnCard{}, false
}

// CardNames returns the drawn card names in position order.
func (r ReadingRequest) CardNames() []string {
	out := make([]string, 0, len(r.Cards))
	for i := 1; i <= len(r.Cards); i++ {
		if c, ok := r.CardAt(i); ok {
			out = append(out, c.Name)
		}
	}
	return out
}
