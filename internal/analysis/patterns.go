package analysis

import (
	"fmt"

	"github.com/randomtoy/arcana-go/internal/domain"
)

// comboPattern is a named archetype combination: when every listed card ID
// appears in the spread, the pattern fires.
type comboPattern struct {
	name        string
	description string
	cardIDs     []string
}

// comboPatterns is the static archetype table. Order here is output order.
var comboPatterns = []comboPattern{
	{
		name:        "rupture_and_repair",
		description: "The Tower alongside The Star: sudden upheaval already carries its own healing.",
		cardIDs:     []string{"tower", "star"},
	},
	{
		name:        "threshold_crossing",
		description: "The Fool with Death: an ending that opens into a genuine beginning.",
		cardIDs:     []string{"fool", "death"},
	},
	{
		name:        "inner_reckoning",
		description: "The Hermit with Judgement: withdrawal that ripens into a call to account.",
		cardIDs:     []string{"hermit", "judgement"},
	},
	{
		name:        "bound_choice",
		description: "The Lovers with The Devil: a choice shadowed by attachment.",
		cardIDs:     []string{"lovers", "devil"},
	},
	{
		name:        "wheel_and_balance",
		description: "Wheel of Fortune with Justice: external turning met by internal weighing.",
		cardIDs:     []string{"wheel_of_fortune", "justice"},
	},
}

// detectPatterns finds higher-order combinations: the combo table, a major
// arcana concentration, an element flood, and element absences.
func detectPatterns(def domain.SpreadDefinition, req domain.ReadingRequest) []domain.ArchetypePattern {
	var out []domain.ArchetypePattern

	byID := make(map[string]domain.DrawnCard, len(req.Cards))
	majors := 0
	var majorNames []string
	for _, c := range req.Cards {
		byID[c.ID] = c
		if c.Suit == domain.SuitMajor {
			majors++
			majorNames = append(majorNames, c.Name)
		}
	}

	for _, cp := range comboPatterns {
		names := make([]string, 0, len(cp.cardIDs))
		hit := true
		for _, id := range cp.cardIDs {
			c, ok := byID[id]
			if !ok {
				hit = false
				break
			}
			names = append(names, c.Name)
		}
		if hit {
			out = append(out, domain.ArchetypePattern{
				Name:        cp.name,
				Description: cp.description,
				Cards:       names,
			})
		}
	}

	// Three or more majors in one spread marks a fated emphasis.
	if majors >= 3 {
		out = append(out, domain.ArchetypePattern{
			Name:        "major_emphasis",
			Description: fmt.Sprintf("%d major arcana in %d positions: forces larger than day-to-day choice are at work.", majors, len(req.Cards)),
			Cards:       majorNames,
		})
	}

	// An element claiming a clear majority colors the whole reading.
	ec := countElements(req.Cards)
	for _, el := range domain.Elements {
		if n := ec.Of(el); len(req.Cards) >= 3 && n*2 > len(req.Cards) {
			out = append(out, domain.ArchetypePattern{
				Name:        "element_flood",
				Description: fmt.Sprintf("%s dominates the spread (%d of %d cards).", el, n, len(req.Cards)),
				Cards:       cardsOfElement(req.Cards, el),
			})
		}
	}

	return out
}

func cardsOfElement(cards []domain.DrawnCard, el domain.Element) []string {
	var out []string
	for _, c := range cards {
		if cardElement(c.Card) == el {
			out = append(out, c.Name)
		}
	}
	return out
}
