// Package compose renders the deterministic local narrative. It is the
// terminal generation backend and the substitute output whenever the
// evaluation gate blocks or the crisis scan matches. No external calls,
// no randomness: full card coverage and zero hallucination by construction.
package compose

import (
	"fmt"
	"strings"

	"github.com/randomtoy/arcana-go/internal/domain"
)

// Compose builds a structurally complete narrative from the symbolic
// analysis alone. Every spread position becomes a section headed by its
// title, and every section names its card and states what is present, why,
// and what comes next.
func Compose(def domain.SpreadDefinition, a domain.SymbolicAnalysis, req domain.ReadingRequest) string {
	var b strings.Builder

	writeOpening(&b, def, a, req)

	for _, pos := range def.Positions {
		card, ok := req.CardAt(pos.Index)
		if !ok {
			continue
		}
		writeSection(&b, pos, card, a)
	}

	writeClosing(&b, a, req)
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func writeOpening(b *strings.Builder, def domain.SpreadDefinition, a domain.SymbolicAnalysis, req domain.ReadingRequest) {
	if name := req.Personalization.DisplayName; name != "" {
		fmt.Fprintf(b, "%s, this %s reading holds %d cards.", name, def.Name, len(req.Cards))
	} else {
		fmt.Fprintf(b, "This %s reading holds %d cards.", def.Name, len(req.Cards))
	}

	if a.Dominant != "" {
		fmt.Fprintf(b, " %s runs strongest through the spread", elementNoun(a.Dominant))
		if len(a.Missing) > 0 {
			fmt.Fprintf(b, ", while %s is absent", missingList(a.Missing))
		}
		b.WriteString(".")
	} else if a.Elements.Total() > 0 {
		b.WriteString(" The elements sit in balance, no single current taking the lead.")
	}

	for _, p := range a.Patterns {
		fmt.Fprintf(b, " %s", p.Description)
	}
	b.WriteString("\n\n")
}

func writeSection(b *strings.Builder, pos domain.Position, card domain.DrawnCard, a domain.SymbolicAnalysis) {
	fmt.Fprintf(b, "## %s\n", pos.Title)

	// Situation: name the card and where it stands.
	orient := "upright"
	if card.Orientation == domain.Reversed {
		orient = "reversed"
	}
	fmt.Fprintf(b, "%s appears %s in the place of %s. %s\n",
		card.Name, orient, strings.ToLower(pos.Title), pos.Hook)

	// Cause: ground the card in its own meaning.
	hook := card.Hook(card.Orientation)
	if hook == "" {
		hook = strings.Join(card.Keywords, ", ")
	}
	if hook != "" {
		fmt.Fprintf(b, "Its presence here reflects %s.\n", lowerFirst(hook))
	} else {
		fmt.Fprintf(b, "Its presence here reflects a theme asking for your attention.\n")
	}
	if rel := relationFor(a, pos.Index); rel != "" {
		fmt.Fprintf(b, "%s.\n", rel)
	}

	// Forward: a gentle, non-directive invitation.
	fmt.Fprintf(b, "From here, consider what it would mean to meet this openly; notice what shifts in the days ahead.\n\n")
}

func writeClosing(b *strings.Builder, a domain.SymbolicAnalysis, req domain.ReadingRequest) {
	if req.Question != "" {
		b.WriteString("Hold your question lightly as these themes settle; the cards offer perspective, not verdicts.")
	} else {
		b.WriteString("Let these themes settle in their own time; the cards offer perspective, not verdicts.")
	}
	if name := req.Personalization.DisplayName; name != "" {
		fmt.Fprintf(b, " Take what serves you, %s, and leave the rest.", name)
	} else {
		b.WriteString(" Take what serves you and leave the rest.")
	}
	b.WriteString("\n")
}

// CrisisText is the supportive response returned when the crisis scan
// matches. It deliberately ignores the cards: a person in distress needs
// grounding, not symbolism.
func CrisisText(p domain.Personalization) string {
	var b strings.Builder
	if p.DisplayName != "" {
		fmt.Fprintf(&b, "%s, thank you for sharing what you're carrying right now.", p.DisplayName)
	} else {
		b.WriteString("Thank you for sharing what you're carrying right now.")
	}
	b.WriteString(" What you described sounds heavier than anything a card reading should try to answer, and it deserves real support.\n\n")
	b.WriteString("If you are in immediate danger or thinking about harming yourself, please reach out now: contact local emergency services, or a crisis line such as 988 (US) or your regional equivalent. You do not have to hold this alone.\n\n")
	b.WriteString("The cards will keep. When things feel steadier, this reading will be here for you.\n")
	return b.String()
}

func relationFor(a domain.SymbolicAnalysis, position int) string {
	for _, r := range a.Relationships {
		if r.A == position || r.B == position {
			return r.Dynamic
		}
	}
	return ""
}

func elementNoun(el domain.Element) string {
	switch el {
	case domain.Fire:
		return "Fire"
	case domain.Water:
		return "Water"
	case domain.Air:
		return "Air"
	case domain.Earth:
		return "Earth"
	}
	return string(el)
}

func missingList(els []domain.Element) string {
	names := make([]string, len(els))
	for i, el := range els {
		names[i] = strings.ToLower(elementNoun(el))
	}
	switch len(names) {
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	default:
		return strings.Join(names[:len(names)-1], ", ") + ", and " + names[len(names)-1]
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
