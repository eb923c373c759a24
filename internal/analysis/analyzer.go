// Package analysis computes the deterministic symbolic reading of a spread:
// element tallies, pairwise relationships, position emphasis, and archetype
// patterns. Pure — no I/O, no randomness, no ambient configuration.
package analysis

import (
	"fmt"

	"github.com/randomtoy/arcana-go/internal/domain"
)

// Analyze derives a SymbolicAnalysis from a spread definition and its drawn
// cards. Identical inputs always produce an identical analysis; downstream
// prompts and validators depend on that.
func Analyze(def domain.SpreadDefinition, cards []domain.DrawnCard) (domain.SymbolicAnalysis, error) {
	req := domain.ReadingRequest{SpreadKey: def.Key, Cards: cards}
	if err := req.Validate(def); err != nil {
		return domain.SymbolicAnalysis{}, err
	}

	a := domain.SymbolicAnalysis{
		SpreadKey:     def.Key,
		Elements:      countElements(cards),
		Relationships: relate(def, req),
		Emphasis:      emphasis(def),
		Patterns:      detectPatterns(def, req),
	}
	a.Dominant = dominant(a.Elements)
	a.Missing = missing(a.Elements)
	for _, c := range cards {
		if c.Suit == domain.SuitMajor {
			a.MajorCount++
		}
		if c.Orientation == domain.Reversed {
			a.ReversedCount++
		}
	}
	return a, nil
}

func countElements(cards []domain.DrawnCard) domain.ElementCounts {
	var ec domain.ElementCounts
	for _, c := range cards {
		switch cardElement(c.Card) {
		case domain.Fire:
			ec.Fire++
		case domain.Water:
			ec.Water++
		case domain.Air:
			ec.Air++
		case domain.Earth:
			ec.Earth++
		}
	}
	return ec
}

// cardElement resolves a card's element: explicit assignment wins, minors
// fall back to their suit element.
func cardElement(c domain.Card) domain.Element {
	if c.Element != "" {
		return c.Element
	}
	return domain.SuitElement(c.Suit)
}

// dominant returns the element with the strictly highest count, or "" on a
// tie. Iterates the canonical element order so ties resolve the same way
// every run.
func dominant(ec domain.ElementCounts) domain.Element {
	var best domain.Element
	bestN, tied := -1, false
	for _, el := range domain.Elements {
		n := ec.Of(el)
		switch {
		case n > bestN:
			best, bestN, tied = el, n, false
		case n == bestN:
			tied = true
		}
	}
	if tied || bestN == 0 {
		return ""
	}
	return best
}

func missing(ec domain.ElementCounts) []domain.Element {
	var out []domain.Element
	for _, el := range domain.Elements {
		if ec.Of(el) == 0 {
			out = append(out, el)
		}
	}
	return out
}

// relate tags each declared position pair with the dynamic between its two
// cards.
func relate(def domain.SpreadDefinition, req domain.ReadingRequest) []domain.Relationship {
	out := make([]domain.Relationship, 0, len(def.Pairs))
	for _, p := range def.Pairs {
		a, okA := req.CardAt(p.A)
		b, okB := req.CardAt(p.B)
		if !okA || !okB {
			continue
		}
		out = append(out, domain.Relationship{
			Tag:     p.Tag,
			A:       p.A,
			B:       p.B,
			Dynamic: pairDynamic(a, b),
		})
	}
	return out
}

func pairDynamic(a, b domain.DrawnCard) string {
	elA, elB := cardElement(a.Card), cardElement(b.Card)
	switch {
	case a.Orientation == domain.Reversed && b.Orientation == domain.Reversed:
		return fmt.Sprintf("%s and %s both reversed: blocked energy on both sides", a.Name, b.Name)
	case a.Orientation != b.Orientation:
		rev, up := a, b
		if b.Orientation == domain.Reversed {
			rev, up = b, a
		}
		return fmt.Sprintf("%s reversed against %s upright: one current resists the other", rev.Name, up.Name)
	case elA == elB && elA != "":
		return fmt.Sprintf("%s and %s share %s: the theme reinforces itself", a.Name, b.Name, elA)
	case opposed(elA, elB):
		return fmt.Sprintf("%s (%s) against %s (%s): opposing elements pull this pair apart", a.Name, elA, b.Name, elB)
	default:
		return fmt.Sprintf("%s and %s sit in neutral relation", a.Name, b.Name)
	}
}

// opposed reports classical elemental opposition (fire/water, air/earth).
func opposed(a, b domain.Element) bool {
	switch {
	case a == domain.Fire && b == domain.Water, a == domain.Water && b == domain.Fire:
		return true
	case a == domain.Air && b == domain.Earth, a == domain.Earth && b == domain.Air:
		return true
	}
	return false
}

func emphasis(def domain.SpreadDefinition) []domain.Emphasis {
	out := make([]domain.Emphasis, len(def.Positions))
	for i, p := range def.Positions {
		out[i] = domain.Emphasis{Position: p.Index, Weight: p.Weight}
	}
	return out
}
