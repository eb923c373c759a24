package validator

import (
	"strings"

	"github.com/randomtoy/arcana-go/internal/domain"
)

// aliasIndex maps every normalized name and alias a deck knows to the card's
// canonical name. Deck-aware: "wheel" only counts for decks that alias it.
type aliasIndex struct {
	byAlias map[string]string // normalized alias -> canonical name
}

func newAliasIndex(deck domain.Deck) *aliasIndex {
	idx := &aliasIndex{byAlias: make(map[string]string, len(deck.Cards)*2)}
	for _, c := range deck.Cards {
		idx.byAlias[domain.NormalizeCardName(c.Name)] = c.Name
		for _, a := range c.Aliases {
			idx.byAlias[domain.NormalizeCardName(a)] = c.Name
		}
	}
	return idx
}

// mentions returns the canonical names of every deck card referenced in the
// text, in deck order. Matching is case-insensitive, article-insensitive, and
// requires word boundaries so "star" does not fire inside "start".
func (idx *aliasIndex) mentions(text string, deck domain.Deck) []string {
	folded := foldText(text)
	var out []string
	seen := make(map[string]bool)
	for _, c := range deck.Cards {
		canonical := c.Name
		if seen[canonical] {
			continue
		}
		names := append([]string{c.Name}, c.Aliases...)
		for _, n := range names {
			if containsPhrase(folded, domain.NormalizeCardName(n)) {
				out = append(out, canonical)
				seen[canonical] = true
				break
			}
		}
	}
	return out
}

// foldText lowercases text and collapses every non-alphanumeric run to a
// single space, so phrase search is punctuation-proof.
func foldText(text string) string {
	var b strings.Builder
	b.Grow(len(text) + 2)
	b.WriteByte(' ')
	lastSpace := true
	for _, r := range strings.ToLower(text) {
		alnum := r >= 'a' && r <= 'z' || r >= '0' && r <= '9'
		if alnum {
			b.WriteRune(r)
			lastSpace = false
		} else if !lastSpace {
			b.WriteByte(' ')
			lastSpace = true
		}
	}
	if !lastSpace {
		b.WriteByte(' ')
	}
	return b.String()
}

// containsPhrase reports whether the folded text contains the normalized
// phrase on word boundaries.
func containsPhrase(folded, phrase string) bool {
	if phrase == "" {
		return false
	}
	return strings.Contains(folded, " "+phrase+" ")
}
