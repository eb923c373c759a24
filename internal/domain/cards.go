package domain

import "strings"

// Orientation represents the orientation of a drawn tarot card.
type Orientation string

const (
	Upright  Orientation = "upright"
	Reversed Orientation = "reversed"
)

// Element is one of the four classical elements assigned to every card.
type Element string

const (
	Fire  Element = "fire"
	Water Element = "water"
	Air   Element = "air"
	Earth Element = "earth"
)

// Elements lists all elements in canonical order. Analysis output iterates
// this slice instead of a map so results are reproducible.
var Elements = []Element{Fire, Water, Air, Earth}

// Suit identifies the suit of a card. Major arcana cards carry their own
// element; minor arcana inherit the suit element.
type Suit string

const (
	SuitMajor     Suit = "major"
	SuitWands     Suit = "wands"
	SuitCups      Suit = "cups"
	SuitSwords    Suit = "swords"
	SuitPentacles Suit = "pentacles"
)

// SuitElement returns the element of a minor arcana suit, or "" for majors.
func SuitElement(s Suit) Element {
	switch s {
	case SuitWands:
		return Fire
	case SuitCups:
		return Water
	case SuitSwords:
		return Air
	case SuitPentacles:
		return Earth
	}
	return ""
}

// Card represents a single tarot card in a deck.
type Card struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Suit     Suit     `json:"suit"`
	Element  Element  `json:"element"`
	Keywords []string `json:"keywords"`
	Aliases  []string `json:"aliases,omitempty"`
	Upright  string   `json:"upright"`
	Reversed string   `json:"reversed"`
}

// Hook returns the short descriptive hook for the card in the given
// orientation.
func (c Card) Hook(o Orientation) string {
	if o == Reversed {
		return c.Reversed
	}
	return c.Upright
}

// DrawnCard is a card occupying a position in a spread.
type DrawnCard struct {
	Card
	Position    int         `json:"position"`
	Orientation Orientation `json:"orientation"`
}

// Deck is a collection of tarot cards.
type Deck struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Cards []Card `json:"cards"`
}

// CardByID looks up a card by its identity string.
func (d Deck) CardByID(id string) (Card, bool) {
	for _, c := range d.Cards {
		if c.ID == id {
			return c, true
		}
	}
	return Card{}, false
}

// NormalizeCardName lowercases a card name and strips articles and
// punctuation so "The Fool", "the fool," and "Fool" compare equal.
func NormalizeCardName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.Trim(s, ".,;:!?\"'")
	s = strings.TrimPrefix(s, "the ")
	return strings.Join(strings.Fields(s), " ")
}
