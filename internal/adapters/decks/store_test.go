package decks_test

import (
	"context"
	"errors"
	"testing"

	"github.com/randomtoy/arcana-go/internal/adapters/decks"
	"github.com/randomtoy/arcana-go/internal/domain"
)

func TestGetDeck_DefaultsToRWS(t *testing.T) {
	store := decks.NewEmbeddedStore()
	deck, err := store.GetDeck(context.Background(), "")
	if err != nil {
		t.Fatalf("load default deck: %v", err)
	}
	if deck.ID != "rws" {
		t.Errorf("default deck %s, want rws", deck.ID)
	}
	if len(deck.Cards) != 22 {
		t.Errorf("rws deck holds %d cards, want 22", len(deck.Cards))
	}
}

func TestGetDeck_Unknown(t *testing.T) {
	store := decks.NewEmbeddedStore()
	_, err := store.GetDeck(context.Background(), "marseille")
	if !errors.Is(err, domain.ErrDeckNotFound) {
		t.Fatalf("expected ErrDeckNotFound, got %v", err)
	}
}

func TestGetDeck_EmbeddedDecksAreComplete(t *testing.T) {
	store := decks.NewEmbeddedStore()
	for _, id := range []string{"rws", "thoth"} {
		deck, err := store.GetDeck(context.Background(), id)
		if err != nil {
			t.Fatalf("load %s: %v", id, err)
		}
		if len(deck.Cards) != 22 {
			t.Errorf("%s holds %d cards, want 22", id, len(deck.Cards))
		}
		seen := make(map[string]bool, len(deck.Cards))
		for _, c := range deck.Cards {
			if c.ID == "" || c.Name == "" {
				t.Errorf("%s: card missing identity: %+v", id, c)
			}
			if seen[c.ID] {
				t.Errorf("%s: duplicate card ID %s", id, c.ID)
			}
			seen[c.ID] = true
			if c.Suit == domain.SuitMajor && c.Element == "" {
				t.Errorf("%s: major %s has no element", id, c.ID)
			}
			if c.Upright == "" || c.Reversed == "" {
				t.Errorf("%s: card %s missing orientation hooks", id, c.ID)
			}
		}
	}
}

// Thoth renames several cards; the aliases must carry the RWS names so
// narrative validation recognizes either form.
func TestGetDeck_ThothAliases(t *testing.T) {
	store := decks.NewEmbeddedStore()
	deck, err := store.GetDeck(context.Background(), "thoth")
	if err != nil {
		t.Fatalf("load thoth: %v", err)
	}
	card, ok := deck.CardByID("strength")
	if !ok {
		t.Fatal("thoth deck has no strength card")
	}
	if domain.NormalizeCardName(card.Name) != "lust" {
		t.Errorf("thoth strength named %q, want Lust", card.Name)
	}
	found := false
	for _, a := range card.Aliases {
		if domain.NormalizeCardName(a) == "strength" {
			found = true
		}
	}
	if !found {
		t.Errorf("Lust lacks the Strength alias: %v", card.Aliases)
	}
}
