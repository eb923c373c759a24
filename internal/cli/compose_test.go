package cli

import (
	"context"
	"testing"

	"github.com/randomtoy/arcana-go/internal/adapters/decks"
	"github.com/randomtoy/arcana-go/internal/domain"
)

// The card IDs in the help text must resolve against the shipped deck.
func TestParseDrawn_HelpExample(t *testing.T) {
	deck, err := decks.NewEmbeddedStore().GetDeck(context.Background(), "")
	if err != nil {
		t.Fatalf("load deck: %v", err)
	}

	drawn, err := parseDrawn(deck, []string{"fool", "tower:reversed", "star"})
	if err != nil {
		t.Fatalf("documented example does not parse: %v", err)
	}
	if len(drawn) != 3 {
		t.Fatalf("parsed %d cards, want 3", len(drawn))
	}
	if drawn[0].Name != "The Fool" || drawn[0].Orientation != domain.Upright {
		t.Errorf("first card: %s %s", drawn[0].Name, drawn[0].Orientation)
	}
	if drawn[1].Name != "The Tower" || drawn[1].Orientation != domain.Reversed {
		t.Errorf("second card: %s %s", drawn[1].Name, drawn[1].Orientation)
	}
	if drawn[2].Position != 3 {
		t.Errorf("third card position %d", drawn[2].Position)
	}
}

func TestParseDrawn_Rejects(t *testing.T) {
	deck, err := decks.NewEmbeddedStore().GetDeck(context.Background(), "")
	if err != nil {
		t.Fatalf("load deck: %v", err)
	}
	if _, err := parseDrawn(deck, []string{"fool:sideways"}); err == nil {
		t.Error("invalid orientation accepted")
	}
	if _, err := parseDrawn(deck, []string{"not_a_card"}); err == nil {
		t.Error("unknown card accepted")
	}
}
