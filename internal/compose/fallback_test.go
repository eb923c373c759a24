package compose_test

import (
	"context"
	"strings"
	"testing"

	"github.com/randomtoy/arcana-go/internal/adapters/decks"
	"github.com/randomtoy/arcana-go/internal/adapters/spreads"
	"github.com/randomtoy/arcana-go/internal/analysis"
	"github.com/randomtoy/arcana-go/internal/compose"
	"github.com/randomtoy/arcana-go/internal/domain"
	"github.com/randomtoy/arcana-go/internal/validator"
)

// drawFrom fills a spread with N deck cards starting at an offset,
// alternating orientation so both hook variants are exercised.
func drawFrom(deck domain.Deck, offset, n int) []domain.DrawnCard {
	out := make([]domain.DrawnCard, n)
	for i := 0; i < n; i++ {
		o := domain.Upright
		if i%2 == 1 {
			o = domain.Reversed
		}
		out[i] = domain.DrawnCard{Card: deck.Cards[(offset+i)%len(deck.Cards)], Position: i + 1, Orientation: o}
	}
	return out
}

func drawFirst(deck domain.Deck, n int) []domain.DrawnCard {
	return drawFrom(deck, 0, n)
}

// The composed narrative must clear structural validation for every spread:
// full coverage, no invented cards, complete spine.
func TestCompose_StructurallySound(t *testing.T) {
	deck, err := decks.NewEmbeddedStore().GetDeck(context.Background(), "")
	if err != nil {
		t.Fatalf("load deck: %v", err)
	}
	defs, err := spreads.NewRegistry().All()
	if err != nil {
		t.Fatalf("load spreads: %v", err)
	}
	if len(defs) == 0 {
		t.Fatal("no spreads registered")
	}

	v := validator.New(deck)
	offset := 0
	for _, def := range defs {
		cards := drawFrom(deck, offset, len(def.Positions))
		offset += len(def.Positions)
		t.Run(def.Key, func(t *testing.T) {
			a, err := analysis.Analyze(def, cards)
			if err != nil {
				t.Fatalf("analyze: %v", err)
			}
			req := domain.ReadingRequest{
				SpreadKey: def.Key,
				DeckID:    deck.ID,
				Cards:     cards,
				Question:  "What should I focus on?",
			}

			text := compose.Compose(def, a, req)
			m := v.Validate(text, cards, def.Sections())

			if m.CardCoverage != 1.0 {
				t.Errorf("coverage %.2f, want 1.0 (uncovered: %v)", m.CardCoverage, m.UncoveredCards)
			}
			if len(m.HallucinatedCards) != 0 {
				t.Errorf("hallucinated cards: %v", m.HallucinatedCards)
			}
			if !m.SpineValid {
				t.Errorf("spine invalid: %+v", m.Sections)
			}
		})
	}
}

// Compose inlines hook text verbatim, so a hook that names a different card
// would surface as a hallucination. Sweep every card of every deck in both
// orientations through a single-card reading.
func TestCompose_NoHookNamesAnotherCard(t *testing.T) {
	store := decks.NewEmbeddedStore()
	def, err := spreads.NewRegistry().Get("single")
	if err != nil {
		t.Fatalf("load spread: %v", err)
	}

	for _, deckID := range []string{"rws", "thoth"} {
		deck, err := store.GetDeck(context.Background(), deckID)
		if err != nil {
			t.Fatalf("load deck %s: %v", deckID, err)
		}
		v := validator.New(deck)

		for _, card := range deck.Cards {
			for _, o := range []domain.Orientation{domain.Upright, domain.Reversed} {
				drawn := []domain.DrawnCard{{Card: card, Position: 1, Orientation: o}}
				a, err := analysis.Analyze(def, drawn)
				if err != nil {
					t.Fatalf("%s/%s: analyze: %v", deckID, card.ID, err)
				}
				req := domain.ReadingRequest{SpreadKey: def.Key, DeckID: deck.ID, Cards: drawn}

				m := v.Validate(compose.Compose(def, a, req), drawn, def.Sections())
				if len(m.HallucinatedCards) != 0 {
					t.Errorf("%s/%s %s: hallucinated cards %v", deckID, card.ID, o, m.HallucinatedCards)
				}
				if m.CardCoverage != 1.0 {
					t.Errorf("%s/%s %s: coverage %.2f", deckID, card.ID, o, m.CardCoverage)
				}
			}
		}
	}
}

// Combo pattern prose names cards by their traditional titles; renamed thoth
// cards must resolve through their aliases rather than register as invented.
func TestCompose_PatternProseResolvesThroughAliases(t *testing.T) {
	deck, err := decks.NewEmbeddedStore().GetDeck(context.Background(), "thoth")
	if err != nil {
		t.Fatalf("load deck: %v", err)
	}
	def, err := spreads.NewRegistry().Get("three_card")
	if err != nil {
		t.Fatalf("load spread: %v", err)
	}

	var drawn []domain.DrawnCard
	for i, id := range []string{"hermit", "judgement", "fool"} {
		card, ok := deck.CardByID(id)
		if !ok {
			t.Fatalf("thoth deck has no %s", id)
		}
		drawn = append(drawn, domain.DrawnCard{Card: card, Position: i + 1, Orientation: domain.Upright})
	}
	a, err := analysis.Analyze(def, drawn)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	found := false
	for _, p := range a.Patterns {
		if p.Name == "inner_reckoning" {
			found = true
		}
	}
	if !found {
		t.Fatal("hermit/judgement combo did not fire")
	}

	req := domain.ReadingRequest{SpreadKey: def.Key, DeckID: deck.ID, Cards: drawn}
	m := validator.New(deck).Validate(compose.Compose(def, a, req), drawn, def.Sections())
	if len(m.HallucinatedCards) != 0 {
		t.Errorf("pattern prose registered as invention: %v", m.HallucinatedCards)
	}
	if m.CardCoverage != 1.0 {
		t.Errorf("coverage %.2f, want 1.0", m.CardCoverage)
	}
}

func TestCompose_NameAppearsAtMostTwice(t *testing.T) {
	deck, _ := decks.NewEmbeddedStore().GetDeck(context.Background(), "")
	def, err := spreads.NewRegistry().Get("three_card")
	if err != nil {
		t.Fatalf("load spread: %v", err)
	}
	cards := drawFirst(deck, 3)
	a, _ := analysis.Analyze(def, cards)

	req := domain.ReadingRequest{
		SpreadKey:       def.Key,
		Cards:           cards,
		Personalization: domain.Personalization{DisplayName: "Quintessa"},
	}
	text := compose.Compose(def, a, req)

	if n := strings.Count(text, "Quintessa"); n < 1 || n > 2 {
		t.Errorf("name used %d times, want 1 or 2", n)
	}

	// Without a name the text must carry no template artifacts.
	req.Personalization.DisplayName = ""
	text = compose.Compose(def, a, req)
	if strings.Contains(text, "Quintessa") || strings.Contains(text, ", ,") {
		t.Errorf("nameless narrative carries artifacts:\n%s", text)
	}
}

func TestCompose_Deterministic(t *testing.T) {
	deck, _ := decks.NewEmbeddedStore().GetDeck(context.Background(), "")
	def, _ := spreads.NewRegistry().Get("five_card")
	cards := drawFirst(deck, 5)
	a, _ := analysis.Analyze(def, cards)
	req := domain.ReadingRequest{SpreadKey: def.Key, Cards: cards}

	first := compose.Compose(def, a, req)
	for i := 0; i < 5; i++ {
		if again := compose.Compose(def, a, req); again != first {
			t.Fatal("composed narrative differs between runs")
		}
	}
}

func TestCrisisText(t *testing.T) {
	text := compose.CrisisText(domain.Personalization{})
	if !strings.Contains(text, "988") {
		t.Error("crisis text is missing the crisis line number")
	}
	if !strings.Contains(text, "emergency services") {
		t.Error("crisis text is missing the emergency services pointer")
	}

	named := compose.CrisisText(domain.Personalization{DisplayName: "Ash"})
	if !strings.HasPrefix(named, "Ash, ") {
		t.Errorf("named crisis text does not open with the name: %q", named[:40])
	}
}
