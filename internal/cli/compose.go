package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/randomtoy/arcana-go/internal/adapters/decks"
	"github.com/randomtoy/arcana-go/internal/adapters/spreads"
	"github.com/randomtoy/arcana-go/internal/analysis"
	"github.com/randomtoy/arcana-go/internal/compose"
	"github.com/randomtoy/arcana-go/internal/domain"
)

var composeFlags struct {
	spread   string
	deck     string
	question string
	name     string
}

var composeCmd = &cobra.Command{
	Use:   "compose CARD[:ORIENTATION]...",
	Short: "Render the deterministic narrative for a drawn spread",
	Long: `Render the local composed narrative without calling any backend.
Cards are given as deck card IDs in position order, each with an
optional orientation suffix (upright is the default):

  arcanactl compose --spread three_card fool tower:reversed star`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCompose,
}

func init() {
	composeCmd.Flags().StringVar(&composeFlags.spread, "spread", "three_card", "spread key")
	composeCmd.Flags().StringVar(&composeFlags.deck, "deck", "", "deck ID (default rws)")
	composeCmd.Flags().StringVar(&composeFlags.question, "question", "", "querent question")
	composeCmd.Flags().StringVar(&composeFlags.name, "name", "", "querent display name")
	rootCmd.AddCommand(composeCmd)
}

func runCompose(cmd *cobra.Command, args []string) error {
	reg := spreads.NewRegistry()
	def, err := reg.Get(composeFlags.spread)
	if err != nil {
		return err
	}

	deck, err := decks.NewEmbeddedStore().GetDeck(cmd.Context(), composeFlags.deck)
	if err != nil {
		return err
	}

	drawn, err := parseDrawn(deck, args)
	if err != nil {
		return err
	}

	req := domain.ReadingRequest{
		SpreadKey: def.Key,
		DeckID:    deck.ID,
		Cards:     drawn,
		Question:  composeFlags.question,
		Personalization: domain.Personalization{
			DisplayName: composeFlags.name,
		},
	}

	a, err := analysis.Analyze(def, drawn)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), compose.Compose(def, a, req))
	return nil
}

// parseDrawn resolves "card_id[:orientation]" arguments against the deck,
// assigning positions in argument order.
func parseDrawn(deck domain.Deck, args []string) ([]domain.DrawnCard, error) {
	drawn := make([]domain.DrawnCard, 0, len(args))
	for i, arg := range args {
		id, orientation := arg, domain.Upright
		if before, after, found := strings.Cut(arg, ":"); found {
			id = before
			switch after {
			case "upright":
				orientation = domain.Upright
			case "reversed":
				orientation = domain.Reversed
			default:
				return nil, fmt.Errorf("invalid orientation %q for card %s", after, before)
			}
		}
		card, ok := deck.CardByID(id)
		if !ok {
			return nil, fmt.Errorf("unknown card %q in deck %s", id, deck.ID)
		}
		drawn = append(drawn, domain.DrawnCard{
			Card:        card,
			Position:    i + 1,
			Orientation: orientation,
		})
	}
	return drawn, nil
}
