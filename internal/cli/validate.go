package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/randomtoy/arcana-go/internal/adapters/decks"
	"github.com/randomtoy/arcana-go/internal/adapters/spreads"
	"github.com/randomtoy/arcana-go/internal/app"
	"github.com/randomtoy/arcana-go/internal/domain"
	"github.com/randomtoy/arcana-go/internal/validator"
)

// regressionCase is one entry of a validation corpus file: a narrative that
// was (or should have been) produced for a known spread, with the expected
// accept/reject verdict.
type regressionCase struct {
	Name      string `json:"name"`
	Spread    string `json:"spread"`
	Deck      string `json:"deck,omitempty"`
	Cards     []struct {
		Position    int    `json:"position"`
		CardID      string `json:"card_id"`
		Orientation string `json:"orientation"`
	} `json:"cards"`
	Narrative    string `json:"narrative"`
	ExpectAccept bool   `json:"expect_accept"`
}

var validateCmd = &cobra.Command{
	Use:   "validate CORPUS.json",
	Short: "Run structural validation over a regression corpus",
	Long: `Run the structural validator and acceptance thresholds over every
case in a corpus file and report mismatches against the recorded
verdicts. Exits non-zero when any case disagrees.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	var cases []regressionCase
	if err := json.Unmarshal(raw, &cases); err != nil {
		return fmt.Errorf("parse corpus: %w", err)
	}
	if len(cases) == 0 {
		return fmt.Errorf("corpus is empty")
	}

	reg := spreads.NewRegistry()
	store := decks.NewEmbeddedStore()

	out := cmd.OutOrStdout()
	failures := 0
	for _, tc := range cases {
		def, err := reg.Get(tc.Spread)
		if err != nil {
			return fmt.Errorf("case %q: %w", tc.Name, err)
		}
		deck, err := store.GetDeck(cmd.Context(), tc.Deck)
		if err != nil {
			return fmt.Errorf("case %q: %w", tc.Name, err)
		}

		drawn := make([]domain.DrawnCard, 0, len(tc.Cards))
		for _, c := range tc.Cards {
			card, ok := deck.CardByID(c.CardID)
			if !ok {
				return fmt.Errorf("case %q: unknown card %q", tc.Name, c.CardID)
			}
			drawn = append(drawn, domain.DrawnCard{
				Card:        card,
				Position:    c.Position,
				Orientation: domain.Orientation(c.Orientation),
			})
		}

		v := validator.New(deck)
		metrics := v.Validate(tc.Narrative, drawn, def.Sections())
		reason := app.RejectReason(metrics, app.ThresholdsFor(len(drawn)),
			v.HasSectionMarkers(tc.Narrative, def.Sections()))
		accepted := reason == ""

		if accepted != tc.ExpectAccept {
			failures++
			fmt.Fprintf(out, "FAIL %s: expected accept=%v, got accept=%v (reason=%q, coverage=%.2f, hallucinated=%d)\n",
				tc.Name, tc.ExpectAccept, accepted, reason,
				metrics.CardCoverage, len(metrics.HallucinatedCards))
			continue
		}
		fmt.Fprintf(out, "ok   %s (coverage=%.2f, spine=%v)\n", tc.Name, metrics.CardCoverage, metrics.SpineValid)
	}

	fmt.Fprintf(out, "\n%d cases, %d failures\n", len(cases), failures)
	if failures > 0 {
		return fmt.Errorf("%d regression failures", failures)
	}
	return nil
}
