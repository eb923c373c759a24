package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/randomtoy/arcana-go/internal/adapters/passages"
	"github.com/randomtoy/arcana-go/internal/ports"
	"github.com/randomtoy/arcana-go/internal/retrieval"
)

var passagesDB string

var passagesCmd = &cobra.Command{
	Use:   "passages",
	Short: "Manage the passage corpus",
}

var passagesImportCmd = &cobra.Command{
	Use:   "import FILE.json",
	Short: "Import passages from a JSON file into the corpus",
	Long: `Import passages from a JSON array of objects:

  [{"text": "...", "source": "...", "topics": ["..."], "embedding": [...]}]

Topics and embedding are optional; passages without embeddings are only
reachable in keyword mode.`,
	Args: cobra.ExactArgs(1),
	RunE: runPassagesImport,
}

var passagesSearchLimit int

var passagesSearchCmd = &cobra.Command{
	Use:   "search TERM...",
	Short: "Search the corpus in keyword mode",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPassagesSearch,
}

func init() {
	passagesCmd.PersistentFlags().StringVar(&passagesDB, "db", "data/corpus.db", "corpus database path")
	passagesSearchCmd.Flags().IntVar(&passagesSearchLimit, "limit", 5, "maximum passages to return")
	passagesCmd.AddCommand(passagesImportCmd)
	passagesCmd.AddCommand(passagesSearchCmd)
	rootCmd.AddCommand(passagesCmd)
}

func runPassagesImport(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	var entries []passages.ImportPassage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return fmt.Errorf("parse import file: %w", err)
	}

	store, err := passages.Open(passagesDB)
	if err != nil {
		return err
	}
	defer store.Close()

	total, err := store.Import(cmd.Context(), entries)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "imported %d entries, corpus now holds %d passages\n", len(entries), total)
	return nil
}

func runPassagesSearch(cmd *cobra.Command, args []string) error {
	store, err := passages.Open(passagesDB)
	if err != nil {
		return err
	}
	defer store.Close()

	r := retrieval.New(store, nil, nil)
	res, err := r.Retrieve(cmd.Context(), ports.RetrievalQuery{
		Terms: args,
		Limit: passagesSearchLimit,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(res.Passages) == 0 {
		fmt.Fprintln(out, "no passages matched")
		return nil
	}
	for _, p := range res.Passages {
		fmt.Fprintf(out, "%.3f  [%s] %s\n", p.Score, p.Source, p.Text)
	}
	return nil
}
