package ports

import (
	"context"

	"github.com/randomtoy/arcana-go/internal/domain"
)

// RetrievalQuery is the derived query handed to the passage retriever. Built
// from the symbolic analysis, never from raw user text.
type RetrievalQuery struct {
	SpreadKey string
	CardNames []string
	Terms     []string
	Limit     int
}

// RetrievalResult is a ranked, deduplicated, length-capped passage list plus
// the metadata that makes scoring-mode degradation visible to callers.
type RetrievalResult struct {
	Passages         []domain.Passage
	Mode             domain.ScoringMode
	FallbackOccurred bool
}

// PassageRetriever returns reference passages relevant to an analysis. The
// implementation must degrade from semantic to keyword scoring without
// error, reporting the degradation in the result.
type PassageRetriever interface {
	Retrieve(ctx context.Context, q RetrievalQuery) (RetrievalResult, error)
}
