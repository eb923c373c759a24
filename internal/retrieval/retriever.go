// Package retrieval ranks reference passages for a reading. It supports two
// scoring modes — semantic (cosine over stored embeddings) and keyword
// (token overlap) — and degrades from semantic to keyword without error,
// reporting the degradation in the result rather than swallowing it.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/randomtoy/arcana-go/internal/domain"
	"github.com/randomtoy/arcana-go/internal/ports"
)

// StoredPassage is a corpus passage plus its optional embedding vector.
type StoredPassage struct {
	domain.Passage
	Embedding []float32
}

// Source supplies candidate passages for ranking. Implementations over-fetch
// broadly; the retriever filters and caps.
type Source interface {
	Candidates(ctx context.Context, terms []string, limit int) ([]StoredPassage, error)
}

const (
	// overFetchFactor controls how many candidates are pulled per requested
	// passage before filtering.
	overFetchFactor = 4

	// minSemanticScore rejects passages below this cosine similarity.
	minSemanticScore = 0.25

	// minKeywordScore rejects passages below this token-overlap ratio.
	minKeywordScore = 0.15
)

// Retriever implements ports.PassageRetriever over a Source. The embedder
// may be nil, in which case every retrieval runs in keyword mode (not
// reported as a fallback — semantic was never configured).
type Retriever struct {
	source   Source
	embedder ports.Embedder
	logger   *slog.Logger
}

// New builds a retriever.
func New(source Source, embedder ports.Embedder, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{source: source, embedder: embedder, logger: logger}
}

// Retrieve returns at most q.Limit passages, ranked, thresholded, and
// deduplicated. Semantic scoring failures degrade to keyword mode with
// FallbackOccurred set.
func (r *Retriever) Retrieve(ctx context.Context, q ports.RetrievalQuery) (ports.RetrievalResult, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 3
	}

	terms := queryTerms(q)
	candidates, err := r.source.Candidates(ctx, terms, limit*overFetchFactor)
	if err != nil {
		return ports.RetrievalResult{}, fmt.Errorf("fetch passage candidates: %w", err)
	}

	res := ports.RetrievalResult{Mode: domain.ScoringKeyword}

	if r.embedder != nil {
		scored, embErr := r.scoreSemantic(ctx, terms, candidates)
		if embErr == nil {
			res.Mode = domain.ScoringSemantic
			res.Passages = capAndDedup(scored, minSemanticScore, limit)
			return res, nil
		}
		// Degrade, loudly in telemetry and logs, quietly for the caller.
		res.FallbackOccurred = true
		r.logger.WarnContext(ctx, "semantic scoring unavailable, using keyword mode", "error", embErr)
	}

	res.Passages = capAndDedup(scoreKeyword(terms, candidates), minKeywordScore, limit)
	return res, nil
}

// queryTerms derives the search vocabulary from the analysis-driven query.
func queryTerms(q ports.RetrievalQuery) []string {
	var terms []string
	seen := make(map[string]bool)
	add := func(s string) {
		for _, f := range strings.Fields(strings.ToLower(s)) {
			f = strings.Trim(f, ".,;:!?\"'")
			if len(f) < 3 || seen[f] {
				continue
			}
			seen[f] = true
			terms = append(terms, f)
		}
	}
	add(q.SpreadKey)
	for _, n := range q.CardNames {
		add(n)
	}
	for _, t := range q.Terms {
		add(t)
	}
	return terms
}

func (r *Retriever) scoreSemantic(ctx context.Context, terms []string, candidates []StoredPassage) ([]StoredPassage, error) {
	queryVec, err := r.embedder.Embed(ctx, strings.Join(terms, " "))
	if err != nil {
		return nil, err
	}
	if len(queryVec) == 0 {
		return nil, fmt.Errorf("embedder returned empty vector")
	}

	out := make([]StoredPassage, 0, len(candidates))
	for _, c := range candidates {
		if len(c.Embedding) == 0 {
			// Un-embedded rows can still win on keywords in fallback mode,
			// but contribute nothing semantically.
			continue
		}
		c.Score = CosineSimilarity(queryVec, c.Embedding)
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no embedded candidates")
	}
	return out, nil
}

func scoreKeyword(terms []string, candidates []StoredPassage) []StoredPassage {
	termSet := make(map[string]bool, len(terms))
	for _, t := range terms {
		termSet[t] = true
	}

	out := make([]StoredPassage, 0, len(candidates))
	for _, c := range candidates {
		c.Score = overlapScore(termSet, c)
		out = append(out, c)
	}
	return out
}

// overlapScore is the fraction of query terms present in the passage text or
// topics.
func overlapScore(terms map[string]bool, p StoredPassage) float64 {
	if len(terms) == 0 {
		return 0
	}
	haystack := strings.ToLower(p.Text + " " + strings.Join(p.Topics, " "))
	hits := 0
	for t := range terms {
		if strings.Contains(haystack, t) {
			hits++
		}
	}
	return float64(hits) / float64(len(terms))
}

// capAndDedup sorts by score, drops low-relevance passages rather than
// padding with noise, removes near-identical passages, and caps the result.
func capAndDedup(scored []StoredPassage, minScore float64, limit int) []domain.Passage {
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	var out []domain.Passage
	seen := make(map[string]bool)
	for _, c := range scored {
		if c.Score < minScore {
			break // sorted, nothing below will pass
		}
		key := dedupKey(c.Text)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c.Passage)
		if len(out) >= limit {
			break
		}
	}
	return out
}

// dedupKey folds a passage to its first few significant words so trivially
// rephrased duplicates collapse.
func dedupKey(text string) string {
	fields := strings.Fields(strings.ToLower(text))
	if len(fields) > 8 {
		fields = fields[:8]
	}
	for i, f := range fields {
		fields[i] = strings.Trim(f, ".,;:!?\"'")
	}
	return strings.Join(fields, " ")
}

// CosineSimilarity computes cosine similarity between two vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
