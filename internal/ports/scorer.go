package ports

import (
	"context"

	"github.com/randomtoy/arcana-go/internal/domain"
)

// ScoreInput is the context the scoring backend sees alongside the narrative.
type ScoreInput struct {
	Narrative string
	Question  string
	CardNames []string
	Tone      string
}

// ScoreOutput is the raw rubric result from the scoring backend.
type ScoreOutput struct {
	Personalization int  `json:"personalization"`
	Coherence       int  `json:"coherence"`
	Tone            int  `json:"tone"`
	Safety          int  `json:"safety"`
	Overall         int  `json:"overall"`
	SafetyFlag      bool `json:"safety_flag"`
}

// Scorer runs the independent quality/safety rubric over a narrative.
type Scorer interface {
	Score(ctx context.Context, in ScoreInput) (ScoreOutput, error)
}

// Embedder generates an embedding vector for retrieval queries. May be nil
// when semantic scoring is disabled; retrieval then degrades to keyword mode.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// DeckStore provides access to tarot decks.
type DeckStore interface {
	GetDeck(ctx context.Context, deckID string) (domain.Deck, error)
}

// SpreadRegistry resolves spread keys to their topology definitions.
type SpreadRegistry interface {
	Get(key string) (domain.SpreadDefinition, error)
	All() ([]domain.SpreadDefinition, error)
}
