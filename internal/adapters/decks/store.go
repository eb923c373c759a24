// Package decks loads tarot decks from embedded JSON files.
package decks

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/randomtoy/arcana-go/internal/domain"
)

//go:embed data/*.json
var deckFS embed.FS

// registry maps deck IDs to their JSON filenames inside data/.
var registry = map[string]string{
	"rws":   "data/rws.json",
	"thoth": "data/thoth.json",
}

// EmbeddedStore loads decks from embedded JSON files. Implements
// ports.DeckStore.
type EmbeddedStore struct {
	once  sync.Once
	decks map[string]domain.Deck
	err   error
}

// NewEmbeddedStore returns the store. Decks are parsed lazily on first use.
func NewEmbeddedStore() *EmbeddedStore {
	return &EmbeddedStore{}
}

func (s *EmbeddedStore) init() {
	s.decks = make(map[string]domain.Deck, len(registry))
	for id, filename := range registry {
		raw, err := deckFS.ReadFile(filename)
		if err != nil {
			s.err = fmt.Errorf("read embedded deck %s: %w", id, err)
			return
		}
		var deck domain.Deck
		if err := json.Unmarshal(raw, &deck); err != nil {
			s.err = fmt.Errorf("parse embedded deck %s: %w", id, err)
			return
		}
		deck.ID = id
		s.decks[id] = deck
	}
}

// GetDeck returns the deck with the given ID. An empty ID resolves to the
// default Rider-Waite-Smith deck.
func (s *EmbeddedStore) GetDeck(_ context.Context, deckID string) (domain.Deck, error) {
	s.once.Do(s.init)
	if s.err != nil {
		return domain.Deck{}, s.err
	}
	if deckID == "" {
		deckID = "rws"
	}
	deck, ok := s.decks[deckID]
	if !ok {
		return domain.Deck{}, domain.ErrDeckNotFound
	}
	return deck, nil
}
