package passages_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/randomtoy/arcana-go/internal/adapters/passages"
)

func openStore(t *testing.T) *passages.Store {
	t.Helper()
	s, err := passages.Open(filepath.Join(t.TempDir(), "corpus.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seed(t *testing.T, s *passages.Store) {
	t.Helper()
	n, err := s.Import(context.Background(), []passages.ImportPassage{
		{Text: "The Tower marks sudden structural collapse", Source: "notes", Topics: []string{"tower", "upheaval"}},
		{Text: "Cups carry the water current of feeling", Source: "notes", Topics: []string{"cups"}},
		{Text: "The Star brings renewal after upheaval", Source: "notes", Topics: []string{"star"}, Embedding: []float32{0.1, 0.9}},
		{Text: "   ", Source: "notes"},
	})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	// The blank entry is skipped.
	if n != 3 {
		t.Fatalf("corpus holds %d passages, want 3", n)
	}
}

func TestStore_ImportAndMatch(t *testing.T) {
	s := openStore(t)
	seed(t, s)

	got, err := s.Candidates(context.Background(), []string{"tower"}, 10)
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 tower match, got %d", len(got))
	}
	if got[0].ID == "" {
		t.Error("imported passage has no assigned ID")
	}
	if len(got[0].Topics) != 2 {
		t.Errorf("topics not round-tripped: %v", got[0].Topics)
	}
}

func TestStore_TopicMatch(t *testing.T) {
	s := openStore(t)
	seed(t, s)

	got, err := s.Candidates(context.Background(), []string{"cups"}, 10)
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("topic term did not match, got %d rows", len(got))
	}
}

func TestStore_EmbeddingRoundTrip(t *testing.T) {
	s := openStore(t)
	seed(t, s)

	got, err := s.Candidates(context.Background(), []string{"renewal"}, 10)
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 match, got %d", len(got))
	}
	if len(got[0].Embedding) != 2 {
		t.Errorf("embedding not round-tripped: %v", got[0].Embedding)
	}
}

// Unmatched terms fall back to a recent pull so threshold filtering upstream
// still has candidates to reject.
func TestStore_FallbackPull(t *testing.T) {
	s := openStore(t)
	seed(t, s)

	got, err := s.Candidates(context.Background(), []string{"zzzunmatchable"}, 10)
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("fallback pull returned %d rows, want 3", len(got))
	}
}

func TestStore_EmptyCorpusNoTerms(t *testing.T) {
	s := openStore(t)
	got, err := s.Candidates(context.Background(), nil, 10)
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("empty corpus returned %d rows", len(got))
	}
}
