// Package passages provides the SQLite-backed passage corpus consumed by
// the retriever. Embeddings are stored as JSON float arrays alongside the
// text so semantic mode needs no extra index files.
package passages

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/randomtoy/arcana-go/internal/domain"
	"github.com/randomtoy/arcana-go/internal/retrieval"
)

// Store wraps a SQLite connection holding the passage corpus.
type Store struct {
	conn *sqlx.DB
}

// Open opens or creates the corpus database at the given path.
func Open(path string) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open corpus db: %w", err)
	}
	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate corpus db: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS passages (
		id TEXT PRIMARY KEY,
		text TEXT NOT NULL,
		source TEXT NOT NULL,
		topics_json TEXT NOT NULL DEFAULT '[]',
		embedding_json TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_passages_source ON passages(source);
	`
	_, err := s.conn.Exec(schema)
	return err
}

type passageRow struct {
	ID            string  `db:"id"`
	Text          string  `db:"text"`
	Source        string  `db:"source"`
	TopicsJSON    string  `db:"topics_json"`
	EmbeddingJSON *string `db:"embedding_json"`
	CreatedAt     string  `db:"created_at"`
}

// Candidates returns passages whose text or topics match any query term.
// When no term matches, recent passages are returned instead so keyword
// scoring still has material to rank (and reject by threshold).
func (s *Store) Candidates(ctx context.Context, terms []string, limit int) ([]retrieval.StoredPassage, error) {
	if limit <= 0 {
		limit = 20
	}

	var (
		where []string
		args  []interface{}
	)
	for _, t := range terms {
		where = append(where, "(text LIKE ? OR topics_json LIKE ?)")
		pat := "%" + t + "%"
		args = append(args, pat, pat)
	}

	query := "SELECT id, text, source, topics_json, embedding_json, created_at FROM passages"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " OR ")
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	var rows []passageRow
	if err := s.conn.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select candidates: %w", err)
	}

	if len(rows) == 0 && len(terms) > 0 {
		// Broad fallback pull; the threshold filter upstream discards noise.
		if err := s.conn.SelectContext(ctx, &rows,
			"SELECT id, text, source, topics_json, embedding_json, created_at FROM passages ORDER BY created_at DESC LIMIT ?",
			limit); err != nil {
			return nil, fmt.Errorf("select fallback candidates: %w", err)
		}
	}

	out := make([]retrieval.StoredPassage, 0, len(rows))
	for _, r := range rows {
		p, err := rowToPassage(r)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func rowToPassage(r passageRow) (retrieval.StoredPassage, error) {
	p := retrieval.StoredPassage{
		Passage: domain.Passage{
			ID:     r.ID,
			Text:   r.Text,
			Source: r.Source,
		},
	}
	if err := json.Unmarshal([]byte(r.TopicsJSON), &p.Topics); err != nil {
		return p, fmt.Errorf("passage %s topics: %w", r.ID, err)
	}
	if r.EmbeddingJSON != nil && *r.EmbeddingJSON != "" {
		if err := json.Unmarshal([]byte(*r.EmbeddingJSON), &p.Embedding); err != nil {
			return p, fmt.Errorf("passage %s embedding: %w", r.ID, err)
		}
	}
	return p, nil
}

// ImportPassage is one entry of an import file.
type ImportPassage struct {
	Text      string    `json:"text"`
	Source    string    `json:"source"`
	Topics    []string  `json:"topics,omitempty"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// Import inserts passages in one transaction, assigning fresh IDs. Returns
// the number inserted.
func (s *Store) Import(ctx context.Context, entries []ImportPassage) (int, error) {
	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, e := range entries {
		if strings.TrimSpace(e.Text) == "" {
			continue
		}
		topics, err := json.Marshal(e.Topics)
		if err != nil {
			return 0, err
		}
		var embedding *string
		if len(e.Embedding) > 0 {
			raw, err := json.Marshal(e.Embedding)
			if err != nil {
				return 0, err
			}
			enc := string(raw)
			embedding = &enc
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO passages (id, text, source, topics_json, embedding_json, created_at) VALUES (?, ?, ?, ?, ?, ?)",
			uuid.NewString(), e.Text, e.Source, string(topics), embedding, now); err != nil {
			return 0, fmt.Errorf("insert passage: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return s.count(ctx)
}

func (s *Store) count(ctx context.Context) (int, error) {
	var n int
	if err := s.conn.GetContext(ctx, &n, "SELECT COUNT(*) FROM passages"); err != nil {
		return 0, err
	}
	return n, nil
}
