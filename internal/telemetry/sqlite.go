package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLiteSink persists records for the ops dashboard. Column layout keeps
// the queryable fields flat and folds the rest into a JSON blob.
type SQLiteSink struct {
	conn *sqlx.DB
}

// OpenSQLiteSink opens or creates the telemetry database at the given path.
func OpenSQLiteSink(path string) (*SQLiteSink, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open telemetry db: %w", err)
	}
	s := &SQLiteSink{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate telemetry db: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteSink) Close() error {
	return s.conn.Close()
}

func (s *SQLiteSink) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS pipeline_records (
		id TEXT PRIMARY KEY,
		request_id TEXT NOT NULL,
		created_at TEXT NOT NULL,
		spread_key TEXT NOT NULL,
		card_count INTEGER NOT NULL,
		crisis_matched INTEGER NOT NULL,
		backend_used TEXT,
		gate_blocked INTEGER NOT NULL,
		gate_reason TEXT,
		card_coverage REAL NOT NULL,
		hallucinated_count INTEGER NOT NULL,
		spine_valid INTEGER NOT NULL,
		total_latency_ms INTEGER NOT NULL,
		detail_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_records_created ON pipeline_records(created_at);
	CREATE INDEX IF NOT EXISTS idx_records_gate ON pipeline_records(gate_blocked);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// Write persists one record.
func (s *SQLiteSink) Write(ctx context.Context, rec Record) error {
	detail, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO pipeline_records
		(id, request_id, created_at, spread_key, card_count, crisis_matched,
		 backend_used, gate_blocked, gate_reason, card_coverage,
		 hallucinated_count, spine_valid, total_latency_ms, detail_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.RequestID, rec.CreatedAt.Format(time.RFC3339Nano),
		rec.SpreadKey, rec.CardCount, boolInt(rec.CrisisMatched),
		rec.BackendUsed, boolInt(rec.GateBlocked), rec.GateReason,
		rec.CardCoverage, rec.HallucinatedCount, boolInt(rec.SpineValid),
		rec.TotalLatencyMS, string(detail))
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
