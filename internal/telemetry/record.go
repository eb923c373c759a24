// Package telemetry aggregates per-request pipeline diagnostics into a
// redaction-safe record. Raw question and reflection text never enters a
// record unless the persistence opt-in is set; the default stores counts
// and hashes only.
package telemetry

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/randomtoy/arcana-go/internal/domain"
)

// Record is one request's diagnostic trail.
type Record struct {
	ID        string    `json:"id"`
	RequestID string    `json:"request_id"`
	CreatedAt time.Time `json:"created_at"`

	SpreadKey string `json:"spread_key"`
	DeckID    string `json:"deck_id"`
	CardCount int    `json:"card_count"`

	QuestionHash   string `json:"question_hash,omitempty"`
	QuestionLength int    `json:"question_length"`
	// QuestionText is populated only when the collector was built with the
	// explicit persistence opt-in.
	QuestionText string `json:"question_text,omitempty"`

	CrisisMatched    bool     `json:"crisis_matched"`
	CrisisCategories []string `json:"crisis_categories,omitempty"`

	PromptMeta domain.PromptMeta       `json:"prompt_meta"`
	Attempts   []domain.BackendAttempt `json:"attempts,omitempty"`

	BackendUsed string `json:"backend_used,omitempty"`
	GateBlocked bool   `json:"gate_blocked"`
	GateReason  string `json:"gate_reason,omitempty"`

	CardCoverage      float64 `json:"card_coverage"`
	HallucinatedCount int     `json:"hallucinated_count"`
	SpineValid        bool    `json:"spine_valid"`

	ScoreSource domain.ScoreSource `json:"score_source,omitempty"`
	SafetyScore int                `json:"safety_score,omitempty"`

	TotalLatencyMS int64 `json:"total_latency_ms"`
}

// HashText returns the hex SHA-256 of text, or "" for empty text. Used in
// place of raw user text in default (redacted) mode.
func HashText(text string) string {
	if text == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
