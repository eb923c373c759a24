package telemetry

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/randomtoy/arcana-go/internal/domain"
)

// Sink persists finished records. The SQLite sink implements this; tests
// use an in-memory one.
type Sink interface {
	Write(ctx context.Context, rec Record) error
}

// Collector builds and emits one Record per request. Every record is logged
// through slog; a sink, when configured, additionally persists it. Collector
// never fails the request: sink errors are logged and dropped.
type Collector struct {
	logger      *slog.Logger
	sink        Sink
	persistText bool

	mu      sync.Mutex
	entropy *rand.Rand
}

// NewCollector builds a collector. persistText is the explicit opt-in for
// storing raw question text; leave it false in production.
func NewCollector(logger *slog.Logger, sink Sink, persistText bool) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		logger:      logger,
		sink:        sink,
		persistText: persistText,
		entropy:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Begin opens a record for one request.
func (c *Collector) Begin(requestID string, req domain.ReadingRequest) *Record {
	rec := &Record{
		ID:             c.newID(),
		RequestID:      requestID,
		CreatedAt:      time.Now().UTC(),
		SpreadKey:      req.SpreadKey,
		DeckID:         req.DeckID,
		CardCount:      len(req.Cards),
		QuestionLength: len(req.Question),
		QuestionHash:   HashText(req.Question),
	}
	if c.persistText {
		rec.QuestionText = req.Question
	}
	return rec
}

// Finish stamps the outcome onto the record and emits it.
func (c *Collector) Finish(ctx context.Context, rec *Record, fin domain.FinalNarrative, started time.Time) {
	rec.PromptMeta = fin.PromptMeta
	rec.Attempts = fin.Attempts
	rec.BackendUsed = fin.BackendUsed
	rec.GateBlocked = fin.GateBlocked
	rec.GateReason = fin.GateReason
	rec.CardCoverage = fin.Metrics.CardCoverage
	rec.HallucinatedCount = len(fin.Metrics.HallucinatedCards)
	rec.SpineValid = fin.Metrics.SpineValid
	rec.ScoreSource = fin.Evaluation.Source
	rec.SafetyScore = fin.Evaluation.Safety
	rec.TotalLatencyMS = time.Since(started).Milliseconds()

	c.emit(ctx, *rec)
}

func (c *Collector) emit(ctx context.Context, rec Record) {
	c.logger.InfoContext(ctx, "reading pipeline record",
		"telemetry_id", rec.ID,
		"request_id", rec.RequestID,
		"spread", rec.SpreadKey,
		"cards", rec.CardCount,
		"crisis", rec.CrisisMatched,
		"backend", rec.BackendUsed,
		"gate_blocked", rec.GateBlocked,
		"gate_reason", rec.GateReason,
		"coverage", rec.CardCoverage,
		"hallucinated", rec.HallucinatedCount,
		"spine_valid", rec.SpineValid,
		"score_source", rec.ScoreSource,
		"reduction_steps", rec.PromptMeta.ReductionSteps,
		"hard_truncated", rec.PromptMeta.HardTruncated,
		"retrieval_mode", rec.PromptMeta.Retrieval.Mode,
		"retrieval_fallback", rec.PromptMeta.Retrieval.FallbackOccurred,
		"latency_ms", rec.TotalLatencyMS,
	)

	if c.sink == nil {
		return
	}
	if err := c.sink.Write(ctx, rec); err != nil {
		c.logger.WarnContext(ctx, "telemetry sink write failed", "error", err)
	}
}

func (c *Collector) newID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), c.entropy).String()
}
