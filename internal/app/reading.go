// Package app wires the narrative pipeline: crisis pre-check, symbolic
// analysis, passage retrieval, prompt building, backend orchestration, and
// the evaluation gate.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/randomtoy/arcana-go/internal/analysis"
	"github.com/randomtoy/arcana-go/internal/compose"
	"github.com/randomtoy/arcana-go/internal/crisis"
	"github.com/randomtoy/arcana-go/internal/domain"
	"github.com/randomtoy/arcana-go/internal/ports"
	"github.com/randomtoy/arcana-go/internal/prompt"
	"github.com/randomtoy/arcana-go/internal/telemetry"
	"github.com/randomtoy/arcana-go/internal/validator"
)

// CardRef is a drawn card as the client submits it: identity only, hydrated
// against the deck before analysis.
type CardRef struct {
	Position    int
	CardID      string
	Orientation domain.Orientation
}

// ReadRequest is the application-level input (no HTTP types).
type ReadRequest struct {
	SpreadKey       string
	DeckID          string
	Cards           []CardRef
	Question        string
	Reflections     []string
	Personalization domain.Personalization
	VisualTone      *domain.VisualTone
}

// Options are the pipeline tuning knobs, threaded explicitly — the service
// reads no ambient configuration.
type Options struct {
	TokenBudget    int
	PassageLimit   int
	AttemptTimeout time.Duration
	GateTimeout    time.Duration
	// GateAsync returns the narrative before scoring completes; the score
	// then only feeds telemetry. Use only where a strict gate is not
	// required.
	GateAsync bool
}

// ReadingService orchestrates the full pipeline for one request shape:
// spread + cards + optional context in, narrative + provenance out.
type ReadingService struct {
	spreads   ports.SpreadRegistry
	decks     ports.DeckStore
	retriever ports.PassageRetriever
	backends  []ports.GenerationBackend
	scanner   *crisis.Scanner
	gate      *Gate
	collector *telemetry.Collector
	opts      Options
	logger    *slog.Logger

	// Bounded pool for async gate evaluations; drained by Close.
	asyncGroup *errgroup.Group
}

// NewReadingService builds the service. backends is the remote priority
// order; the deterministic composer is appended internally as the terminal
// backend.
func NewReadingService(
	spreadReg ports.SpreadRegistry,
	deckStore ports.DeckStore,
	retriever ports.PassageRetriever,
	backends []ports.GenerationBackend,
	scanner *crisis.Scanner,
	gate *Gate,
	collector *telemetry.Collector,
	opts Options,
	logger *slog.Logger,
) *ReadingService {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.TokenBudget <= 0 {
		opts.TokenBudget = 3000
	}
	if opts.PassageLimit <= 0 {
		opts.PassageLimit = 3
	}
	g := &errgroup.Group{}
	g.SetLimit(8)
	return &ReadingService{
		spreads:    spreadReg,
		decks:      deckStore,
		retriever:  retriever,
		backends:   backends,
		scanner:    scanner,
		gate:       gate,
		collector:  collector,
		opts:       opts,
		logger:     logger,
		asyncGroup: g,
	}
}

// Close drains in-flight async gate evaluations.
func (s *ReadingService) Close() error {
	return s.asyncGroup.Wait()
}

// Read runs the pipeline. The crisis scan is the first stage, before any
// analysis, retrieval, or generation.
func (s *ReadingService) Read(ctx context.Context, requestID string, in ReadRequest) (domain.FinalNarrative, error) {
	started := time.Now()

	def, err := s.spreads.Get(in.SpreadKey)
	if err != nil {
		return domain.FinalNarrative{}, err
	}
	deck, err := s.decks.GetDeck(ctx, in.DeckID)
	if err != nil {
		return domain.FinalNarrative{}, err
	}

	req, err := hydrate(def, deck, in)
	if err != nil {
		return domain.FinalNarrative{}, err
	}

	rec := s.collector.Begin(requestID, req)

	// Stage 1: crisis pre-check over raw user text. A match skips every
	// expensive stage.
	scanTexts := append([]string{req.Question}, req.Reflections...)
	if scan := s.scanner.Scan(scanTexts...); scan.Matched {
		rec.CrisisMatched = true
		rec.CrisisCategories = scan.Categories
		fin := domain.FinalNarrative{
			Text:        compose.CrisisText(req.Personalization),
			BackendUsed: "composer",
			GateBlocked: true,
			GateReason:  scan.Reason(),
			Evaluation:  crisisEvaluation(),
		}
		s.collector.Finish(ctx, rec, fin, started)
		return fin, nil
	}

	// Stage 2: symbolic analysis (pure, also validates shape).
	a, err := analysis.Analyze(def, req.Cards)
	if err != nil {
		return domain.FinalNarrative{}, err
	}

	// Stage 3: passage retrieval. Enrichment only — a retrieval failure
	// degrades to an empty passage list, it never fails the reading.
	retrievalMeta, passages := s.retrieve(ctx, def, a, req)

	// Stage 4: prompt under budget.
	builder := prompt.NewBuilder(def)
	bundle, err := builder.Build(a, retrievalMeta, passages, req, s.opts.TokenBudget)
	if err != nil {
		return domain.FinalNarrative{}, err
	}

	// Stage 5: sequential backend attempts, composer terminal.
	v := validator.New(deck)
	chain := append(append([]ports.GenerationBackend{}, s.backends...),
		&composerBackend{def: def, analysis: a, req: req})
	orch := NewOrchestrator(chain, s.opts.AttemptTimeout, s.logger)

	res, err := orch.Run(ctx, bundle, req.Cards, def.Sections(), v, ThresholdsFor(len(req.Cards)))
	if err != nil {
		return domain.FinalNarrative{}, err
	}

	fin := domain.FinalNarrative{
		Text:        res.Text,
		BackendUsed: res.Backend,
		Metrics:     res.Metrics,
		PromptMeta:  bundle.Meta,
		Attempts:    res.Attempts,
	}

	// Stage 6: evaluation gate.
	if s.opts.GateAsync {
		fin.Evaluation = HeuristicScores(res.Metrics)
		s.scheduleAsyncEvaluation(res.Text, req, res.Metrics, rec.ID)
	} else {
		fin.Evaluation = s.gate.Evaluate(ctx, res.Text, req, res.Metrics)
		if reason := s.gate.Decide(fin.Evaluation); reason != "" {
			blocked := compose.Compose(def, a, req)
			fin.Text = blocked
			fin.BackendUsed = "composer"
			fin.GateBlocked = true
			fin.GateReason = reason
			fin.Metrics = v.Validate(blocked, req.Cards, def.Sections())
		}
	}

	s.collector.Finish(ctx, rec, fin, started)
	return fin, nil
}

// retrieve derives the corpus query from the analysis and runs it.
func (s *ReadingService) retrieve(ctx context.Context, def domain.SpreadDefinition, a domain.SymbolicAnalysis, req domain.ReadingRequest) (domain.RetrievalMeta, []domain.Passage) {
	meta := domain.RetrievalMeta{Requested: s.opts.PassageLimit}
	if s.retriever == nil {
		return meta, nil
	}

	var terms []string
	if a.Dominant != "" {
		terms = append(terms, string(a.Dominant))
	}
	for _, p := range a.Patterns {
		terms = append(terms, p.Name)
	}

	res, err := s.retriever.Retrieve(ctx, ports.RetrievalQuery{
		SpreadKey: def.Key,
		CardNames: req.CardNames(),
		Terms:     terms,
		Limit:     s.opts.PassageLimit,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "passage retrieval failed, continuing without passages", "error", err)
		return meta, nil
	}

	meta.Mode = res.Mode
	meta.FallbackOccurred = res.FallbackOccurred
	meta.Used = len(res.Passages)
	return meta, res.Passages
}

// scheduleAsyncEvaluation runs the same scoring logic off the request path,
// for quality monitoring only.
func (s *ReadingService) scheduleAsyncEvaluation(narrative string, req domain.ReadingRequest, metrics domain.NarrativeMetrics, telemetryID string) {
	s.asyncGroup.Go(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.GateTimeout+5*time.Second)
		defer cancel()
		result := s.gate.Evaluate(ctx, narrative, req, metrics)
		s.logger.Info("async gate evaluation",
			"telemetry_id", telemetryID,
			"source", result.Source,
			"safety", result.Safety,
			"safety_flag", result.SafetyFlag,
			"overall", result.Overall,
		)
		return nil
	})
}

// hydrate resolves card identities against the deck and validates the
// request shape.
func hydrate(def domain.SpreadDefinition, deck domain.Deck, in ReadRequest) (domain.ReadingRequest, error) {
	cards := make([]domain.DrawnCard, 0, len(in.Cards))
	for _, ref := range in.Cards {
		card, ok := deck.CardByID(ref.CardID)
		if !ok {
			return domain.ReadingRequest{}, fmt.Errorf("%w: unknown card %q in deck %s",
				domain.ErrInvalidSpreadShape, ref.CardID, deck.ID)
		}
		cards = append(cards, domain.DrawnCard{
			Card:        card,
			Position:    ref.Position,
			Orientation: ref.Orientation,
		})
	}

	req := domain.ReadingRequest{
		SpreadKey:       in.SpreadKey,
		DeckID:          deck.ID,
		Cards:           cards,
		Question:        in.Question,
		Reflections:     in.Reflections,
		Personalization: in.Personalization,
		VisualTone:      in.VisualTone,
	}
	if err := req.Validate(def); err != nil {
		return domain.ReadingRequest{}, err
	}
	return req, nil
}

// crisisEvaluation is the fixed result attached to crisis responses: the
// composed text is safe by construction and no scoring backend sees it.
func crisisEvaluation() domain.EvaluationResult {
	return domain.EvaluationResult{
		Personalization: 3,
		Coherence:       5,
		Tone:            5,
		Safety:          5,
		Overall:         4,
		Source:          domain.ScoresFromHeuristic,
	}
}

// composerBackend adapts the deterministic composer to the backend
// interface so it can terminate the orchestrator chain. It passes
// structural validation by construction.
type composerBackend struct {
	def      domain.SpreadDefinition
	analysis domain.SymbolicAnalysis
	req      domain.ReadingRequest
}

func (c *composerBackend) Name() string { return "composer" }

func (c *composerBackend) Generate(_ context.Context, _ domain.PromptBundle) (string, error) {
	return compose.Compose(c.def, c.analysis, c.req), nil
}
