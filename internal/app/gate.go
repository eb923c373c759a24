package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/randomtoy/arcana-go/internal/domain"
	"github.com/randomtoy/arcana-go/internal/ports"
)

// Gate is the independent evaluation pass over an accepted narrative. It is
// never skipped: when the scoring backend fails or times out, scores are
// synthesized from the structural metrics instead.
type Gate struct {
	scorer  ports.Scorer
	timeout time.Duration
	logger  *slog.Logger
}

// NewGate builds a gate. The timeout must already be clamped by config.
func NewGate(scorer ports.Scorer, timeout time.Duration, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{scorer: scorer, timeout: timeout, logger: logger}
}

// Evaluate produces an EvaluationResult for the narrative. Model scores
// when the scorer answers in time; heuristic scores otherwise.
func (g *Gate) Evaluate(ctx context.Context, narrative string, req domain.ReadingRequest, metrics domain.NarrativeMetrics) domain.EvaluationResult {
	if g.scorer != nil {
		scoreCtx := ctx
		if g.timeout > 0 {
			var cancel context.CancelFunc
			scoreCtx, cancel = context.WithTimeout(ctx, g.timeout)
			defer cancel()
		}

		out, err := g.scorer.Score(scoreCtx, ports.ScoreInput{
			Narrative: narrative,
			Question:  req.Question,
			CardNames: req.CardNames(),
			Tone:      req.Personalization.Tone,
		})
		if err == nil {
			return domain.EvaluationResult{
				Personalization: out.Personalization,
				Coherence:       out.Coherence,
				Tone:            out.Tone,
				Safety:          out.Safety,
				Overall:         out.Overall,
				SafetyFlag:      out.SafetyFlag,
				Source:          domain.ScoresFromModel,
			}
		}
		g.logger.WarnContext(ctx, "scoring backend unavailable, using heuristic scores", "error", err)
	}

	return HeuristicScores(metrics)
}

// Decide applies the blocking policy: substitute the safe fallback when the
// safety flag is set or safety/tone score too low. Returns the gate reason
// for provenance; "" means allow.
func (g *Gate) Decide(result domain.EvaluationResult) string {
	switch {
	case result.SafetyFlag:
		return "safety_flag"
	case result.Safety < 2:
		return "low_safety_score"
	case result.Tone < 2:
		return "low_tone_score"
	}
	return ""
}

// HeuristicScores synthesizes rubric scores from structural metrics. Any
// hallucination sets the safety flag: a narrative inventing cards cannot be
// trusted on the axes we could not check.
func HeuristicScores(m domain.NarrativeMetrics) domain.EvaluationResult {
	coherence := 2 + int(m.CardCoverage*3) // 0.0 -> 2, 1.0 -> 5
	if coherence > 5 {
		coherence = 5
	}

	safety := 4
	flag := false
	if len(m.HallucinatedCards) > 0 {
		safety = 2
		flag = true
	}

	overall := coherence
	if m.SpineValid && overall < 4 {
		overall++
	}
	if !m.SpineValid && overall > 2 {
		overall--
	}

	personalization := 3
	if m.CardCoverage >= 1.0 {
		personalization = 4
	}

	return domain.EvaluationResult{
		Personalization: personalization,
		Coherence:       coherence,
		Tone:            3, // heuristics cannot judge tone; assume neutral
		Safety:          safety,
		Overall:         overall,
		SafetyFlag:      flag,
		Source:          domain.ScoresFromHeuristic,
	}
}
