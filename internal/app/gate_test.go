package app_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/randomtoy/arcana-go/internal/app"
	"github.com/randomtoy/arcana-go/internal/domain"
	"github.com/randomtoy/arcana-go/internal/ports"
)

type scriptedScorer struct {
	out   ports.ScoreOutput
	err   error
	calls int
}

func (s *scriptedScorer) Score(_ context.Context, _ ports.ScoreInput) (ports.ScoreOutput, error) {
	s.calls++
	return s.out, s.err
}

type slowScorer struct{}

func (slowScorer) Score(ctx context.Context, _ ports.ScoreInput) (ports.ScoreOutput, error) {
	select {
	case <-ctx.Done():
		return ports.ScoreOutput{}, ctx.Err()
	case <-time.After(5 * time.Second):
		return ports.ScoreOutput{Overall: 5}, nil
	}
}

func TestGate_ModelScores(t *testing.T) {
	scorer := &scriptedScorer{out: ports.ScoreOutput{
		Personalization: 4, Coherence: 5, Tone: 4, Safety: 5, Overall: 4,
	}}
	gate := app.NewGate(scorer, time.Second, nil)

	result := gate.Evaluate(context.Background(), "a narrative", domain.ReadingRequest{}, domain.NarrativeMetrics{})
	if result.Source != domain.ScoresFromModel {
		t.Fatalf("expected model scores, got %s", result.Source)
	}
	if result.Coherence != 5 || result.Safety != 5 {
		t.Errorf("scores not carried through: %+v", result)
	}
}

func TestGate_HeuristicOnScorerError(t *testing.T) {
	scorer := &scriptedScorer{err: fmt.Errorf("%w: 503", domain.ErrScorerUnavailable)}
	gate := app.NewGate(scorer, time.Second, nil)

	metrics := domain.NarrativeMetrics{CardCoverage: 1.0, SpineValid: true}
	result := gate.Evaluate(context.Background(), "a narrative", domain.ReadingRequest{}, metrics)
	if result.Source != domain.ScoresFromHeuristic {
		t.Fatalf("expected heuristic scores, got %s", result.Source)
	}
	if result.Overall == 0 || result.Safety == 0 {
		t.Errorf("heuristic left zero scores: %+v", result)
	}
}

func TestGate_HeuristicOnTimeout(t *testing.T) {
	gate := app.NewGate(slowScorer{}, 50*time.Millisecond, nil)

	start := time.Now()
	result := gate.Evaluate(context.Background(), "a narrative", domain.ReadingRequest{},
		domain.NarrativeMetrics{CardCoverage: 1.0, SpineValid: true})
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("gate did not respect timeout, took %v", elapsed)
	}
	if result.Source != domain.ScoresFromHeuristic {
		t.Fatalf("expected heuristic scores after timeout, got %s", result.Source)
	}
}

func TestGate_NilScorer(t *testing.T) {
	gate := app.NewGate(nil, time.Second, nil)
	result := gate.Evaluate(context.Background(), "a narrative", domain.ReadingRequest{},
		domain.NarrativeMetrics{CardCoverage: 0.5})
	if result.Source != domain.ScoresFromHeuristic {
		t.Fatalf("expected heuristic scores, got %s", result.Source)
	}
}

func TestGate_Decide(t *testing.T) {
	gate := app.NewGate(nil, 0, nil)
	tests := []struct {
		name   string
		result domain.EvaluationResult
		want   string
	}{
		{"allow", domain.EvaluationResult{Safety: 4, Tone: 4}, ""},
		{"safety flag", domain.EvaluationResult{Safety: 5, Tone: 5, SafetyFlag: true}, "safety_flag"},
		{"low safety", domain.EvaluationResult{Safety: 1, Tone: 4}, "low_safety_score"},
		{"low tone", domain.EvaluationResult{Safety: 4, Tone: 1}, "low_tone_score"},
		{"boundary scores pass", domain.EvaluationResult{Safety: 2, Tone: 2}, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := gate.Decide(tc.result); got != tc.want {
				t.Errorf("Decide = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestHeuristicScores(t *testing.T) {
	clean := app.HeuristicScores(domain.NarrativeMetrics{CardCoverage: 1.0, SpineValid: true})
	if clean.SafetyFlag {
		t.Error("clean metrics raised the safety flag")
	}
	if clean.Coherence != 5 {
		t.Errorf("full coverage should score coherence 5, got %d", clean.Coherence)
	}
	if clean.Source != domain.ScoresFromHeuristic {
		t.Errorf("wrong source: %s", clean.Source)
	}

	tainted := app.HeuristicScores(domain.NarrativeMetrics{
		CardCoverage:      0.8,
		HallucinatedCards: []string{"The Devil"},
	})
	if !tainted.SafetyFlag {
		t.Error("hallucination did not raise the safety flag")
	}
	if tainted.Safety >= clean.Safety {
		t.Errorf("hallucination did not lower safety: %d vs %d", tainted.Safety, clean.Safety)
	}

	weak := app.HeuristicScores(domain.NarrativeMetrics{CardCoverage: 0.0})
	if weak.Overall >= clean.Overall {
		t.Errorf("zero coverage should score below full coverage: %d vs %d", weak.Overall, clean.Overall)
	}
	for _, v := range []int{weak.Personalization, weak.Coherence, weak.Tone, weak.Safety, weak.Overall} {
		if v < 1 || v > 5 {
			t.Errorf("score out of range: %+v", weak)
		}
	}
}
