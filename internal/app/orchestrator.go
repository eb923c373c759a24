package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/randomtoy/arcana-go/internal/domain"
	"github.com/randomtoy/arcana-go/internal/ports"
)

// Thresholds are the quality gates a backend attempt must clear. Derived
// per request because the hallucination allowance scales with spread size.
type Thresholds struct {
	MaxHallucinated int
	MinCoverage     float64
}

// ThresholdsFor returns the spread-size-aware defaults.
func ThresholdsFor(cardCount int) Thresholds {
	maxHall := cardCount / 2
	if maxHall < 2 {
		maxHall = 2
	}
	return Thresholds{
		MaxHallucinated: maxHall,
		MinCoverage:     0.5,
	}
}

// narrativeValidator is what the orchestrator needs from the structural
// validator.
type narrativeValidator interface {
	Validate(text string, drawn []domain.DrawnCard, sections []string) domain.NarrativeMetrics
	HasSectionMarkers(text string, sections []string) bool
}

// orchestration is the accepted result of a backend run.
type orchestration struct {
	Text     string
	Backend  string
	Metrics  domain.NarrativeMetrics
	Attempts []domain.BackendAttempt
}

// Orchestrator walks an ordered backend list, validating each narrative and
// accepting the first that clears the thresholds. Attempts are strictly
// sequential: a rejected or failed attempt is discarded before the next
// begins.
type Orchestrator struct {
	backends       []ports.GenerationBackend
	attemptTimeout time.Duration
	logger         *slog.Logger
}

// NewOrchestrator builds an orchestrator over the given priority order. The
// last backend should be the deterministic composer so the chain terminates
// in something that cannot fail.
func NewOrchestrator(backends []ports.GenerationBackend, attemptTimeout time.Duration, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{backends: backends, attemptTimeout: attemptTimeout, logger: logger}
}

// Run executes the attempt loop. Returns ErrBackendUnavailable only when
// every backend failed at the transport level; a validation rejection
// advances to the next backend instead.
func (o *Orchestrator) Run(ctx context.Context, bundle domain.PromptBundle, drawn []domain.DrawnCard, sections []string, v narrativeValidator, th Thresholds) (orchestration, error) {
	var attempts []domain.BackendAttempt

	for _, backend := range o.backends {
		if err := ctx.Err(); err != nil {
			// Caller went away; abandon without surfacing partial output.
			return orchestration{}, err
		}

		attempt, text, metrics, accepted := o.attempt(ctx, backend, bundle, drawn, sections, v, th)
		attempts = append(attempts, attempt)

		if accepted {
			return orchestration{
				Text:     text,
				Backend:  backend.Name(),
				Metrics:  metrics,
				Attempts: attempts,
			}, nil
		}
	}

	// Distinguish "everything broke" from "everything was rejected". With
	// the composer terminal backend in place neither should happen, but the
	// chain is configurable.
	allFailed := true
	for _, a := range attempts {
		if !a.Failed {
			allFailed = false
			break
		}
	}
	if allFailed {
		return orchestration{Attempts: attempts}, fmt.Errorf("%w: %d attempts", domain.ErrBackendUnavailable, len(attempts))
	}
	return orchestration{Attempts: attempts}, fmt.Errorf("%w: no backend cleared thresholds", domain.ErrValidationRejected)
}

func (o *Orchestrator) attempt(ctx context.Context, backend ports.GenerationBackend, bundle domain.PromptBundle, drawn []domain.DrawnCard, sections []string, v narrativeValidator, th Thresholds) (domain.BackendAttempt, string, domain.NarrativeMetrics, bool) {
	attempt := domain.BackendAttempt{Backend: backend.Name()}

	attemptCtx := ctx
	if o.attemptTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, o.attemptTimeout)
		defer cancel()
	}

	start := time.Now()
	text, err := backend.Generate(attemptCtx, bundle)
	attempt.LatencyMS = time.Since(start).Milliseconds()

	if err != nil {
		attempt.Failed = true
		attempt.Error = err.Error()
		// Parent cancellation is not a backend fault; leave the error for
		// Run's ctx check to surface.
		if !errors.Is(err, context.Canceled) || ctx.Err() == nil {
			o.logger.WarnContext(ctx, "backend attempt failed",
				"backend", backend.Name(), "error", err)
		}
		return attempt, "", domain.NarrativeMetrics{}, false
	}

	metrics := v.Validate(text, drawn, sections)
	if reason := RejectReason(metrics, th, v.HasSectionMarkers(text, sections)); reason != "" {
		attempt.Rejected = true
		attempt.RejectReason = reason
		o.logger.InfoContext(ctx, "backend narrative rejected",
			"backend", backend.Name(), "reason", reason,
			"coverage", metrics.CardCoverage,
			"hallucinated", len(metrics.HallucinatedCards))
		return attempt, "", metrics, false
	}

	return attempt, text, metrics, true
}

// RejectReason returns "" when the metrics clear every threshold. Spine
// validity is only enforced when the narrative carries detectable section
// markers at all. Exported for the regression runner.
func RejectReason(m domain.NarrativeMetrics, th Thresholds, hasMarkers bool) string {
	if len(m.HallucinatedCards) > th.MaxHallucinated {
		return fmt.Sprintf("hallucinated %d cards (%s), max %d",
			len(m.HallucinatedCards), strings.Join(m.HallucinatedCards, ", "), th.MaxHallucinated)
	}
	if m.CardCoverage < th.MinCoverage {
		return fmt.Sprintf("card coverage %.2f below %.2f", m.CardCoverage, th.MinCoverage)
	}
	if hasMarkers && !m.SpineValid {
		return "sectioned narrative with incomplete spine"
	}
	return ""
}
