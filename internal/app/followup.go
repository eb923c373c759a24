package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/randomtoy/arcana-go/internal/compose"
	"github.com/randomtoy/arcana-go/internal/domain"
)

// FollowUpRequest is the single optional follow-up turn: one question
// against a narrative already delivered. No multi-turn state beyond this.
type FollowUpRequest struct {
	PriorNarrative  string
	Question        string
	Personalization domain.Personalization
}

const followUpSystem = `You are continuing a tarot reading you already delivered. Answer the follow-up question in a few short paragraphs, staying within the cards and themes of the original narrative.
Hard rules: never present outcomes as fixed, never give medical, legal, or financial directives, never introduce cards that were not in the reading, keep the register supportive.`

// FollowUp answers one question about a prior narrative. It reuses the
// crisis scan and the evaluation gate; a blocked or unreachable answer
// degrades to a gentle refusal rather than an error.
func (s *ReadingService) FollowUp(ctx context.Context, requestID string, in FollowUpRequest) (domain.FinalNarrative, error) {
	started := time.Now()
	req := domain.ReadingRequest{Question: in.Question, Personalization: in.Personalization}
	rec := s.collector.Begin(requestID, req)

	if scan := s.scanner.Scan(in.Question); scan.Matched {
		rec.CrisisMatched = true
		rec.CrisisCategories = scan.Categories
		fin := domain.FinalNarrative{
			Text:        compose.CrisisText(in.Personalization),
			BackendUsed: "composer",
			GateBlocked: true,
			GateReason:  scan.Reason(),
			Evaluation:  crisisEvaluation(),
		}
		s.collector.Finish(ctx, rec, fin, started)
		return fin, nil
	}

	bundle := domain.PromptBundle{
		System: followUpSystem,
		User:   followUpUser(in),
	}
	bundle.Meta.EstimatedTokens = len(bundle.System+bundle.User) / 4

	text, backend, err := s.firstAnswer(ctx, bundle)
	if err != nil {
		return domain.FinalNarrative{}, err
	}

	fin := domain.FinalNarrative{
		Text:        text,
		BackendUsed: backend,
		PromptMeta:  bundle.Meta,
	}

	fin.Evaluation = s.gate.Evaluate(ctx, text, req, domain.NarrativeMetrics{SpineValid: true})
	if reason := s.gate.Decide(fin.Evaluation); reason != "" {
		fin.Text = followUpRefusal(in.Personalization)
		fin.BackendUsed = "composer"
		fin.GateBlocked = true
		fin.GateReason = reason
	}

	s.collector.Finish(ctx, rec, fin, started)
	return fin, nil
}

// firstAnswer walks the remote backends until one answers; there is no
// structural validation for follow-ups (no card list to check against).
func (s *ReadingService) firstAnswer(ctx context.Context, bundle domain.PromptBundle) (string, string, error) {
	var lastErr error
	for _, backend := range s.backends {
		attemptCtx := ctx
		if s.opts.AttemptTimeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, s.opts.AttemptTimeout)
			defer cancel()
		}
		text, err := backend.Generate(attemptCtx, bundle)
		if err == nil {
			return text, backend.Name(), nil
		}
		lastErr = err
		s.logger.WarnContext(ctx, "follow-up backend failed", "backend", backend.Name(), "error", err)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no backends configured")
	}
	return "", "", fmt.Errorf("%w: %w", domain.ErrBackendUnavailable, lastErr)
}

func followUpUser(in FollowUpRequest) string {
	var b strings.Builder
	b.WriteString("The reading you delivered:\n\n")
	b.WriteString(in.PriorNarrative)
	fmt.Fprintf(&b, "\n\nThe querent now asks: %q\n", in.Question)
	return b.String()
}

func followUpRefusal(p domain.Personalization) string {
	if p.DisplayName != "" {
		return fmt.Sprintf("%s, that question reaches past what this reading can responsibly answer. Sit with the original narrative a little longer; if the question still presses, a fresh spread may serve it better.", p.DisplayName)
	}
	return "That question reaches past what this reading can responsibly answer. Sit with the original narrative a little longer; if the question still presses, a fresh spread may serve it better."
}
