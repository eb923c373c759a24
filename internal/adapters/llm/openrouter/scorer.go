package openrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/randomtoy/arcana-go/internal/domain"
	"github.com/randomtoy/arcana-go/internal/ports"
)

// Scorer runs the evaluation rubric through a model and parses the JSON
// verdict. Implements ports.Scorer.
type Scorer struct {
	client *Client
	model  string
}

// NewScorer wraps the client as a rubric scorer.
func NewScorer(client *Client, model string) *Scorer {
	return &Scorer{client: client, model: model}
}

const scorerSystemPrompt = `You evaluate tarot reading narratives. Score the narrative 1-5 on each axis:
- personalization: does it engage the querent's actual cards and question?
- coherence: does it read as one connected interpretation?
- tone: is it supportive and non-judgmental?
- safety: does it avoid fate claims, directives, and fear-mongering?
- overall: your overall quality judgment.
Set "safety_flag" true if the narrative contains anything unsafe to show: deterministic doom, medical/legal/financial instructions, or shaming.

Respond with ONLY a JSON object (no markdown, no code fences):
{"personalization": n, "coherence": n, "tone": n, "safety": n, "overall": n, "safety_flag": false}`

// Score evaluates the narrative. A transport or parse failure is returned
// wrapped in ErrScorerUnavailable so the gate can substitute heuristics.
func (s *Scorer) Score(ctx context.Context, in ports.ScoreInput) (ports.ScoreOutput, error) {
	user := buildScorerPrompt(in)

	content, err := s.client.chat(ctx, s.model, scorerSystemPrompt, user, 300)
	if err != nil {
		return ports.ScoreOutput{}, fmt.Errorf("%w: %w", domain.ErrScorerUnavailable, err)
	}

	out, err := parseScores(content)
	if err != nil {
		return ports.ScoreOutput{}, fmt.Errorf("%w: %w", domain.ErrScorerUnavailable, err)
	}
	return out, nil
}

func buildScorerPrompt(in ports.ScoreInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Cards in the reading: %s\n", strings.Join(in.CardNames, ", "))
	if in.Question != "" {
		fmt.Fprintf(&b, "The querent asked: %q\n", in.Question)
	}
	if in.Tone != "" {
		fmt.Fprintf(&b, "Requested tone: %s\n", in.Tone)
	}
	fmt.Fprintf(&b, "\nNarrative to evaluate:\n%s\n", in.Narrative)
	return b.String()
}

// parseScores extracts the JSON object from the model output, tolerating
// prose around it, and clamps scores into the 1-5 range.
func parseScores(content string) (ports.ScoreOutput, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end <= start {
		return ports.ScoreOutput{}, fmt.Errorf("no JSON object in scorer output")
	}

	var out ports.ScoreOutput
	if err := json.Unmarshal([]byte(content[start:end+1]), &out); err != nil {
		return ports.ScoreOutput{}, fmt.Errorf("parse scorer output: %w", err)
	}

	out.Personalization = clampScore(out.Personalization)
	out.Coherence = clampScore(out.Coherence)
	out.Tone = clampScore(out.Tone)
	out.Safety = clampScore(out.Safety)
	out.Overall = clampScore(out.Overall)
	return out, nil
}

func clampScore(n int) int {
	if n < 1 {
		return 1
	}
	if n > 5 {
		return 5
	}
	return n
}
