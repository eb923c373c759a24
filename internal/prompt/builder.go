// Package prompt assembles the bounded system/user prompt pair handed to
// generation backends. Assembly is pure: the same analysis, passages,
// request, and budget always produce the same bundle. Content reduction is
// an ordered list of explicit steps, each recorded in PromptMeta.
package prompt

import (
	"fmt"
	"strings"

	"github.com/randomtoy/arcana-go/internal/domain"
)

// safetyBudgetRatio is the share of the total budget the safety block may
// occupy before the configuration is considered broken.
const safetyBudgetRatio = 0.8

// truncationMarker is appended whenever hard truncation occurred.
const truncationMarker = "\n\n[content truncated to fit length limits]"

// Builder renders prompt bundles for one spread definition.
type Builder struct {
	def domain.SpreadDefinition
}

// NewBuilder returns a builder for the given spread.
func NewBuilder(def domain.SpreadDefinition) *Builder {
	return &Builder{def: def}
}

// Build assembles the prompt bundle under the token budget. Reduction steps
// are applied in fixed order until the estimate fits; if everything optional
// is gone and the bundle still exceeds the budget, the user prompt is hard
// truncated at a paragraph boundary. Returns ErrSafetyBudgetExceeded when
// the non-negotiable safety block alone would eat most of the budget, or
// when the irreducible system prompt carrying it leaves no room for any
// user prompt at all.
func (b *Builder) Build(a domain.SymbolicAnalysis, retrieval domain.RetrievalMeta, passages []domain.Passage, req domain.ReadingRequest, budget int) (domain.PromptBundle, error) {
	safety := safetyBlock()
	if float64(EstimateTokens(safety)) > safetyBudgetRatio*float64(budget) {
		return domain.PromptBundle{}, fmt.Errorf(
			"%w: safety block needs %d tokens of a %d budget",
			domain.ErrSafetyBudgetExceeded, EstimateTokens(safety), budget)
	}

	opts := DefaultRenderOptions()
	meta := domain.PromptMeta{TokenBudget: budget, Retrieval: retrieval}

	system, user := b.render(a, passages, req, opts)
	meta.EstimatedTokens = EstimateBundleTokens(system, user)

	for _, step := range reductionSteps {
		if meta.EstimatedTokens <= budget {
			break
		}
		next, changed := step.apply(opts)
		if !changed {
			continue
		}
		opts = next
		system, user = b.render(a, passages, req, opts)
		meta.EstimatedTokens = EstimateBundleTokens(system, user)
		meta.ReductionSteps = append(meta.ReductionSteps, step.name)
	}

	if meta.EstimatedTokens > budget {
		// Budget remaining for the user prompt after the irreducible system
		// prompt and the truncation marker, minus one token absorbing the
		// char-estimate rounding across the join. The safety block lives in
		// the system prompt and is never cut; the user prompt is trimmed at
		// a paragraph boundary instead. A budget too small for even an empty
		// user prompt cannot be satisfied.
		reserve := EstimateTokens(truncationMarker) + 1
		remaining := budget - EstimateTokens(system) - reserve
		if remaining < 0 {
			return domain.PromptBundle{}, fmt.Errorf(
				"%w: irreducible prompt needs %d tokens of a %d budget",
				domain.ErrSafetyBudgetExceeded, EstimateTokens(system)+reserve, budget)
		}
		user = truncateAtParagraph(user, remaining) + truncationMarker
		meta.HardTruncated = true
		meta.ReductionSteps = append(meta.ReductionSteps, "hard_truncation")
		meta.EstimatedTokens = EstimateBundleTokens(system, user)
	}

	// Count how many retrieved passages survived into the prompt.
	if opts.PassagesBlock {
		meta.Retrieval.Used = len(passages)
	} else {
		meta.Retrieval.Used = 0
		meta.Retrieval.Truncated = len(passages)
	}

	return domain.PromptBundle{System: system, User: user, Meta: meta}, nil
}

// render produces the full system and user prompt for the given options.
func (b *Builder) render(a domain.SymbolicAnalysis, passages []domain.Passage, req domain.ReadingRequest, opts RenderOptions) (string, string) {
	return b.renderSystem(a, passages, req, opts), b.renderUser(a, req, opts)
}

func (b *Builder) renderSystem(a domain.SymbolicAnalysis, passages []domain.Passage, req domain.ReadingRequest, opts RenderOptions) string {
	var sb strings.Builder

	sb.WriteString("You are an experienced tarot reader writing a personal, grounded interpretation of one spread.\n\n")
	sb.WriteString(safetyBlock())
	sb.WriteString("\n")
	sb.WriteString(structureBlock(b.def))

	if opts.StyleGuidance {
		if s := styleBlock(req.Personalization, req.VisualTone); s != "" {
			sb.WriteString("\n")
			sb.WriteString(s)
		}
	}

	if opts.PassagesBlock && len(passages) > 0 {
		sb.WriteString("\nReference passages — draw on these where they fit, never quote them verbatim:\n")
		for _, p := range passages {
			fmt.Fprintf(&sb, "- [%s] %s\n", p.Source, p.Text)
		}
	}

	return sb.String()
}

// safetyBlock is the irreducible ethics/safety section. Reduction never
// touches it; truncation never reaches it.
func safetyBlock() string {
	return `Hard rules, in priority order:
1. Never present any outcome as fixed or fated. No deterministic-fate language.
2. Never give medical, legal, or financial directives or diagnoses.
3. Never predict death, disaster, or harm to the querent or anyone else.
4. Only discuss the cards actually listed in the reading. Never introduce other cards.
5. Keep the register supportive and non-judgmental throughout.
`
}

func structureBlock(def domain.SpreadDefinition) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Write one section per position, in this order, each headed by '## <section title>':\n")
	for _, p := range def.Positions {
		fmt.Fprintf(&sb, "%d. %s\n", p.Index, p.Title)
	}
	sb.WriteString(`Every section must do three things: describe what is present, explain why it shows up here, and point at what comes next or what to consider.
Name each position's card explicitly in its section.
`)
	return sb.String()
}

func (b *Builder) renderUser(a domain.SymbolicAnalysis, req domain.ReadingRequest, opts RenderOptions) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Spread: %s (%d cards)\n\n", b.def.Name, len(req.Cards))

	for _, pos := range b.def.Positions {
		card, ok := req.CardAt(pos.Index)
		if !ok {
			continue
		}
		weight := weightFor(a, pos.Index)
		fmt.Fprintf(&sb, "Position %d — %s [%s emphasis]: %s (%s)\n",
			pos.Index, pos.Title, weight, card.Name, card.Orientation)
		fmt.Fprintf(&sb, "  Position meaning: %s\n", pos.Hook)
		if hook := card.Hook(card.Orientation); hook != "" {
			fmt.Fprintf(&sb, "  Card hook: %s\n", hook)
		}
		if opts.ImageryHints && weight != domain.WeightLow && len(card.Keywords) > 0 {
			fmt.Fprintf(&sb, "  Imagery: %s\n", strings.Join(card.Keywords, ", "))
		}
		if weight == domain.WeightLow {
			sb.WriteString("  Treat briefly; a sentence or two is enough.\n")
		}
	}
	sb.WriteString("\n")

	writeAnalysisBlock(&sb, a)

	if opts.TimingEnrichment {
		if t := timingBlock(b.def, a); t != "" {
			sb.WriteString(t)
		}
	}

	if req.Question != "" {
		fmt.Fprintf(&sb, "The querent asks: %q\n\n", req.Question)
	}
	for i, r := range req.Reflections {
		if r == "" {
			continue
		}
		if i == 0 {
			sb.WriteString("The querent's own notes on the cards:\n")
		}
		fmt.Fprintf(&sb, "- %s\n", r)
	}

	sb.WriteString(nameInstruction(req.Personalization.DisplayName))
	return sb.String()
}

func writeAnalysisBlock(sb *strings.Builder, a domain.SymbolicAnalysis) {
	sb.WriteString("Symbolic reading of the spread:\n")
	fmt.Fprintf(sb, "- Elements: fire %d, water %d, air %d, earth %d\n",
		a.Elements.Fire, a.Elements.Water, a.Elements.Air, a.Elements.Earth)
	if a.Dominant != "" {
		fmt.Fprintf(sb, "- Dominant element: %s\n", a.Dominant)
	}
	if len(a.Missing) > 0 {
		parts := make([]string, len(a.Missing))
		for i, el := range a.Missing {
			parts[i] = string(el)
		}
		fmt.Fprintf(sb, "- Absent elements: %s\n", strings.Join(parts, ", "))
	}
	for _, r := range a.Relationships {
		fmt.Fprintf(sb, "- %s (positions %d/%d): %s\n", r.Tag, r.A, r.B, r.Dynamic)
	}
	for _, p := range a.Patterns {
		fmt.Fprintf(sb, "- Pattern: %s\n", p.Description)
	}
	sb.WriteString("\n")
}

// timingBlock derives a light forecast framing from high-emphasis positions.
func timingBlock(def domain.SpreadDefinition, a domain.SymbolicAnalysis) string {
	var highs []string
	for _, e := range a.Emphasis {
		if e.Weight != domain.WeightHigh {
			continue
		}
		if p, ok := def.PositionAt(e.Position); ok {
			highs = append(highs, p.Title)
		}
	}
	if len(highs) == 0 {
		return ""
	}
	return fmt.Sprintf("Timing guidance: let %s carry the most weight; themes there are closest to the surface of the querent's life right now.\n\n",
		strings.Join(highs, " and "))
}

// nameInstruction tells the backend how to use the display name. Absent a
// name, the instruction asks for fully name-free phrasing so templates never
// leave grammatical artifacts.
func nameInstruction(name string) string {
	if name == "" {
		return "Address the querent directly as 'you'; do not invent a name for them.\n"
	}
	return fmt.Sprintf("The querent's name is %s. Use it naturally at most twice — once early, once near the close — never mechanically.\n", name)
}

func weightFor(a domain.SymbolicAnalysis, position int) domain.Weight {
	for _, e := range a.Emphasis {
		if e.Position == position {
			return e.Weight
		}
	}
	return domain.WeightMedium
}

// truncateAtParagraph cuts text until its estimate fits maxTokens, backing
// up to the last complete paragraph boundary on each pass. A single char
// cut can under-shrink word-dense text, where the word count drives the
// estimate, so the result is re-measured and cut again until it fits.
func truncateAtParagraph(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}
	for EstimateTokens(text) > maxTokens {
		// Four characters per token mirrors EstimateTokens.
		maxChars := maxTokens * 4
		if maxChars >= len(text) {
			maxChars = len(text) - 1
		}
		cut := text[:maxChars]
		if i := strings.LastIndex(cut, "\n\n"); i > 0 {
			cut = cut[:i]
		} else if i := strings.LastIndex(cut, "\n"); i > 0 {
			cut = cut[:i]
		}
		text = strings.TrimRight(cut, "\n")
		if text == "" {
			break
		}
	}
	return text
}
