// Package validator checks generated narratives for structural soundness:
// card coverage, hallucinated cards, and spine completeness. It runs online
// inside the backend orchestrator and offline against a regression corpus
// via arcanactl.
package validator

import (
	"strings"

	"github.com/randomtoy/arcana-go/internal/domain"
)

// Validator scores narratives against one deck's vocabulary.
type Validator struct {
	deck  domain.Deck
	alias *aliasIndex
}

// New builds a validator for the given deck.
func New(deck domain.Deck) *Validator {
	return &Validator{deck: deck, alias: newAliasIndex(deck)}
}

// Validate computes NarrativeMetrics for a narrative: which drawn cards it
// covers, which known cards it invented, and whether each expected section
// carries a situational, causal, and forward-looking statement.
func (v *Validator) Validate(text string, drawn []domain.DrawnCard, sections []string) domain.NarrativeMetrics {
	m := domain.NarrativeMetrics{}

	mentioned := v.alias.mentions(text, v.deck)
	mentionedSet := make(map[string]bool, len(mentioned))
	for _, name := range mentioned {
		mentionedSet[name] = true
	}

	drawnSet := make(map[string]bool, len(drawn))
	covered := 0
	for _, c := range drawn {
		drawnSet[c.Name] = true
		if mentionedSet[c.Name] {
			covered++
		} else {
			m.UncoveredCards = append(m.UncoveredCards, c.Name)
		}
	}
	if len(drawn) > 0 {
		m.CardCoverage = float64(covered) / float64(len(drawn))
	}

	for _, name := range mentioned {
		if !drawnSet[name] {
			m.HallucinatedCards = append(m.HallucinatedCards, name)
		}
	}

	m.Sections = v.spine(text, sections)
	m.SpineValid = spineValid(m.Sections)
	return m
}

// spine splits the narrative at section markers and checks each expected
// section for the three spine statements. A narrative with no detectable
// markers at all yields sections marked absent.
func (v *Validator) spine(text string, sections []string) []domain.SectionMetric {
	bodies := splitSections(text, sections)
	out := make([]domain.SectionMetric, len(sections))
	for i, title := range sections {
		body, ok := bodies[strings.ToLower(title)]
		sm := domain.SectionMetric{Title: title, Present: ok}
		if ok {
			sm.HasSituation = hasCue(body, situationCues)
			sm.HasCause = hasCue(body, causeCues)
			sm.HasForward = hasCue(body, forwardCues)
		}
		out[i] = sm
	}
	return out
}

// spineValid requires every expected section present and complete, but only
// when at least one section marker was detected at all. Marker-free prose is
// judged on coverage alone; the orchestrator treats an absent spine as valid
// per its thresholds.
func spineValid(sections []domain.SectionMetric) bool {
	any := false
	for _, s := range sections {
		if s.Present {
			any = true
			break
		}
	}
	if !any {
		return false
	}
	for _, s := range sections {
		if !s.Complete() {
			return false
		}
	}
	return true
}

// HasSectionMarkers reports whether any expected section heading appears in
// the text. The orchestrator only enforces spine validity when this is true.
func (v *Validator) HasSectionMarkers(text string, sections []string) bool {
	for _, s := range v.spine(text, sections) {
		if s.Present {
			return true
		}
	}
	return false
}

// splitSections maps lowercase section titles to their body text. A section
// starts at a line that is, or begins with, its title (optionally prefixed
// with markdown heading or bold markers) and runs to the next section start.
func splitSections(text string, sections []string) map[string]string {
	titles := make(map[string]string, len(sections)) // lowercase -> canonical lowercase
	for _, t := range sections {
		titles[strings.ToLower(t)] = strings.ToLower(t)
	}

	bodies := make(map[string]string)
	var current string
	var buf strings.Builder

	flush := func() {
		if current != "" {
			bodies[current] = bodies[current] + buf.String()
		}
		buf.Reset()
	}

	for _, line := range strings.Split(text, "\n") {
		if title, ok := matchHeading(line, titles); ok {
			flush()
			current = title
			// Keep any prose that follows the title on the same line.
			if rest := headingRemainder(line, title); rest != "" {
				buf.WriteString(rest)
				buf.WriteByte('\n')
			}
			continue
		}
		if current != "" {
			buf.WriteString(line)
			buf.WriteByte('\n')
		}
	}
	flush()
	return bodies
}

// matchHeading reports whether a line opens one of the expected sections.
func matchHeading(line string, titles map[string]string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(line))
	s = strings.TrimLeft(s, "#*_ \t")
	s = strings.TrimRight(s, "*_")
	for t := range titles {
		if s == t || strings.HasPrefix(s, t+":") || strings.HasPrefix(s, t+" —") || strings.HasPrefix(s, t+" -") {
			return t, true
		}
	}
	return "", false
}

func headingRemainder(line, title string) string {
	s := strings.TrimSpace(line)
	lower := strings.ToLower(s)
	i := strings.Index(lower, title)
	if i < 0 {
		return ""
	}
	rest := s[i+len(title):]
	rest = strings.TrimLeft(rest, ":—- *_\t")
	return strings.TrimSpace(rest)
}

// Spine cue sets. A statement counts when any cue appears in the section
// body; cues are deliberately broad since they judge structure, not style.
var (
	situationCues = []string{
		"you are", "you're", "this is", "right now", "at present", "here,",
		"you find yourself", "stands", "sits", "appears", "shows", "speaks of",
		"in this position", "you have been", "currently",
	}
	causeCues = []string{
		"because", "reflects", "stems from", "rooted in", "comes from",
		"suggests that", "points to", "grows out of", "which is why",
		"underneath", "driven by", "born of", "owes to",
	}
	forwardCues = []string{
		"ahead", "next", "will ", "consider", "invite", "try ", "look for",
		"the coming", "from here", "going forward", "open to", "watch for",
		"let yourself", "make room", "when you are ready",
	}
)

func hasCue(body string, cues []string) bool {
	lower := strings.ToLower(body)
	for _, c := range cues {
		if strings.Contains(lower, c) {
			return true
		}
	}
	return false
}
