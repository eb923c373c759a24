package domain

// Passage is a short reference snippet retrieved from the knowledge corpus.
type Passage struct {
	ID     string   `json:"id"`
	Text   string   `json:"text"`
	Source string   `json:"source"`
	Topics []string `json:"topics,omitempty"`
	Score  float64  `json:"score"`
}

// ScoringMode identifies how passages were ranked.
type ScoringMode string

const (
	ScoringSemantic ScoringMode = "semantic"
	ScoringKeyword  ScoringMode = "keyword"
)

// RetrievalMeta reports what retrieval did, including silent-degradation
// events that must not be swallowed.
type RetrievalMeta struct {
	Requested        int         `json:"requested"`
	Used             int         `json:"used"`
	Truncated        int         `json:"truncated"`
	Mode             ScoringMode `json:"mode,omitempty"`
	FallbackOccurred bool        `json:"fallback_occurred"`
}

// PromptMeta records how the prompt was assembled and what the budget cost.
type PromptMeta struct {
	EstimatedTokens int           `json:"estimated_tokens"`
	TokenBudget     int           `json:"token_budget"`
	ReductionSteps  []string      `json:"reduction_steps,omitempty"`
	HardTruncated   bool          `json:"hard_truncated"`
	Retrieval       RetrievalMeta `json:"retrieval"`
}

// PromptBundle is the system/user prompt pair handed to a backend. Built
// fresh per request; never cached.
type PromptBundle struct {
	System string
	User   string
	Meta   PromptMeta
}

// BackendAttempt is the diagnostic record of one backend invocation.
type BackendAttempt struct {
	Backend      string `json:"backend"`
	LatencyMS    int64  `json:"latency_ms"`
	Failed       bool   `json:"failed"`
	Error        string `json:"error,omitempty"`
	Rejected     bool   `json:"rejected"`
	RejectReason string `json:"reject_reason,omitempty"`
}

// SectionMetric reports spine detection for one narrative section.
type SectionMetric struct {
	Title        string `json:"title"`
	Present      bool   `json:"present"`
	HasSituation bool   `json:"has_situation"`
	HasCause     bool   `json:"has_cause"`
	HasForward   bool   `json:"has_forward"`
}

// Complete reports whether the section carries all three spine statements.
func (s SectionMetric) Complete() bool {
	return s.Present && s.HasSituation && s.HasCause && s.HasForward
}

// NarrativeMetrics is the structural validator's verdict on one narrative.
type NarrativeMetrics struct {
	Sections          []SectionMetric `json:"sections"`
	SpineValid        bool            `json:"spine_valid"`
	CardCoverage      float64         `json:"card_coverage"`
	UncoveredCards    []string        `json:"uncovered_cards,omitempty"`
	HallucinatedCards []string        `json:"hallucinated_cards,omitempty"`
}

// ScoreSource says whether evaluation scores came from the scoring backend
// or were synthesized from NarrativeMetrics.
type ScoreSource string

const (
	ScoresFromModel     ScoreSource = "model"
	ScoresFromHeuristic ScoreSource = "heuristic"
)

// EvaluationResult holds the 1-5 rubric scores for a narrative. The gate
// never passes un-scored content: when the scoring backend fails these are
// heuristic, not absent.
type EvaluationResult struct {
	Personalization int         `json:"personalization"`
	Coherence       int         `json:"coherence"`
	Tone            int         `json:"tone"`
	Safety          int         `json:"safety"`
	Overall         int         `json:"overall"`
	SafetyFlag      bool        `json:"safety_flag"`
	Source          ScoreSource `json:"source"`
}

// FinalNarrative is what the pipeline returns: the accepted narrative or
// the safe fallback, with provenance.
type FinalNarrative struct {
	Text        string           `json:"narrative"`
	BackendUsed string           `json:"backend_used"`
	GateBlocked bool             `json:"gate_blocked"`
	GateReason  string           `json:"gate_reason,omitempty"`
	Metrics     NarrativeMetrics `json:"metrics"`
	PromptMeta  PromptMeta       `json:"prompt_meta"`
	Evaluation  EvaluationResult `json:"evaluation"`
	Attempts    []BackendAttempt `json:"attempts,omitempty"`
}
