package prompt

// reductionStep is one entry in the fixed slimming order: a named, pure
// transformation of RenderOptions. Steps that change nothing (the content
// was already off) are skipped without being recorded.
type reductionStep struct {
	name  string
	apply func(RenderOptions) (RenderOptions, bool)
}

// reductionSteps is the slimming order. Cheapest, least load-bearing content
// goes first; style guidance is last because it shapes the whole voice.
var reductionSteps = []reductionStep{
	{
		name: "drop_imagery_hints",
		apply: func(o RenderOptions) (RenderOptions, bool) {
			if !o.ImageryHints {
				return o, false
			}
			o.ImageryHints = false
			return o, true
		},
	},
	{
		name: "drop_timing_enrichment",
		apply: func(o RenderOptions) (RenderOptions, bool) {
			if !o.TimingEnrichment {
				return o, false
			}
			o.TimingEnrichment = false
			return o, true
		},
	},
	{
		name: "drop_passages",
		apply: func(o RenderOptions) (RenderOptions, bool) {
			if !o.PassagesBlock {
				return o, false
			}
			o.PassagesBlock = false
			return o, true
		},
	},
	{
		name: "drop_style_guidance",
		apply: func(o RenderOptions) (RenderOptions, bool) {
			if !o.StyleGuidance {
				return o, false
			}
			o.StyleGuidance = false
			return o, true
		},
	},
}

// ReductionOrder exposes the step names in application order, for telemetry
// consumers and tests.
func ReductionOrder() []string {
	out := make([]string, len(reductionSteps))
	for i, s := range reductionSteps {
		out[i] = s.name
	}
	return out
}
