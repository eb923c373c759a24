package prompt

// RenderOptions controls which optional prompt content is included. The
// options are threaded explicitly through every build call — nothing in this
// package reads ambient or process-wide state. Reduction steps work by
// flipping these flags and rebuilding.
type RenderOptions struct {
	ImageryHints     bool // per-position imagery keywords; low-weight positions never carry them
	TimingEnrichment bool // forecast/timing block derived from emphasis weights
	PassagesBlock    bool // retrieved reference passages
	StyleGuidance    bool // tone/frame/experience guidance from personalization
}

// DefaultRenderOptions enables everything; the budget loop trims from there.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		ImageryHints:     true,
		TimingEnrichment: true,
		PassagesBlock:    true,
		StyleGuidance:    true,
	}
}
