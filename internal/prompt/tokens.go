package prompt

import "strings"

// EstimateTokens approximates the token count of a prompt string. The
// budget contract needs a monotone estimate, not exact BPE counts: roughly
// one token per four characters, nudged up for whitespace-heavy text where
// short words each cost a token.
func EstimateTokens(s string) int {
	if s == "" {
		return 0
	}
	chars := len(s)
	words := len(strings.Fields(s))
	est := chars / 4
	if words > est {
		est = words
	}
	return est
}

// EstimateBundleTokens returns the combined estimate for a system/user pair.
func EstimateBundleTokens(system, user string) int {
	return EstimateTokens(system) + EstimateTokens(user)
}
