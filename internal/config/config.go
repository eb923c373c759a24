package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// maxSafeTimeout caps configured timeouts at 2^31-1 milliseconds, the
// largest value every timer platform we deploy on handles safely.
const maxSafeTimeout = 2147483647 * time.Millisecond

// Config holds every knob the service reads at startup. Nothing else in
// the process touches the environment.
type Config struct {
	HTTPAddr string
	LogLevel slog.Level

	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	PrimaryModel      string
	SecondaryModel    string
	ScorerModel       string
	EmbedModel        string

	AnthropicAPIKey string
	AnthropicModel  string

	CorpusDBPath    string
	TelemetryDBPath string
	PersistText     bool

	TokenBudget    int
	PassageLimit   int
	AttemptTimeout time.Duration
	GateTimeout    time.Duration
	GateAsync      bool
}

func Load() (Config, error) {
	c := Config{
		HTTPAddr:          envOr("HTTP_ADDR", ":8080"),
		OpenRouterAPIKey:  os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterBaseURL: envOr("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		PrimaryModel:      envOr("PRIMARY_MODEL", "anthropic/claude-3.5-sonnet"),
		SecondaryModel:    envOr("SECONDARY_MODEL", "meta-llama/llama-3.1-70b-instruct"),
		ScorerModel:       envOr("SCORER_MODEL", "openai/gpt-4o-mini"),
		EmbedModel:        os.Getenv("EMBED_MODEL"),
		AnthropicAPIKey:   os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:    envOr("ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),
		CorpusDBPath:      envOr("CORPUS_DB", "data/corpus.db"),
		TelemetryDBPath:   os.Getenv("TELEMETRY_DB"),
		PersistText:       envBool("TELEMETRY_PERSIST_TEXT", false),
		TokenBudget:       3000,
		PassageLimit:      3,
		AttemptTimeout:    20 * time.Second,
		GateTimeout:       10 * time.Second,
		GateAsync:         envBool("GATE_ASYNC", false),
	}

	if v := os.Getenv("TOKEN_BUDGET"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid TOKEN_BUDGET %q", v)
		}
		c.TokenBudget = n
	}
	if v := os.Getenv("PASSAGE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("invalid PASSAGE_LIMIT %q", v)
		}
		c.PassageLimit = n
	}

	var err error
	if c.AttemptTimeout, err = envDuration("ATTEMPT_TIMEOUT", c.AttemptTimeout); err != nil {
		return Config{}, err
	}
	if c.GateTimeout, err = envDuration("GATE_TIMEOUT", c.GateTimeout); err != nil {
		return Config{}, err
	}
	c.AttemptTimeout = clampTimeout(c.AttemptTimeout)
	c.GateTimeout = clampTimeout(c.GateTimeout)

	level, err := parseLogLevel(envOr("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}
	c.LogLevel = level

	if c.OpenRouterAPIKey == "" {
		return Config{}, fmt.Errorf("OPENROUTER_API_KEY is required")
	}

	return c, nil
}

// clampTimeout bounds a timeout to the platform-safe maximum. Zero and
// negative values mean "no timeout" and pass through.
func clampTimeout(d time.Duration) time.Duration {
	if d > maxSafeTimeout {
		return maxSafeTimeout
	}
	return d
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid LOG_LEVEL %q", s)
	}
}
