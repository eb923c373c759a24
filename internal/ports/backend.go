package ports

import (
	"context"

	"github.com/randomtoy/arcana-go/internal/domain"
)

// GenerationBackend produces a narrative from a prompt bundle. Implementations
// are remote model clients plus the deterministic local composer that serves
// as the terminal, never-failing backend.
type GenerationBackend interface {
	// Name identifies the backend in provenance and telemetry.
	Name() string

	// Generate returns the narrative text for the bundle. A returned error
	// means transport-level failure (network, timeout, bad upstream); it
	// never means "low quality" — quality is judged by the validator.
	Generate(ctx context.Context, bundle domain.PromptBundle) (string, error)
}
