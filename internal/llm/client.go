package llm

import (
	"context"
)

// LLMClient produces a free-form reply for a composed prompt. Replies are
// best-effort: callers must degrade gracefully on error and must never let
// a failed reply abort a save that is already in progress.
type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
