package gateway

import (
	"context"
	"fmt"
)

// Options control a single generation call.
type Options struct {
	MaxTokens   int
	Temperature float32
}

// Gateway sends one prompt to the text-generation model and returns the raw
// completion. Implementations are stateless and safe for concurrent use;
// retry and fallback policy belongs to the caller.
type Gateway interface {
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
}

// UpstreamError marks a model or external-lookup failure: network error,
// non-2xx response, or an empty completion. Callers absorb it into fallback
// substitution rather than surfacing it.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("upstream %s failed", e.Op)
	}
	return fmt.Sprintf("upstream %s failed: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
