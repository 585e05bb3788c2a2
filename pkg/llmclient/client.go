// Package llmclient wraps the external language-model provider behind two
// blocking calls, each retried on infrastructure failure with an
// exponential backoff.
package llmclient

import (
	"context"
)

// Client is the LM Client (C2). Both operations are idempotent from the
// caller's perspective: a retried completion or embedding call has no
// side effect beyond the returned value.
type Client interface {
	// CompleteJSON asks the model to respond to user under system and
	// parses the response as a JSON object.
	CompleteJSON(ctx context.Context, system, user string) (map[string]any, error)
	// Embed returns a dense vector representation of text.
	Embed(ctx context.Context, text string) ([]float64, error)
}
