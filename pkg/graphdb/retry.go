package graphdb

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// retryPolicy configures exponential backoff with jitter for a family of
// calls. Only transient driver errors are retried; validation, pipeline,
// and other non-transient errors pass straight through.
type retryPolicy struct {
	base       time.Duration
	cap        time.Duration
	maxRetries uint64
}

// connectorRetry is the Graph Connector's backoff policy (spec.md §4.2:
// 0.5s/8s for graph-store calls) — distinct from pkg/llmclient's 1s/16s LM
// policy, matching the original implementation's separate neo4j_retry
// decorator (multiplier=0.5, max=8) rather than its openai_retry one.
var connectorRetry = retryPolicy{base: 500 * time.Millisecond, cap: 8 * time.Second, maxRetries: 3}

// withRetry runs op, retrying according to p whenever op returns an error
// wrapping ErrTransient, up to p.maxRetries additional attempts.
func withRetry(ctx context.Context, p retryPolicy, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.base
	b.MaxInterval = p.cap
	b.MaxElapsedTime = 0 // bounded by WithMaxRetries below, not wall-clock
	bo := backoff.WithContext(backoff.WithMaxRetries(b, p.maxRetries), ctx)

	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrTransient) {
			return backoff.Permanent(err)
		}
		return err
	}, bo)
}
