package llmclient

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/graphqa/kgqa/pkg/errs"
)

// retryPolicy configures exponential backoff with jitter for a family of
// calls. Only infrastructure-kind errors are retried; parse and policy
// errors pass straight through, mirroring pkg/mcp/client.go's
// ClassifyError/NoRetry split.
type retryPolicy struct {
	base       time.Duration
	cap        time.Duration
	maxRetries uint64
}

// lmRetry is the one retry policy for both LM calls (completion and
// embedding) — spec.md §4.2's 1s/16s policy, matching the single
// openai_retry decorator the original implementation applies to every LM
// call. The distinct, tighter 0.5s/8s policy belongs to graph-store calls
// (pkg/graphdb's neo4j_retry-equivalent), not this package.
var lmRetry = retryPolicy{base: 1 * time.Second, cap: 16 * time.Second, maxRetries: 3}

// withRetry runs op, retrying according to p whenever op returns an
// infrastructure-kind error, up to p.maxRetries additional attempts.
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
		if !errs.Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, bo)
}
