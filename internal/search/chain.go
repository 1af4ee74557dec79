package search

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/stablecoin-intel/internal/resilience"
)

// ErrNoBackends means a Chain was built without any backend.
var ErrNoBackends = eris.New("search: no backends configured")

// Chain tries backends in order and returns the first non-empty answer.
// Each backend call is retried on transient errors and guarded by its own
// circuit breaker so a dead backend is skipped quickly.
type Chain struct {
	backends []Searcher
	breakers *resilience.ServiceBreakers
	retry    resilience.RetryConfig
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithRetry overrides the per-backend retry policy.
func WithRetry(cfg resilience.RetryConfig) ChainOption {
	return func(c *Chain) { c.retry = cfg }
}

// WithBreakers shares a breaker registry, e.g. with the page fetcher.
func WithBreakers(sb *resilience.ServiceBreakers) ChainOption {
	return func(c *Chain) { c.breakers = sb }
}

// NewChain creates a Chain over backends, skipping nil entries.
func NewChain(backends []Searcher, opts ...ChainOption) *Chain {
	c := &Chain{
		breakers: resilience.NewServiceBreakers(resilience.DefaultCircuitBreakerConfig()),
		retry:    resilience.DefaultRetryConfig(),
	}
	for _, b := range backends {
		if b != nil {
			c.backends = append(c.backends, b)
		}
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Name lists the backends in order.
func (c *Chain) Name() string {
	names := make([]string, len(c.backends))
	for i, b := range c.backends {
		names[i] = b.Name()
	}
	return "chain(" + strings.Join(names, ",") + ")"
}

// Search returns the first backend answer with results. An all-empty run
// is an empty Response, not an error; an error is returned only when every
// backend failed.
func (c *Chain) Search(ctx context.Context, query string, opts Options) (*Response, error) {
	if len(c.backends) == 0 {
		return nil, ErrNoBackends
	}

	var errs []error
	for _, b := range c.backends {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "search: chain")
		}

		retry := c.retry
		retry.OnRetry = resilience.RetryLogger(b.Name(), "search")
		resp, err := resilience.ExecuteVal(ctx, c.breakers.Get(b.Name()), func(ctx context.Context) (*Response, error) {
			return resilience.DoVal(ctx, retry, func(ctx context.Context) (*Response, error) {
				return b.Search(ctx, query, opts)
			})
		})
		if err != nil {
			zap.L().Warn("search: backend failed",
				zap.String("backend", b.Name()),
				zap.String("query", query),
				zap.String("class", resilience.Classify(err)),
				zap.Error(err),
			)
			errs = append(errs, eris.Wrapf(err, "search: %s", b.Name()))
			continue
		}
		if resp != nil && (len(resp.Results) > 0 || resp.ModelSummary != "") {
			zap.L().Debug("search: backend answered",
				zap.String("backend", b.Name()),
				zap.Int("results", len(resp.Results)),
			)
			return resp, nil
		}
	}

	if len(errs) == len(c.backends) {
		return nil, errors.Join(errs...)
	}
	return &Response{}, nil
}
