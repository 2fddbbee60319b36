// Package prewarm probes a freshly deployed application until it answers.
package prewarm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"resty.dev/v3"

	"github.com/nathantilsley/plt-deploy-action/internal/buildinfo"
	"github.com/nathantilsley/plt-deploy-action/internal/deploy/domain"
)

const (
	// DefaultAttempts is the total number of GET requests made before giving up.
	DefaultAttempts = 5
	// DefaultTimeout bounds a single attempt.
	DefaultTimeout = 2 * time.Minute
)

// Option configures the adapter.
type Option func(*Adapter)

// WithAttempts overrides the attempt budget.
func WithAttempts(n int) Option {
	return func(a *Adapter) {
		if n > 0 {
			a.attempts = n
		}
	}
}

// WithTimeout overrides the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(a *Adapter) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// Adapter implements ports.PrewarmPort with a bounded, immediate retry loop.
type Adapter struct {
	client   *resty.Client
	attempts int
	timeout  time.Duration
	logger   *slog.Logger
}

// New creates a new prewarm adapter.
func New(logger *slog.Logger, opts ...Option) *Adapter {
	a := &Adapter{
		attempts: DefaultAttempts,
		timeout:  DefaultTimeout,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(a)
	}

	a.client = resty.New().
		SetTimeout(a.timeout).
		SetResponseBodyUnlimitedReads(true).
		SetHeader("User-Agent", buildinfo.UserAgent())
	return a
}

// Prewarm issues GET requests against url until one succeeds or the attempt
// budget is spent. The returned *domain.PrewarmError describes the last
// failed attempt.
func (a *Adapter) Prewarm(ctx context.Context, url string) error {
	attempt := 0
	op := func() error {
		attempt++
		resp, err := a.client.R().SetContext(ctx).Get(url)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return backoff.Permanent(&domain.PrewarmError{URL: url, Attempts: attempt, Err: ctxErr})
			}
			return &domain.PrewarmError{URL: url, Attempts: attempt, Err: err}
		}
		if !resp.IsSuccess() {
			return &domain.PrewarmError{
				URL:        url,
				Attempts:   attempt,
				StatusCode: resp.StatusCode(),
				Body:       resp.String(),
			}
		}
		return nil
	}

	notify := func(err error, _ time.Duration) {
		a.logger.Warn(fmt.Sprintf("%v, retrying...", err), "attempt", attempt, "url", url)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(&backoff.ZeroBackOff{}, uint64(a.attempts-1)), //nolint:gosec // attempts is always positive
		ctx,
	)

	err := backoff.RetryNotify(op, policy, notify)
	if err == nil {
		a.logger.Debug("application prewarmed", "url", url, "attempts", attempt)
		return nil
	}

	var pErr *domain.PrewarmError
	if errors.As(err, &pErr) {
		return pErr
	}
	return &domain.PrewarmError{URL: url, Attempts: attempt, Err: err}
}
