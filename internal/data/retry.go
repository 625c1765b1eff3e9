package data

import (
	"context"
	"errors"
	"time"

	"github.com/failsafe-go/failsafe-go/retrypolicy"

	"github.com/DevRickLin/tg-resender/internal/infra/openai"
)

// retryConfig bounds retries of remote model calls
type retryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

var defaultRetryConfig = retryConfig{
	MaxRetries: 3,
	BaseDelay:  500 * time.Millisecond,
	MaxDelay:   10 * time.Second,
}

// newRetryPolicy retries transient failures with exponential backoff.
// Cancellation and client-side API errors are returned at once.
func newRetryPolicy[R any](cfg retryConfig) retrypolicy.RetryPolicy[R] {
	return retrypolicy.NewBuilder[R]().
		WithBackoff(cfg.BaseDelay, cfg.MaxDelay).
		WithMaxRetries(cfg.MaxRetries).
		WithJitterFactor(0.1).
		HandleIf(func(_ R, err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return false
			}
			return !openai.IsPermanent(err)
		}).
		Build()
}
