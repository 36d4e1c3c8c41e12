package restkit

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/fivetwenty-io/restkit/internal/constants"
)

// Func is a call that can be wrapped by Retry.
type Func[T any] func(ctx context.Context) (T, error)

// RetryOption configures Retry.
type RetryOption func(*retryConfig)

type retryConfig struct {
	maxRetries int
	retryIf    func(error) bool
	waitMin    time.Duration
	waitMax    time.Duration
	logger     Logger
}

// WithMaxRetries sets the number of attempts after the first one.
func WithMaxRetries(n int) RetryOption {
	return func(c *retryConfig) {
		if n < 0 {
			n = 0
		}

		c.maxRetries = n
	}
}

// WithRetryIf replaces the predicate selecting which errors are retried.
func WithRetryIf(retryIf func(error) bool) RetryOption {
	return func(c *retryConfig) {
		if retryIf != nil {
			c.retryIf = retryIf
		}
	}
}

// WithBackoff sets the exponential backoff bounds. Zero disables waiting.
func WithBackoff(waitMin, waitMax time.Duration) RetryOption {
	return func(c *retryConfig) {
		c.waitMin = waitMin
		c.waitMax = waitMax
	}
}

// WithRetryLogger logs every retried failure at warn level.
func WithRetryLogger(logger Logger) RetryOption {
	return func(c *retryConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// IsRetryable is the default retry predicate: any request error qualifies,
// parse and configuration errors do not.
func IsRetryable(err error) bool {
	var reqErr *APIRequestError

	return errors.As(err, &reqErr)
}

// Retry wraps fn so qualifying failures are attempted again, up to the
// configured number of extra attempts. When attempts run out the last error
// is returned unchanged. Each invocation of the returned Func starts a fresh
// attempt count.
func Retry[T any](fn Func[T], opts ...RetryOption) Func[T] {
	cfg := &retryConfig{
		maxRetries: constants.DefaultRetryMax,
		retryIf:    IsRetryable,
		waitMin:    constants.DefaultRetryWaitMin,
		waitMax:    constants.DefaultRetryWaitMax,
		logger:     NopLogger{},
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return func(ctx context.Context) (T, error) {
		for attempt := 0; ; attempt++ {
			result, err := fn(ctx)
			if err == nil {
				return result, nil
			}

			if attempt >= cfg.maxRetries || !cfg.retryIf(err) {
				return result, err
			}

			wait := retryablehttp.DefaultBackoff(cfg.waitMin, cfg.waitMax, attempt, nil)

			cfg.logger.Warn("Retrying failed call", map[string]interface{}{
				"attempt": attempt + 1,
				"max":     cfg.maxRetries,
				"wait":    wait.String(),
				"error":   err.Error(),
			})

			if wait <= 0 {
				if ctx.Err() != nil {
					return result, ctx.Err()
				}

				continue
			}

			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()

				return result, ctx.Err()
			case <-timer.C:
			}
		}
	}
}
