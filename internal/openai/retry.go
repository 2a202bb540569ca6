package openai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cloo-solutions/docchat/internal/domain"
	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultMaxRetries      = 2
	defaultInitialInterval = 500 * time.Millisecond
	defaultMaxInterval     = 8 * time.Second
)

// ErrRetriesExhausted is returned when every attempt failed with a transient error.
var ErrRetriesExhausted = errors.New("retries exhausted")

// RetryConfig bounds the exponential backoff around a single upstream call.
type RetryConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func permanent(err error) error {
	return backoff.Permanent(err)
}

// withRetry runs op with a per-attempt timeout, retrying transient failures.
// Exhausting the retries yields an error matching both ErrRetriesExhausted
// and domain.ErrUpstreamUnavailable.
func (c *Client) withRetry(ctx context.Context, timeout time.Duration, op func(ctx context.Context) error) error {
	attempts := 0
	var lastErr error
	retryable := false

	operation := func() error {
		attempts++
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		err := op(callCtx)
		if err == nil {
			return nil
		}
		lastErr = err

		var perm *backoff.PermanentError
		retryable = ctx.Err() == nil && IsTransient(err) && !errors.As(err, &perm)
		if !retryable {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retry.InitialInterval
	b.MaxInterval = c.retry.MaxInterval
	b.MaxElapsedTime = 0

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.retry.MaxRetries)), ctx))
	if err == nil {
		return nil
	}

	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Err
	}
	if retryable && ctx.Err() == nil {
		return domain.NewUpstreamUnavailableError("openai",
			fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempts, lastErr))
	}
	return err
}

// IsTransient reports whether err is worth retrying: rate limits, server
// errors, timeouts of a single attempt and network failures.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return transientStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return transientStatus(reqErr.HTTPStatusCode)
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

func transientStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
