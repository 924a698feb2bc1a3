package httpx

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
)

type HTTPStatusCoder interface {
	HTTPStatusCode() int
}

func IsRetryableHTTPStatus(code int) bool {
	if code == 408 || code == 429 {
		return true
	}
	return code >= 500 && code <= 599
}

// IsRetryableError reports transient failures: network timeouts, refused or reset
// connections, and retryable HTTP statuses. Caller cancellation is never retried.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var sc HTTPStatusCoder
	if errors.As(err, &sc) {
		return IsRetryableHTTPStatus(sc.HTTPStatusCode())
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// RetryAfterDuration reads a Retry-After header in seconds, capped at max.
// ok is false when the header is absent or unparseable.
func RetryAfterDuration(resp *http.Response, max time.Duration) (time.Duration, bool) {
	if resp == nil {
		return 0, false
	}
	ra := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if ra == "" {
		return 0, false
	}
	secs, err := strconv.Atoi(ra)
	if err != nil || secs <= 0 {
		return 0, false
	}
	d := time.Duration(secs) * time.Second
	if max > 0 && d > max {
		d = max
	}
	return d, true
}

type RetryPolicy struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// OnRetry is called before each sleep.
	OnRetry func(attempt int, err error, wait time.Duration)
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:      4,
		InitialInterval: time.Second,
		MaxInterval:     10 * time.Second,
	}
}

// Attempt is one try. resp may be nil. A non-retryable error ends the loop at once.
type Attempt[T any] func(ctx context.Context) (T, *http.Response, error)

// Retry runs fn with jittered exponential backoff until it succeeds, fails
// permanently, exhausts MaxRetries, or ctx ends. A Retry-After header overrides the
// computed wait.
func Retry[T any](ctx context.Context, p RetryPolicy, fn Attempt[T]) (T, error) {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	b.RandomizationFactor = 0.2
	maxRetries := p.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	attempt := 0
	var lastErr error
	op := func() (T, error) {
		attempt++
		out, resp, err := fn(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !IsRetryableError(err) {
			return out, backoff.Permanent(err)
		}
		if d, ok := RetryAfterDuration(resp, b.MaxInterval); ok {
			return out, &backoff.RetryAfterError{Duration: d}
		}
		return out, err
	}

	out, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(maxRetries+1)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, wait time.Duration) {
			if p.OnRetry != nil {
				p.OnRetry(attempt, lastErr, wait)
			}
		}),
	)
	var ra *backoff.RetryAfterError
	if errors.As(err, &ra) && lastErr != nil {
		return out, lastErr
	}
	return out, err
}
