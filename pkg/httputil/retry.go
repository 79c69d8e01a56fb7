package httputil

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

// RetryableError wraps an error to indicate it should trigger a retry.
// Wrap transient failures (network timeouts, 5xx responses) with this type
// so that [Policy.Do] knows to attempt the operation again.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps an error as a RetryableError. A nil error stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable reports whether err is wrapped with [RetryableError].
func IsRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}

// RetryableStatus reports whether an HTTP status code indicates a transient
// condition worth retrying.
func RetryableStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout, http.StatusTooManyRequests,
		http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// jitterFraction bounds the random spread applied to each computed delay.
const jitterFraction = 0.25

// Policy describes a retry schedule: how many attempts to make and how long
// to wait between them. The delay grows by BackoffFactor after each failed
// attempt and never exceeds MaxDelay. When Jitter is set, each computed
// delay is scaled by a random factor in [0.75, 1.25).
//
// The zero value retries nothing; use [DefaultPolicy] for sensible defaults.
// A Policy is safe for concurrent use by multiple goroutines.
type Policy struct {
	MaxAttempts   int
	Delay         time.Duration
	BackoffFactor float64
	MaxDelay      time.Duration
	Jitter        bool

	// rand and sleep are injection points for tests. When nil, a shared
	// locked rand source and time-based sleep are used.
	rand  func() float64
	sleep func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy returns the retry schedule used when no configuration is
// supplied: 3 attempts, 500ms base delay, doubling, 10s cap, jitter on.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:   3,
		Delay:         500 * time.Millisecond,
		BackoffFactor: 2,
		MaxDelay:      10 * time.Second,
		Jitter:        true,
	}
}

// WithRand returns a copy of the policy drawing jitter from r.
// Intended for tests that need a deterministic schedule.
func (p Policy) WithRand(r func() float64) Policy {
	p.rand = r
	return p
}

// WithSleep returns a copy of the policy using sleep instead of real timers.
// Intended for tests; sleep must honor ctx cancellation.
func (p Policy) WithSleep(sleep func(ctx context.Context, d time.Duration) error) Policy {
	p.sleep = sleep
	return p
}

// NextDelay returns the backoff delay to apply after the given zero-based
// attempt. The result is Delay scaled by BackoffFactor^attempt, capped at
// MaxDelay, then scaled by jitter when enabled. It is a pure function of the
// attempt number apart from the jitter draw.
func (p Policy) NextDelay(attempt int) time.Duration {
	d := float64(p.Delay)
	for n := 0; n < attempt; n++ {
		d *= p.backoffFactor()
		if d >= float64(p.MaxDelay) && p.MaxDelay > 0 {
			d = float64(p.MaxDelay)
			break
		}
	}
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	if p.Jitter {
		d *= 1 - jitterFraction + 2*jitterFraction*p.random()
	}
	return time.Duration(d)
}

// Do executes fn up to MaxAttempts times, sleeping NextDelay between failed
// attempts. Only errors wrapped with [RetryableError] trigger a retry; other
// errors are returned immediately. The context is checked before every
// attempt and during every backoff sleep, and its error is returned as-is on
// cancellation. Returns the last error if all attempts fail.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	attempts := max(p.MaxAttempts, 1)
	var lastErr error

	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !IsRetryable(err) {
			return err
		}

		if i < attempts-1 {
			if err := p.wait(ctx, p.NextDelay(i)); err != nil {
				return err
			}
		}
	}
	return lastErr
}

func (p Policy) wait(ctx context.Context, d time.Duration) error {
	if p.sleep != nil {
		return p.sleep(ctx, d)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func (p Policy) backoffFactor() float64 {
	if p.BackoffFactor <= 0 {
		return 2
	}
	return p.BackoffFactor
}

func (p Policy) random() float64 {
	if p.rand != nil {
		return p.rand()
	}
	jitterMu.Lock()
	defer jitterMu.Unlock()
	return jitterRand.Float64()
}

// Shared jitter source. math/rand's global source is already locked, but a
// dedicated source keeps the policy independent of global seeding.
var (
	jitterMu   sync.Mutex
	jitterRand = rand.New(rand.NewSource(time.Now().UnixNano()))
)
