// Package retry implements bounded linear-backoff retry for model calls.
package retry

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/vihome-ai/advisor-core/pkg/core"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 2000 * time.Millisecond
)

// Policy retries transient failures with a linearly growing delay: the
// wait after failed attempt n is BaseDelay * n. The zero value behaves
// like the defaults.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration

	// Classify overrides transient detection. Nil means Transient.
	Classify func(error) bool

	// OnRetry is invoked before each backoff wait with the attempt that
	// just failed.
	OnRetry func(attempt int, err error)

	// sleep is swapped in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// Default returns the stock policy.
func Default() Policy {
	return Policy{MaxAttempts: DefaultMaxAttempts, BaseDelay: DefaultBaseDelay}
}

// Transient reports whether err is worth retrying: retryable service
// errors (rate limit, overload, server failure) and network errors.
func Transient(err error) bool {
	if core.IsRetryable(err) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne)
}

// Do runs op until it succeeds, a terminal error occurs, the attempt
// budget is spent, or ctx is cancelled. The loop is deliberately flat; a
// bounded counter drives it, never recursion.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	base := p.BaseDelay
	if base <= 0 {
		base = DefaultBaseDelay
	}
	classify := p.Classify
	if classify == nil {
		classify = Transient
	}
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = op(ctx)
		if err == nil || !classify(err) {
			return err
		}
		if attempt == attempts {
			break
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}
		if serr := sleep(ctx, base*time.Duration(attempt)); serr != nil {
			return serr
		}
	}
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
