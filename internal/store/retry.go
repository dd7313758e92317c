package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrRetriesExhausted is returned once a transaction kept hitting contention
// for the whole retry budget.
var ErrRetriesExhausted = errors.New("transaction retries exhausted")

// Default retry budget.
const (
	DefaultMaxAttempts = 5
	DefaultBackoff     = 20 * time.Millisecond
)

// RetryPolicy bounds transparent transaction retries.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
	// OnRetry, if set, is called before every retry with the failed attempt number.
	OnRetry func(attempt int, err error)
}

// DefaultRetryPolicy returns the default retry budget.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: DefaultMaxAttempts, Backoff: DefaultBackoff}
}

// Transact runs fn in a transaction on s, retrying the whole transaction when
// it fails with ErrContention. Any other error is returned unchanged. Since a
// failed attempt is rolled back, callers never observe partial effects.
func Transact(ctx context.Context, s Store, p RetryPolicy, fn func(tx Tx) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = s.InTx(ctx, fn)
		if err == nil || !errors.Is(err, ErrContention) {
			return err
		}
		if attempt == attempts {
			break
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}

		// Linear backoff keeps contending writers from retrying in lockstep.
		select {
		case <-ctx.Done():
			return fmt.Errorf("transaction aborted: %w", ctx.Err())
		case <-time.After(p.Backoff * time.Duration(attempt)):
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempts, err)
}
