package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// flakyStore fails InTx with contention a fixed number of times.
type flakyStore struct {
	Store
	failures int
	calls    int
	err      error
}

func (f *flakyStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	f.calls++
	if f.calls <= f.failures {
		return fmt.Errorf("attempt %d: %w", f.calls, ErrContention)
	}
	return f.err
}

func TestTransactRetriesContention(t *testing.T) {
	s := &flakyStore{failures: 2}
	retries := 0
	policy := RetryPolicy{MaxAttempts: 5, Backoff: time.Millisecond, OnRetry: func(int, error) { retries++ }}

	if err := Transact(context.Background(), s, policy, func(Tx) error { return nil }); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if s.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", s.calls)
	}
	if retries != 2 {
		t.Errorf("expected 2 retry callbacks, got %d", retries)
	}
}

func TestTransactExhaustsBudget(t *testing.T) {
	s := &flakyStore{failures: 10}
	err := Transact(context.Background(), s, RetryPolicy{MaxAttempts: 3, Backoff: time.Millisecond}, func(Tx) error { return nil })
	if !errors.Is(err, ErrRetriesExhausted) {
		t.Fatalf("expected ErrRetriesExhausted, got %v", err)
	}
	if !errors.Is(err, ErrContention) {
		t.Errorf("expected the last contention error to stay wrapped, got %v", err)
	}
	if s.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", s.calls)
	}
}

func TestTransactDoesNotRetryDomainErrors(t *testing.T) {
	domainErr := errors.New("capacity exceeded")
	s := &flakyStore{err: domainErr}
	err := Transact(context.Background(), s, DefaultRetryPolicy(), func(Tx) error { return nil })
	if !errors.Is(err, domainErr) {
		t.Fatalf("expected domain error passthrough, got %v", err)
	}
	if s.calls != 1 {
		t.Errorf("expected a single attempt, got %d", s.calls)
	}
}

func TestTransactHonoursCancellation(t *testing.T) {
	s := &flakyStore{failures: 10}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Transact(ctx, s, RetryPolicy{MaxAttempts: 5, Backoff: time.Second}, func(Tx) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
