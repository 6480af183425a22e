// Package concurrency wraps optimistic compare-and-swap writes with
// classification and bounded retry. Stores reject stale writes with
// VERSION_MISMATCH; callers re-fetch, reapply, and try again through Retry
// instead of holding locks across the narration round-trip.
package concurrency

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	apperrors "github.com/louisbranch/turnforge/internal/platform/errors"
)

const (
	maxAttempts     = 4
	initialInterval = 25 * time.Millisecond
	maxInterval     = 250 * time.Millisecond
)

// Retryable reports whether a write failure is worth re-attempting after a
// re-fetch. Version mismatches and transient locks are; a missing entity is
// not, because re-reading cannot make the record appear.
func Retryable(err error) bool {
	switch apperrors.CodeOf(err) {
	case apperrors.CodeVersionMismatch, apperrors.CodeEntityLocked:
		return true
	}
	return false
}

// Retry runs op under exponential backoff, re-invoking it only for retryable
// write failures. op is expected to re-fetch the record it mutates on every
// attempt so the compare-and-swap sees the freshest version. Non-retryable
// errors and exhaustion surface unchanged.
func Retry(ctx context.Context, op func(ctx context.Context) error) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = initialInterval
	eb.MaxInterval = maxInterval
	eb.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(eb, maxAttempts-1), ctx)
	return backoff.Retry(func() error {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if !Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
}
