// Package wait holds the fixed-delay and bounded polling helpers used while
// the target application updates a page asynchronously.
package wait

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// TimeoutError is returned by For when the condition never held.
type TimeoutError struct {
	Name     string
	Attempts int
	Interval time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("Condition <%s> never returned true over %d checks, spaced by %dms.",
		e.Name, e.Attempts, e.Interval.Milliseconds())
}

// Condition is polled by For. A non-nil error stops polling immediately.
type Condition func(ctx context.Context) (bool, error)

var errNotYet = errors.New("condition not met")

// For polls cond every interval, at most maxAttempts times. The first check
// happens after one interval.
func For(ctx context.Context, name string, cond Condition, interval time.Duration, maxAttempts int) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if err := Delay(ctx, interval); err != nil {
		return err
	}
	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(interval), uint64(maxAttempts-1)),
		ctx,
	)
	err := backoff.Retry(func() error {
		ok, err := cond(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}
		if !ok {
			return errNotYet
		}
		return nil
	}, bo)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errNotYet):
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &TimeoutError{Name: name, Attempts: maxAttempts, Interval: interval}
	default:
		return err
	}
}

// Delay blocks for d or until ctx is done.
func Delay(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
