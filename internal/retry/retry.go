// Package retry polls a condition until it holds or a deadline passes.
// It backs the AnkiConnect liveness probe; remote submissions are never
// retried.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrTimeout = errors.New("timed out")

type Policy struct {
	// Timeout bounds the total time spent, including the first attempt.
	Timeout time.Duration
	// Interval is the pause between attempts.
	Interval time.Duration
}

// Until calls fn immediately and then every p.Interval until fn returns nil.
// It gives up when p.Timeout elapses or ctx is done. On timeout the returned
// error wraps both ErrTimeout and the last error from fn; when ctx ends first
// it wraps ctx.Err() and the last error instead.
func Until(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	if p.Interval <= 0 {
		p.Interval = time.Second
	}

	parent := ctx
	ctx, cancel := context.WithTimeout(parent, p.Timeout)
	defer cancel()

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	attempts := 0
	for {
		attempts++
		err := fn(ctx)
		if err == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			// The caller's own deadline or cancellation is not a policy timeout.
			if perr := parent.Err(); perr != nil {
				return fmt.Errorf("%w (%d attempts): %w", perr, attempts, err)
			}
			return fmt.Errorf("%w after %s (%d attempts): %w", ErrTimeout, p.Timeout, attempts, err)
		case <-ticker.C:
		}
	}
}
