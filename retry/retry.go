// Package retry holds the wait policy shared by the driver's poll loops:
// device rescans answering RETRY, packet fetches answering EMPTY
// and the wait for a device to reach the running state.
package retry

import (
	"context"
	"errors"
	"runtime"
	"time"
)

// ErrExhausted is returned by Wait once MaxAttempts attempts have been made.
var ErrExhausted = errors.New("retry limit reached")

// SleepFunc pauses for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Policy describes how a poll loop waits between attempts.
type Policy struct {
	// Interval between attempts. Zero busy-spins, yielding the
	// processor between attempts but never sleeping.
	Interval time.Duration

	// MaxAttempts caps the number of attempts; zero means no limit.
	MaxAttempts int

	// Sleep replaces the timer-based pause, mainly for tests.
	Sleep SleepFunc
}

// Wait is called after attempt number n (counting from 1) returned a
// transient answer. It returns nil when the caller should try again.
func (p Policy) Wait(ctx context.Context, attempt int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
		return ErrExhausted
	}
	if p.Interval <= 0 {
		runtime.Gosched()
		return nil
	}
	if p.Sleep != nil {
		return p.Sleep(ctx, p.Interval)
	}
	return Sleep(ctx, p.Interval)
}

// Sleep pauses for d, returning early with ctx.Err() if ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
