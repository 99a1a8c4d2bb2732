package cache

import (
	"context"
	"errors"
	"time"
)

// transientError marks a failure that may succeed on a later attempt.
type transientError struct{ cause error }

func (e *transientError) Error() string { return e.cause.Error() }
func (e *transientError) Unwrap() error { return e.cause }

// Transient marks err as worth retrying. A nil error stays nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{cause: err}
}

// IsTransient reports whether err, or anything it wraps, was marked by
// [Transient].
func IsTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

// Backoff is a capped exponential retry schedule.
type Backoff struct {
	Attempts int           // total calls, at least 1
	Base     time.Duration // wait before the second call
	Max      time.Duration // upper bound per wait, 0 for none
}

// DefaultBackoff suits round trips to a cache server on the local network.
var DefaultBackoff = Backoff{Attempts: 3, Base: 100 * time.Millisecond, Max: time.Second}

// wait returns the pause after the given failed attempt (0-based).
func (b Backoff) wait(attempt int) time.Duration {
	d := b.Base << attempt
	if b.Max > 0 && (d > b.Max || d <= 0) {
		return b.Max
	}
	return d
}

// Do calls fn until it succeeds, returns an error not marked [Transient],
// or the attempts run out. The returned error never carries the transient
// mark. A cancelled ctx stops the wait and returns ctx.Err().
func (b Backoff) Do(ctx context.Context, fn func() error) error {
	attempts := max(b.Attempts, 1)
	for i := 0; ; i++ {
		err := fn()
		if !IsTransient(err) {
			return err
		}
		if i == attempts-1 {
			if te, ok := err.(*transientError); ok {
				return te.cause
			}
			return err
		}
		timer := time.NewTimer(b.wait(i))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
