// Package retrypolicy is the small retry-policy object spec.md §9 asks
// for in place of the source's inline sleep loop: "express as a small
// retry policy object {max_attempts, backoff(i) -> duration} consumed by
// a generic retry loop, not as nested function wrappers."
//
// It implements github.com/cenkalti/backoff/v4's BackOff interface so the
// shard writer can drive it with backoff.RetryNotify, but the schedule
// itself is a quadratic curve (W * i^2 for the i-th
// completed attempt: 0s, 0.1s, 0.4s at W=0.1s) rather than the library's
// default exponential curve.
package retrypolicy

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// WriteBackoff reproduces the shard writer's fixed retry schedule:
// up to MaxAttempts total calls, sleeping Base*i^2 between the i-th and
// (i+1)-th attempt.
type WriteBackoff struct {
	Base        time.Duration
	MaxAttempts int

	attempt int
}

var _ backoff.BackOff = (*WriteBackoff)(nil)

// NewWriteBackoff builds the spec.md §4.3 schedule: base W, up to
// maxAttempts total tries.
func NewWriteBackoff(base time.Duration, maxAttempts int) *WriteBackoff {
	return &WriteBackoff{Base: base, MaxAttempts: maxAttempts}
}

// NextBackOff returns the delay before the next attempt, or
// backoff.Stop once MaxAttempts tries have been exhausted.
func (w *WriteBackoff) NextBackOff() time.Duration {
	if w.attempt+1 >= w.MaxAttempts {
		return backoff.Stop
	}
	delay := w.Base * time.Duration(w.attempt*w.attempt)
	w.attempt++
	return delay
}

// Reset starts the schedule over, for reuse across batches.
func (w *WriteBackoff) Reset() {
	w.attempt = 0
}

// Attempts reports how many delays NextBackOff has returned since the
// last Reset; a call that returns backoff.Stop is not counted.
func (w *WriteBackoff) Attempts() int {
	return w.attempt
}
