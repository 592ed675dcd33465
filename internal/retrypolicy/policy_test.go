package retrypolicy

import (
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
)

func TestWriteBackoffSchedule(t *testing.T) {
	w := NewWriteBackoff(100*time.Millisecond, 3)

	first := w.NextBackOff()
	if first != 0 {
		t.Fatalf("first backoff = %v, want 0", first)
	}

	second := w.NextBackOff()
	if second != 100*time.Millisecond {
		t.Fatalf("second backoff = %v, want 100ms", second)
	}

	if third := w.NextBackOff(); third != backoff.Stop {
		t.Fatalf("third backoff = %v, want backoff.Stop", third)
	}
}

func TestWriteBackoffReset(t *testing.T) {
	w := NewWriteBackoff(100*time.Millisecond, 3)
	w.NextBackOff()
	w.NextBackOff()
	w.Reset()
	if w.Attempts() != 0 {
		t.Fatalf("Attempts() after Reset = %d, want 0", w.Attempts())
	}
	if got := w.NextBackOff(); got != 0 {
		t.Fatalf("backoff after reset = %v, want 0", got)
	}
}
