// Package shard implements the per-(file, device_type) shard writer:
// batches encoded records, bulk-writes them to one memcached endpoint,
// retries failed keys with backoff, and reports a processed/errors tally
// (spec.md §4.3).
//
// Termination follows spec.md §9's REDESIGN FLAGS guidance rather than
// the source's queue-drain-timeout workaround: the file processor closes
// the task channel once every line has been read and routed, and Run
// simply returns when ranging over the channel ends, flushing whatever
// partial batch remains. This replaces the "poll with timeout, treat a
// timeout as end-of-input" pattern with an explicit close, which is the
// idiomatic Go signal and removes the only place the source could mistake
// a slow producer for a finished one.
package shard

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"

	"github.com/vasyanch/memcload/internal/domain"
	"github.com/vasyanch/memcload/internal/memcache"
	"github.com/vasyanch/memcload/internal/retrypolicy"
)

const (
	// DefaultBatchSize is B in spec.md §4.3.
	DefaultBatchSize = 500
	// DefaultMaxAttempts is the initial write plus R = 3 retries
	// (spec.md §4.3), so the backoff schedule runs 0s, 0.1s, 0.4s.
	DefaultMaxAttempts = 4
	// DefaultBaseBackoff is W in spec.md §4.3.
	DefaultBaseBackoff = 100 * time.Millisecond
	// DefaultSocketTimeout is S in spec.md §4.3.
	DefaultSocketTimeout = time.Second
)

// Writer drains one input channel of domain.ShardTask, batches them, and
// bulk-writes to one memcached endpoint via a memcache.BulkStore. One
// Writer is created per (file, device_type); it owns its BulkStore
// exclusively (spec.md §3 Ownership).
type Writer struct {
	DeviceType  string
	Endpoint    string
	Store       memcache.BulkStore
	BatchSize   int
	MaxAttempts int
	BaseBackoff time.Duration
}

// NewWriter builds a Writer with the spec.md §4.3 defaults.
func NewWriter(deviceType, endpoint string, store memcache.BulkStore) *Writer {
	return &Writer{
		DeviceType:  deviceType,
		Endpoint:    endpoint,
		Store:       store,
		BatchSize:   DefaultBatchSize,
		MaxAttempts: DefaultMaxAttempts,
		BaseBackoff: DefaultBaseBackoff,
	}
}

// Run drains tasks until the channel is closed, batching writes of
// BatchSize and flushing a final partial batch at close. It returns the
// accumulated ShardResult for the file.
func (w *Writer) Run(ctx context.Context, tasks <-chan domain.ShardTask) domain.ShardResult {
	var result domain.ShardResult
	pending := make(map[string][]byte, w.BatchSize)

	flush := func() {
		if len(pending) == 0 {
			return
		}
		processed, errs := w.writeBatch(ctx, pending)
		result.Processed += processed
		result.Errors += errs
		pending = make(map[string][]byte, w.BatchSize)
	}

	for task := range tasks {
		pending[task.Encoded.Key] = task.Encoded.Payload
		if len(pending) >= w.BatchSize {
			flush()
		}
	}
	flush()

	return result
}

// writeBatch issues one bulk set, retrying only the failed keys with the
// schedule from retrypolicy, and turns the final batch size into the
// processed/errors counters spec.md §4.3 and §9 Open Question 1 require
// (always the actual pending size, never a hardcoded constant).
func (w *Writer) writeBatch(ctx context.Context, pending map[string][]byte) (processed, errs int) {
	total := len(pending)
	remaining := pending

	policy := retrypolicy.NewWriteBackoff(w.BaseBackoff, w.MaxAttempts)

	var catastrophic error
	notify := func(err error, delay time.Duration) {
		log.Warnf("memcached %s: retrying %d keys after %v: %v", w.Endpoint, len(remaining), delay, err)
	}

	operation := func() error {
		failedKeys, err := w.Store.SetMulti(remaining)
		if err != nil {
			catastrophic = err
			log.Errorf("memcached %s: write failed, counting %d keys as errors: %v", w.Endpoint, len(remaining), err)
			// A catastrophic write failure (spec.md §7): the whole
			// remaining batch counts as errors, no further retry.
			return backoff.Permanent(err)
		}
		if len(failedKeys) == 0 {
			remaining = nil
			return nil
		}
		next := make(map[string][]byte, len(failedKeys))
		for _, key := range failedKeys {
			next[key] = remaining[key]
		}
		remaining = next
		return fmt.Errorf("%d keys failed", len(remaining))
	}

	if err := backoff.RetryNotify(operation, policy, notify); err != nil && catastrophic == nil {
		log.Errorf("cannot write to memcached %s, %d keys exhausted retries", w.Endpoint, len(remaining))
	}

	failedCount := len(remaining)
	return total - failedCount, failedCount
}
