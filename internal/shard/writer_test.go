package shard

import (
	"context"
	"testing"
	"time"

	"github.com/vasyanch/memcload/internal/domain"
)

// fakeStore is a hand-rolled BulkStore fake, in the teacher repo's mock
// style (tests/service/file_service_test.go): a function field per call
// the test wants to control.
type fakeStore struct {
	setMultiFunc func(items map[string][]byte) ([]string, error)
	calls        int
}

func (f *fakeStore) SetMulti(items map[string][]byte) ([]string, error) {
	f.calls++
	return f.setMultiFunc(items)
}

func sendTasks(keys ...string) chan domain.ShardTask {
	ch := make(chan domain.ShardTask, len(keys))
	for _, k := range keys {
		ch <- domain.ShardTask{Encoded: domain.EncodedRecord{Key: k, Payload: []byte("x")}}
	}
	close(ch)
	return ch
}

func TestWriterCleanBatch(t *testing.T) {
	store := &fakeStore{setMultiFunc: func(items map[string][]byte) ([]string, error) {
		return nil, nil
	}}
	w := NewWriter("idfa", "127.0.0.1:33013", store)
	w.BaseBackoff = time.Millisecond

	result := w.Run(context.Background(), sendTasks("idfa:d1", "idfa:d2"))
	if result.Processed != 2 || result.Errors != 0 {
		t.Fatalf("got %+v", result)
	}
}

func TestWriterTransientFailureThenSuccess(t *testing.T) {
	attempt := 0
	store := &fakeStore{setMultiFunc: func(items map[string][]byte) ([]string, error) {
		attempt++
		if attempt == 1 {
			return []string{"idfa:d1"}, nil
		}
		return nil, nil
	}}
	w := NewWriter("idfa", "127.0.0.1:33013", store)
	w.BaseBackoff = time.Millisecond

	result := w.Run(context.Background(), sendTasks("idfa:d1"))
	if result.Processed != 1 || result.Errors != 0 {
		t.Fatalf("got %+v", result)
	}
	if attempt != 2 {
		t.Fatalf("attempts = %d, want 2", attempt)
	}
}

func TestWriterExhaustedRetriesCountAsErrors(t *testing.T) {
	store := &fakeStore{setMultiFunc: func(items map[string][]byte) ([]string, error) {
		failed := make([]string, 0, len(items))
		for k := range items {
			failed = append(failed, k)
		}
		return failed, nil
	}}
	w := NewWriter("gaid", "127.0.0.1:33014", store)
	w.BaseBackoff = time.Millisecond
	w.MaxAttempts = 3

	result := w.Run(context.Background(), sendTasks("gaid:d1"))
	if result.Processed != 0 || result.Errors != 1 {
		t.Fatalf("got %+v", result)
	}
	if store.calls != 3 {
		t.Fatalf("calls = %d, want 3", store.calls)
	}
}

func TestWriterCatastrophicFailureCountsWholeBatch(t *testing.T) {
	store := &fakeStore{setMultiFunc: func(items map[string][]byte) ([]string, error) {
		return nil, context.DeadlineExceeded
	}}
	w := NewWriter("adid", "127.0.0.1:33015", store)
	w.BaseBackoff = time.Millisecond

	result := w.Run(context.Background(), sendTasks("adid:d1", "adid:d2"))
	if result.Errors != 2 || result.Processed != 0 {
		t.Fatalf("got %+v", result)
	}
	if store.calls != 1 {
		t.Fatalf("calls = %d, want 1 (no retry on catastrophic failure)", store.calls)
	}
}

func TestWriterBatchesAtBatchSize(t *testing.T) {
	var batchSizes []int
	store := &fakeStore{setMultiFunc: func(items map[string][]byte) ([]string, error) {
		batchSizes = append(batchSizes, len(items))
		return nil, nil
	}}
	w := NewWriter("dvid", "127.0.0.1:33016", store)
	w.BatchSize = 2
	w.BaseBackoff = time.Millisecond

	result := w.Run(context.Background(), sendTasks("dvid:1", "dvid:2", "dvid:3"))
	if result.Processed != 3 {
		t.Fatalf("got %+v", result)
	}
	if len(batchSizes) != 2 || batchSizes[0] != 2 || batchSizes[1] != 1 {
		t.Fatalf("batchSizes = %v, want [2 1]", batchSizes)
	}
}
