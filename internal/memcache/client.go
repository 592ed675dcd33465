// Package memcache adapts github.com/bradfitz/gomemcache/memcache — the
// memcached client transport spec.md §6 treats as an external collaborator
// ("assumed to provide connect, set_multi(map)->failed_keys, timeout
// configuration") — into the BulkStore interface the shard writer
// consumes. gomemcache exposes per-key Set/Get but no native multi-key
// call, so SetMulti below loops client-side and reports back exactly the
// keys that failed, which is the contract the shard writer's retry loop
// needs.
package memcache

import (
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

// BulkStore is the subset of a memcached client the shard writer needs:
// a bulk write that reports which keys, if any, failed.
type BulkStore interface {
	SetMulti(items map[string][]byte) (failedKeys []string, err error)
}

// GomemcacheStore is the production BulkStore backed by one gomemcache
// client connection. One instance is owned by exactly one shard writer
// (spec.md §3 Ownership), never shared across shard writers.
type GomemcacheStore struct {
	client *memcache.Client
}

// NewGomemcacheStore opens one client connection to endpoint with the
// given per-call socket timeout.
func NewGomemcacheStore(endpoint string, socketTimeout time.Duration) *GomemcacheStore {
	client := memcache.New(endpoint)
	client.Timeout = socketTimeout
	return &GomemcacheStore{client: client}
}

// SetMulti writes every item, returning the keys that failed. A
// connection failure fails every remaining key in the batch rather than
// aborting the call, so the caller always gets a complete failed-key list
// to retry against.
func (s *GomemcacheStore) SetMulti(items map[string][]byte) ([]string, error) {
	var failed []string
	for key, payload := range items {
		item := &memcache.Item{Key: key, Value: payload}
		if err := s.client.Set(item); err != nil {
			failed = append(failed, key)
		}
	}
	return failed, nil
}
