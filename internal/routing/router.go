// Package routing distributes appsinstalled records across memcached
// endpoints by device type.
//
// This is the generalization of the teacher repo's placement package: that
// package round-robins interchangeable erasure-coded shards across
// fungible storage buckets; here the mapping is fixed and semantic, not
// round-robin — each device_type (idfa, gaid, adid, dvid) owns exactly one
// memcached endpoint for the lifetime of a run, matching spec.md §3's
// DeviceRouting entity and §6's per-device-type CLI flags.
//
// Architecture Role:
// The router sits between the file processor (business logic) and the
// memcache client factory (transport). It abstracts away which concrete
// endpoint a device_type maps to so the file processor only ever thinks in
// terms of device types.
package routing

import (
	"sync"

	"github.com/vasyanch/memcload/internal/domain"
	apperrors "github.com/vasyanch/memcload/internal/errors"
)

// Router resolves a device_type to its memcached endpoint address.
//
// Implementations must be thread-safe: every file processor calls
// ListDeviceTypes and Endpoint once per file to spawn its shard writers,
// and the dispatcher runs several file processors concurrently.
type Router interface {
	// Endpoint returns the "host:port" address registered for deviceType.
	Endpoint(deviceType string) (string, error)

	// ListDeviceTypes returns all registered device types.
	ListDeviceTypes() []string
}

// StaticRouter implements Router over a fixed routing table built once
// from CLI flags (spec.md's DeviceRouting).
type StaticRouter struct {
	mu        sync.RWMutex
	endpoints map[string]string
	order     []string
}

// NewStaticRouter builds a Router from a DeviceRouting table.
func NewStaticRouter(routing domain.DeviceRouting) *StaticRouter {
	r := &StaticRouter{
		endpoints: make(map[string]string, len(routing)),
		order:     make([]string, 0, len(routing)),
	}
	for deviceType, endpoint := range routing {
		r.endpoints[deviceType] = endpoint
		r.order = append(r.order, deviceType)
	}
	return r
}

// Endpoint returns the memcached address for deviceType.
func (r *StaticRouter) Endpoint(deviceType string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	endpoint, ok := r.endpoints[deviceType]
	if !ok {
		return "", apperrors.UnknownDeviceTypeError(deviceType)
	}
	return endpoint, nil
}

// ListDeviceTypes returns all registered device types.
func (r *StaticRouter) ListDeviceTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, len(r.order))
	copy(types, r.order)
	return types
}
