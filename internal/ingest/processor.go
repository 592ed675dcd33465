// Package ingest implements the per-file state machine (spec.md §4.4:
// Opening -> Dispatching -> Draining -> Deciding -> Done) and the
// dispatcher that runs it across the discovered input files (spec.md
// §4.5). This is the generalization of the teacher repo's FileService:
// where FileService shards one file's bytes via Reed-Solomon and
// distributes the shards across storage buckets with a Placer, Processor
// shards one file's lines by device_type and distributes them across
// memcached endpoints with a routing.Router.
package ingest

import (
	"bufio"
	"compress/gzip"
	"context"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vasyanch/memcload/internal/codec"
	"github.com/vasyanch/memcload/internal/domain"
	apperrors "github.com/vasyanch/memcload/internal/errors"
	"github.com/vasyanch/memcload/internal/memcache"
	"github.com/vasyanch/memcload/internal/parser"
	"github.com/vasyanch/memcload/internal/routing"
	"github.com/vasyanch/memcload/internal/shard"
)

// shardQueueCapacity bounds each shard writer's task channel so the
// single-threaded line reader can never starve it, but also never grows
// the process's memory unboundedly (spec.md §9 Open Question 3: an
// explicit bound, chosen at 10^5, over "unbounded" or the source's 10^6).
const shardQueueCapacity = 100_000

// AcceptableErrRate is the threshold spec.md calls NORMAL_ERR_RATE.
const AcceptableErrRate = 0.01

// NewBulkStore builds the memcache.BulkStore for one shard writer's
// endpoint. Each shard writer owns its store exclusively (spec.md §3).
type NewBulkStore func(endpoint string, socketTimeout time.Duration) memcache.BulkStore

// Processor runs the Opening -> Dispatching -> Draining -> Deciding
// state machine for one input file.
type Processor struct {
	Router        routing.Router
	NewBulkStore  NewBulkStore
	Dry           bool
	SocketTimeout time.Duration
}

// NewProcessor builds a Processor backed by the production memcache
// adapter.
func NewProcessor(router routing.Router, dry bool) *Processor {
	return &Processor{
		Router: router,
		NewBulkStore: func(endpoint string, timeout time.Duration) memcache.BulkStore {
			return memcache.NewGomemcacheStore(endpoint, timeout)
		},
		Dry:           dry,
		SocketTimeout: shard.DefaultSocketTimeout,
	}
}

// ProcessFile runs the full state machine for path and returns its
// outcome. A non-nil error means the file could not even be opened
// (Opening failed); the dispatcher must not rename such a file.
func (p *Processor) ProcessFile(ctx context.Context, path string) (domain.FileOutcome, error) {
	outcome := domain.FileOutcome{Path: path}

	// Opening.
	f, err := os.Open(path)
	if err != nil {
		return outcome, apperrors.UnopenableFileError(path, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return outcome, apperrors.UnopenableFileError(path, err)
	}
	defer gz.Close()

	log.Infof("Processing %s", path)

	// Dispatching: one channel and one shard writer per known device
	// type, regardless of whether this file contains any records for it.
	deviceTypes := p.Router.ListDeviceTypes()
	channels := make(map[string]chan domain.ShardTask, len(deviceTypes))
	resultsCh := make(chan domain.ShardResult, len(deviceTypes))

	for _, deviceType := range deviceTypes {
		endpoint, err := p.Router.Endpoint(deviceType)
		if err != nil {
			// Unreachable: deviceType came from the router's own list.
			continue
		}
		ch := make(chan domain.ShardTask, shardQueueCapacity)
		channels[deviceType] = ch

		writer := shard.NewWriter(deviceType, endpoint, p.NewBulkStore(endpoint, p.SocketTimeout))
		go func(w *shard.Writer, tasks chan domain.ShardTask) {
			resultsCh <- w.Run(ctx, tasks)
		}(writer, ch)
	}

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var errors int
	for scanner.Scan() {
		rec, ok, err := parser.Parse(scanner.Text())
		if err != nil {
			errors++
			continue
		}
		if !ok {
			continue
		}

		ch, known := channels[rec.DeviceType]
		if !known {
			errors++
			log.Errorf("Unknown device type: %s", rec.DeviceType)
			continue
		}

		encoded := codec.Encode(rec)
		if p.Dry {
			log.Debugf("%s - %s -> %s", rec.DeviceType, encoded.Key, encoded.DebugForm)
			continue
		}
		ch <- domain.ShardTask{Encoded: encoded}
	}
	if err := scanner.Err(); err != nil {
		log.Errorf("error reading %s: %v", path, err)
	}

	// Draining: close every channel so its writer flushes and returns,
	// then collect every ShardResult.
	for _, ch := range channels {
		close(ch)
	}
	var processed int
	for range channels {
		res := <-resultsCh
		processed += res.Processed
		errors += res.Errors
	}

	// Deciding.
	outcome.Processed = processed
	outcome.Errors = errors
	outcome.Accepted = processed > 0 && float64(errors)/float64(processed) < AcceptableErrRate

	if outcome.Accepted {
		log.Infof("Acceptable error rate (%.4f). Successful load: %s", safeErrRate(outcome), path)
	} else if processed > 0 {
		log.Errorf("High error rate (%.4f > %.2f). Failed load: %s", safeErrRate(outcome), AcceptableErrRate, path)
	}

	return outcome, nil
}

func safeErrRate(o domain.FileOutcome) float64 {
	if o.Processed == 0 {
		return 0
	}
	return o.ErrRate()
}

