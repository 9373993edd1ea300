// Package service provides the ingest service that implements the
// dependencies required by the HTTP API and feeds the silver workers.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ironforge/raidlake/internal/adapters/codec"
	"github.com/ironforge/raidlake/internal/adapters/http/api"
	eventqueue "github.com/ironforge/raidlake/internal/adapters/mq/queue"
	workerpool "github.com/ironforge/raidlake/internal/adapters/mq/worker"
	"github.com/ironforge/raidlake/internal/adapters/storage"
	"github.com/ironforge/raidlake/internal/domain/batch"
	"github.com/ironforge/raidlake/internal/domain/silver"
	"github.com/ironforge/raidlake/internal/etl"
	"github.com/ironforge/raidlake/pkg/logger"
	"github.com/ironforge/raidlake/pkg/metrics"
)

// Service accepts event batches, lands them in bronze and hands them
// to the silver transform workers.
type Service struct {
	mu sync.RWMutex

	// Core components
	store       storage.ObjectStore
	gate        *batch.Gate
	queue       eventqueue.Queue
	workerPool  *workerpool.Pool
	broadcaster *api.Broadcaster

	// Configuration
	bronzeBucket        string
	silverBucket        string
	maxEventsPerBatch   int
	queueSize           int
	workerCount         int
	massiveHitThreshold float64
	streamBuffer        int

	// Stats
	startTime        time.Time
	batchesAccepted  atomic.Int64
	batchesRejected  atomic.Int64
	eventsIngested   atomic.Int64
	eventsRejected   atomic.Int64

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the object store backing all tiers.
func WithStore(store storage.ObjectStore) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithBuckets sets the bronze and silver bucket names.
func WithBuckets(bronze, silver string) Option {
	return func(s *Service) {
		if bronze != "" {
			s.bronzeBucket = bronze
		}
		if silver != "" {
			s.silverBucket = silver
		}
	}
}

// WithMaxEventsPerBatch caps the batch size accepted by the gate.
func WithMaxEventsPerBatch(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxEventsPerBatch = n
		}
	}
}

// WithQueueSize sets the maximum size of the silver transform queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithWorkerCount sets the number of silver transform workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithMassiveHitThreshold sets the damage amount above which a hit is
// flagged as massive.
func WithMassiveHitThreshold(threshold float64) Option {
	return func(s *Service) {
		if threshold > 0 {
			s.massiveHitThreshold = threshold
		}
	}
}

// WithStreamBuffer sets the per-subscriber buffer of the live batch
// feed.
func WithStreamBuffer(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.streamBuffer = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		bronzeBucket:        "bronze",
		silverBucket:        "silver",
		maxEventsPerBatch:   10_000,
		queueSize:           10_000,
		workerCount:         runtime.NumCPU() * 2,
		massiveHitThreshold: 10_000,
		streamBuffer:        256,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.store == nil {
		return fmt.Errorf("ingest service needs an object store")
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting ingest service...")

	for _, bucket := range []string{s.bronzeBucket, s.silverBucket} {
		if err := s.store.EnsureBucket(ctx, bucket); err != nil {
			return fmt.Errorf("ensure bucket %s: %w", bucket, err)
		}
	}

	s.gate = batch.NewGate(batch.WithMaxEvents(s.maxEventsPerBatch))
	s.queue = eventqueue.NewInMemoryQueue(
		eventqueue.WithCapacity(s.queueSize),
	)
	s.broadcaster = api.NewBroadcaster(s.streamBuffer)

	runner := etl.NewSilverRunner(
		s.store,
		s.bronzeBucket,
		s.silverBucket,
		silver.NewTransformer(silver.WithMassiveHitThreshold(s.massiveHitThreshold)),
	)
	s.workerPool = workerpool.NewPool(s.workerCount, s.queue, runner)
	s.workerPool.Start(ctx)

	s.startTime = time.Now()
	s.started = true
	s.logger.Info(ctx, "ingest service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("maxEventsPerBatch", s.maxEventsPerBatch),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping ingest service...")

	if s.workerPool != nil {
		_ = s.workerPool.Shutdown(ctx)
	}
	if s.broadcaster != nil {
		s.broadcaster.Close()
	}

	s.started = false
	s.logger.Info(ctx, "ingest service stopped")
}

// Broadcaster exposes the live batch feed for the HTTP layer.
func (s *Service) Broadcaster() *api.Broadcaster {
	return s.broadcaster
}

// Ingest validates a submitted batch, lands it in bronze and queues
// its silver transform. On rejection the per-index failures come back
// with batch.ErrBatchRejected.
func (s *Service) Ingest(ctx context.Context, records []map[string]any) (*batch.Envelope, []batch.IndexedViolations, error) {
	env, failures, err := s.gate.Admit(records)
	if err != nil {
		s.batchesRejected.Add(1)
		s.eventsRejected.Add(int64(len(failures)))
		metrics.RecordBatchRejected()
		metrics.RecordValidationErrors(len(failures))
		return nil, failures, err
	}

	body, err := codec.EncodeBronze(env)
	if err != nil {
		return nil, nil, fmt.Errorf("encode batch %s: %w", env.BatchID, err)
	}

	ingestDate := env.IngestTimestamp.UTC().Format("2006-01-02")
	objectName := storage.BronzeBatchPath(env.RaidID(), ingestDate, env.BatchID)
	if err := s.store.Put(ctx, s.bronzeBucket, objectName, body, "application/json"); err != nil {
		metrics.RecordObjectWriteFailure()
		return nil, nil, fmt.Errorf("land batch %s: %w", env.BatchID, err)
	}

	env.StoragePath = objectName
	s.batchesAccepted.Add(1)
	s.eventsIngested.Add(int64(env.EventCount))
	metrics.RecordBatchAccepted()
	metrics.RecordEventsValidated(env.EventCount)

	// Bronze is the source of truth; a full queue only delays the
	// silver transform, which the ETL CLI can replay later.
	if ok := s.queue.Enqueue(ctx, eventqueue.Message{
		ObjectName: objectName,
		RaidID:     env.RaidID(),
		IngestDate: ingestDate,
		BatchID:    env.BatchID,
	}); !ok {
		s.logger.Warn(ctx, "silver queue full, batch left for replay",
			logger.String("batch_id", env.BatchID),
		)
	}

	s.broadcaster.Publish(api.BatchNotice{
		BatchID:         env.BatchID,
		RaidID:          env.RaidID(),
		EventCount:      env.EventCount,
		IngestTimestamp: env.IngestTimestamp,
	})

	return env, nil, nil
}

// GetStats returns the current operational snapshot for the stats
// endpoint.
func (s *Service) GetStats() api.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := api.Stats{
		Service:         "raidlake-ingest",
		Started:         s.started,
		BatchesAccepted: s.batchesAccepted.Load(),
		BatchesRejected: s.batchesRejected.Load(),
		EventsIngested:  s.eventsIngested.Load(),
		EventsRejected:  s.eventsRejected.Load(),
		WorkerCount:     s.workerCount,
	}
	if s.started {
		stats.UptimeSeconds = int64(time.Since(s.startTime).Seconds())
		stats.QueueLength = s.queue.Len(context.Background())
	}
	return stats
}
