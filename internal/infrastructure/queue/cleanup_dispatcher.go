package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinictrack/user-service/internal/core/ports"
	"github.com/clinictrack/user-service/internal/pkg/metrics"
)

const (
	defaultWorkers = 2
	channelBuffer  = 256
	deleteTimeout  = 30 * time.Second
)

// CleanupDispatcher removes stored objects that no account references any
// more. Jobs are sharded by user id so removals for one account run in order.
type CleanupDispatcher struct {
	workers []chan ports.CleanupJob
	storage ports.ObjectStorage
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewCleanupDispatcher creates a dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewCleanupDispatcher(numWorkers int, storage ports.ObjectStorage, log zerolog.Logger) *CleanupDispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &CleanupDispatcher{
		workers: make([]chan ports.CleanupJob, numWorkers),
		storage: storage,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.CleanupJob, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *CleanupDispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *CleanupDispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue hands a job to the worker owning its user id. It never blocks the
// caller; when that worker's buffer is full the job is dropped and logged.
func (d *CleanupDispatcher) Enqueue(job ports.CleanupJob) {
	idx := d.shardIndex(job.UserID)
	select {
	case d.workers[idx] <- job:
		metrics.CleanupQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
	default:
		metrics.CleanupErrorsTotal.Inc()
		d.log.Warn().
			Str("user_id", job.UserID).
			Str("key", job.Key).
			Int("worker_id", idx).
			Msg("cleanup queue full, dropping job")
	}
}

// shardIndex maps a user id deterministically to a worker index.
func (d *CleanupDispatcher) shardIndex(userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *CleanupDispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.CleanupJob) {
	defer d.wg.Done()
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-ch:
			if !ok {
				return
			}
			metrics.CleanupQueueDepth.WithLabelValues(label).Dec()
			d.remove(ctx, id, job)
		}
	}
}

func (d *CleanupDispatcher) remove(ctx context.Context, workerID int, job ports.CleanupJob) {
	ctx, cancel := context.WithTimeout(ctx, deleteTimeout)
	defer cancel()

	if err := d.storage.Delete(ctx, job.Key); err != nil {
		metrics.CleanupErrorsTotal.Inc()
		d.log.Error().Err(err).
			Str("user_id", job.UserID).
			Str("key", job.Key).
			Int("worker_id", workerID).
			Msg("object removal failed")
		return
	}
	d.log.Debug().Str("key", job.Key).Int("worker_id", workerID).Msg("orphaned object removed")
}
