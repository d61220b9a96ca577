// Package async runs scans in the background with a bounded worker pool.
// The hot-folder watcher and batch ingestion feed it image paths.
package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/solvi-app/vatscan/internal/entity"
)

// Job is one image waiting to be scanned.
type Job struct {
	ImagePath   string
	SubmittedAt time.Time
}

// Scanner is the slice of the pipeline the queue drives.
type Scanner interface {
	ProcessImage(ctx context.Context, imagePath string) (*entity.InvoiceRecord, error)
}

type ScanQueue struct {
	scanner Scanner
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*ScanQueue)

func WithWorkers(n int) Option {
	return func(q *ScanQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *ScanQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func WithScanTimeout(d time.Duration) Option {
	return func(q *ScanQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewScanQueue(scanner Scanner, logger *slog.Logger, opts ...Option) *ScanQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ScanQueue{
		scanner: scanner,
		logger:  logger,
		workers: 4,
		timeout: 3 * time.Minute,
		ch:      make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ScanQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("async.worker.started", "worker_id", workerID)

				for job := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					rec, err := q.scanner.ProcessImage(ctx, job.ImagePath)
					cancel()

					if err != nil {
						q.logger.Error("async.scan.failed",
							"worker_id", workerID, "path", job.ImagePath, "error", err)
					} else {
						q.logger.Info("async.scan.ok",
							"worker_id", workerID, "path", job.ImagePath, "id", rec.ID,
							"wait_ms", time.Since(job.SubmittedAt).Milliseconds())
					}
				}

				q.logger.Debug("async.worker.stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

// Enqueue blocks when the queue is full; enqueueing after Shutdown is a no-op.
func (q *ScanQueue) Enqueue(_ context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("async.enqueue.rejected", "path", job.ImagePath)
		return nil
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	select {
	case q.ch <- job:
	default:
		q.logger.Warn("async.queue.full", "path", job.ImagePath)
		q.ch <- job
	}
	return nil
}

// Shutdown stops intake and waits for in-flight scans, up to ctx.
func (q *ScanQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-done:
	case <-ctx.Done():
		q.logger.Warn("async.shutdown.timeout")
	}
}
