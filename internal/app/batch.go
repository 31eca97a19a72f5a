package app

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/okian/diabrisk/internal/adapters/mq/queue"
	"github.com/okian/diabrisk/internal/adapters/mq/worker"
	"github.com/okian/diabrisk/internal/domain/model"
	"github.com/okian/diabrisk/internal/domain/scoring"
	"github.com/okian/diabrisk/pkg/logger"
)

// Default batch settings.
const (
	defaultQueueSize = 1024
	stopTimeout      = 5 * time.Second
)

// BatchScorer scores many entries concurrently through a bounded queue and
// a worker pool sharing one scorer.
type BatchScorer struct {
	scorer      scoring.Scorer
	workerCount int
	queueSize   int
	logger      logger.Logger
}

// BatchOption configures a BatchScorer.
type BatchOption func(*BatchScorer)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) BatchOption {
	return func(b *BatchScorer) {
		if count > 0 {
			b.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of buffered jobs.
func WithQueueSize(size int) BatchOption {
	return func(b *BatchScorer) {
		if size > 0 {
			b.queueSize = size
		}
	}
}

// WithBatchLogger sets a custom logger.
func WithBatchLogger(l logger.Logger) BatchOption {
	return func(b *BatchScorer) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBatchScorer constructs a batch scorer over s.
func NewBatchScorer(s scoring.Scorer, opts ...BatchOption) *BatchScorer {
	b := &BatchScorer{
		scorer:      s,
		workerCount: runtime.NumCPU(),
		queueSize:   defaultQueueSize,
		logger:      logger.Get().Named("batch"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ScoreAll scores every job and returns one result per job ordered by row.
// Rows that fail validation carry their error in the result; the returned
// error is only set when the run itself could not finish.
func (b *BatchScorer) ScoreAll(ctx context.Context, jobs []model.ScoreJob) ([]model.ScoreResult, error) {
	if b.scorer == nil {
		return nil, ErrModelNotLoaded
	}

	var mu sync.Mutex
	results := make([]model.ScoreResult, 0, len(jobs))
	sink := worker.SinkFunc(func(_ context.Context, r model.ScoreResult) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	q := queue.NewInMemoryQueue(queue.WithCapacity(b.queueSize))
	pool := worker.NewPool(b.workerCount, q, b.scorer, sink, worker.WithLogger(b.logger))
	pool.Start(runCtx)

	for i := range jobs {
		if err := q.Put(runCtx, jobs[i]); err != nil {
			cancel()
			b.stop(ctx, pool)
			return nil, fmt.Errorf("enqueue row %d: %w", jobs[i].Row, err)
		}
	}
	if err := pool.Drain(ctx); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Job.Row < results[j].Job.Row })

	failed := 0
	for i := range results {
		if results[i].Err != nil {
			failed++
		}
	}
	b.logger.Info(ctx, "batch scored",
		logger.Int("rows", len(results)),
		logger.Int("failed", failed),
		logger.Int("workers", pool.Size()),
	)
	return results, nil
}

// stop waits for the pool's workers to return after the run was canceled.
func (b *BatchScorer) stop(ctx context.Context, pool *worker.Pool) {
	stopCtx, done := context.WithTimeout(context.WithoutCancel(ctx), stopTimeout)
	defer done()
	if err := pool.Shutdown(stopCtx); err != nil {
		b.logger.Warn(ctx, "batch workers did not stop", logger.Error(err))
	}
}
