// Package worker buffers collected heads and writes them to the score store
// in batches, so game events never wait on the database:
// - Load shedding when the queue is full
// - Per-player aggregation before each write
// - Graceful shutdown that flushes what is queued

package worker

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Prometheus metrics
var (
	dropsQueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "headdrop_drops_queued_total",
		Help: "Total number of head drops queued for persistence",
	})

	dropsFlushed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "headdrop_drops_flushed_total",
		Help: "Total number of head drops written to the score store",
	})

	dropsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "headdrop_drops_failed_total",
		Help: "Total number of head drops that failed to persist",
	})

	dropsShed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "headdrop_drops_load_shed_total",
		Help: "Total number of head drops dropped because the queue was full",
	})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "headdrop_worker_queue_depth",
		Help: "Current depth of the head drop queue",
	})

	flushDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "headdrop_flush_duration_seconds",
		Help:    "Duration of batched score store writes",
		Buckets: prometheus.DefBuckets,
	})
)

// Incrementer is the write path into the score store.
type Incrementer interface {
	Increment(ctx context.Context, player string, delta int64) error
}

// Drop is one collected head.
type Drop struct {
	Player    string
	Timestamp time.Time
}

// PoolConfig configures the worker pool
type PoolConfig struct {
	WorkerCount   int
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration
	Store         Incrementer
	// OnFlush runs after a batch wrote at least one increment.
	OnFlush func()
	Logger  *zap.Logger
}

// Pool manages a pool of workers persisting head drops
type Pool struct {
	config   PoolConfig
	jobQueue chan Drop
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *zap.SugaredLogger

	// mu guards stopped and the close of jobQueue against concurrent sends.
	mu      sync.RWMutex
	stopped bool
}

// NewPool creates a new worker pool
func NewPool(cfg PoolConfig) *Pool {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Pool{
		config:   cfg,
		jobQueue: make(chan Drop, cfg.QueueSize),
		logger:   cfg.Logger.Sugar(),
	}
}

// Start launches the worker goroutines
func (p *Pool) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)

	for i := 0; i < p.config.WorkerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	go p.reportQueueDepth()

	p.logger.Infow("Worker pool started",
		"workers", p.config.WorkerCount,
		"queueSize", p.config.QueueSize,
		"batchSize", p.config.BatchSize,
	)
}

// Stop closes the queue, waits for workers to flush everything queued and
// then cancels the pool context.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobQueue)
	p.mu.Unlock()

	p.logger.Info("Stopping worker pool...")
	p.wg.Wait()
	if p.cancel != nil {
		p.cancel()
	}
	p.logger.Info("Worker pool stopped")
}

// Record queues a head drop for player. It never blocks: when the queue is
// full or the pool is stopped the drop is shed and false is returned.
func (p *Pool) Record(player string) bool {
	if player == "" {
		return false
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return false
	}

	select {
	case p.jobQueue <- Drop{Player: player, Timestamp: time.Now()}:
		dropsQueued.Inc()
		return true
	default:
		p.logger.Warnw("Head drop queue full, dropping event", "player", player)
		dropsShed.Inc()
		return false
	}
}

// QueueDepth returns current queue size
func (p *Pool) QueueDepth() int {
	return len(p.jobQueue)
}

// worker collects drops and flushes them in batches
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	batch := make([]Drop, 0, p.config.BatchSize)
	ticker := time.NewTicker(p.config.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		start := time.Now()
		written, failed := p.processBatch(batch)
		flushDuration.Observe(time.Since(start).Seconds())
		dropsFlushed.Add(float64(written))
		dropsFailed.Add(float64(failed))

		if failed > 0 {
			p.logger.Errorw("Batch partially failed",
				"worker", id,
				"batchSize", len(batch),
				"failed", failed,
			)
		}
		if written > 0 && p.config.OnFlush != nil {
			p.config.OnFlush()
		}

		batch = batch[:0]
	}

	for {
		select {
		case drop, ok := <-p.jobQueue:
			if !ok {
				flush()
				return
			}
			batch = append(batch, drop)
			if len(batch) >= p.config.BatchSize {
				flush()
			}

		case <-ticker.C:
			flush()
		}
	}
}

// processBatch sums drops per player and issues one increment each. It
// returns how many drops were written and how many failed.
func (p *Pool) processBatch(batch []Drop) (written, failed int) {
	deltas := make(map[string]int64)
	order := make([]string, 0, len(batch))
	for _, d := range batch {
		if _, seen := deltas[d.Player]; !seen {
			order = append(order, d.Player)
		}
		deltas[d.Player]++
	}

	// The parent context may already be canceled during shutdown, so writes
	// get their own deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, player := range order {
		delta := deltas[player]
		if err := p.config.Store.Increment(ctx, player, delta); err != nil {
			p.logger.Warnw("Failed to persist head drops", "player", player, "delta", delta, "error", err)
			failed += int(delta)
			continue
		}
		written += int(delta)
	}
	return written, failed
}

// reportQueueDepth publishes the queue depth until the pool stops
func (p *Pool) reportQueueDepth() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			queueDepth.Set(0)
			return
		case <-ticker.C:
			queueDepth.Set(float64(len(p.jobQueue)))
		}
	}
}
