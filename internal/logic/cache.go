package logic

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/headdrop/leaderboard-web/internal/models"
)

var (
	snapshotDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "headdrop_store_snapshot_duration_seconds",
		Help:    "Duration of score store snapshot reads",
		Buckets: prometheus.DefBuckets,
	})

	snapshotCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "headdrop_snapshot_cache_hits_total",
		Help: "Leaderboard requests served from the cached ranked snapshot",
	})
)

// refreshTimeout bounds a shared snapshot refresh.
const refreshTimeout = 10 * time.Second

// CachedRankerConfig configures a CachedRanker.
type CachedRankerConfig struct {
	Source ScoreSource
	// TTL is how long a ranked snapshot is reused. Zero or less re-reads the
	// store and re-ranks on every call.
	TTL    time.Duration
	Logger *zap.Logger
	Now    func() time.Time
}

// CachedRanker reads and ranks the score store, optionally reusing the last
// ranked snapshot for TTL. Concurrent refreshes share one store read.
type CachedRanker struct {
	source ScoreSource
	ttl    time.Duration
	now    func() time.Time
	logger *zap.SugaredLogger
	group  singleflight.Group

	mu         sync.RWMutex
	cached     models.Snapshot
	expires    time.Time
	generation uint64
}

// NewCachedRanker creates a ranker over cfg.Source.
func NewCachedRanker(cfg CachedRankerConfig) *CachedRanker {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &CachedRanker{
		source: cfg.Source,
		ttl:    cfg.TTL,
		now:    cfg.Now,
		logger: cfg.Logger.Sugar(),
	}
}

// Ranked returns the current leaderboard. The result is shared between
// callers when caching is on and must be treated as read-only.
func (c *CachedRanker) Ranked(ctx context.Context) (models.Snapshot, error) {
	if c.ttl <= 0 {
		return c.load(ctx)
	}

	c.mu.RLock()
	if c.cached != nil && c.now().Before(c.expires) {
		snapshot := c.cached
		c.mu.RUnlock()
		snapshotCacheHits.Inc()
		return snapshot, nil
	}
	generation := c.generation
	c.mu.RUnlock()

	ch := c.group.DoChan("snapshot", func() (interface{}, error) {
		// The refresh is shared, so one caller going away must not cancel it.
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()

		snapshot, err := c.load(loadCtx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		// An Invalidate during the read means the data may already be stale.
		if c.generation == generation {
			c.cached = snapshot
			c.expires = c.now().Add(c.ttl)
		}
		c.mu.Unlock()
		return snapshot, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(models.Snapshot), nil
	}
}

// Invalidate drops the cached snapshot so the next call reads the store.
func (c *CachedRanker) Invalidate() {
	c.mu.Lock()
	c.cached = nil
	c.expires = time.Time{}
	c.generation++
	c.mu.Unlock()
}

func (c *CachedRanker) load(ctx context.Context) (models.Snapshot, error) {
	start := time.Now()
	scores, err := c.source.Snapshot(ctx)
	snapshotDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.logger.Errorw("Failed to read score snapshot", "error", err)
		return nil, fmt.Errorf("read score snapshot: %w", err)
	}
	return Rank(scores), nil
}
