// Package plugin wires the head drop features together and drives them
// through the host's enable and disable cycle.
package plugin

import (
	"context"
	"errors"
	"net"

	"go.uber.org/zap"

	"github.com/headdrop/leaderboard-web/internal/config"
	"github.com/headdrop/leaderboard-web/internal/handlers"
	"github.com/headdrop/leaderboard-web/internal/logic"
	"github.com/headdrop/leaderboard-web/internal/store"
	"github.com/headdrop/leaderboard-web/internal/web"
	"github.com/headdrop/leaderboard-web/internal/worker"
)

// ErrConfiguration means the leaderboard was enabled without a score store.
var ErrConfiguration = errors.New("web leaderboard requires the database feature to be enabled")

// Plugin owns the score store consumers: the head drop pool and the
// leaderboard server. Enable and Disable are called once each by the host.
type Plugin struct {
	cfg    *config.Config
	store  store.ScoreStore
	logger *zap.SugaredLogger
	zlog   *zap.Logger

	ranker  *logic.CachedRanker
	handler *handlers.Handler
	pool    *worker.Pool
	web     *web.Server
}

// New builds the plugin. st may be nil when the database feature is off.
func New(cfg *config.Config, st store.ScoreStore, logger *zap.Logger) *Plugin {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Plugin{
		cfg:    cfg,
		store:  st,
		logger: logger.Sugar(),
		zlog:   logger,
	}

	if st != nil {
		p.ranker = logic.NewCachedRanker(logic.CachedRankerConfig{
			Source: st,
			TTL:    cfg.SnapshotTTL,
			Logger: logger,
		})
		p.handler = handlers.New(handlers.Config{
			Ranker: p.ranker,
			Store:  st,
			Logger: logger,
		})
	}
	return p
}

// Enable starts head drop recording and, when configured, the leaderboard
// server. A leaderboard that cannot start is logged and left off; the rest
// of the plugin keeps running.
func (p *Plugin) Enable(ctx context.Context) {
	if p.cfg.DatabaseEnable && p.store != nil {
		p.pool = worker.NewPool(worker.PoolConfig{
			WorkerCount:   p.cfg.WorkerCount,
			QueueSize:     p.cfg.QueueSize,
			BatchSize:     p.cfg.BatchSize,
			FlushInterval: p.cfg.FlushInterval,
			Store:         p.store,
			OnFlush:       p.ranker.Invalidate,
			Logger:        p.zlog,
		})
		p.pool.Start(ctx)
	}

	if err := p.startWebServer(); err != nil {
		p.logger.Errorw("Failed to start the leaderboard web server", "port", p.cfg.WebPort, "error", err)
	}
}

func (p *Plugin) startWebServer() error {
	if !p.cfg.WebEnable {
		return nil
	}
	if !p.cfg.DatabaseEnable || p.store == nil {
		return ErrConfiguration
	}

	srv := web.New(web.Config{
		Endpoint:       p.cfg.WebEndpoint,
		AllowedOrigins: p.cfg.AllowedOrigins,
		Handler:        p.handler,
		Logger:         p.zlog,
	})
	if err := srv.Start(p.cfg.WebPort); err != nil {
		return err
	}
	p.web = srv
	p.logger.Infow("Leaderboard is online", "port", p.cfg.WebPort, "endpoint", "/"+p.cfg.WebEndpoint)
	return nil
}

// Disable stops the leaderboard server that Enable started and flushes any
// queued head drops.
func (p *Plugin) Disable() {
	if p.web != nil {
		if err := p.web.Stop(); err != nil {
			p.logger.Warnw("Failed to stop the leaderboard web server", "error", err)
		}
		p.web = nil
	}
	if p.pool != nil {
		p.pool.Stop()
		p.pool = nil
	}
}

// RecordHeadDrop queues a collected head for player. It reports false when
// persistence is off or the queue is full.
func (p *Plugin) RecordHeadDrop(player string) bool {
	if p.pool == nil {
		return false
	}
	return p.pool.Record(player)
}

// WebRunning reports whether the leaderboard server is serving.
func (p *Plugin) WebRunning() bool {
	return p.web != nil && p.web.Running()
}

// WebAddr returns the leaderboard listener address, or nil.
func (p *Plugin) WebAddr() net.Addr {
	if p.web == nil {
		return nil
	}
	return p.web.Addr()
}

// Handler exposes the HTTP handlers for the admin listener. It is nil when
// the database feature is off.
func (p *Plugin) Handler() *handlers.Handler {
	return p.handler
}
