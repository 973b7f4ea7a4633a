package handlers

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/headdrop/leaderboard-web/internal/logic"
)

// Pinger reports whether the score store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	Ranker logic.Ranker
	Store  Pinger
	Logger *zap.Logger
	// Now stamps the page footer; defaults to time.Now.
	Now func() time.Time
}

type Handler struct {
	ranker logic.Ranker
	store  Pinger
	logger *zap.SugaredLogger
	now    func() time.Time
}

func New(cfg Config) *Handler {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Handler{
		ranker: cfg.Ranker,
		store:  cfg.Store,
		logger: cfg.Logger.Sugar(),
		now:    cfg.Now,
	}
}
