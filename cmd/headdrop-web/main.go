// Command headdrop-web runs the head drop leaderboard outside a game server:
// it opens the score store, enables the plugin and serves metrics and health
// probes on a separate admin port until interrupted.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/headdrop/leaderboard-web/internal/config"
	"github.com/headdrop/leaderboard-web/internal/plugin"
	"github.com/headdrop/leaderboard-web/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("headdrop-web exited", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var st store.ScoreStore
	if cfg.DatabaseEnable {
		openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		var err error
		st, err = store.Open(openCtx, cfg.StoreURL, logger)
		cancel()
		if err != nil {
			return fmt.Errorf("open score store: %w", err)
		}
		defer st.Close()
	}

	p := plugin.New(cfg, st, logger)
	p.Enable(ctx)
	defer p.Disable()

	g, ctx := errgroup.WithContext(ctx)
	if cfg.AdminPort > 0 {
		admin := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.AdminPort),
			Handler:           adminRoutes(p),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Sugar().Infow("Admin server listening", "port", cfg.AdminPort)
			if err := admin.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("admin server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return admin.Shutdown(shutdownCtx)
		})
	} else {
		g.Go(func() error {
			<-ctx.Done()
			return nil
		})
	}

	err := g.Wait()
	logger.Info("Shutting down")
	return err
}

func adminRoutes(p *plugin.Plugin) http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	if h := p.Handler(); h != nil {
		r.Get("/healthz", h.Health)
		r.Get("/readyz", h.Ready)
	} else {
		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	}
	return r
}
