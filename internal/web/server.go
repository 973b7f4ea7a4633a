// Package web runs the leaderboard HTTP endpoint.
package web

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/headdrop/leaderboard-web/internal/handlers"
)

var serverUp = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "headdrop_web_server_up",
	Help: "1 while the leaderboard listener is accepting connections",
})

// ErrAlreadyRunning is returned by Start on a running server.
var ErrAlreadyRunning = errors.New("leaderboard server already running")

// BindError reports that the listener could not be opened.
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("bind leaderboard listener on %s: %v", e.Addr, e.Err)
}

func (e *BindError) Unwrap() error { return e.Err }

// Config describes the leaderboard endpoint.
type Config struct {
	// Endpoint is the route path without the leading slash, e.g. "leaderboard".
	Endpoint       string
	AllowedOrigins []string
	Handler        *handlers.Handler
	Logger         *zap.Logger
}

// Server owns the leaderboard listener. One Server value is started and
// later stopped; Start and Stop must not be called concurrently.
type Server struct {
	cfg    Config
	logger *zap.SugaredLogger

	httpServer *http.Server
	listener   net.Listener
}

func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	cfg.Endpoint = strings.Trim(cfg.Endpoint, "/")
	return &Server{
		cfg:    cfg,
		logger: cfg.Logger.Sugar(),
	}
}

// Routes builds the router. GET /<endpoint> and anything below it render
// the leaderboard; nothing else is served.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(handlers.RequestLogger(s.cfg.Logger))
	r.Use(middleware.Recoverer)

	if len(s.cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet},
			MaxAge:         300,
		}))
	}

	path := "/" + s.cfg.Endpoint
	r.Get(path, s.cfg.Handler.GetLeaderboard)
	r.Get(path+"/*", s.cfg.Handler.GetLeaderboard)
	return r
}

// Start binds 0.0.0.0:port and serves in the background. A port that cannot
// be bound yields a *BindError and leaves the server stopped.
func (s *Server) Start(port int) error {
	if s.httpServer != nil {
		return ErrAlreadyRunning
	}

	addr := net.JoinHostPort("0.0.0.0", strconv.Itoa(port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return &BindError{Addr: addr, Err: err}
	}

	srv := &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          zap.NewStdLog(s.cfg.Logger),
	}
	s.httpServer = srv
	s.listener = ln
	serverUp.Set(1)

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorw("Leaderboard server stopped unexpectedly", "addr", ln.Addr().String(), "error", err)
		}
	}()

	s.logger.Infow("Leaderboard server started", "addr", ln.Addr().String(), "endpoint", "/"+s.cfg.Endpoint)
	return nil
}

// Stop closes the listener and any open connections immediately without
// waiting for in-flight requests. Stopping a stopped server is a no-op.
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}
	srv := s.httpServer
	s.httpServer = nil
	s.listener = nil
	serverUp.Set(0)

	if err := srv.Close(); err != nil {
		return fmt.Errorf("close leaderboard server: %w", err)
	}
	s.logger.Info("Leaderboard server stopped")
	return nil
}

// Running reports whether Start succeeded and Stop has not been called since.
func (s *Server) Running() bool {
	return s.httpServer != nil
}

// Addr returns the bound address, or nil when stopped.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}
