package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/souvik03-136/craftwatch/backend/internal/metrics"
	"github.com/souvik03-136/craftwatch/backend/internal/presenter"
	"github.com/souvik03-136/craftwatch/backend/internal/session"
)

// ShutdownTimeout bounds graceful shutdown of the HTTP server.
const ShutdownTimeout = 10 * time.Second

// Deps are the collaborators the dashboard server is built from.
type Deps struct {
	Source   presenter.Source
	Renderer *presenter.Renderer
	Store    *session.Store
	Gate     *session.Gate
	Metrics  *metrics.Collector
	Logger   *zap.Logger
	// Target is the monitored host:port, reported by /health.
	Target string
	// LoopOptions are applied to every live viewer loop.
	LoopOptions []presenter.LoopOption
}

// Server is the dashboard HTTP server.
type Server struct {
	echo   *echo.Echo
	hub    *Hub
	logger *zap.Logger
}

// NewServer wires the echo instance and routes.
func NewServer(d Deps) (*Server, error) {
	switch {
	case d.Source == nil:
		return nil, errors.New("api: missing status source")
	case d.Renderer == nil:
		return nil, errors.New("api: missing renderer")
	case d.Store == nil || d.Gate == nil:
		return nil, errors.New("api: missing session store or gate")
	case d.Metrics == nil:
		return nil, errors.New("api: missing metrics collector")
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadHeaderTimeout = 5 * time.Second
	e.Server.IdleTimeout = 60 * time.Second

	hub, err := newHub(d.Source, d.Renderer, d.Metrics, d.Logger, d.LoopOptions)
	if err != nil {
		return nil, err
	}
	h := &Handler{
		source:  d.Source,
		gate:    d.Gate,
		store:   d.Store,
		metrics: d.Metrics,
		logger:  d.Logger,
		target:  d.Target,
		hub:     hub,
	}
	RegisterRoutes(e, h, d)

	return &Server{echo: e, hub: hub, logger: d.Logger}, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.echo }

// Run serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, ln net.Listener) error {
	s.echo.Listener = ln
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("🚀 Dashboard listening", zap.String("addr", ln.Addr().String()))
		if err := s.echo.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err, ok := <-errc:
		if ok {
			s.hub.Stop()
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("🛑 Shutting down dashboard gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	// Live connections are hijacked, so echo's Shutdown does not wait on them.
	s.hub.Stop()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("✅ Dashboard exited cleanly")
	return nil
}
