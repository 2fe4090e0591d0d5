package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/souvik03-136/craftwatch/backend/internal/api"
	"github.com/souvik03-136/craftwatch/backend/internal/config"
	"github.com/souvik03-136/craftwatch/backend/internal/metrics"
	"github.com/souvik03-136/craftwatch/backend/internal/presenter"
	"github.com/souvik03-136/craftwatch/backend/internal/prober"
	"github.com/souvik03-136/craftwatch/backend/internal/session"
	"github.com/souvik03-136/craftwatch/backend/internal/slp"
	"github.com/souvik03-136/craftwatch/backend/internal/telemetry"
	"github.com/souvik03-136/craftwatch/backend/internal/utils"
)

func main() {
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Logger initialization failed: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("❌ Dashboard stopped", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracer(ctx, cfg.OTLPEndpoint, logger)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), api.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			logger.Warn("⚠️ Tracer shutdown failed", zap.Error(err))
		}
	}()

	collector := metrics.NewCollector()
	probe := prober.New(cfg.ServerIP, cfg.ServerPort, slp.NewClient(),
		prober.WithMetrics(collector),
		prober.WithLogger(logger),
	)

	renderer, err := presenter.NewRenderer()
	if err != nil {
		return err
	}
	store, err := session.NewStore(session.DefaultStoreSize)
	if err != nil {
		return err
	}

	srv, err := api.NewServer(api.Deps{
		Source:   probe,
		Renderer: renderer,
		Store:    store,
		Gate:     session.NewGate(cfg.Password),
		Metrics:  collector,
		Logger:   logger,
		Target:   cfg.Target(),
	})
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.ListenAddr, err)
	}

	logger.Info("🟢 Monitoring Minecraft server",
		zap.String("target", cfg.Target()),
		zap.Duration("refresh_interval", config.RefreshInterval),
	)
	return srv.Run(ctx, ln)
}
