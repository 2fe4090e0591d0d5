// Command fakeserver answers Minecraft status pings with a fixed response so
// the dashboard can be tried without a real game server.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/souvik03-136/craftwatch/backend/internal/slp"
	"github.com/souvik03-136/craftwatch/backend/internal/utils"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:25565", "listen address")
	motd := flag.String("motd", "A craftwatch test server", "message of the day")
	online := flag.Int("online", 3, "players online")
	slots := flag.Int("max", 20, "player slots")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	logger, err := utils.NewLogger(*level)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := slp.NewServer(slp.StaticStatus(*motd, *online, *slots), logger)
	if err := srv.Listen(*addr); err != nil {
		logger.Fatal("❌ Listen failed", zap.String("addr", *addr), zap.Error(err))
	}

	if err := srv.Serve(ctx); err != nil {
		logger.Error("❌ Fake server failed", zap.Error(err))
		return
	}
	logger.Info("✅ Fake server exited cleanly")
}
