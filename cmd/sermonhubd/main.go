package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/chukwujekwu-code/sermon-hub/internal/config"
	"github.com/chukwujekwu-code/sermon-hub/internal/logging"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	logger, err := logging.NewForPaths(cfg.Paths.LogDir, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	d, err := bootstrapDaemon(cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap daemon: %v", err)
	}
	defer func() {
		if closeErr := d.Close(); closeErr != nil {
			logger.Error("daemon shutdown", logging.Error(closeErr))
		}
	}()

	if err := d.Start(ctx); err != nil {
		log.Fatalf("start daemon: %v", err)
	}

	<-ctx.Done()
	logger.Info("sermonhubd shutting down")
}
