package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/pumpstream/internal/app"
	"github.com/aristath/pumpstream/internal/config"
	"github.com/aristath/pumpstream/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.SetGlobalLogger(log)

	log.Info().Msg("starting pumpstream ingestor")

	engine := app.New(cfg, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startErrCh := make(chan error, 1)
	go func() {
		startErrCh <- engine.Start(ctx)
	}()

	select {
	case err := <-startErrCh:
		var startupErr *app.StartupError
		if errors.As(err, &startupErr) {
			log.Fatal().Err(err).Msg("startup failed")
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownDone := make(chan struct{})
	go func() {
		engine.Stop()
		close(shutdownDone)
	}()

	select {
	case <-shutdownDone:
		log.Info().Msg("ingestor stopped")
	case <-time.After(15 * time.Second):
		log.Warn().Msg("shutdown timed out, exiting anyway")
		os.Exit(1)
	}
}
