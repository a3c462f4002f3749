package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hailam/pawnbot/internal/config"
	"github.com/hailam/pawnbot/internal/engine"
	"github.com/hailam/pawnbot/internal/logging"
	"github.com/hailam/pawnbot/internal/server"
	"github.com/hailam/pawnbot/internal/storage"
)

func main() {
	cfg, err := config.Load("pawnbot-server", os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogPretty)

	var store *storage.Storage
	if cfg.InMemory {
		store, err = storage.OpenInMemory(logger)
	} else {
		store, err = storage.Open(cfg.DataDir, logger)
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("open storage")
	}
	defer store.Close()

	eng := engine.NewEngine()
	eng.SetLogger(logger)
	if cfg.Cache {
		eng.SetCache(store.MoveCache())
	}

	srv := server.New(server.Options{
		Engine:       eng,
		Store:        store,
		BotDelay:     cfg.BotDelay,
		GameTTL:      cfg.GameTTL,
		DefaultLevel: cfg.Level,
		CORSOrigins:  cfg.CORSOrigins,
		Logger:       logger,
	})

	errc := make(chan error, 1)
	go func() { errc <- srv.Listen(cfg.Addr) }()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errc:
		logger.Error().Err(err).Msg("server stopped")
	case s := <-sig:
		logger.Info().Str("signal", s.String()).Msg("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("shutdown")
		}
	}
}
