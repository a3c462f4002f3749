// pawnbot - play chess against a small minimax bot in the terminal.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/hailam/pawnbot/internal/config"
	"github.com/hailam/pawnbot/internal/engine"
	"github.com/hailam/pawnbot/internal/logging"
	"github.com/hailam/pawnbot/internal/storage"
	"github.com/hailam/pawnbot/internal/tui"
)

func main() {
	cfg, err := config.Load("pawnbot", os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := run(cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	var err error

	// The terminal belongs to the UI, so logs go to a file.
	logger := zerolog.Nop()
	if path, err := storage.GetLogPath(cfg.DataDir); err == nil {
		l, f, err := logging.OpenFile(path, cfg.LogLevel)
		if err == nil {
			defer f.Close()
			logger = l
		}
	}

	var store *storage.Storage
	if cfg.InMemory {
		store, err = storage.OpenInMemory(logger)
	} else {
		store, err = storage.Open(cfg.DataDir, logger)
	}
	if err != nil {
		// Play on without persistence.
		logger.Warn().Err(err).Msg("storage unavailable")
		store = nil
	} else {
		defer store.Close()
	}

	eng := engine.NewEngine()
	eng.SetLogger(logger)
	if store != nil && cfg.Cache {
		eng.SetCache(store.MoveCache())
	}

	return tui.Run(tui.Options{
		Engine:   eng,
		Store:    store,
		Level:    cfg.Level,
		BotDelay: cfg.BotDelay,
		Logger:   logger,
	})
}
