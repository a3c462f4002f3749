package main

import (
	"fmt"
	"os"

	"github.com/hailam/pawnbot/internal/config"
	"github.com/hailam/pawnbot/internal/engine"
	"github.com/hailam/pawnbot/internal/logging"
	"github.com/hailam/pawnbot/internal/storage"
	"github.com/hailam/pawnbot/internal/uci"
)

func main() {
	cfg, err := config.Load("pawnbot-uci", os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// stdout carries the protocol; logs go to stderr.
	logger := logging.New(cfg.LogLevel, cfg.LogPretty)

	eng := engine.NewEngine()
	eng.SetLogger(logger)

	if cfg.Cache && !cfg.InMemory {
		store, err := storage.Open(cfg.DataDir, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("search cache disabled")
		} else {
			defer store.Close()
			eng.SetCache(store.MoveCache())
		}
	}

	protocol := uci.New(eng, os.Stdin, os.Stdout, logger)
	protocol.SetLevel(cfg.Level)
	if err := protocol.Run(); err != nil {
		logger.Error().Err(err).Msg("reading commands")
	}
}
