// Package config gathers runtime settings for the pawnbot binaries from
// command-line flags with environment variable fallbacks.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hailam/pawnbot/internal/engine"
)

// Environment variables consulted by Load.
const (
	EnvDataDir     = "PAWNBOT_DATA_DIR"
	EnvAddr        = "PAWNBOT_ADDR"
	EnvLogLevel    = "PAWNBOT_LOG_LEVEL"
	EnvBotDelay    = "PAWNBOT_BOT_DELAY"
	EnvLevel       = "PAWNBOT_LEVEL"
	EnvCORSOrigins = "PAWNBOT_CORS_ORIGINS"
	EnvCache       = "PAWNBOT_CACHE"
	EnvGameTTL     = "PAWNBOT_GAME_TTL"
)

// Config holds settings shared by the binaries. Not every binary uses every
// field.
type Config struct {
	// DataDir is the storage directory. Empty means the platform default.
	DataDir     string
	Addr        string
	LogLevel    string
	LogPretty   bool
	BotDelay    time.Duration
	Level       int
	CORSOrigins string
	Cache       bool
	// GameTTL is how long the server keeps an idle game in memory.
	GameTTL time.Duration
	// InMemory keeps the database in memory (nothing persists).
	InMemory bool
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Addr:        ":3000",
		LogLevel:    "info",
		BotDelay:    250 * time.Millisecond,
		Level:       engine.DefaultLevel,
		CORSOrigins: "*",
		Cache:       true,
		GameTTL:     time.Hour,
	}
}

// Load applies environment overrides to the defaults, then parses args with
// a flag set named name. Flags win over the environment.
func Load(name string, args []string) (Config, error) {
	return load(name, args, os.LookupEnv)
}

func load(name string, args []string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	if err := cfg.applyEnv(lookup); err != nil {
		return cfg, err
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&cfg.DataDir, "data", cfg.DataDir, "data directory (env "+EnvDataDir+")")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address (env "+EnvAddr+")")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (env "+EnvLogLevel+")")
	fs.BoolVar(&cfg.LogPretty, "log-pretty", cfg.LogPretty, "human-readable log output")
	fs.DurationVar(&cfg.BotDelay, "bot-delay", cfg.BotDelay, "pause before the bot replies (env "+EnvBotDelay+")")
	fs.IntVar(&cfg.Level, "level", cfg.Level, "default bot level (env "+EnvLevel+")")
	fs.StringVar(&cfg.CORSOrigins, "cors-origins", cfg.CORSOrigins, "allowed CORS origins (env "+EnvCORSOrigins+")")
	fs.BoolVar(&cfg.Cache, "cache", cfg.Cache, "cache search results (env "+EnvCache+")")
	fs.DurationVar(&cfg.GameTTL, "game-ttl", cfg.GameTTL, "drop server games idle this long, 0 keeps them (env "+EnvGameTTL+")")
	fs.BoolVar(&cfg.InMemory, "memory", cfg.InMemory, "keep the database in memory")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvDataDir); ok {
		c.DataDir = v
	}
	if v, ok := lookup(EnvAddr); ok && v != "" {
		c.Addr = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := lookup(EnvCORSOrigins); ok && v != "" {
		c.CORSOrigins = v
	}
	if v, ok := lookup(EnvBotDelay); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvBotDelay, err)
		}
		c.BotDelay = d
	}
	if v, ok := lookup(EnvGameTTL); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvGameTTL, err)
		}
		c.GameTTL = d
	}
	if v, ok := lookup(EnvLevel); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvLevel, err)
		}
		c.Level = n
	}
	if v, ok := lookup(EnvCache); ok && v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvCache, err)
		}
		c.Cache = b
	}
	return nil
}

// Validate reports settings that cannot be used.
func (c Config) Validate() error {
	if c.BotDelay < 0 {
		return fmt.Errorf("bot delay must not be negative: %v", c.BotDelay)
	}
	if c.GameTTL < 0 {
		return fmt.Errorf("game ttl must not be negative: %v", c.GameTTL)
	}
	if c.Level < engine.MinLevel {
		return fmt.Errorf("level must be at least %d: %d", engine.MinLevel, c.Level)
	}
	return nil
}
