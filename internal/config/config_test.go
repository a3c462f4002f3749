package config

import (
	"testing"
	"time"
)

func env(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load("test", nil, env(nil))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg != Default() {
		t.Errorf("got %+v, want defaults %+v", cfg, Default())
	}
}

func TestLoadEnvironment(t *testing.T) {
	cfg, err := load("test", nil, env(map[string]string{
		EnvDataDir:  "/tmp/pawnbot",
		EnvAddr:     ":8080",
		EnvBotDelay: "1s",
		EnvLevel:    "5",
		EnvCache:    "false",
		EnvGameTTL:  "10m",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataDir != "/tmp/pawnbot" || cfg.Addr != ":8080" {
		t.Errorf("unexpected paths: %+v", cfg)
	}
	if cfg.BotDelay != time.Second || cfg.Level != 5 || cfg.Cache || cfg.GameTTL != 10*time.Minute {
		t.Errorf("unexpected values: %+v", cfg)
	}
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	cfg, err := load("test", []string{"-level", "1", "-addr", ":9000"}, env(map[string]string{
		EnvLevel: "5",
		EnvAddr:  ":8080",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Level != 1 || cfg.Addr != ":9000" {
		t.Errorf("flags did not win: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
	}{
		{"bad delay", nil, map[string]string{EnvBotDelay: "soon"}},
		{"bad level", nil, map[string]string{EnvLevel: "hard"}},
		{"bad cache", nil, map[string]string{EnvCache: "maybe"}},
		{"negative level", []string{"-level", "-1"}, nil},
		{"negative delay", []string{"-bot-delay", "-1s"}, nil},
		{"bad game ttl", nil, map[string]string{EnvGameTTL: "forever"}},
		{"negative game ttl", []string{"-game-ttl", "-1m"}, nil},
		{"unknown flag", []string{"-nope"}, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := load("test", tc.args, env(tc.env)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
