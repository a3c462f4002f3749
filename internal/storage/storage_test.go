package storage

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/pawnbot/internal/board"
	"github.com/hailam/pawnbot/internal/engine"
)

func openTest(t *testing.T) *Storage {
	t.Helper()
	s, err := Open(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStorage(t *testing.T) {
	t.Run("DefaultPreferences", func(t *testing.T) {
		prefs := DefaultPreferences()
		if prefs.Username != "Player" {
			t.Errorf("Expected username 'Player', got '%s'", prefs.Username)
		}
		if prefs.Level != engine.DefaultLevel {
			t.Errorf("Expected level %d, got %d", engine.DefaultLevel, prefs.Level)
		}
		if prefs.PlayerColor != board.White {
			t.Errorf("Expected white")
		}
	})

	t.Run("NewGameStats", func(t *testing.T) {
		stats := NewGameStats()
		if stats.GamesPlayed != 0 {
			t.Errorf("Expected 0 games played")
		}
		if stats.GetWinRate() != 0 {
			t.Errorf("Expected 0 win rate")
		}
	})

	t.Run("WinRate", func(t *testing.T) {
		stats := &GameStats{
			GamesPlayed: 12,
			HumanWins:   5,
			BotWins:     5,
			Unfinished:  2,
		}
		rate := stats.GetWinRate()
		if rate != 50 {
			t.Errorf("Expected 50%% win rate, got %.2f%%", rate)
		}
	})
}

func TestPreferencesRoundTrip(t *testing.T) {
	s := openTest(t)

	prefs, err := s.LoadPreferences()
	if err != nil {
		t.Fatalf("LoadPreferences: %v", err)
	}
	if prefs.Level != engine.DefaultLevel {
		t.Errorf("fresh database should give defaults, got %+v", prefs)
	}

	prefs.Level = 5
	prefs.PlayerColor = board.Black
	prefs.BotDelay = time.Second
	if err := s.SavePreferences(prefs); err != nil {
		t.Fatalf("SavePreferences: %v", err)
	}

	got, err := s.LoadPreferences()
	if err != nil {
		t.Fatalf("LoadPreferences: %v", err)
	}
	if got.Level != 5 || got.PlayerColor != board.Black || got.BotDelay != time.Second {
		t.Errorf("got %+v", got)
	}
}

func TestFirstLaunch(t *testing.T) {
	s := openTest(t)

	first, err := s.IsFirstLaunch()
	if err != nil || !first {
		t.Fatalf("IsFirstLaunch = %v, %v; want true", first, err)
	}
	if err := s.MarkFirstLaunchComplete(); err != nil {
		t.Fatal(err)
	}
	if first, _ := s.IsFirstLaunch(); first {
		t.Error("still first launch after marking complete")
	}
}

func TestRecordResult(t *testing.T) {
	s := openTest(t)

	results := []GameResult{
		{Outcome: OutcomeHumanWin, Level: 2, Duration: time.Minute},
		{Outcome: OutcomeHumanWin, Level: 4, Duration: time.Minute},
		{Outcome: OutcomeBotWin, Level: 4},
		{Outcome: OutcomeUnfinished},
		{Outcome: OutcomeTwoPlayer},
	}
	for _, r := range results {
		if _, err := s.RecordResult(r); err != nil {
			t.Fatalf("RecordResult: %v", err)
		}
	}

	stats, err := s.LoadStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.GamesPlayed != 5 || stats.HumanWins != 2 || stats.BotWins != 1 ||
		stats.Unfinished != 1 || stats.TwoPlayer != 1 {
		t.Errorf("unexpected tallies: %+v", stats)
	}
	if stats.LongestWinStrk != 2 || stats.CurrentStreak != 0 {
		t.Errorf("streaks = %d/%d, want 2/0", stats.LongestWinStrk, stats.CurrentStreak)
	}
	if stats.WinsByLevel["4"] != 1 || stats.TotalPlayTime != 2*time.Minute {
		t.Errorf("unexpected detail: %+v", stats)
	}
}

func TestGameArchive(t *testing.T) {
	s := openTest(t)

	if _, err := s.LoadGame("00000000-0000-0000-0000-000000000000"); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadGame on empty archive: %v, want ErrNotFound", err)
	}

	now := time.Now()
	older, err := s.SaveGame(GameRecord{StartFEN: board.StartFEN, Moves: []string{"e2e4"}, UpdatedAt: now.Add(-time.Hour)})
	if err != nil {
		t.Fatalf("SaveGame: %v", err)
	}
	newer, err := s.SaveGame(GameRecord{StartFEN: board.StartFEN, Moves: []string{"d2d4", "d7d5"}, UpdatedAt: now})
	if err != nil {
		t.Fatalf("SaveGame: %v", err)
	}
	if older == "" || older == newer {
		t.Fatalf("bad ids %q %q", older, newer)
	}

	rec, err := s.LoadGame(newer)
	if err != nil {
		t.Fatalf("LoadGame: %v", err)
	}
	if len(rec.Moves) != 2 || rec.Moves[1] != "d7d5" {
		t.Errorf("LoadGame moves = %v", rec.Moves)
	}

	list, err := s.ListGames(0)
	if err != nil {
		t.Fatalf("ListGames: %v", err)
	}
	if len(list) != 2 || list[0].ID != newer {
		t.Errorf("ListGames order wrong: %+v", list)
	}
	if list, _ := s.ListGames(1); len(list) != 1 {
		t.Errorf("limit ignored: %d games", len(list))
	}

	if err := s.DeleteGame(older); err != nil {
		t.Fatalf("DeleteGame: %v", err)
	}
	if err := s.DeleteGame(older); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteGame: %v, want ErrNotFound", err)
	}

	if _, err := s.SaveGame(GameRecord{ID: "not-a-uuid"}); err == nil {
		t.Error("SaveGame accepted an invalid id")
	}
}

func TestMoveCache(t *testing.T) {
	s, err := OpenInMemory(zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	defer s.Close()

	c := s.MoveCache()
	st := board.InitialState()
	entry := engine.CacheEntry{Move: board.NewMove(board.E2, board.E4), Score: 15}

	if _, ok := c.Lookup(st, 2); ok {
		t.Fatal("hit on empty cache")
	}
	if err := c.Store(st, 2, entry); err != nil {
		t.Fatalf("Store: %v", err)
	}
	got, ok := c.Lookup(st, 2)
	if !ok || got != entry {
		t.Errorf("Lookup = %+v, %v; want %+v", got, ok, entry)
	}
	if _, ok := c.Lookup(st, 3); ok {
		t.Error("hit at a different depth")
	}

	// Same hash, different move counters: the FEN guard rejects it.
	later := st
	later.FullMoveNumber = 7
	if _, ok := c.Lookup(later, 2); ok {
		t.Error("hit for a different FEN")
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok := c.Lookup(st, 2); ok {
		t.Error("hit after Clear")
	}
}

func TestEngineUsesMoveCache(t *testing.T) {
	s := openTest(t)
	eng := engine.NewEngine()
	eng.SetCache(s.MoveCache())

	var cached []bool
	eng.OnInfo = func(info engine.SearchInfo) { cached = append(cached, info.Cached) }

	st := board.InitialState()
	a := eng.SelectMove(context.Background(), st, 1)
	b := eng.SelectMove(context.Background(), st, 1)
	if a != b {
		t.Errorf("cached move %v differs from searched %v", b, a)
	}
	if len(cached) != 2 || cached[0] || !cached[1] {
		t.Errorf("cached flags = %v, want [false true]", cached)
	}
}

func TestDataPaths(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	dataDir, err := GetDataDir()
	if err != nil {
		t.Fatalf("GetDataDir failed: %v", err)
	}
	if dataDir == "" {
		t.Error("GetDataDir returned empty path")
	}
	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		t.Errorf("Data directory was not created: %s", dataDir)
	}

	dbDir, err := GetDatabaseDir(t.TempDir())
	if err != nil {
		t.Fatalf("GetDatabaseDir: %v", err)
	}
	if _, err := os.Stat(dbDir); err != nil {
		t.Errorf("database dir missing: %v", err)
	}
}
