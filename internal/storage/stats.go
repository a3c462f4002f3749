package storage

import (
	"errors"
	"strconv"
	"time"
)

// Outcome classifies a game from the human player's point of view.
type Outcome int

const (
	OutcomeUnfinished Outcome = iota
	OutcomeHumanWin
	OutcomeBotWin
	// OutcomeTwoPlayer is a finished game with no bot involved.
	OutcomeTwoPlayer
)

func (o Outcome) String() string {
	switch o {
	case OutcomeHumanWin:
		return "human-win"
	case OutcomeBotWin:
		return "bot-win"
	case OutcomeTwoPlayer:
		return "two-player"
	default:
		return "unfinished"
	}
}

// GameStats stores game statistics
type GameStats struct {
	GamesPlayed    int            `json:"games_played"`
	HumanWins      int            `json:"human_wins"`
	BotWins        int            `json:"bot_wins"`
	TwoPlayer      int            `json:"two_player"`
	Unfinished     int            `json:"unfinished"`
	WinsByLevel    map[string]int `json:"wins_by_level"`
	TotalPlayTime  time.Duration  `json:"total_play_time"`
	LongestWinStrk int            `json:"longest_win_streak"`
	CurrentStreak  int            `json:"current_streak"`
}

// NewGameStats returns empty game statistics
func NewGameStats() *GameStats {
	return &GameStats{WinsByLevel: make(map[string]int)}
}

// GameResult represents the result of a completed game
type GameResult struct {
	Outcome  Outcome
	Level    int
	Duration time.Duration
}

// SaveStats saves game statistics
func (s *Storage) SaveStats(stats *GameStats) error {
	return s.putJSON(keyStats, stats)
}

// LoadStats loads game statistics, returns empty stats if not found
func (s *Storage) LoadStats() (*GameStats, error) {
	stats := NewGameStats()
	err := s.getJSON(keyStats, stats)
	if errors.Is(err, ErrNotFound) {
		return stats, nil
	}
	if stats.WinsByLevel == nil {
		stats.WinsByLevel = make(map[string]int)
	}
	return stats, err
}

// RecordResult records a game and updates statistics
func (s *Storage) RecordResult(result GameResult) (*GameStats, error) {
	stats, err := s.LoadStats()
	if err != nil {
		return nil, err
	}

	stats.GamesPlayed++
	stats.TotalPlayTime += result.Duration

	switch result.Outcome {
	case OutcomeHumanWin:
		stats.HumanWins++
		stats.CurrentStreak++
		if stats.CurrentStreak > stats.LongestWinStrk {
			stats.LongestWinStrk = stats.CurrentStreak
		}
		stats.WinsByLevel[strconv.Itoa(result.Level)]++
	case OutcomeBotWin:
		stats.BotWins++
		stats.CurrentStreak = 0
	case OutcomeTwoPlayer:
		stats.TwoPlayer++
	default:
		stats.Unfinished++
	}

	return stats, s.SaveStats(stats)
}

// GetWinRate returns the human win rate against the bot as a percentage
// (0-100) over decided games.
func (s *GameStats) GetWinRate() float64 {
	decided := s.HumanWins + s.BotWins
	if decided == 0 {
		return 0
	}
	return float64(s.HumanWins) / float64(decided) * 100
}
