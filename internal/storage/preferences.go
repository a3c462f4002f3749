package storage

import (
	"errors"
	"time"

	"github.com/hailam/pawnbot/internal/board"
	"github.com/hailam/pawnbot/internal/engine"
)

// UserPreferences stores user settings
type UserPreferences struct {
	Username    string        `json:"username"`
	Level       int           `json:"level"`
	PlayerColor board.Color   `json:"player_color"`
	TwoPlayer   bool          `json:"two_player"`
	BotDelay    time.Duration `json:"bot_delay"`
	Flipped     bool          `json:"flipped"`
	LastPlayed  time.Time     `json:"last_played"`
}

// DefaultPreferences returns default user preferences
func DefaultPreferences() *UserPreferences {
	return &UserPreferences{
		Username:    "Player",
		Level:       engine.DefaultLevel,
		PlayerColor: board.White,
		BotDelay:    250 * time.Millisecond,
		LastPlayed:  time.Now(),
	}
}

// SavePreferences saves user preferences
func (s *Storage) SavePreferences(prefs *UserPreferences) error {
	prefs.LastPlayed = time.Now()
	return s.putJSON(keyPreferences, prefs)
}

// LoadPreferences loads user preferences, returns defaults if not found
func (s *Storage) LoadPreferences() (*UserPreferences, error) {
	prefs := DefaultPreferences()
	err := s.getJSON(keyPreferences, prefs)
	if errors.Is(err, ErrNotFound) {
		return prefs, nil
	}
	return prefs, err
}
