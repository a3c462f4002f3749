package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/hailam/pawnbot/internal/engine"
	"github.com/hailam/pawnbot/internal/storage"
)

// Options configures the terminal front-end.
type Options struct {
	Engine *engine.Engine
	// Store persists preferences and games. May be nil.
	Store    *storage.Storage
	Level    int
	BotDelay time.Duration
	Logger   zerolog.Logger
}

// Run starts the terminal UI and blocks until the user quits.
func Run(opts Options) error {
	m := NewModel(opts)
	p := tea.NewProgram(m, tea.WithAltScreen())
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.persist()
	}
	return err
}
