// Package tui is the terminal front-end: a bubbletea program showing the
// board and taking moves and commands on a prompt.
package tui

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/hailam/pawnbot/internal/board"
	"github.com/hailam/pawnbot/internal/engine"
	"github.com/hailam/pawnbot/internal/game"
	"github.com/hailam/pawnbot/internal/storage"
)

type mode int

const (
	modeNormal mode = iota
	modeInput
)

const maxLogLines = 200

var reMove = regexp.MustCompile(`^([a-h][1-8])\s*-?\s*([a-h][1-8])[qrbn]?$`)

// botTurnMsg fires once the bot delay has passed.
type botTurnMsg struct{ gen int }

// botMoveMsg carries a finished search back to the model.
type botMoveMsg struct {
	gen   int
	state board.State
	move  board.Move
}

// Model is the bubbletea model of the terminal UI.
type Model struct {
	eng   *engine.Engine
	store *storage.Storage
	prefs *storage.UserPreferences
	log   zerolog.Logger

	session *game.Session
	// gen invalidates pending bot replies when the game is reset or undone.
	gen      int
	thinking bool
	recorded bool

	flipped bool
	targets map[board.Square]bool
	plain   bool

	m        mode
	input    textinput.Model
	logLines []string

	width  int
	height int
}

// NewModel builds the model. Stored preferences win over opts once the
// first launch has been completed.
func NewModel(opts Options) Model {
	if opts.Engine == nil {
		opts.Engine = engine.NewEngine()
	}

	ti := textinput.New()
	ti.Placeholder = "e2e4, moves e2, undo, help..."
	ti.Prompt = "> "
	ti.CharLimit = 80
	ti.Width = 40

	m := Model{
		eng:   opts.Engine,
		store: opts.Store,
		log:   opts.Logger,
		input: ti,
	}
	m.prefs = m.loadPreferences(opts)
	m.flipped = m.prefs.Flipped
	m.newSession(m.prefs.PlayerColor, m.prefs.TwoPlayer)
	m.appendLog("ready (press i to enter a move or command, ? for help)")
	return m
}

func (m Model) loadPreferences(opts Options) *storage.UserPreferences {
	prefs := storage.DefaultPreferences()
	prefs.Level = opts.Level
	prefs.BotDelay = opts.BotDelay
	if m.store == nil {
		return prefs
	}

	first, err := m.store.IsFirstLaunch()
	if err != nil {
		m.log.Warn().Err(err).Msg("first launch check failed")
		return prefs
	}
	if first {
		if err := m.store.MarkFirstLaunchComplete(); err != nil {
			m.log.Warn().Err(err).Msg("mark first launch failed")
		}
		return prefs
	}

	stored, err := m.store.LoadPreferences()
	if err != nil {
		m.log.Warn().Err(err).Msg("load preferences failed")
		return prefs
	}
	return stored
}

func (m *Model) newSession(human board.Color, twoPlayer bool) {
	m.gen++
	m.thinking = false
	m.recorded = false
	m.targets = nil
	m.session = game.NewSession(game.Options{
		Level:     m.prefs.Level,
		Human:     human,
		TwoPlayer: twoPlayer,
		Engine:    m.eng,
		Logger:    m.log,
	})
	m.prefs.PlayerColor = human
	m.prefs.TwoPlayer = twoPlayer
}

func (m Model) Init() tea.Cmd {
	return m.scheduleBot()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = min(60, max(20, m.width-8))
		return m, nil

	case botTurnMsg:
		if msg.gen != m.gen || !m.session.BotToMove() {
			return m, nil
		}
		return m, searchCmd(m.eng, m.session.State(), m.session.Level(), m.gen)

	case botMoveMsg:
		if msg.gen != m.gen || msg.state != m.session.State() {
			return m, nil
		}
		m.thinking = false
		return m, m.applyBotMove(msg.move)

	case tea.KeyMsg:
		switch m.m {
		case modeNormal:
			return m.handleNormalKey(msg)
		case modeInput:
			switch msg.String() {
			case "esc":
				m.m = modeNormal
				m.input.Blur()
				return m, nil
			case "enter":
				line := strings.TrimSpace(m.input.Value())
				m.input.SetValue("")
				if line == "" {
					m.m = modeNormal
					m.input.Blur()
					return m, nil
				}
				return m, m.execCommand(line)
			}

			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m Model) handleNormalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "i", ":", "enter":
		m.m = modeInput
		m.input.SetValue("")
		m.input.Focus()
		return m, textinput.Blink
	case "u":
		return m, m.execCommand("undo")
	case "r":
		return m, m.execCommand("redo")
	case "f":
		return m, m.execCommand("flip")
	case "n":
		return m, m.execCommand("new")
	case "?":
		return m, m.execCommand("help")
	}
	return m, nil
}

// searchCmd runs the engine off the update loop.
func searchCmd(eng *engine.Engine, st board.State, level, gen int) tea.Cmd {
	return func() tea.Msg {
		mv := eng.SelectMove(context.Background(), st, level)
		return botMoveMsg{gen: gen, state: st, move: mv}
	}
}

// scheduleBot returns the delayed bot trigger when the bot is to move.
func (m Model) scheduleBot() tea.Cmd {
	if !m.session.BotToMove() {
		return nil
	}
	gen := m.gen
	return tea.Tick(m.prefs.BotDelay, func(time.Time) tea.Msg {
		return botTurnMsg{gen: gen}
	})
}

func (m *Model) applyBotMove(mv board.Move) tea.Cmd {
	if mv == board.NoMove {
		m.finish()
		return nil
	}
	san := mv.SAN(m.session.State())
	if err := m.session.PlayEngineMove(mv); err != nil {
		m.appendLog(fmt.Sprintf("bot move %s rejected: %v", mv, err))
		return nil
	}
	m.appendLog("bot: " + san)
	return m.afterPly()
}

// afterPly runs after every applied move.
func (m *Model) afterPly() tea.Cmd {
	m.targets = nil
	if m.session.Over() {
		m.finish()
		return nil
	}
	cmd := m.scheduleBot()
	m.thinking = cmd != nil
	return cmd
}

// finish archives a game that has just ended.
func (m *Model) finish() {
	if m.recorded {
		return
	}
	m.recorded = true
	m.thinking = false
	m.appendLog(fmt.Sprintf("game over: %s (%s has no moves)", m.session.Result(), m.session.State().Turn))
	m.archive(m.session.Outcome())
}

func (m *Model) archive(outcome storage.Outcome) {
	if m.store == nil || len(m.session.History()) == 0 {
		return
	}
	if _, err := m.store.SaveGame(m.session.Record()); err != nil {
		m.appendLog(fmt.Sprintf("save failed: %v", err))
		return
	}
	res := storage.GameResult{
		Outcome:  outcome,
		Level:    m.session.Level(),
		Duration: time.Since(m.session.StartedAt()),
	}
	if _, err := m.store.RecordResult(res); err != nil {
		m.log.Warn().Err(err).Msg("record result failed")
	}
}

// persist saves preferences and an unfinished game on exit.
func (m Model) persist() {
	if m.store == nil {
		return
	}
	m.prefs.Flipped = m.flipped
	if err := m.store.SavePreferences(m.prefs); err != nil {
		m.log.Warn().Err(err).Msg("save preferences failed")
	}
	if !m.recorded {
		m.archive(storage.OutcomeUnfinished)
	}
}

func (m *Model) appendLog(s string) {
	m.logLines = append(m.logLines, s)
	if len(m.logLines) > maxLogLines {
		m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
	}
}

func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true)
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1)

	s := m.session
	status := fmt.Sprintf("%s to move", s.State().Turn)
	switch {
	case s.Over():
		status = "game over " + s.Result()
	case m.thinking:
		status = "bot thinking..."
	}
	opponent := fmt.Sprintf("vs bot level %d", s.Level())
	if s.TwoPlayer() {
		opponent = "two players"
	}
	header := titleStyle.Render(fmt.Sprintf("pawnbot  %s  |  %s  |  material %s",
		opponent, status, engine.ScoreToString(engine.Evaluate(s.State()))))

	bv := boardView{
		state:    s.State(),
		lastMove: s.LastMove(),
		targets:  m.targets,
		flipped:  m.flipped,
		plain:    m.plain,
	}
	boardBox := boxStyle.Render(bv.render())
	movesBox := boxStyle.Width(24).Height(9).Render(moveList(s.SAN(), 9))
	top := lipgloss.JoinHorizontal(lipgloss.Top, boardBox, movesBox)

	logHeight := max(4, m.height-18)
	logStart := max(0, len(m.logLines)-logHeight)
	logBox := boxStyle.Width(max(40, m.width-2)).Height(logHeight).
		Render(strings.Join(m.logLines[logStart:], "\n"))

	inputLine := "press i to enter a move or command"
	if m.m == modeInput {
		inputLine = m.input.View()
	}
	inputBox := boxStyle.Width(max(40, m.width-2)).Render(inputLine)

	return header + "\n" + top + "\n" + logBox + "\n" + inputBox + "\n"
}

// moveList formats SAN moves as numbered pairs, keeping the last rows.
func moveList(san []string, rows int) string {
	var lines []string
	for i := 0; i < len(san); i += 2 {
		line := strconv.Itoa(i/2+1) + ". " + san[i]
		if i+1 < len(san) {
			line += " " + san[i+1]
		}
		lines = append(lines, line)
	}
	if len(lines) > rows {
		lines = lines[len(lines)-rows:]
	}
	return strings.Join(lines, "\n")
}
