package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hailam/pawnbot/internal/board"
	"github.com/hailam/pawnbot/internal/engine"
	"github.com/hailam/pawnbot/internal/game"
)

var helpLines = []string{
	"e2e4 / e2 e4   move a piece (drop the king on a rook to castle)",
	"moves e2       show where a piece can go",
	"undo, redo     take back / replay moves",
	"new [white|black|two]  start a new game",
	"level N        bot strength (0-6, search depth 1+N/2 up to 4)",
	"hint           ask the engine for a move",
	"flip, fen, eval, save, list, load ID, stats, quit",
}

// execCommand runs one prompt line and returns any follow-up command.
func (m *Model) execCommand(line string) tea.Cmd {
	m.appendLog("> " + line)

	if sm := reMove.FindStringSubmatch(line); sm != nil {
		return m.playMove(sm[1], sm[2])
	}

	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}

	switch parts[0] {
	case "help", "?":
		for _, l := range helpLines {
			m.appendLog("  " + l)
		}

	case "moves":
		if len(parts) < 2 {
			m.appendLog("usage: moves <square>")
			return nil
		}
		m.showMoves(parts[1])

	case "undo":
		if err := m.session.Undo(); err != nil {
			m.appendLog(err.Error())
			return nil
		}
		m.gen++
		m.thinking = false
		m.targets = nil
		m.appendLog("move taken back")
		return m.afterPly()

	case "redo":
		if err := m.session.Redo(); err != nil {
			m.appendLog(err.Error())
			return nil
		}
		m.gen++
		m.appendLog("move replayed")
		return m.afterPly()

	case "new":
		human, two := m.prefs.PlayerColor, m.prefs.TwoPlayer
		if len(parts) > 1 {
			switch parts[1] {
			case "white", "w":
				human, two = board.White, false
			case "black", "b":
				human, two = board.Black, false
			case "two", "2":
				two = true
			default:
				m.appendLog("usage: new [white|black|two]")
				return nil
			}
		}
		if !m.recorded {
			m.archive(m.session.Outcome())
		}
		m.newSession(human, two)
		m.appendLog("new game")
		cmd := m.scheduleBot()
		m.thinking = cmd != nil
		return cmd

	case "level":
		if len(parts) < 2 {
			m.appendLog(fmt.Sprintf("level %d (depth %d)", m.session.Level(), engine.DepthForLevel(m.session.Level())))
			return nil
		}
		n, err := strconv.Atoi(parts[1])
		if err != nil || n < engine.MinLevel {
			m.appendLog("level must be a number >= 0")
			return nil
		}
		m.session.SetLevel(n)
		m.prefs.Level = n
		m.appendLog(fmt.Sprintf("level %d (depth %d)", n, engine.DepthForLevel(n)))

	case "hint":
		if m.session.Over() {
			m.appendLog(game.ErrGameOver.Error())
			return nil
		}
		st := m.session.State()
		mv := m.eng.SelectMove(context.Background(), st, m.session.Level())
		m.appendLog("hint: " + mv.SAN(st))
		m.targets = map[board.Square]bool{mv.To: true}

	case "flip":
		m.flipped = !m.flipped

	case "fen":
		m.appendLog(m.session.State().FEN())

	case "eval":
		score := engine.Evaluate(m.session.State())
		m.appendLog(fmt.Sprintf("material %s (%d cp, white's view)", engine.ScoreToString(score), score))

	case "save":
		if m.store == nil {
			m.appendLog("no storage available")
			return nil
		}
		id, err := m.store.SaveGame(m.session.Record())
		if err != nil {
			m.appendLog(fmt.Sprintf("save failed: %v", err))
			return nil
		}
		m.appendLog("saved " + id)

	case "list":
		m.listGames()

	case "load":
		if len(parts) < 2 {
			m.appendLog("usage: load <id or prefix>")
			return nil
		}
		return m.loadGame(parts[1])

	case "stats":
		m.showStats()

	case "quit", "exit":
		return tea.Quit

	default:
		m.appendLog(fmt.Sprintf("unknown command: %s", parts[0]))
	}
	return nil
}

func (m *Model) playMove(fromStr, toStr string) tea.Cmd {
	from, err := board.ParseSquare(fromStr)
	if err != nil {
		m.appendLog(err.Error())
		return nil
	}
	to, err := board.ParseSquare(toStr)
	if err != nil {
		m.appendLog(err.Error())
		return nil
	}

	before := m.session.State()
	mv, err := m.session.Play(from, to)
	switch {
	case errors.Is(err, game.ErrNotYourTurn):
		m.appendLog("not your turn")
		return nil
	case err != nil:
		m.appendLog(err.Error())
		return nil
	}

	m.appendLog("you: " + mv.SAN(before))
	return m.afterPly()
}

func (m *Model) showMoves(name string) {
	sq, err := board.ParseSquare(name)
	if err != nil {
		m.appendLog(err.Error())
		return
	}
	moves := m.session.Moves(sq)
	if len(moves) == 0 {
		m.targets = nil
		m.appendLog("no moves from " + name)
		return
	}

	m.targets = make(map[board.Square]bool, len(moves))
	dests := make([]string, len(moves))
	for i, mv := range moves {
		m.targets[mv.To] = true
		dests[i] = mv.To.String()
	}
	m.appendLog(name + ": " + strings.Join(dests, " "))
}

func (m *Model) listGames() {
	if m.store == nil {
		m.appendLog("no storage available")
		return
	}
	games, err := m.store.ListGames(5)
	if err != nil {
		m.appendLog(fmt.Sprintf("list failed: %v", err))
		return
	}
	if len(games) == 0 {
		m.appendLog("no saved games")
	}
	for _, g := range games {
		m.appendLog(fmt.Sprintf("  %s  %s  %d plies  %s", g.ID[:8], g.UpdatedAt.Format("2006-01-02 15:04"), len(g.Moves), g.Result))
	}
}

func (m *Model) loadGame(prefix string) tea.Cmd {
	if m.store == nil {
		m.appendLog("no storage available")
		return nil
	}
	games, err := m.store.ListGames(0)
	if err != nil {
		m.appendLog(fmt.Sprintf("load failed: %v", err))
		return nil
	}

	var matches []int
	for i, g := range games {
		if strings.HasPrefix(g.ID, prefix) {
			matches = append(matches, i)
		}
	}
	if len(matches) != 1 {
		m.appendLog(fmt.Sprintf("%d saved games match %q", len(matches), prefix))
		return nil
	}

	s, err := game.Resume(games[matches[0]], game.Options{Engine: m.eng, Logger: m.log})
	if err != nil {
		m.appendLog(err.Error())
		return nil
	}
	m.gen++
	m.session = s
	m.recorded = s.Over()
	m.targets = nil
	m.appendLog("loaded " + s.ID())
	cmd := m.scheduleBot()
	m.thinking = cmd != nil
	return cmd
}

func (m *Model) showStats() {
	if m.store == nil {
		m.appendLog("no storage available")
		return
	}
	st, err := m.store.LoadStats()
	if err != nil {
		m.appendLog(fmt.Sprintf("stats failed: %v", err))
		return
	}
	m.appendLog(fmt.Sprintf("games %d  won %d  lost %d  unfinished %d  win rate %.0f%%  best streak %d",
		st.GamesPlayed, st.HumanWins, st.BotWins, st.Unfinished, st.GetWinRate(), st.LongestWinStrk))
}
