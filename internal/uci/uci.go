// Package uci implements the Universal Chess Interface protocol on top of
// the pawnbot engine.
package uci

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/pawnbot/internal/board"
	"github.com/hailam/pawnbot/internal/engine"
)

// UCI implements the Universal Chess Interface protocol.
type UCI struct {
	engine *engine.Engine
	state  board.State
	level  int

	in  io.Reader
	out io.Writer
	log zerolog.Logger

	outMu sync.Mutex

	// Search state
	cancel     context.CancelFunc
	searchDone chan struct{}
}

// New creates a new UCI protocol handler reading commands from in and
// writing responses to out.
func New(eng *engine.Engine, in io.Reader, out io.Writer, log zerolog.Logger) *UCI {
	return &UCI{
		engine: eng,
		state:  board.InitialState(),
		level:  engine.DefaultLevel,
		in:     in,
		out:    out,
		log:    log,
	}
}

// SetLevel sets the level used by "go" without depth or level arguments.
func (u *UCI) SetLevel(level int) {
	u.level = max(level, engine.MinLevel)
}

func (u *UCI) send(format string, args ...any) {
	u.outMu.Lock()
	defer u.outMu.Unlock()
	fmt.Fprintf(u.out, format+"\n", args...)
}

// Run reads commands until "quit" or end of input. A search still running
// at that point is stopped and its bestmove printed.
func (u *UCI) Run() error {
	scanner := bufio.NewScanner(u.in)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]

		u.log.Debug().Str("cmd", line).Msg("command")

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			u.send("readyok")
		case "ucinewgame":
			u.handleNewGame()
		case "position":
			u.handlePosition(args)
		case "go":
			u.handleGo(args)
		case "stop":
			u.handleStop()
		case "quit":
			u.handleStop()
			return nil
		case "setoption":
			u.handleSetOption(args)
		// Debug commands
		case "d":
			u.send("%s\nFen: %s\nKey: %016X", u.state.String(), u.state.FEN(), u.state.Hash())
		case "perft":
			u.handlePerft(args)
		case "eval":
			score := engine.Evaluate(u.state)
			u.send("Material: %s (%d cp, white's view)", engine.ScoreToString(score), score)
		default:
			u.send("info string unknown command: %s", cmd)
		}
	}

	u.handleStop()
	return scanner.Err()
}

// handleUCI responds to the "uci" command.
func (u *UCI) handleUCI() {
	u.send("id name pawnbot")
	u.send("id author pawnbot authors")
	u.send("")
	u.send("option name Level type spin default %d min %d max %d", engine.DefaultLevel, engine.MinLevel, engine.MaxLevel)
	u.send("uciok")
}

// handleNewGame resets the position.
func (u *UCI) handleNewGame() {
	u.handleStop()
	u.state = board.InitialState()
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos
//   - position startpos moves e2e4 e7e5
//   - position fen <fen>
//   - position fen <fen> moves e2e4
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	movesAt := len(args)
	for i, arg := range args {
		if arg == "moves" {
			movesAt = i
			break
		}
	}

	var st board.State
	switch args[0] {
	case "startpos":
		st = board.InitialState()
	case "fen":
		var err error
		st, err = board.ParseFEN(strings.Join(args[1:movesAt], " "))
		if err != nil {
			u.send("info string invalid FEN: %v", err)
			return
		}
	default:
		return
	}

	if movesAt < len(args) {
		for _, moveStr := range args[movesAt+1:] {
			m, err := board.ParseMove(moveStr, st)
			if err != nil {
				u.send("info string invalid move %s: %v", moveStr, err)
				return
			}
			st = board.ApplyMove(st, m)
		}
	}

	u.state = st
}

// GoOptions holds parsed "go" command options.
type GoOptions struct {
	Depth    int
	Level    int
	MoveTime time.Duration
	Infinite bool
}

// parseGoOptions parses "go" command arguments. Level is -1 when not given.
func parseGoOptions(args []string) GoOptions {
	opts := GoOptions{Level: -1}

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "depth":
			if i+1 < len(args) {
				opts.Depth, _ = strconv.Atoi(args[i+1])
				i++
			}
		case "level":
			if i+1 < len(args) {
				if n, err := strconv.Atoi(args[i+1]); err == nil {
					opts.Level = n
				}
				i++
			}
		case "movetime":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				opts.MoveTime = time.Duration(ms) * time.Millisecond
				i++
			}
		case "infinite":
			opts.Infinite = true
		}
	}

	return opts
}

// handleGo starts a search in the background. Depth comes from "depth"
// (capped at engine.MaxDepth), else from "level", else from the configured
// level. "movetime" bounds
// the search; a subtree already entered is always finished.
func (u *UCI) handleGo(args []string) {
	u.handleStop()

	opts := parseGoOptions(args)
	level := u.level
	if opts.Level >= 0 {
		level = opts.Level
	}
	depth := engine.DepthForLevel(level)
	if opts.Depth > 0 {
		depth = min(opts.Depth, engine.MaxDepth)
	}

	var ctx context.Context
	var cancel context.CancelFunc
	if opts.MoveTime > 0 && !opts.Infinite {
		ctx, cancel = context.WithTimeout(context.Background(), opts.MoveTime)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	u.cancel = cancel
	done := make(chan struct{})
	u.searchDone = done

	st := u.state
	go func() {
		defer close(done)
		defer cancel()

		start := time.Now()
		res := u.engine.SearchDepth(ctx, st, depth, level)
		u.sendInfo(st, depth, res, time.Since(start))
		u.send("bestmove %s", res.Move)
	}()
}

// sendInfo outputs search info in UCI format. Scores are reported from the
// side to move's point of view.
func (u *UCI) sendInfo(st board.State, depth int, res engine.Result, elapsed time.Duration) {
	score := res.Score
	if st.Turn == board.Black {
		score = -score
	}

	parts := []string{
		fmt.Sprintf("depth %d", depth),
		fmt.Sprintf("score cp %d", score),
		fmt.Sprintf("nodes %d", res.Nodes),
		fmt.Sprintf("time %d", elapsed.Milliseconds()),
	}
	if elapsed > 0 {
		parts = append(parts, fmt.Sprintf("nps %d", uint64(float64(res.Nodes)/elapsed.Seconds())))
	}
	if res.Move != board.NoMove {
		parts = append(parts, "pv "+res.Move.String())
	}

	u.send("info %s", strings.Join(parts, " "))
}

// handleStop stops the current search and waits for its bestmove.
func (u *UCI) handleStop() {
	if u.searchDone == nil {
		return
	}
	u.cancel()
	<-u.searchDone
	u.searchDone = nil
	u.cancel = nil
}

// handleSetOption processes "setoption name <name> value <value>".
func (u *UCI) handleSetOption(args []string) {
	var name, value []string
	var target *[]string

	for _, arg := range args {
		switch arg {
		case "name":
			target = &name
		case "value":
			target = &value
		default:
			if target != nil {
				*target = append(*target, arg)
			}
		}
	}

	switch strings.ToLower(strings.Join(name, " ")) {
	case "level":
		n, err := strconv.Atoi(strings.Join(value, " "))
		if err != nil || n < engine.MinLevel {
			u.send("info string invalid level: %s", strings.Join(value, " "))
			return
		}
		u.SetLevel(n)
	default:
		u.send("info string unknown option: %s", strings.Join(name, " "))
	}
}

// handlePerft runs a perft test.
func (u *UCI) handlePerft(args []string) {
	depth := 3
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil {
			depth = n
		}
	}

	start := time.Now()
	nodes := engine.Perft(u.state, depth)
	elapsed := time.Since(start)

	u.send("Nodes: %d", nodes)
	u.send("Time: %v", elapsed)
	if elapsed > 0 {
		u.send("NPS: %.0f", float64(nodes)/elapsed.Seconds())
	}
}
