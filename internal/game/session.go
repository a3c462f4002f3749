// Package game runs a single game between a human and the bot, or between
// two humans, on top of the board and engine packages.
package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hailam/pawnbot/internal/board"
	"github.com/hailam/pawnbot/internal/engine"
	"github.com/hailam/pawnbot/internal/storage"
)

var (
	ErrNotYourTurn   = errors.New("not your turn")
	ErrIllegalMove   = errors.New("illegal move")
	ErrGameOver      = errors.New("game over")
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Options configures a new Session.
type Options struct {
	// ID identifies the game. Empty means a fresh UUID.
	ID    string
	Level int
	// Human is the colour the human plays. Ignored when TwoPlayer is set.
	Human     board.Color
	TwoPlayer bool
	// Start is the initial position. nil means the standard start.
	Start  *board.State
	Engine *engine.Engine
	Logger zerolog.Logger
}

// Session is one game. It is not safe for concurrent use.
type Session struct {
	id        string
	level     int
	human     board.Color
	twoPlayer bool
	eng       *engine.Engine
	log       zerolog.Logger
	started   time.Time

	// states[i+1] = ApplyMove(states[i], moves[i])
	states []board.State
	moves  []board.Move

	// Undone plies, most recently undone last.
	redo []board.Move
}

// NewSession starts a game.
func NewSession(opts Options) *Session {
	start := board.InitialState()
	if opts.Start != nil {
		start = *opts.Start
	}
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	if opts.Engine == nil {
		opts.Engine = engine.NewEngine()
	}

	s := &Session{
		id:        opts.ID,
		level:     max(opts.Level, engine.MinLevel),
		human:     opts.Human,
		twoPlayer: opts.TwoPlayer,
		eng:       opts.Engine,
		log:       opts.Logger.With().Str("game", opts.ID).Logger(),
		started:   time.Now(),
		states:    []board.State{start},
	}
	s.log.Info().
		Int("level", s.level).
		Str("human", s.human.String()).
		Bool("two_player", s.twoPlayer).
		Msg("game started")
	return s
}

// Resume rebuilds a session from an archived record by replaying its moves.
func Resume(rec storage.GameRecord, opts Options) (*Session, error) {
	start, err := board.ParseFEN(rec.StartFEN)
	if err != nil {
		return nil, fmt.Errorf("resume %s: %w", rec.ID, err)
	}
	opts.ID = rec.ID
	opts.Start = &start
	opts.Level = rec.Level
	if rec.HumanColor == "" {
		opts.TwoPlayer = true
	} else if opts.Human, err = board.ParseColor(rec.HumanColor); err != nil {
		return nil, fmt.Errorf("resume %s: %w", rec.ID, err)
	}

	s := NewSession(opts)
	if !rec.StartedAt.IsZero() {
		s.started = rec.StartedAt
	}
	for i, str := range rec.Moves {
		m, err := board.ParseMove(str, s.State())
		if err != nil {
			return nil, fmt.Errorf("resume %s: ply %d: %w", rec.ID, i+1, err)
		}
		s.push(m)
	}
	return s, nil
}

// ID returns the game identifier.
func (s *Session) ID() string { return s.id }

// Level returns the bot level.
func (s *Session) Level() int { return s.level }

// Human returns the colour played by the human.
func (s *Session) Human() board.Color { return s.human }

// TwoPlayer reports whether both sides are human.
func (s *Session) TwoPlayer() bool { return s.twoPlayer }

// StartedAt returns when the game began.
func (s *Session) StartedAt() time.Time { return s.started }

// SetLevel changes the bot level for subsequent bot moves.
func (s *Session) SetLevel(level int) {
	s.level = max(level, engine.MinLevel)
}

// State returns the current position.
func (s *Session) State() board.State {
	return s.states[len(s.states)-1]
}

// History returns the moves played so far.
func (s *Session) History() []board.Move {
	return append([]board.Move(nil), s.moves...)
}

// SAN returns the moves played so far in algebraic notation.
func (s *Session) SAN() []string {
	return board.MovesToSAN(s.states[0], s.moves)
}

// LastMove returns the most recent move, or board.NoMove.
func (s *Session) LastMove() board.Move {
	if len(s.moves) == 0 {
		return board.NoMove
	}
	return s.moves[len(s.moves)-1]
}

// Moves returns the moves available from sq in the current position.
func (s *Session) Moves(sq board.Square) []board.Move {
	return board.GenerateMoves(s.State(), sq)
}

// BotToMove reports whether the bot should play next.
func (s *Session) BotToMove() bool {
	return !s.twoPlayer && !s.Over() && s.State().Turn != s.human
}

// Over reports whether the side to move has no pseudo-legal moves.
func (s *Session) Over() bool {
	return !board.HasMoves(s.State())
}

// Result returns "1-0" or "0-1" once the game is over (the side left without
// moves loses) and "*" while it is in progress.
func (s *Session) Result() string {
	if !s.Over() {
		return "*"
	}
	if s.State().Turn == board.White {
		return "0-1"
	}
	return "1-0"
}

// Outcome classifies the game for the statistics store.
func (s *Session) Outcome() storage.Outcome {
	switch {
	case !s.Over():
		return storage.OutcomeUnfinished
	case s.twoPlayer:
		return storage.OutcomeTwoPlayer
	case s.State().Turn == s.human:
		return storage.OutcomeBotWin
	default:
		return storage.OutcomeHumanWin
	}
}

// Play makes a human move from one square to another. The first generated
// move reaching to is used. Dropping the king on one of its own rooks
// castles towards that rook.
func (s *Session) Play(from, to board.Square) (board.Move, error) {
	st := s.State()
	if s.Over() {
		return board.NoMove, ErrGameOver
	}
	if !s.twoPlayer && st.Turn != s.human {
		return board.NoMove, ErrNotYourTurn
	}
	piece := st.PieceAt(from)
	if piece == board.NoPiece {
		return board.NoMove, fmt.Errorf("%w: no piece on %s", ErrIllegalMove, from)
	}
	if piece.Color() != st.Turn {
		return board.NoMove, ErrNotYourTurn
	}

	m, ok := board.FindMove(st, from, to)
	if !ok {
		m, ok = castleOntoRook(st, from, to)
	}
	if !ok {
		return board.NoMove, fmt.Errorf("%w: %s%s", ErrIllegalMove, from, to)
	}

	s.push(m)
	s.redo = s.redo[:0]
	s.log.Debug().Str("move", m.String()).Str("fen", s.State().FEN()).Msg("human move")
	return m, nil
}

func castleOntoRook(st board.State, from, to board.Square) (board.Move, bool) {
	king, rook := st.PieceAt(from), st.PieceAt(to)
	if king.Type() != board.King || rook != board.NewPiece(board.Rook, king.Color()) || from.Rank() != to.Rank() {
		return board.NoMove, false
	}
	want := board.SpecialCastleKingside
	if to.File() < from.File() {
		want = board.SpecialCastleQueenside
	}
	for _, m := range board.GenerateMoves(st, from) {
		if m.Special == want {
			return m, true
		}
	}
	return board.NoMove, false
}

// BotMove lets the engine play for the side to move.
func (s *Session) BotMove(ctx context.Context) (board.Move, error) {
	m := s.eng.SelectMove(ctx, s.State(), s.level)
	if m == board.NoMove {
		return board.NoMove, ErrGameOver
	}
	if err := ctx.Err(); err != nil {
		// The search was cut short; leave the position alone.
		return board.NoMove, err
	}
	return m, s.PlayEngineMove(m)
}

// PlayEngineMove applies a move chosen by an engine search that ran outside
// the session. m must be one of the generated moves of the current position.
func (s *Session) PlayEngineMove(m board.Move) error {
	if s.Over() {
		return ErrGameOver
	}
	if !isGenerated(s.State(), m) {
		return fmt.Errorf("%w: %s", ErrIllegalMove, m)
	}

	s.push(m)
	s.redo = s.redo[:0]
	s.log.Debug().Str("move", m.String()).Int("level", s.level).Msg("bot move")
	if s.Over() {
		s.log.Info().Str("result", s.Result()).Int("plies", len(s.moves)).Msg("game over")
	}
	return nil
}

func isGenerated(st board.State, m board.Move) bool {
	for _, g := range board.GenerateMoves(st, m.From) {
		if g == m {
			return true
		}
	}
	return false
}

// Undo takes back moves until the human is to move again: one ply in a
// two-player game, or the bot's reply together with the human move.
func (s *Session) Undo() error {
	if len(s.moves) == 0 {
		return ErrNothingToUndo
	}
	s.pop()
	for !s.twoPlayer && len(s.moves) > 0 && s.State().Turn != s.human {
		s.pop()
	}
	return nil
}

// Redo replays undone moves up to the next position where the human is to
// move.
func (s *Session) Redo() error {
	if len(s.redo) == 0 {
		return ErrNothingToRedo
	}
	s.unpop()
	for !s.twoPlayer && len(s.redo) > 0 && s.State().Turn != s.human {
		s.unpop()
	}
	return nil
}

func (s *Session) push(m board.Move) {
	s.states = append(s.states, board.ApplyMove(s.State(), m))
	s.moves = append(s.moves, m)
}

func (s *Session) pop() {
	last := len(s.moves) - 1
	s.redo = append(s.redo, s.moves[last])
	s.moves = s.moves[:last]
	s.states = s.states[:last+1]
}

func (s *Session) unpop() {
	last := len(s.redo) - 1
	m := s.redo[last]
	s.redo = s.redo[:last]
	s.push(m)
}

// Record returns the archive form of the game.
func (s *Session) Record() storage.GameRecord {
	moves := make([]string, len(s.moves))
	for i, m := range s.moves {
		moves[i] = m.String()
	}
	human := ""
	if !s.twoPlayer {
		human = s.human.String()
	}
	return storage.GameRecord{
		ID:         s.id,
		StartFEN:   s.states[0].FEN(),
		Moves:      moves,
		FinalFEN:   s.State().FEN(),
		Result:     s.Result(),
		Level:      s.level,
		HumanColor: human,
		StartedAt:  s.started,
		UpdatedAt:  time.Now(),
	}
}
