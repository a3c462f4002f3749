package game

import (
	"context"
	"errors"
	"testing"

	"github.com/hailam/pawnbot/internal/board"
	"github.com/hailam/pawnbot/internal/storage"
)

func mustState(t *testing.T, fen string) *board.State {
	t.Helper()
	st, err := board.ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	return &st
}

func TestPlayAndBotReply(t *testing.T) {
	s := NewSession(Options{Level: 1})

	m, err := s.Play(board.E2, board.E4)
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	if m != board.NewMove(board.E2, board.E4) {
		t.Errorf("Play returned %v", m)
	}
	if !s.BotToMove() {
		t.Fatal("bot should be to move")
	}

	if _, err := s.Play(board.D2, board.D4); !errors.Is(err, ErrNotYourTurn) {
		t.Errorf("second human move: %v, want ErrNotYourTurn", err)
	}

	reply, err := s.BotMove(context.Background())
	if err != nil {
		t.Fatalf("BotMove: %v", err)
	}
	if s.State().PieceAt(reply.To).Color() != board.Black {
		t.Errorf("bot move %v did not move a black piece", reply)
	}
	if len(s.History()) != 2 || s.State().Turn != board.White {
		t.Errorf("history %v, turn %v", s.History(), s.State().Turn)
	}
}

func TestPlayRejects(t *testing.T) {
	s := NewSession(Options{TwoPlayer: true})

	tests := []struct {
		name     string
		from, to board.Square
		want     error
	}{
		{"empty square", board.E4, board.E5, ErrIllegalMove},
		{"opponent piece", board.E7, board.E5, ErrNotYourTurn},
		{"unreachable", board.E2, board.E5, ErrIllegalMove},
		{"own piece", board.D1, board.D2, ErrIllegalMove},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := s.Play(tc.from, tc.to); !errors.Is(err, tc.want) {
				t.Errorf("got %v, want %v", err, tc.want)
			}
		})
	}
	if len(s.History()) != 0 {
		t.Error("rejected moves changed the game")
	}
}

func TestCastleByDroppingKingOnRook(t *testing.T) {
	s := NewSession(Options{TwoPlayer: true, Start: mustState(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")})

	m, err := s.Play(board.E1, board.H1)
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	if m.Special != board.SpecialCastleKingside {
		t.Errorf("got %v (%v), want kingside castling", m, m.Special)
	}
	st := s.State()
	if st.PieceAt(board.G1) != board.WhiteKing || st.PieceAt(board.F1) != board.WhiteRook {
		t.Errorf("castling not applied:\n%s", st)
	}

	m, err = s.Play(board.E8, board.A8)
	if err != nil || m.Special != board.SpecialCastleQueenside {
		t.Errorf("black queenside by rook drop: %v, %v", m, err)
	}
}

func TestGameOver(t *testing.T) {
	// White to move with a single blocked pawn and no king.
	s := NewSession(Options{Start: mustState(t, "7k/8/8/8/8/p7/P7/8 w - - 0 1")})

	if !s.Over() {
		t.Fatal("expected game over")
	}
	if s.Result() != "0-1" {
		t.Errorf("Result = %q, want 0-1", s.Result())
	}
	if s.Outcome() != storage.OutcomeBotWin {
		t.Errorf("Outcome = %v, want bot win", s.Outcome())
	}
	if _, err := s.Play(board.A2, board.A3); !errors.Is(err, ErrGameOver) {
		t.Errorf("Play after game over: %v", err)
	}
	if _, err := s.BotMove(context.Background()); !errors.Is(err, ErrGameOver) {
		t.Errorf("BotMove after game over: %v", err)
	}
	if s.BotToMove() {
		t.Error("bot to move in a finished game")
	}
}

func TestKingCaptureDoesNotEndGame(t *testing.T) {
	s := NewSession(Options{TwoPlayer: true, Start: mustState(t, "4k3/p7/8/8/8/8/8/4RK2 w - - 0 1")})
	if _, err := s.Play(board.E1, board.E8); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if s.Over() {
		t.Error("game over only because a king was taken")
	}
	if s.Result() != "*" {
		t.Errorf("Result = %q", s.Result())
	}
}

func TestUndoRedoAgainstBot(t *testing.T) {
	s := NewSession(Options{Level: 0})
	if err := s.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("Undo at start: %v", err)
	}
	if err := s.Redo(); !errors.Is(err, ErrNothingToRedo) {
		t.Errorf("Redo at start: %v", err)
	}

	s.Play(board.E2, board.E4)
	s.BotMove(context.Background())
	afterReply := s.State()

	if err := s.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if s.State() != board.InitialState() {
		t.Errorf("Undo should remove the bot reply and the human move:\n%s", s.State())
	}

	if err := s.Redo(); err != nil {
		t.Fatalf("Redo: %v", err)
	}
	if s.State() != afterReply {
		t.Errorf("Redo did not restore both plies")
	}

	// A new move discards the redo stack.
	s.Undo()
	s.Play(board.D2, board.D4)
	if err := s.Redo(); !errors.Is(err, ErrNothingToRedo) {
		t.Errorf("Redo after new move: %v", err)
	}
}

func TestUndoTwoPlayer(t *testing.T) {
	s := NewSession(Options{TwoPlayer: true})
	s.Play(board.E2, board.E4)
	s.Play(board.E7, board.E5)

	if err := s.Undo(); err != nil {
		t.Fatal(err)
	}
	if len(s.History()) != 1 || s.State().Turn != board.Black {
		t.Errorf("two-player undo should take back one ply, history %v", s.History())
	}
}

func TestBotPlaysWhite(t *testing.T) {
	s := NewSession(Options{Human: board.Black, Level: 0})
	if !s.BotToMove() {
		t.Fatal("bot should open when the human plays black")
	}
	if _, err := s.Play(board.E7, board.E5); !errors.Is(err, ErrNotYourTurn) {
		t.Errorf("human moved on the bot's turn: %v", err)
	}
	if _, err := s.BotMove(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Play(board.E7, board.E5); err != nil {
		t.Errorf("human reply: %v", err)
	}
}

func TestBotMoveCancelled(t *testing.T) {
	s := NewSession(Options{Level: 4, Human: board.Black})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.BotMove(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("BotMove: %v, want context.Canceled", err)
	}
	if len(s.History()) != 0 {
		t.Error("cancelled bot move was applied")
	}
}

func TestRecordAndResume(t *testing.T) {
	s := NewSession(Options{Level: 3, Human: board.White})
	s.Play(board.E2, board.E4)
	s.BotMove(context.Background())
	s.Play(board.G1, board.F3)

	rec := s.Record()
	if rec.ID != s.ID() || len(rec.Moves) != 3 || rec.Moves[0] != "e2e4" {
		t.Errorf("Record = %+v", rec)
	}
	if rec.StartFEN != board.StartFEN || rec.FinalFEN != s.State().FEN() {
		t.Errorf("Record FENs = %q, %q", rec.StartFEN, rec.FinalFEN)
	}
	if rec.Result != "*" || rec.HumanColor != "White" || rec.Level != 3 {
		t.Errorf("Record metadata = %+v", rec)
	}

	resumed, err := Resume(rec, Options{})
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if resumed.State() != s.State() || resumed.Level() != 3 || resumed.Human() != board.White {
		t.Errorf("resumed game differs")
	}
	if !resumed.BotToMove() {
		t.Error("resumed game should wait for the bot")
	}

	rec.Moves = append(rec.Moves, "a1a8")
	if _, err := Resume(rec, Options{}); err == nil {
		t.Error("Resume accepted an unplayable move")
	}
}

func TestSAN(t *testing.T) {
	s := NewSession(Options{TwoPlayer: true})
	s.Play(board.E2, board.E4)
	s.Play(board.D7, board.D5)
	s.Play(board.E4, board.D5)

	want := []string{"e4", "d5", "exd5"}
	got := s.SAN()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("SAN = %v, want %v", got, want)
			break
		}
	}
}

func TestPlayEngineMove(t *testing.T) {
	s := NewSession(Options{TwoPlayer: true})
	if err := s.PlayEngineMove(board.NewMove(board.E2, board.E5)); !errors.Is(err, ErrIllegalMove) {
		t.Errorf("ungenerated move: %v", err)
	}
	if err := s.PlayEngineMove(board.NewMove(board.G1, board.F3)); err != nil {
		t.Errorf("generated move: %v", err)
	}
	if s.LastMove() != board.NewMove(board.G1, board.F3) {
		t.Errorf("LastMove = %v", s.LastMove())
	}
}
