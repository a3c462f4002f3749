package board

import "testing"

func TestApplyMoveDoesNotMutateInput(t *testing.T) {
	s := InitialState()
	before := s
	beforeFEN := s.FEN()

	for _, m := range GenerateAll(s) {
		_ = ApplyMove(s, m)
	}

	if s != before {
		t.Errorf("input state changed:\nbefore %s\nafter  %s", beforeFEN, s.FEN())
	}
}

func TestApplyMoveFlipsTurn(t *testing.T) {
	s := InitialState()
	for i, str := range []string{"e2e4", "e7e5", "g1f3", "b8c6"} {
		m, err := ParseMove(str, s)
		if err != nil {
			t.Fatal(err)
		}
		next := ApplyMove(s, m)
		if next.Turn != s.Turn.Other() {
			t.Fatalf("ply %d: turn = %s, want %s", i, next.Turn, s.Turn.Other())
		}
		s = next
	}
	if s.Turn != White {
		t.Errorf("after four plies turn = %s, want White", s.Turn)
	}
	if s.FullMoveNumber != 3 {
		t.Errorf("full move = %d, want 3", s.FullMoveNumber)
	}
}

func TestApplyMoveIdentityOnEmptyOrigin(t *testing.T) {
	s := InitialState()
	if got := ApplyMove(s, NewMove(E4, E5)); got != s {
		t.Error("move from an empty square changed the state")
	}
	if got := ApplyMove(s, NoMove); got != s {
		t.Error("NoMove changed the state")
	}
}

func TestWhiteKingsideCastle(t *testing.T) {
	s := MustParseFEN("r3k2r/pppppppp/8/8/8/8/PPPPPPPP/R3K2R w KQkq - 0 1")

	m, ok := hasMove(GenerateMoves(s, E1), E1, G1)
	if !ok || m.Special != SpecialCastleKingside {
		t.Fatalf("kingside castle not generated")
	}

	after := ApplyMove(s, m)
	if after.PieceAt(G1) != WhiteKing || after.PieceAt(F1) != WhiteRook {
		t.Errorf("king/rook not relocated:%s", after)
	}
	if !after.IsEmpty(E1) || !after.IsEmpty(H1) {
		t.Errorf("e1/h1 not cleared:%s", after)
	}
	if after.Castling.CanCastle(White, true) || after.Castling.CanCastle(White, false) {
		t.Errorf("white castling rights = %s, want none for white", after.Castling)
	}
	if after.Castling != BlackKingSideCastle|BlackQueenSideCastle {
		t.Errorf("castling = %s, want kq", after.Castling)
	}
}

func TestBlackQueensideCastle(t *testing.T) {
	s := MustParseFEN("r3k2r/8/8/8/8/8/8/R3K2R b KQkq - 0 1")

	m, ok := hasMove(GenerateMoves(s, E8), E8, C8)
	if !ok || m.Special != SpecialCastleQueenside {
		t.Fatalf("queenside castle not generated")
	}

	after := ApplyMove(s, m)
	if after.PieceAt(C8) != BlackKing || after.PieceAt(D8) != BlackRook || !after.IsEmpty(A8) {
		t.Errorf("unexpected board:%s", after)
	}
	if after.Castling != WhiteKingSideCastle|WhiteQueenSideCastle {
		t.Errorf("castling = %s, want KQ", after.Castling)
	}
}

func TestCastlingRightsFromCorners(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		move string
		want CastlingRights
	}{
		{"rook leaves h1", "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", "h1h5", WhiteQueenSideCastle | BlackKingSideCastle | BlackQueenSideCastle},
		{"rook leaves a1", "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", "a1a5", WhiteKingSideCastle | BlackKingSideCastle | BlackQueenSideCastle},
		{"rook captured on a8", "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", "a1a8", WhiteKingSideCastle | BlackKingSideCastle},
		{"king steps", "r3k2r/8/8/8/8/8/8/R3K2R b KQkq - 0 1", "e8d8", WhiteKingSideCastle | WhiteQueenSideCastle},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := MustParseFEN(tc.fen)
			m, err := ParseMove(tc.move, s)
			if err != nil {
				t.Fatal(err)
			}
			if got := ApplyMove(s, m).Castling; got != tc.want {
				t.Errorf("castling = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestPromotion(t *testing.T) {
	s := MustParseFEN("1n2k3/P7/8/8/8/8/7p/4K3 w - - 0 1")

	push := ApplyMove(s, NewMove(A7, A8))
	if push.PieceAt(A8) != WhiteQueen {
		t.Errorf("a8 = %q, want Q", push.PieceAt(A8))
	}

	capture := ApplyMove(s, NewCapture(A7, B8))
	if capture.PieceAt(B8) != WhiteQueen {
		t.Errorf("b8 = %q, want Q", capture.PieceAt(B8))
	}

	black := push
	black = ApplyMove(black, NewMove(H2, H1))
	if black.PieceAt(H1) != BlackQueen {
		t.Errorf("h1 = %q, want q", black.PieceAt(H1))
	}
}

func TestEnPassantTargetOnlyAfterDoublePush(t *testing.T) {
	s := InitialState()

	single := ApplyMove(s, NewMove(E2, E3))
	if single.EnPassant != NoSquare {
		t.Errorf("single push set en passant %s", single.EnPassant)
	}

	double := ApplyMove(s, NewMove(E2, E4))
	if double.EnPassant != E3 {
		t.Errorf("double push en passant = %s, want e3", double.EnPassant)
	}

	knight := ApplyMove(double, NewMove(G8, F6))
	if knight.EnPassant != NoSquare {
		t.Errorf("en passant survived a knight move: %s", knight.EnPassant)
	}
}

func TestHalfMoveClock(t *testing.T) {
	s := play(t, InitialState(), "g1f3", "g8f6")
	if s.HalfMoveClock != 2 {
		t.Errorf("half-move clock = %d, want 2", s.HalfMoveClock)
	}
	s = play(t, s, "e2e4")
	if s.HalfMoveClock != 0 {
		t.Errorf("half-move clock = %d after pawn move, want 0", s.HalfMoveClock)
	}
}

func TestKingCanBeCaptured(t *testing.T) {
	// No check detection: a king left en prise is simply captured.
	s := MustParseFEN("4k3/8/8/8/8/8/8/4R1K1 w - - 0 1")
	m, ok := hasMove(GenerateMoves(s, E1), E1, E8)
	if !ok || !m.Capture {
		t.Fatal("rook should be able to capture the king")
	}
	after := ApplyMove(s, m)
	if after.Count(BlackKing) != 0 {
		t.Error("black king still on the board")
	}
}
