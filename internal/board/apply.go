package board

// Rook relocation for castling, indexed by the color of the castling king.
var castleRookSquares = [2]struct {
	kingSideFrom, kingSideTo   Square
	queenSideFrom, queenSideTo Square
}{
	White: {kingSideFrom: H1, kingSideTo: F1, queenSideFrom: A1, queenSideTo: D1},
	Black: {kingSideFrom: H8, kingSideTo: F8, queenSideFrom: A8, queenSideTo: D8},
}

// Corner squares whose involvement in a move revokes a castling right.
var cornerRights = [...]struct {
	sq    Square
	right CastlingRights
}{
	{A1, WhiteQueenSideCastle},
	{H1, WhiteKingSideCastle},
	{A8, BlackQueenSideCastle},
	{H8, BlackKingSideCastle},
}

// ApplyMove returns the state after playing m on s. s itself is never
// modified. The move is trusted: no legality check is made. A move whose
// origin is empty or whose squares are invalid returns s unchanged.
func ApplyMove(s State, m Move) State {
	if !m.From.IsValid() || !m.To.IsValid() {
		return s
	}
	piece := s.Board[m.From]
	if piece == NoPiece {
		return s
	}

	ns := s // value copy; ns shares nothing with s
	mover := piece.Color()
	captured := ns.Board[m.To]

	ns.Board[m.To] = piece
	ns.Board[m.From] = NoPiece

	switch m.Special {
	case SpecialEnPassant:
		// The captured pawn sits behind the destination from the mover's view.
		dir := -1
		if mover == Black {
			dir = 1
		}
		if capSq := m.To.Offset(0, dir); capSq.IsValid() {
			if ns.Board[capSq] != NoPiece {
				captured = ns.Board[capSq]
			}
			ns.Board[capSq] = NoPiece
		}
	case SpecialCastleKingside:
		rs := castleRookSquares[mover]
		ns.Board[rs.kingSideFrom] = NoPiece
		ns.Board[rs.kingSideTo] = NewPiece(Rook, mover)
	case SpecialCastleQueenside:
		rs := castleRookSquares[mover]
		ns.Board[rs.queenSideFrom] = NoPiece
		ns.Board[rs.queenSideTo] = NewPiece(Rook, mover)
	}

	// Promotion always produces a queen.
	if piece.Type() == Pawn && m.To.RelativeRank(mover) == 7 {
		ns.Board[m.To] = NewPiece(Queen, mover)
	}

	if piece.Type() == King {
		ns.Castling &^= castleRight(mover, true) | castleRight(mover, false)
	}
	for _, cr := range cornerRights {
		if m.From == cr.sq || m.To == cr.sq {
			ns.Castling &^= cr.right
		}
	}

	ns.EnPassant = NoSquare
	if piece.Type() == Pawn {
		if d := m.To.Rank() - m.From.Rank(); d == 2 || d == -2 {
			ns.EnPassant = NewSquare(m.From.File(), (m.From.Rank()+m.To.Rank())/2)
		}
	}

	if piece.Type() == Pawn || captured != NoPiece {
		ns.HalfMoveClock = 0
	} else {
		ns.HalfMoveClock++
	}
	if s.Turn == Black {
		ns.FullMoveNumber++
	}

	ns.Turn = s.Turn.Other()
	return ns
}
