package board

// Direction sets as (file, rank) deltas.
var (
	knightOffsets = [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	bishopDirs    = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	rookDirs      = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	queenDirs     = [8][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}, {1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	kingOffsets   = [8][2]int{{-1, -1}, {-1, 0}, {-1, 1}, {0, -1}, {0, 1}, {1, -1}, {1, 0}, {1, 1}}
)

// Castling geometry per color: king home, kingside and queenside targets and
// the squares that must be empty between king and rook.
type castleSquares struct {
	king         Square
	kingSideTo   Square
	queenSideTo  Square
	kingSideGap  [2]Square
	queenSideGap [3]Square
}

var castling = [2]castleSquares{
	White: {king: E1, kingSideTo: G1, queenSideTo: C1, kingSideGap: [2]Square{F1, G1}, queenSideGap: [3]Square{D1, C1, B1}},
	Black: {king: E8, kingSideTo: G8, queenSideTo: C8, kingSideGap: [2]Square{F8, G8}, queenSideGap: [3]Square{D8, C8, B8}},
}

// GenerateMoves returns the pseudo-legal moves of the piece on from. The
// result is empty when from is invalid, empty, or holds a piece of the side
// not to move. Moves that leave the mover's king in check are not removed.
func GenerateMoves(s State, from Square) []Move {
	piece := s.PieceAt(from)
	if piece == NoPiece || piece.Color() != s.Turn {
		return nil
	}

	us := piece.Color()
	var moves []Move

	switch piece.Type() {
	case Pawn:
		moves = genPawn(s, from, us, moves)
	case Knight:
		moves = genLeaper(s, from, us, knightOffsets[:], moves)
	case Bishop:
		moves = genSlider(s, from, us, bishopDirs[:], moves)
	case Rook:
		moves = genSlider(s, from, us, rookDirs[:], moves)
	case Queen:
		moves = genSlider(s, from, us, queenDirs[:], moves)
	case King:
		moves = genLeaper(s, from, us, kingOffsets[:], moves)
		moves = genCastling(s, from, us, moves)
	}

	return moves
}

// GenerateMovesAt is GenerateMoves keyed by square name. Malformed names
// yield no moves.
func GenerateMovesAt(s State, name string) []Move {
	sq, err := ParseSquare(name)
	if err != nil {
		return nil
	}
	return GenerateMoves(s, sq)
}

// GenerateAll returns the pseudo-legal moves of every piece of the side to
// move, visiting origin squares in A1..H8 order. The order is stable and the
// search relies on it for tie-breaking.
func GenerateAll(s State) []Move {
	var all []Move
	for sq := A1; sq <= H8; sq++ {
		p := s.Board[sq]
		if p == NoPiece || p.Color() != s.Turn {
			continue
		}
		all = append(all, GenerateMoves(s, sq)...)
	}
	return all
}

// HasMoves reports whether the side to move has any pseudo-legal move.
func HasMoves(s State) bool {
	for sq := A1; sq <= H8; sq++ {
		p := s.Board[sq]
		if p != NoPiece && p.Color() == s.Turn && len(GenerateMoves(s, sq)) > 0 {
			return true
		}
	}
	return false
}

// genPawn generates pushes, double pushes, captures and en passant.
// Promotions are not distinguished here; ApplyMove resolves them.
func genPawn(s State, from Square, us Color, moves []Move) []Move {
	dir, startRank := 1, 1
	if us == Black {
		dir, startRank = -1, 6
	}

	one := from.Offset(0, dir)
	if one.IsValid() && s.IsEmpty(one) {
		moves = append(moves, NewMove(from, one))
		if from.Rank() == startRank {
			two := from.Offset(0, 2*dir)
			if two.IsValid() && s.IsEmpty(two) {
				moves = append(moves, NewMove(from, two))
			}
		}
	}

	for _, df := range [2]int{-1, 1} {
		to := from.Offset(df, dir)
		if !to.IsValid() {
			continue
		}
		if target := s.Board[to]; target != NoPiece && target.Color() != us {
			moves = append(moves, NewCapture(from, to))
		}
		if to == s.EnPassant {
			moves = append(moves, Move{From: from, To: to, Capture: true, Special: SpecialEnPassant})
		}
	}

	return moves
}

// genLeaper generates single-step moves onto non-friendly squares.
func genLeaper(s State, from Square, us Color, offsets [][2]int, moves []Move) []Move {
	for _, d := range offsets {
		to := from.Offset(d[0], d[1])
		if !to.IsValid() {
			continue
		}
		target := s.Board[to]
		switch {
		case target == NoPiece:
			moves = append(moves, NewMove(from, to))
		case target.Color() != us:
			moves = append(moves, NewCapture(from, to))
		}
	}
	return moves
}

// genSlider casts rays until the board edge, a friendly piece (excluded) or
// an enemy piece (included).
func genSlider(s State, from Square, us Color, dirs [][2]int, moves []Move) []Move {
	for _, d := range dirs {
		for to := from.Offset(d[0], d[1]); to.IsValid(); to = to.Offset(d[0], d[1]) {
			target := s.Board[to]
			if target == NoPiece {
				moves = append(moves, NewMove(from, to))
				continue
			}
			if target.Color() != us {
				moves = append(moves, NewCapture(from, to))
			}
			break
		}
	}
	return moves
}

// genCastling adds castling moves for a king on its home square. Only the
// rights and the emptiness of the squares between king and rook are
// checked; attacked squares are not.
func genCastling(s State, from Square, us Color, moves []Move) []Move {
	cs := castling[us]
	if from != cs.king {
		return moves
	}

	if s.Castling.CanCastle(us, true) && allEmpty(s, cs.kingSideGap[:]) {
		moves = append(moves, Move{From: from, To: cs.kingSideTo, Special: SpecialCastleKingside})
	}
	if s.Castling.CanCastle(us, false) && allEmpty(s, cs.queenSideGap[:]) {
		moves = append(moves, Move{From: from, To: cs.queenSideTo, Special: SpecialCastleQueenside})
	}

	return moves
}

func allEmpty(s State, squares []Square) bool {
	for _, sq := range squares {
		if !s.IsEmpty(sq) {
			return false
		}
	}
	return true
}
