package board

import (
	"fmt"
	"strings"
)

// CastlingRights represents the available castling options.
type CastlingRights uint8

const (
	WhiteKingSideCastle  CastlingRights = 1 << iota // K
	WhiteQueenSideCastle                            // Q
	BlackKingSideCastle                             // k
	BlackQueenSideCastle                            // q
	NoCastling           CastlingRights = 0
	AllCastling          CastlingRights = WhiteKingSideCastle | WhiteQueenSideCastle | BlackKingSideCastle | BlackQueenSideCastle
)

// String returns the FEN castling rights string.
func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	s := ""
	if cr&WhiteKingSideCastle != 0 {
		s += "K"
	}
	if cr&WhiteQueenSideCastle != 0 {
		s += "Q"
	}
	if cr&BlackKingSideCastle != 0 {
		s += "k"
	}
	if cr&BlackQueenSideCastle != 0 {
		s += "q"
	}
	return s
}

// CanCastle returns true if the given side can castle in the given direction.
func (cr CastlingRights) CanCastle(c Color, kingSide bool) bool {
	return cr&castleRight(c, kingSide) != 0
}

func castleRight(c Color, kingSide bool) CastlingRights {
	if c == White {
		if kingSide {
			return WhiteKingSideCastle
		}
		return WhiteQueenSideCastle
	}
	if kingSide {
		return BlackKingSideCastle
	}
	return BlackQueenSideCastle
}

// State is a complete game state. It is a plain value: assigning or passing
// a State copies the board, so a State handed to ApplyMove or to the search
// is never modified.
type State struct {
	Board [64]Piece

	Turn           Color
	Castling       CastlingRights
	EnPassant      Square // Target square for en passant, NoSquare if none
	HalfMoveClock  int    // Not consulted by any rule
	FullMoveNumber int    // Full move counter, starts at 1
}

// InitialState returns the standard starting position.
func InitialState() State {
	s := EmptyState()
	back := [8]PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}
	for file := 0; file < 8; file++ {
		s.Board[NewSquare(file, 0)] = NewPiece(back[file], White)
		s.Board[NewSquare(file, 1)] = WhitePawn
		s.Board[NewSquare(file, 6)] = BlackPawn
		s.Board[NewSquare(file, 7)] = NewPiece(back[file], Black)
	}
	s.Castling = AllCastling
	return s
}

// EmptyState returns an empty board with White to move.
func EmptyState() State {
	return State{
		Turn:           White,
		EnPassant:      NoSquare,
		FullMoveNumber: 1,
	}
}

// PieceAt returns the piece at the given square, or NoPiece if empty or the
// square is invalid.
func (s State) PieceAt(sq Square) Piece {
	if !sq.IsValid() {
		return NoPiece
	}
	return s.Board[sq]
}

// IsEmpty returns true if the square is empty.
func (s State) IsEmpty(sq Square) bool {
	return s.PieceAt(sq) == NoPiece
}

// With returns a copy of s with piece placed on sq. Intended for building
// positions in setup code and tests.
func (s State) With(sq Square, p Piece) State {
	if sq.IsValid() {
		s.Board[sq] = p
	}
	return s
}

// Count returns how many pieces p stand on the board.
func (s State) Count(p Piece) int {
	n := 0
	for _, q := range s.Board {
		if q == p {
			n++
		}
	}
	return n
}

// String returns a visual representation of the position.
func (s State) String() string {
	var sb strings.Builder
	sb.WriteString("\n")
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(&sb, "%d  ", rank+1)
		for file := 0; file < 8; file++ {
			piece := s.Board[NewSquare(file, rank)]
			if piece == NoPiece {
				sb.WriteString(". ")
			} else {
				sb.WriteString(piece.String() + " ")
			}
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n   a b c d e f g h\n\n")
	fmt.Fprintf(&sb, "Side to move: %s\n", s.Turn)
	fmt.Fprintf(&sb, "Castling: %s\n", s.Castling)
	fmt.Fprintf(&sb, "En passant: %s\n", s.EnPassant)
	fmt.Fprintf(&sb, "Half-move clock: %d\n", s.HalfMoveClock)
	fmt.Fprintf(&sb, "Full move: %d\n", s.FullMoveNumber)
	fmt.Fprintf(&sb, "Hash: %016x\n", s.Hash())
	return sb.String()
}
