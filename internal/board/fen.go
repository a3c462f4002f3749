package board

import (
	"fmt"
	"strconv"
	"strings"
)

// StartFEN is the FEN string for the starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ParseFEN parses a FEN string and returns a State.
func ParseFEN(fen string) (State, error) {
	parts := strings.Fields(fen)
	if len(parts) < 4 {
		return State{}, fmt.Errorf("invalid FEN: need at least 4 fields, got %d", len(parts))
	}

	s := EmptyState()

	// Parse piece placement (field 0)
	if err := parsePiecePlacement(&s, parts[0]); err != nil {
		return State{}, err
	}

	// Parse side to move (field 1)
	switch parts[1] {
	case "w":
		s.Turn = White
	case "b":
		s.Turn = Black
	default:
		return State{}, fmt.Errorf("invalid side to move: %s", parts[1])
	}

	// Parse castling rights (field 2)
	if err := parseCastlingRights(&s, parts[2]); err != nil {
		return State{}, err
	}

	// Parse en passant square (field 3)
	if parts[3] != "-" {
		sq, err := ParseSquare(parts[3])
		if err != nil {
			return State{}, fmt.Errorf("invalid en passant square: %s", parts[3])
		}
		s.EnPassant = sq
	}

	// Parse half-move clock (field 4, optional)
	if len(parts) > 4 {
		hmc, err := strconv.Atoi(parts[4])
		if err != nil {
			return State{}, fmt.Errorf("invalid half-move clock: %s", parts[4])
		}
		s.HalfMoveClock = hmc
	}

	// Parse full-move number (field 5, optional)
	if len(parts) > 5 {
		fmn, err := strconv.Atoi(parts[5])
		if err != nil {
			return State{}, fmt.Errorf("invalid full-move number: %s", parts[5])
		}
		s.FullMoveNumber = fmn
	}

	return s, nil
}

// MustParseFEN is like ParseFEN but panics on error. For fixed positions in
// tests and tables.
func MustParseFEN(fen string) State {
	s, err := ParseFEN(fen)
	if err != nil {
		panic(err)
	}
	return s
}

// parsePiecePlacement parses the piece placement section of a FEN string.
func parsePiecePlacement(s *State, placement string) error {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return fmt.Errorf("invalid piece placement: need 8 ranks, got %d", len(ranks))
	}

	for i, rankStr := range ranks {
		rank := 7 - i // FEN starts from rank 8
		file := 0

		for _, c := range rankStr {
			if file > 7 {
				return fmt.Errorf("too many squares in rank %d", rank+1)
			}

			if c >= '1' && c <= '8' {
				file += int(c - '0')
				continue
			}

			piece := PieceFromChar(byte(c))
			if piece == NoPiece {
				return fmt.Errorf("invalid piece character: %c", c)
			}
			s.Board[NewSquare(file, rank)] = piece
			file++
		}

		if file != 8 {
			return fmt.Errorf("invalid number of squares in rank %d: got %d", rank+1, file)
		}
	}

	return nil
}

// parseCastlingRights parses the castling rights section of a FEN string.
func parseCastlingRights(s *State, castling string) error {
	if castling == "-" {
		s.Castling = NoCastling
		return nil
	}

	for _, c := range castling {
		switch c {
		case 'K':
			s.Castling |= WhiteKingSideCastle
		case 'Q':
			s.Castling |= WhiteQueenSideCastle
		case 'k':
			s.Castling |= BlackKingSideCastle
		case 'q':
			s.Castling |= BlackQueenSideCastle
		default:
			return fmt.Errorf("invalid castling character: %c", c)
		}
	}

	return nil
}

// FEN returns the FEN representation of the state.
func (s State) FEN() string {
	var sb strings.Builder

	// Piece placement
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			piece := s.Board[NewSquare(file, rank)]
			if piece == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteString(piece.String())
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}

	sb.WriteByte(' ')
	sb.WriteByte(s.Turn.Char())

	sb.WriteByte(' ')
	sb.WriteString(s.Castling.String())

	sb.WriteByte(' ')
	sb.WriteString(s.EnPassant.String())

	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(s.HalfMoveClock))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(s.FullMoveNumber))

	return sb.String()
}
