package board

import (
	"encoding/json"
	"fmt"
)

// Special tags the moves whose application has side effects beyond
// relocating a single piece. Promotion is not tagged; it follows from the
// moving piece and the destination rank.
type Special uint8

const (
	SpecialNone Special = iota
	SpecialEnPassant
	SpecialCastleKingside
	SpecialCastleQueenside
)

// String returns the wire name of the tag.
func (sp Special) String() string {
	switch sp {
	case SpecialEnPassant:
		return "en-passant"
	case SpecialCastleKingside:
		return "castle-kingside"
	case SpecialCastleQueenside:
		return "castle-queenside"
	default:
		return "none"
	}
}

// ParseSpecial is the inverse of Special.String.
func ParseSpecial(s string) (Special, error) {
	switch s {
	case "", "none":
		return SpecialNone, nil
	case "en-passant":
		return SpecialEnPassant, nil
	case "castle-kingside":
		return SpecialCastleKingside, nil
	case "castle-queenside":
		return SpecialCastleQueenside, nil
	}
	return SpecialNone, fmt.Errorf("invalid special move tag: %q", s)
}

// Move is a pseudo-legal move. Capture is advisory and never consulted when
// the move is applied.
type Move struct {
	From    Square
	To      Square
	Capture bool
	Special Special
}

// NoMove represents the absence of a move.
var NoMove = Move{From: NoSquare, To: NoSquare}

// NewMove creates a quiet move.
func NewMove(from, to Square) Move {
	return Move{From: from, To: to}
}

// NewCapture creates a capturing move.
func NewCapture(from, to Square) Move {
	return Move{From: from, To: to, Capture: true}
}

// IsCastling returns true if this is a castling move.
func (m Move) IsCastling() bool {
	return m.Special == SpecialCastleKingside || m.Special == SpecialCastleQueenside
}

// IsEnPassant returns true if this is an en passant capture.
func (m Move) IsEnPassant() bool {
	return m.Special == SpecialEnPassant
}

// String returns the UCI format of the move (e.g., "e2e4").
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}
	return m.From.String() + m.To.String()
}

type moveJSON struct {
	From    Square `json:"from"`
	To      Square `json:"to"`
	Capture bool   `json:"capture"`
	Special string `json:"special"`
}

// MarshalJSON encodes the move with square names and the special tag name.
func (m Move) MarshalJSON() ([]byte, error) {
	return json.Marshal(moveJSON{
		From:    m.From,
		To:      m.To,
		Capture: m.Capture,
		Special: m.Special.String(),
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Move) UnmarshalJSON(b []byte) error {
	var mj moveJSON
	if err := json.Unmarshal(b, &mj); err != nil {
		return err
	}
	sp, err := ParseSpecial(mj.Special)
	if err != nil {
		return err
	}
	*m = Move{From: mj.From, To: mj.To, Capture: mj.Capture, Special: sp}
	return nil
}

// ParseMove resolves a UCI move string ("e2e4", "e7e8q") against the moves
// generated for s. A promotion suffix is accepted and ignored: pawns always
// promote to a queen.
func ParseMove(s string, st State) (Move, error) {
	if len(s) < 4 || len(s) > 5 {
		return NoMove, fmt.Errorf("invalid move string: %s", s)
	}

	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, err
	}

	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, err
	}

	if len(s) == 5 {
		switch s[4] {
		case 'q', 'r', 'b', 'n':
		default:
			return NoMove, fmt.Errorf("invalid promotion piece: %c", s[4])
		}
	}

	if st.PieceAt(from) == NoPiece {
		return NoMove, fmt.Errorf("no piece at %s", from)
	}

	if m, ok := FindMove(st, from, to); ok {
		return m, nil
	}
	return NoMove, fmt.Errorf("move %s is not playable in this position", s)
}

// FindMove returns the first generated move from from to to.
func FindMove(st State, from, to Square) (Move, bool) {
	for _, m := range GenerateMoves(st, from) {
		if m.To == to {
			return m, true
		}
	}
	return NoMove, false
}
