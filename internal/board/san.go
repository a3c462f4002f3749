package board

import (
	"fmt"
	"strings"
)

// SAN returns the move in Standard Algebraic Notation for state s.
// There is no check detection, so "+" and "#" suffixes are never produced.
func (m Move) SAN(s State) string {
	if m == NoMove {
		return "-"
	}

	piece := s.PieceAt(m.From)
	if piece == NoPiece {
		return m.String() // Fallback to UCI
	}

	switch m.Special {
	case SpecialCastleKingside:
		return "O-O"
	case SpecialCastleQueenside:
		return "O-O-O"
	}

	var sb strings.Builder
	pt := piece.Type()

	if pt != Pawn {
		sb.WriteByte("PNBRQK"[pt])
		sb.WriteString(disambiguation(s, m, pt))
	}

	if m.Capture {
		if pt == Pawn {
			// Pawn captures include the file of origin
			sb.WriteByte('a' + byte(m.From.File()))
		}
		sb.WriteByte('x')
	}

	sb.WriteString(m.To.String())

	if pt == Pawn && m.To.RelativeRank(piece.Color()) == 7 {
		sb.WriteString("=Q")
	}

	return sb.String()
}

// disambiguation returns the origin hint needed when another piece of the
// same type can reach the same square.
func disambiguation(s State, m Move, pt PieceType) string {
	var candidates []Square
	for _, other := range GenerateAll(s) {
		if other.To != m.To || other.From == m.From {
			continue
		}
		if s.Board[other.From].Type() == pt {
			candidates = append(candidates, other.From)
		}
	}

	if len(candidates) == 0 {
		return ""
	}

	sameFile, sameRank := false, false
	for _, sq := range candidates {
		if sq.File() == m.From.File() {
			sameFile = true
		}
		if sq.Rank() == m.From.Rank() {
			sameRank = true
		}
	}

	if !sameFile {
		return string(rune('a' + m.From.File()))
	}
	if !sameRank {
		return string(rune('1' + m.From.Rank()))
	}
	return m.From.String()
}

// ParseSAN parses a SAN string and returns the corresponding generated move.
func ParseSAN(san string, s State) (Move, error) {
	str := strings.TrimSpace(san)

	switch str {
	case "O-O", "0-0":
		return findSpecial(s, SpecialCastleKingside, san)
	case "O-O-O", "0-0-0":
		return findSpecial(s, SpecialCastleQueenside, san)
	}

	str = strings.TrimRight(str, "+#")

	// Any promotion suffix means a queen.
	if idx := strings.Index(str, "="); idx >= 0 {
		str = str[:idx]
	}

	isCapture := strings.Contains(str, "x")
	str = strings.ReplaceAll(str, "x", "")

	pt := Pawn
	if len(str) > 0 && str[0] >= 'A' && str[0] <= 'Z' {
		switch str[0] {
		case 'N':
			pt = Knight
		case 'B':
			pt = Bishop
		case 'R':
			pt = Rook
		case 'Q':
			pt = Queen
		case 'K':
			pt = King
		default:
			return NoMove, fmt.Errorf("invalid piece letter in %q", san)
		}
		str = str[1:]
	}

	if len(str) < 2 {
		return NoMove, fmt.Errorf("invalid SAN: %q", san)
	}
	dest, err := ParseSquare(str[len(str)-2:])
	if err != nil {
		return NoMove, err
	}
	str = str[:len(str)-2]

	disambigFile, disambigRank := -1, -1
	for _, c := range str {
		if c >= 'a' && c <= 'h' {
			disambigFile = int(c - 'a')
		} else if c >= '1' && c <= '8' {
			disambigRank = int(c - '1')
		}
	}

	for _, m := range GenerateAll(s) {
		if m.To != dest || s.Board[m.From].Type() != pt {
			continue
		}
		if disambigFile >= 0 && m.From.File() != disambigFile {
			continue
		}
		if disambigRank >= 0 && m.From.Rank() != disambigRank {
			continue
		}
		if isCapture && !m.Capture {
			continue
		}
		return m, nil
	}

	return NoMove, fmt.Errorf("no move matches %q", san)
}

func findSpecial(s State, sp Special, san string) (Move, error) {
	for _, m := range GenerateAll(s) {
		if m.Special == sp {
			return m, nil
		}
	}
	return NoMove, fmt.Errorf("no move matches %q", san)
}

// MovesToSAN converts a sequence of moves played from s to SAN notation.
func MovesToSAN(s State, moves []Move) []string {
	result := make([]string, len(moves))
	for i, m := range moves {
		result[i] = m.SAN(s)
		s = ApplyMove(s, m)
	}
	return result
}
