package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hailam/pawnbot/internal/board"
)

var glyphs = map[board.Piece]string{
	board.WhitePawn: "♙", board.WhiteKnight: "♘", board.WhiteBishop: "♗",
	board.WhiteRook: "♖", board.WhiteQueen: "♕", board.WhiteKing: "♔",
	board.BlackPawn: "♟", board.BlackKnight: "♞", board.BlackBishop: "♝",
	board.BlackRook: "♜", board.BlackQueen: "♛", board.BlackKing: "♚",
}

var (
	lightSquare  = lipgloss.NewStyle().Background(lipgloss.Color("#EEEED2")).Foreground(lipgloss.Color("#000000"))
	darkSquare   = lipgloss.NewStyle().Background(lipgloss.Color("#769656")).Foreground(lipgloss.Color("#000000"))
	lastMoveSq   = lipgloss.NewStyle().Background(lipgloss.Color("#F6F669")).Foreground(lipgloss.Color("#000000"))
	targetSquare = lipgloss.NewStyle().Background(lipgloss.Color("#7FA6D6")).Foreground(lipgloss.Color("#000000"))
	coordStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

// boardView holds what a board rendering needs besides the position.
type boardView struct {
	state    board.State
	lastMove board.Move
	targets  map[board.Square]bool
	flipped  bool
	// plain drops colours and glyphs (tests, dumb terminals).
	plain bool
}

// render draws the position with rank 8 on top (rank 1 when flipped).
func (v boardView) render() string {
	var b strings.Builder

	files := "abcdefgh"
	if v.flipped {
		files = "hgfedcba"
	}
	header := "   "
	for _, f := range files {
		header += " " + string(f) + " "
	}

	b.WriteString(coordStyle.Render(header))
	b.WriteByte('\n')
	for row := 0; row < 8; row++ {
		rank := 7 - row
		if v.flipped {
			rank = row
		}
		b.WriteString(coordStyle.Render(" " + string(rune('1'+rank)) + " "))
		for col := 0; col < 8; col++ {
			file := col
			if v.flipped {
				file = 7 - col
			}
			b.WriteString(v.cell(board.NewSquare(file, rank)))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// cell returns a fixed-width 3-column cell.
func (v boardView) cell(sq board.Square) string {
	p := v.state.PieceAt(sq)

	if v.plain {
		switch {
		case p != board.NoPiece:
			return " " + p.String() + " "
		case v.targets[sq]:
			return " * "
		default:
			return " . "
		}
	}

	text := "   "
	if p != board.NoPiece {
		text = " " + glyphs[p] + " "
	} else if v.targets[sq] {
		text = " • "
	}

	style := lightSquare
	if (sq.File()+sq.Rank())%2 == 0 {
		style = darkSquare
	}
	switch {
	case v.targets[sq]:
		style = targetSquare
	case v.lastMove != board.NoMove && (sq == v.lastMove.From || sq == v.lastMove.To):
		style = lastMoveSq
	}
	return style.Render(text)
}
