// Package engine implements the chess AI: a static material evaluation and a
// depth-limited minimax search with alpha-beta pruning.
package engine

import (
	"github.com/hailam/pawnbot/internal/board"
)

// Evaluate returns the material balance of s in centipawns from White's
// point of view: white pieces count positively, black pieces negatively.
// There are no positional, mobility or king safety terms.
func Evaluate(s board.State) int {
	score := 0
	for _, p := range s.Board {
		if p == board.NoPiece {
			continue
		}
		if p.Color() == board.White {
			score += p.Value()
		} else {
			score -= p.Value()
		}
	}
	return score
}

// EvaluateRelative returns Evaluate from the side to move's point of view.
func EvaluateRelative(s board.State) int {
	if s.Turn == board.Black {
		return -Evaluate(s)
	}
	return Evaluate(s)
}
