package engine

import (
	"context"
	"sync/atomic"

	"github.com/hailam/pawnbot/internal/board"
)

// Search constants
const (
	// Infinity bounds every reachable material score.
	Infinity = 1 << 30
	MaxDepth = 4
)

// Result is the outcome of a root search.
type Result struct {
	Move  board.Move
	Score int // White's point of view
	Nodes uint64
	// Complete is false when the context was cancelled before every root
	// subtree had been searched.
	Complete bool
}

// Searcher performs the alpha-beta search. A Searcher is not safe for
// concurrent use; the Engine creates one per search.
type Searcher struct {
	nodes atomic.Uint64
}

// NewSearcher creates a new searcher.
func NewSearcher() *Searcher {
	return &Searcher{}
}

// Nodes returns the number of nodes searched.
func (s *Searcher) Nodes() uint64 {
	return s.nodes.Load()
}

// Search runs minimax with alpha-beta pruning to the given depth, maximising
// for White and minimising for Black. Root moves are tried in GenerateAll
// order and a later move replaces the best only when strictly better, so the
// result is deterministic.
//
// ctx is consulted only before each root subtree is entered; subtrees that
// were started always run to completion. When the side to move has no
// moves, or depth is not positive, Result.Move is board.NoMove.
func (s *Searcher) Search(ctx context.Context, st board.State, depth int) Result {
	s.nodes.Store(0)

	if depth <= 0 {
		s.nodes.Add(1)
		return Result{Move: board.NoMove, Score: Evaluate(st), Nodes: s.Nodes(), Complete: true}
	}

	moves := board.GenerateAll(st)
	if len(moves) == 0 {
		s.nodes.Add(1)
		return Result{Move: board.NoMove, Score: Evaluate(st), Nodes: s.Nodes(), Complete: true}
	}

	maximizing := st.Turn == board.White
	alpha, beta := -Infinity, Infinity
	value := Infinity
	if maximizing {
		value = -Infinity
	}
	best := board.NoMove
	complete := true

	for _, m := range moves {
		if ctx.Err() != nil {
			complete = false
			break
		}

		score := s.minimax(board.ApplyMove(st, m), depth-1, alpha, beta, !maximizing)

		if maximizing {
			if score > value {
				value, best = score, m
			}
			alpha = max(alpha, value)
		} else {
			if score < value {
				value, best = score, m
			}
			beta = min(beta, value)
		}
		if alpha >= beta {
			break
		}
	}

	if best == board.NoMove {
		// Cancelled before any subtree finished: fall back to the first
		// generated move so a playable position never reports "no move".
		best = moves[0]
		value = Evaluate(board.ApplyMove(st, best))
	}

	return Result{Move: best, Score: value, Nodes: s.Nodes(), Complete: complete}
}

// minimax returns the score of st searched to depth plies.
func (s *Searcher) minimax(st board.State, depth, alpha, beta int, maximizing bool) int {
	s.nodes.Add(1)

	if depth == 0 {
		return Evaluate(st)
	}

	moves := board.GenerateAll(st)
	if len(moves) == 0 {
		// No distinction between mate, stalemate or a bare side.
		return Evaluate(st)
	}

	if maximizing {
		value := -Infinity
		for _, m := range moves {
			value = max(value, s.minimax(board.ApplyMove(st, m), depth-1, alpha, beta, false))
			alpha = max(alpha, value)
			if alpha >= beta {
				break
			}
		}
		return value
	}

	value := Infinity
	for _, m := range moves {
		value = min(value, s.minimax(board.ApplyMove(st, m), depth-1, alpha, beta, true))
		beta = min(beta, value)
		if alpha >= beta {
			break
		}
	}
	return value
}

// Perft counts leaf nodes of the pseudo-legal move tree (for debugging move
// generation).
func Perft(st board.State, depth int) uint64 {
	if depth == 0 {
		return 1
	}

	moves := board.GenerateAll(st)
	if depth == 1 {
		return uint64(len(moves))
	}

	var nodes uint64
	for _, m := range moves {
		nodes += Perft(board.ApplyMove(st, m), depth-1)
	}
	return nodes
}
