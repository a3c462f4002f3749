package engine

import (
	"context"
	"testing"

	"github.com/hailam/pawnbot/internal/board"
)

func TestEvaluateInitialPosition(t *testing.T) {
	if got := Evaluate(board.InitialState()); got != 0 {
		t.Errorf("Evaluate(initial) = %d, want 0", got)
	}
}

func TestEvaluateMaterial(t *testing.T) {
	tests := []struct {
		fen  string
		want int
	}{
		{"4k3/8/8/8/8/8/8/4K2Q w - - 0 1", board.QueenValue},
		{"4k2r/8/8/8/8/8/8/4K3 w - - 0 1", -board.RookValue},
		{"4k3/pppppppp/8/8/8/8/8/4KN2 w - - 0 1", board.KnightValue - 8*board.PawnValue},
		{"8/8/8/8/8/8/8/4K3 w - - 0 1", board.KingValue},
	}
	for _, tc := range tests {
		if got := Evaluate(board.MustParseFEN(tc.fen)); got != tc.want {
			t.Errorf("Evaluate(%q) = %d, want %d", tc.fen, got, tc.want)
		}
	}

	s := board.MustParseFEN("4k3/8/8/8/8/8/8/4K2Q b - - 0 1")
	if got := EvaluateRelative(s); got != -board.QueenValue {
		t.Errorf("EvaluateRelative = %d, want %d", got, -board.QueenValue)
	}
}

func TestDepthForLevel(t *testing.T) {
	tests := []struct{ level, depth int }{
		{-3, 1}, {0, 1}, {1, 1}, {2, 2}, {3, 2}, {4, 3}, {5, 3}, {6, 4}, {7, 4}, {20, 4},
	}
	for _, tc := range tests {
		if got := DepthForLevel(tc.level); got != tc.depth {
			t.Errorf("DepthForLevel(%d) = %d, want %d", tc.level, got, tc.depth)
		}
	}
}

func TestSelectMoveDeterministic(t *testing.T) {
	eng := NewEngine()
	positions := []board.State{
		board.InitialState(),
		board.MustParseFEN("r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3"),
	}
	for _, s := range positions {
		for level := 0; level <= 3; level++ {
			first := eng.SelectMove(context.Background(), s, level)
			second := eng.SelectMove(context.Background(), s, level)
			if first == board.NoMove {
				t.Fatalf("level %d: no move for %s", level, s.FEN())
			}
			if first != second {
				t.Errorf("level %d: %v then %v", level, first, second)
			}
		}
	}
}

func TestSelectMoveTakesHangingQueen(t *testing.T) {
	s := board.MustParseFEN("4k3/8/8/3q4/8/8/8/3RK3 w - - 0 1")
	m := NewEngine().SelectMove(context.Background(), s, 0)
	if m.From != board.D1 || m.To != board.D5 {
		t.Errorf("got %v, want d1d5", m)
	}

	// Black minimises: it takes the rook.
	s = board.MustParseFEN("4k3/8/8/8/8/8/8/R3K2q b - - 0 1")
	m = NewEngine().SelectMove(context.Background(), s, 0)
	if m.To != board.E1 && m.To != board.A1 {
		t.Errorf("got %v, want a capture", m)
	}
}

func TestSelectMoveAvoidsRecapture(t *testing.T) {
	// Qxd5 wins a pawn but loses the queen to exd5 at depth 2.
	s := board.MustParseFEN("4k3/8/4p3/3p4/8/8/8/3QK3 w - - 0 1")
	m := NewEngine().SelectMove(context.Background(), s, 2)
	if m.From == board.D1 && m.To == board.D5 {
		t.Errorf("depth 2 search played the losing capture %v", m)
	}
}

func TestSelectMoveNoMoves(t *testing.T) {
	// Black has only a pawn that cannot move.
	s := board.MustParseFEN("8/8/8/8/8/p7/P7/K7 b - - 0 1")
	if m := NewEngine().SelectMove(context.Background(), s, 3); m != board.NoMove {
		t.Errorf("got %v, want NoMove", m)
	}
}

func TestTieBreakFirstEncountered(t *testing.T) {
	// Every king move keeps material level: the first generated one wins.
	s := board.MustParseFEN("7k/8/8/8/8/8/8/K7 w - - 0 1")
	want := board.GenerateAll(s)[0]
	if got := NewEngine().SelectMove(context.Background(), s, 0); got != want {
		t.Errorf("got %v, want first generated move %v", got, want)
	}
}

// plainMinimax is an unpruned reference implementation.
func plainMinimax(s board.State, depth int) (int, board.Move) {
	moves := board.GenerateAll(s)
	if depth == 0 || len(moves) == 0 {
		return Evaluate(s), board.NoMove
	}
	maximizing := s.Turn == board.White
	best := board.NoMove
	value := Infinity
	if maximizing {
		value = -Infinity
	}
	for _, m := range moves {
		score, _ := plainMinimax(board.ApplyMove(s, m), depth-1)
		if (maximizing && score > value) || (!maximizing && score < value) {
			value, best = score, m
		}
	}
	return value, best
}

func TestAlphaBetaMatchesMinimax(t *testing.T) {
	fens := []string{
		"4k3/8/4p3/3p4/8/8/8/3QK3 w - - 0 1",
		"r3k2r/8/8/3n4/4N3/8/8/R3K2R w KQkq - 0 1",
		"4k3/1p6/8/2N5/8/8/8/4K3 b - - 0 1",
		"rnbqkbnr/ppp1p1pp/8/3pPp2/8/8/PPPP1PPP/RNBQKBNR w KQkq f6 0 3",
	}
	for _, fen := range fens {
		s := board.MustParseFEN(fen)
		for depth := 1; depth <= 3; depth++ {
			wantScore, wantMove := plainMinimax(s, depth)
			res := NewSearcher().Search(context.Background(), s, depth)
			if res.Score != wantScore || res.Move != wantMove {
				t.Errorf("%s depth %d: alpha-beta (%v, %d), minimax (%v, %d)",
					fen, depth, res.Move, res.Score, wantMove, wantScore)
			}
		}
	}
}

func TestSearchDoesNotMutateState(t *testing.T) {
	s := board.InitialState()
	before := s
	NewSearcher().Search(context.Background(), s, 3)
	if s != before {
		t.Error("search modified the root state")
	}
}

func TestCancelledSearch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := board.InitialState()
	res := NewSearcher().Search(ctx, s, 3)
	if res.Complete {
		t.Error("cancelled search reported complete")
	}
	if res.Move != board.GenerateAll(s)[0] {
		t.Errorf("cancelled search move = %v, want first generated move", res.Move)
	}
}

func TestSearchDepthCapped(t *testing.T) {
	eng := NewEngine()
	var info SearchInfo
	eng.OnInfo = func(i SearchInfo) { info = i }

	s := board.MustParseFEN("4k3/8/8/3q4/8/8/8/3RK3 w - - 0 1")
	got := eng.SearchDepth(context.Background(), s, 50, 0)
	want := NewSearcher().Search(context.Background(), s, MaxDepth)
	if got.Move != want.Move || got.Score != want.Score || got.Nodes != want.Nodes {
		t.Errorf("SearchDepth(50) = %+v, want %+v", got, want)
	}
	if info.Depth != MaxDepth {
		t.Errorf("reported depth = %d, want %d", info.Depth, MaxDepth)
	}
}

type mapCache struct {
	entries map[string]CacheEntry
	stores  int
}

func (c *mapCache) key(s board.State, depth int) string {
	return s.FEN() + "|" + string(rune('0'+depth))
}

func (c *mapCache) Lookup(s board.State, depth int) (CacheEntry, bool) {
	e, ok := c.entries[c.key(s, depth)]
	return e, ok
}

func (c *mapCache) Store(s board.State, depth int, e CacheEntry) error {
	c.entries[c.key(s, depth)] = e
	c.stores++
	return nil
}

func TestEngineCache(t *testing.T) {
	cache := &mapCache{entries: map[string]CacheEntry{}}
	eng := NewEngine()
	eng.SetCache(cache)

	var infos []SearchInfo
	eng.OnInfo = func(info SearchInfo) { infos = append(infos, info) }

	s := board.InitialState()
	first := eng.SelectMove(context.Background(), s, 2)
	second := eng.SelectMove(context.Background(), s, 2)

	if first != second {
		t.Errorf("cached move %v differs from searched move %v", second, first)
	}
	if cache.stores != 1 {
		t.Errorf("stores = %d, want 1", cache.stores)
	}
	if len(infos) != 2 || infos[0].Cached || !infos[1].Cached {
		t.Errorf("unexpected search infos: %+v", infos)
	}
	if infos[0].Depth != 2 || infos[0].Nodes == 0 {
		t.Errorf("first info = %+v", infos[0])
	}

	// A stale entry that is not a generated move is ignored.
	cache.entries[cache.key(s, 1)] = CacheEntry{Move: board.NewMove(board.E2, board.E5)}
	if m := eng.SelectMove(context.Background(), s, 0); m.To == board.E5 {
		t.Errorf("stale cache entry returned: %v", m)
	}
}

func TestPerft(t *testing.T) {
	if got := Perft(board.InitialState(), 2); got != 400 {
		t.Errorf("Perft(2) = %d, want 400", got)
	}
}

func TestScoreToString(t *testing.T) {
	tests := map[int]string{0: "+0.00", 105: "+1.05", -30: "-0.30", 900: "+9.00"}
	for score, want := range tests {
		if got := ScoreToString(score); got != want {
			t.Errorf("ScoreToString(%d) = %q, want %q", score, got, want)
		}
	}
}
