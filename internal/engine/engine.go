package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/pawnbot/internal/board"
)

// Level bounds offered to players. Levels above MaxLevel are accepted and
// search at MaxDepth.
const (
	MinLevel     = 0
	MaxLevel     = 6
	DefaultLevel = 2
)

// DepthForLevel maps a player-facing level to a search depth:
// min(1 + level/2, MaxDepth). Negative levels count as level 0.
func DepthForLevel(level int) int {
	if level < 0 {
		level = 0
	}
	return min(1+level/2, MaxDepth)
}

// SearchInfo contains information about a finished search.
type SearchInfo struct {
	Level    int
	Depth    int
	Score    int
	Nodes    uint64
	Time     time.Duration
	Move     board.Move
	Cached   bool
	Complete bool
}

// Cache stores the outcome of complete searches. Because the search is
// deterministic, a cached move is exactly the move a new search would find.
type Cache interface {
	Lookup(s board.State, depth int) (CacheEntry, bool)
	Store(s board.State, depth int, entry CacheEntry) error
}

// CacheEntry is the cached outcome of a complete search.
type CacheEntry struct {
	Move  board.Move `json:"move"`
	Score int        `json:"score"`
}

// Engine is the chess AI engine. It holds no per-search state and may be
// shared between goroutines once configured.
type Engine struct {
	cache Cache
	log   zerolog.Logger

	// Callbacks
	OnInfo func(SearchInfo)
}

// NewEngine creates an engine without a cache that logs nowhere.
func NewEngine() *Engine {
	return &Engine{log: zerolog.Nop()}
}

// SetCache installs a search cache. nil disables caching.
func (e *Engine) SetCache(c Cache) {
	e.cache = c
}

// SetLogger sets the engine logger.
func (e *Engine) SetLogger(l zerolog.Logger) {
	e.log = l.With().Str("component", "engine").Logger()
}

// SelectMove picks a move for the side to move at the given level. It
// returns board.NoMove when the side to move has no pseudo-legal move; the
// caller must then treat the game as finished and not apply anything.
func (e *Engine) SelectMove(ctx context.Context, s board.State, level int) board.Move {
	return e.SearchDepth(ctx, s, DepthForLevel(level), level).Move
}

// SearchDepth searches s to a fixed depth, at most MaxDepth, consulting and
// filling the cache. level is only reported back through SearchInfo.
func (e *Engine) SearchDepth(ctx context.Context, s board.State, depth, level int) Result {
	start := time.Now()
	depth = min(depth, MaxDepth)

	if e.cache != nil {
		if entry, ok := e.cache.Lookup(s, depth); ok && isGenerated(s, entry.Move) {
			res := Result{Move: entry.Move, Score: entry.Score, Complete: true}
			e.report(s, level, depth, res, start, true)
			return res
		}
	}

	res := NewSearcher().Search(ctx, s, depth)

	if e.cache != nil && res.Complete && res.Move != board.NoMove {
		if err := e.cache.Store(s, depth, CacheEntry{Move: res.Move, Score: res.Score}); err != nil {
			e.log.Warn().Err(err).Str("fen", s.FEN()).Msg("cache store failed")
		}
	}

	e.report(s, level, depth, res, start, false)
	return res
}

func (e *Engine) report(s board.State, level, depth int, res Result, start time.Time, cached bool) {
	info := SearchInfo{
		Level:    level,
		Depth:    depth,
		Score:    res.Score,
		Nodes:    res.Nodes,
		Time:     time.Since(start),
		Move:     res.Move,
		Cached:   cached,
		Complete: res.Complete,
	}

	e.log.Debug().
		Str("fen", s.FEN()).
		Int("depth", depth).
		Str("move", res.Move.String()).
		Int("score", res.Score).
		Uint64("nodes", res.Nodes).
		Dur("elapsed", info.Time).
		Bool("cached", cached).
		Bool("complete", res.Complete).
		Msg("search finished")

	if e.OnInfo != nil {
		e.OnInfo(info)
	}
}

// isGenerated guards against stale cache entries.
func isGenerated(s board.State, m board.Move) bool {
	for _, g := range board.GenerateMoves(s, m.From) {
		if g == m {
			return true
		}
	}
	return false
}

// Evaluate returns the static evaluation of a position.
func (e *Engine) Evaluate(s board.State) int {
	return Evaluate(s)
}

// ScoreToString converts a White-relative score to a human-readable string
// in pawns, e.g. "+1.05" or "-0.30".
func ScoreToString(score int) string {
	sign := "+"
	if score < 0 {
		sign = "-"
		score = -score
	}
	return fmt.Sprintf("%s%d.%02d", sign, score/100, score%100)
}
