package storage

import (
	"errors"
	"fmt"

	"github.com/hailam/pawnbot/internal/board"
	"github.com/hailam/pawnbot/internal/engine"
)

// cacheValue is the stored form of a search result. FEN guards against
// Zobrist collisions.
type cacheValue struct {
	FEN   string     `json:"fen"`
	Move  board.Move `json:"move"`
	Score int        `json:"score"`
}

// MoveCache persists complete search results. It implements engine.Cache.
type MoveCache struct {
	s *Storage
}

var _ engine.Cache = (*MoveCache)(nil)

// MoveCache returns the search cache backed by s.
func (s *Storage) MoveCache() *MoveCache {
	return &MoveCache{s: s}
}

func cacheKey(st board.State, depth int) string {
	return fmt.Sprintf("%s%016x/%d", prefixCache, st.Hash(), depth)
}

// Lookup returns the cached result for st at depth. Storage errors are
// logged and reported as a miss.
func (c *MoveCache) Lookup(st board.State, depth int) (engine.CacheEntry, bool) {
	var v cacheValue
	if err := c.s.getJSON(cacheKey(st, depth), &v); err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.s.log.Warn().Err(err).Msg("cache lookup failed")
		}
		return engine.CacheEntry{}, false
	}
	if v.FEN != st.FEN() {
		c.s.log.Debug().Str("fen", st.FEN()).Str("stored", v.FEN).Msg("cache key collision")
		return engine.CacheEntry{}, false
	}
	return engine.CacheEntry{Move: v.Move, Score: v.Score}, true
}

// Store records a search result for st at depth.
func (c *MoveCache) Store(st board.State, depth int, entry engine.CacheEntry) error {
	return c.s.putJSON(cacheKey(st, depth), cacheValue{
		FEN:   st.FEN(),
		Move:  entry.Move,
		Score: entry.Score,
	})
}

// Clear drops every cached search result.
func (c *MoveCache) Clear() error {
	return c.s.db.DropPrefix([]byte(prefixCache))
}
