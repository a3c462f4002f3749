package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// GameRecord is an archived game. Moves are in UCI notation and replay from
// StartFEN.
type GameRecord struct {
	ID         string    `json:"id"`
	StartFEN   string    `json:"start_fen"`
	Moves      []string  `json:"moves"`
	FinalFEN   string    `json:"final_fen"`
	Result     string    `json:"result"`
	Level      int       `json:"level"`
	HumanColor string    `json:"human_color"`
	StartedAt  time.Time `json:"started_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SaveGame stores rec, assigning a new ID when it has none. It returns the
// stored ID.
func (s *Storage) SaveGame(rec GameRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	} else if _, err := uuid.Parse(rec.ID); err != nil {
		return "", fmt.Errorf("game id %q: %w", rec.ID, err)
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now()
	}
	if err := s.putJSON(prefixGame+rec.ID, rec); err != nil {
		return "", err
	}
	s.log.Debug().Str("game", rec.ID).Int("plies", len(rec.Moves)).Msg("game archived")
	return rec.ID, nil
}

// LoadGame returns the archived game with the given ID.
func (s *Storage) LoadGame(id string) (GameRecord, error) {
	var rec GameRecord
	if err := s.getJSON(prefixGame+id, &rec); err != nil {
		return GameRecord{}, fmt.Errorf("load game %s: %w", id, err)
	}
	return rec, nil
}

// DeleteGame removes an archived game.
func (s *Storage) DeleteGame(id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(prefixGame + id)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		return txn.Delete([]byte(prefixGame + id))
	})
}

// ListGames returns archived games, most recently updated first. limit <= 0
// means no limit.
func (s *Storage) ListGames(limit int) ([]GameRecord, error) {
	var games []GameRecord

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixGame)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var rec GameRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			games = append(games, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(games, func(i, j int) bool {
		return games[i].UpdatedAt.After(games[j].UpdatedAt)
	})
	if limit > 0 && len(games) > limit {
		games = games[:limit]
	}
	return games, nil
}
