package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/pawnbot/internal/board"
	"github.com/hailam/pawnbot/internal/engine"
	"github.com/hailam/pawnbot/internal/game"
	"github.com/hailam/pawnbot/internal/storage"
)

// ErrGameNotFound is returned for unknown game ids.
var ErrGameNotFound = errors.New("game not found")

// subscriberBuffer is the number of undelivered messages a websocket client
// may fall behind before messages are dropped.
const subscriberBuffer = 16

type subscriber chan []byte

// entry is one hosted game with its websocket subscribers.
type entry struct {
	mu       sync.Mutex
	session  *game.Session
	subs     map[subscriber]struct{}
	thinking int
	// recorded is set once the result has gone into the stats. A game is
	// counted once even if it is undone and finished again.
	recorded   bool
	lastActive time.Time
}

// NewGameOptions describes a game to create.
type NewGameOptions struct {
	Level     int
	Human     board.Color
	TwoPlayer bool
	Start     *board.State
}

// Manager hosts live games. Bot replies run on their own goroutines after
// the configured delay.
type Manager struct {
	mu    sync.RWMutex
	games map[string]*entry

	eng      *engine.Engine
	store    *storage.Storage
	botDelay time.Duration
	log      zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// closeMu orders wg.Add against Close.
	closeMu sync.Mutex
	closed  bool

	sweepDone chan struct{}
}

// NewManager creates a game manager. store may be nil, in which case games
// are not archived. Games idle for longer than gameTTL are dropped from
// memory; archived ones can be resumed. A zero gameTTL keeps every game.
func NewManager(eng *engine.Engine, store *storage.Storage, botDelay, gameTTL time.Duration, log zerolog.Logger) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		games:     make(map[string]*entry),
		eng:       eng,
		store:     store,
		botDelay:  botDelay,
		log:       log,
		ctx:       ctx,
		cancel:    cancel,
		sweepDone: make(chan struct{}),
	}
	if gameTTL > 0 {
		go m.sweep(gameTTL)
	} else {
		close(m.sweepDone)
	}
	return m
}

// Create starts a new game and, when the bot opens, schedules its move.
func (m *Manager) Create(opts NewGameOptions) GameView {
	s := game.NewSession(game.Options{
		Level:     opts.Level,
		Human:     opts.Human,
		TwoPlayer: opts.TwoPlayer,
		Start:     opts.Start,
		Engine:    m.eng,
		Logger:    m.log,
	})
	return m.host(s, false)
}

// Resume hosts an archived game again.
func (m *Manager) Resume(rec storage.GameRecord) (GameView, error) {
	m.mu.RLock()
	e, exists := m.games[rec.ID]
	m.mu.RUnlock()
	if exists {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.lastActive = time.Now()
		return newGameView(e.session, e.thinking > 0), nil
	}

	s, err := game.Resume(rec, game.Options{Engine: m.eng, Logger: m.log})
	if err != nil {
		return GameView{}, err
	}
	// A finished game was counted when it ended.
	return m.host(s, s.Over()), nil
}

func (m *Manager) host(s *game.Session, recorded bool) GameView {
	e := &entry{
		session:    s,
		subs:       make(map[subscriber]struct{}),
		recorded:   recorded,
		lastActive: time.Now(),
	}

	m.mu.Lock()
	m.games[s.ID()] = e
	m.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	m.afterPly(e)
	return newGameView(s, e.thinking > 0)
}

// IDs returns the ids of hosted games.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.games))
	for id := range m.games {
		ids = append(ids, id)
	}
	return ids
}

func (m *Manager) get(id string) (*entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, exists := m.games[id]
	if !exists {
		return nil, ErrGameNotFound
	}
	return e, nil
}

// View returns the current view of a game.
func (m *Manager) View(id string) (GameView, error) {
	e, err := m.get(id)
	if err != nil {
		return GameView{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastActive = time.Now()
	return newGameView(e.session, e.thinking > 0), nil
}

// State returns the current position of a game.
func (m *Manager) State(id string) (board.State, error) {
	e, err := m.get(id)
	if err != nil {
		return board.State{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.State(), nil
}

// Play applies a human move and schedules the bot's reply.
func (m *Manager) Play(id string, from, to board.Square) (GameView, error) {
	return m.update(id, func(s *game.Session) error {
		_, err := s.Play(from, to)
		return err
	})
}

// Undo takes back the last human move (and the bot's reply to it).
func (m *Manager) Undo(id string) (GameView, error) {
	return m.update(id, (*game.Session).Undo)
}

// Redo replays undone moves.
func (m *Manager) Redo(id string) (GameView, error) {
	return m.update(id, (*game.Session).Redo)
}

func (m *Manager) update(id string, fn func(*game.Session) error) (GameView, error) {
	e, err := m.get(id)
	if err != nil {
		return GameView{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastActive = time.Now()
	if err := fn(e.session); err != nil {
		return GameView{}, err
	}
	m.afterPly(e)
	return newGameView(e.session, e.thinking > 0), nil
}

// afterPly archives the game, notifies subscribers and schedules the bot.
// e.mu must be held.
func (m *Manager) afterPly(e *entry) {
	s := e.session
	if s.BotToMove() && m.startBot() {
		e.thinking++
		go m.botReply(e)
	}
	m.archive(e)
	m.broadcast(e, encode(MessageTypeGameState, newGameView(s, e.thinking > 0)))
}

// startBot registers a bot reply goroutine unless the manager is closed.
func (m *Manager) startBot() bool {
	m.closeMu.Lock()
	defer m.closeMu.Unlock()
	if m.closed {
		return false
	}
	m.wg.Add(1)
	return true
}

func (m *Manager) botReply(e *entry) {
	defer m.wg.Done()

	if m.botDelay > 0 {
		t := time.NewTimer(m.botDelay)
		select {
		case <-t.C:
		case <-m.ctx.Done():
			t.Stop()
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.thinking--
	e.lastActive = time.Now()

	s := e.session
	if m.ctx.Err() != nil || !s.BotToMove() {
		// Shut down, or the position changed while waiting (undo).
		return
	}

	if _, err := s.BotMove(m.ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			m.log.Error().Err(err).Str("game", s.ID()).Msg("bot move failed")
			m.broadcast(e, encode(MessageTypeError, err.Error()))
		}
		return
	}
	m.archive(e)
	m.broadcast(e, encode(MessageTypeGameState, newGameView(s, e.thinking > 0)))
}

// archive saves the game and, the first time it ends, its result. e.mu must
// be held.
func (m *Manager) archive(e *entry) {
	s := e.session
	if m.store == nil || len(s.History()) == 0 {
		return
	}
	if _, err := m.store.SaveGame(s.Record()); err != nil {
		m.log.Warn().Err(err).Str("game", s.ID()).Msg("archive failed")
		return
	}
	if !s.Over() || e.recorded {
		return
	}
	res := storage.GameResult{Outcome: s.Outcome(), Level: s.Level(), Duration: time.Since(s.StartedAt())}
	if _, err := m.store.RecordResult(res); err != nil {
		m.log.Warn().Err(err).Str("game", s.ID()).Msg("record result failed")
		return
	}
	e.recorded = true
}

// Subscribe registers a listener for a game's updates. The returned cancel
// function unregisters it and closes the channel.
func (m *Manager) Subscribe(id string) (<-chan []byte, func(), error) {
	e, err := m.get(id)
	if err != nil {
		return nil, nil, err
	}

	sub := make(subscriber, subscriberBuffer)
	e.mu.Lock()
	e.subs[sub] = struct{}{}
	sub <- encode(MessageTypeGameState, newGameView(e.session, e.thinking > 0))
	e.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.subs, sub)
			e.lastActive = time.Now()
			e.mu.Unlock()
			close(sub)
		})
	}
	return sub, cancel, nil
}

// broadcast sends msg to every subscriber without blocking. e.mu must be
// held.
func (m *Manager) broadcast(e *entry, msg []byte) {
	for sub := range e.subs {
		select {
		case sub <- msg:
		default:
			m.log.Warn().Str("game", e.session.ID()).Msg("subscriber too slow, message dropped")
		}
	}
}

// Wait blocks until no bot reply is pending.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Evict drops games that have been idle for at least idle and have neither
// subscribers nor a pending bot reply. It returns how many were dropped.
func (m *Manager) Evict(idle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, e := range m.games {
		e.mu.Lock()
		stale := len(e.subs) == 0 && e.thinking == 0 && time.Since(e.lastActive) >= idle
		e.mu.Unlock()
		if stale {
			delete(m.games, id)
			n++
		}
	}
	return n
}

func (m *Manager) sweep(ttl time.Duration) {
	defer close(m.sweepDone)

	t := time.NewTicker(min(max(ttl/2, time.Second), time.Minute))
	defer t.Stop()
	for {
		select {
		case <-t.C:
			if n := m.Evict(ttl); n > 0 {
				m.log.Debug().Int("evicted", n).Msg("idle games dropped")
			}
		case <-m.ctx.Done():
			return
		}
	}
}

// Close abandons pending bot replies and waits for their goroutines. Moves
// made afterwards get no bot reply.
func (m *Manager) Close() {
	m.closeMu.Lock()
	m.closed = true
	m.closeMu.Unlock()

	m.cancel()
	m.wg.Wait()
	<-m.sweepDone
}
