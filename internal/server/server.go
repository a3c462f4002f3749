// Package server exposes pawnbot games over HTTP and websockets.
package server

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/hailam/pawnbot/internal/board"
	"github.com/hailam/pawnbot/internal/engine"
	"github.com/hailam/pawnbot/internal/game"
	"github.com/hailam/pawnbot/internal/storage"
)

// Options configures a Server.
type Options struct {
	Engine *engine.Engine
	// Store archives games. nil disables the archive endpoints.
	Store    *storage.Storage
	BotDelay time.Duration
	// GameTTL is how long an idle game stays hosted. Zero keeps games
	// until shutdown.
	GameTTL      time.Duration
	DefaultLevel int
	CORSOrigins  string
	Logger       zerolog.Logger
}

// Server is the HTTP front-end.
type Server struct {
	app   *fiber.App
	games *Manager
	store *storage.Storage
	level int
	log   zerolog.Logger
}

// New builds the server and registers its routes.
func New(opts Options) *Server {
	if opts.Engine == nil {
		opts.Engine = engine.NewEngine()
	}
	if opts.CORSOrigins == "" {
		opts.CORSOrigins = "*"
	}
	log := opts.Logger.With().Str("component", "server").Logger()

	s := &Server{
		games: NewManager(opts.Engine, opts.Store, opts.BotDelay, opts.GameTTL, log),
		store: opts.Store,
		level: opts.DefaultLevel,
		log:   log,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "pawnbot",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	s.app.Use(recover.New())
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: opts.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	s.app.Use(s.logRequests)

	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := s.app.Group("/api")
	api.Get("/games", s.listGames)
	api.Post("/games", s.createGame)
	api.Get("/games/:id", s.getGame)
	api.Get("/games/:id/moves", s.getMoves)
	api.Post("/games/:id/move", s.playMove)
	api.Post("/games/:id/undo", s.undo)
	api.Post("/games/:id/redo", s.redo)
	api.Get("/games/:id/eval", s.eval)

	api.Get("/archive", s.listArchive)
	api.Get("/archive/:id", s.getArchived)
	api.Post("/archive/:id/resume", s.resumeArchived)

	s.app.Use("/ws", s.requireUpgrade)
	s.app.Get("/ws/games/:id", websocket.New(s.handleSocket, websocket.Config{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}))
}

// App returns the underlying fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

// Games returns the game manager.
func (s *Server) Games() *Manager {
	return s.games
}

// Listen serves on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.log.Info().Str("addr", addr).Msg("listening")
	return s.app.Listen(addr)
}

// Shutdown stops accepting requests and abandons pending bot replies.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.app.ShutdownWithContext(ctx)
	s.games.Close()
	return err
}

func (s *Server) logRequests(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.log.Debug().
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", c.Response().StatusCode()).
		Dur("elapsed", time.Since(start)).
		Msg("request")
	return err
}

// handleError maps domain errors to HTTP statuses.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code = fe.Code
	case errors.Is(err, ErrGameNotFound), errors.Is(err, storage.ErrNotFound):
		code = fiber.StatusNotFound
	case errors.Is(err, game.ErrIllegalMove):
		code = fiber.StatusUnprocessableEntity
	case errors.Is(err, game.ErrNotYourTurn), errors.Is(err, game.ErrGameOver),
		errors.Is(err, game.ErrNothingToUndo), errors.Is(err, game.ErrNothingToRedo):
		code = fiber.StatusConflict
	}
	if code == fiber.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

func badRequest(err error) error {
	return fiber.NewError(fiber.StatusBadRequest, err.Error())
}

func (s *Server) listGames(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"games": s.games.IDs()})
}

func (s *Server) createGame(c *fiber.Ctx) error {
	var req CreateGameRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(err)
		}
	}

	opts := NewGameOptions{Level: s.level}
	if req.Level != nil {
		if *req.Level < engine.MinLevel {
			return fiber.NewError(fiber.StatusBadRequest, "level must not be negative")
		}
		opts.Level = *req.Level
	}
	switch req.PlayerColor {
	case "", "white":
		opts.Human = board.White
	case "black":
		opts.Human = board.Black
	case "none":
		opts.TwoPlayer = true
	default:
		return fiber.NewError(fiber.StatusBadRequest, "playerColor must be white, black or none")
	}
	if req.FEN != "" {
		st, err := board.ParseFEN(req.FEN)
		if err != nil {
			return badRequest(err)
		}
		opts.Start = &st
	}

	view := s.games.Create(opts)
	return c.Status(fiber.StatusCreated).JSON(view)
}

func (s *Server) getGame(c *fiber.Ctx) error {
	view, err := s.games.View(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(view)
}

func (s *Server) getMoves(c *fiber.Ctx) error {
	st, err := s.games.State(c.Params("id"))
	if err != nil {
		return err
	}
	from := c.Query("from")
	if from == "" {
		return c.JSON(nonNil(board.GenerateAll(st)))
	}
	if _, err := board.ParseSquare(from); err != nil {
		return badRequest(err)
	}
	return c.JSON(nonNil(board.GenerateMovesAt(st, from)))
}

func nonNil(moves []board.Move) []board.Move {
	if moves == nil {
		return []board.Move{}
	}
	return moves
}

func (s *Server) playMove(c *fiber.Ctx) error {
	req := MoveRequest{From: board.NoSquare, To: board.NoSquare}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(err)
	}
	if !req.From.IsValid() || !req.To.IsValid() {
		return fiber.NewError(fiber.StatusBadRequest, "from and to are required")
	}
	view, err := s.games.Play(c.Params("id"), req.From, req.To)
	if err != nil {
		return err
	}
	return c.JSON(view)
}

func (s *Server) undo(c *fiber.Ctx) error {
	view, err := s.games.Undo(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(view)
}

func (s *Server) redo(c *fiber.Ctx) error {
	view, err := s.games.Redo(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(view)
}

func (s *Server) eval(c *fiber.Ctx) error {
	st, err := s.games.State(c.Params("id"))
	if err != nil {
		return err
	}
	score := engine.Evaluate(st)
	return c.JSON(EvalView{FEN: st.FEN(), Score: score, Text: engine.ScoreToString(score)})
}

func (s *Server) listArchive(c *fiber.Ctx) error {
	if s.store == nil {
		return fiber.NewError(fiber.StatusNotImplemented, "archive disabled")
	}
	games, err := s.store.ListGames(c.QueryInt("limit", 50))
	if err != nil {
		return err
	}
	if games == nil {
		games = []storage.GameRecord{}
	}
	return c.JSON(games)
}

func (s *Server) getArchived(c *fiber.Ctx) error {
	if s.store == nil {
		return fiber.NewError(fiber.StatusNotImplemented, "archive disabled")
	}
	rec, err := s.store.LoadGame(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(rec)
}

func (s *Server) resumeArchived(c *fiber.Ctx) error {
	if s.store == nil {
		return fiber.NewError(fiber.StatusNotImplemented, "archive disabled")
	}
	rec, err := s.store.LoadGame(c.Params("id"))
	if err != nil {
		return err
	}
	view, err := s.games.Resume(rec)
	if err != nil {
		return err
	}
	return c.JSON(view)
}
