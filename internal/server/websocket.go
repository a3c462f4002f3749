package server

import (
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/hailam/pawnbot/internal/board"
)

// requireUpgrade rejects plain HTTP requests to websocket endpoints.
func (s *Server) requireUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return c.Next()
}

// handleSocket streams game updates to the client and applies the moves it
// sends. All writes happen on one goroutine.
func (s *Server) handleSocket(c *websocket.Conn) {
	id := c.Params("id")
	log := s.log.With().Str("game", id).Logger()

	updates, unsubscribe, err := s.games.Subscribe(id)
	if err != nil {
		if werr := c.WriteMessage(websocket.TextMessage, encode(MessageTypeError, err.Error())); werr != nil {
			log.Debug().Err(werr).Msg("websocket write failed")
		}
		c.Close()
		return
	}
	defer unsubscribe()

	// Replies to this client only; never closed, the writer exits on done.
	direct := make(chan []byte, subscriberBuffer)
	done := make(chan struct{})
	writerDone := make(chan struct{})
	defer func() {
		close(done)
		<-writerDone
	}()

	go func() {
		defer close(writerDone)
		for {
			var msg []byte
			var ok bool
			select {
			case msg, ok = <-updates:
				if !ok {
					return
				}
			case msg = <-direct:
			case <-done:
				return
			}
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Debug().Err(err).Msg("websocket write failed")
				return
			}
		}
	}()

	log.Debug().Msg("websocket connected")
	for {
		messageType, data, err := c.ReadMessage()
		if err != nil {
			log.Debug().Err(err).Msg("websocket closed")
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		reply, err := s.handleMessage(id, data)
		if err != nil {
			reply = encode(MessageTypeError, err.Error())
		}
		if reply == nil {
			continue
		}
		select {
		case direct <- reply:
		default:
			log.Warn().Msg("websocket client too slow, reply dropped")
		}
	}
}

// handleMessage applies one client message. State changes are delivered to
// every subscriber, so only errors and explicit state requests produce a
// direct reply.
func (s *Server) handleMessage(id string, data []byte) ([]byte, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("parse message: %w", err)
	}

	switch msg.Type {
	case MessageTypeMove:
		req := MoveRequest{From: board.NoSquare, To: board.NoSquare}
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return nil, fmt.Errorf("parse move: %w", err)
		}
		_, err := s.games.Play(id, req.From, req.To)
		return nil, err
	case MessageTypeUndo:
		_, err := s.games.Undo(id)
		return nil, err
	case MessageTypeRedo:
		_, err := s.games.Redo(id)
		return nil, err
	case MessageTypeState:
		view, err := s.games.View(id)
		if err != nil {
			return nil, err
		}
		return encode(MessageTypeGameState, view), nil
	default:
		return nil, fmt.Errorf("unknown message type: %s", msg.Type)
	}
}
