package server

import (
	"encoding/json"
	"strings"

	"github.com/hailam/pawnbot/internal/board"
	"github.com/hailam/pawnbot/internal/engine"
	"github.com/hailam/pawnbot/internal/game"
)

// MessageType names the kinds of websocket message.
type MessageType string

const (
	MessageTypeMove      MessageType = "move"
	MessageTypeUndo      MessageType = "undo"
	MessageTypeRedo      MessageType = "redo"
	MessageTypeState     MessageType = "state"
	MessageTypeGameState MessageType = "gameState"
	MessageTypeError     MessageType = "error"
)

// Message is the websocket envelope in both directions.
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// CreateGameRequest is the body of POST /api/games.
type CreateGameRequest struct {
	Level *int `json:"level"`
	// PlayerColor is "white", "black" or "none" for a two-player game.
	PlayerColor string `json:"playerColor"`
	FEN         string `json:"fen"`
}

// MoveRequest is the body of POST /api/games/:id/move and the payload of a
// websocket move message.
type MoveRequest struct {
	From board.Square `json:"from"`
	To   board.Square `json:"to"`
}

// GameView is the client's picture of a game.
type GameView struct {
	ID          string            `json:"id"`
	FEN         string            `json:"fen"`
	Board       map[string]string `json:"board"`
	Turn        board.Color       `json:"turn"`
	Castling    string            `json:"castling"`
	EnPassant   board.Square      `json:"enPassant"`
	History     []string          `json:"history"`
	SAN         []string          `json:"san"`
	LastMove    board.Move        `json:"lastMove"`
	Moves       []board.Move      `json:"moves"`
	Level       int               `json:"level"`
	Human       string            `json:"human,omitempty"`
	TwoPlayer   bool              `json:"twoPlayer"`
	Over        bool              `json:"over"`
	Result      string            `json:"result"`
	Score       int               `json:"score"`
	BotThinking bool              `json:"botThinking"`
}

// EvalView is the body of GET /api/games/:id/eval.
type EvalView struct {
	FEN   string `json:"fen"`
	Score int    `json:"score"`
	Text  string `json:"text"`
}

func newGameView(s *game.Session, thinking bool) GameView {
	st := s.State()

	squares := make(map[string]string)
	for sq := board.A1; sq <= board.H8; sq++ {
		if p := st.PieceAt(sq); p != board.NoPiece {
			squares[sq.String()] = p.String()
		}
	}

	history := s.History()
	uci := make([]string, len(history))
	for i, m := range history {
		uci[i] = m.String()
	}

	moves := board.GenerateAll(st)
	if moves == nil {
		moves = []board.Move{}
	}

	v := GameView{
		ID:          s.ID(),
		FEN:         st.FEN(),
		Board:       squares,
		Turn:        st.Turn,
		Castling:    st.Castling.String(),
		EnPassant:   st.EnPassant,
		History:     uci,
		SAN:         s.SAN(),
		LastMove:    s.LastMove(),
		Moves:       moves,
		Level:       s.Level(),
		TwoPlayer:   s.TwoPlayer(),
		Over:        s.Over(),
		Result:      s.Result(),
		Score:       engine.Evaluate(st),
		BotThinking: thinking,
	}
	if !s.TwoPlayer() {
		v.Human = strings.ToLower(s.Human().String())
	}
	return v
}

func encode(t MessageType, payload any) []byte {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			b, _ = json.Marshal(err.Error())
			t = MessageTypeError
		}
		raw = b
	}
	out, _ := json.Marshal(Message{Type: t, Payload: raw})
	return out
}
