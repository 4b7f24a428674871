package ws

import (
	"encoding/json"
	"errors"

	"battleship/internal/game"
	"battleship/internal/logger"
	"battleship/internal/session"
)

// типы входящих сообщений
const (
	TypeConnected  = "connected"
	TypeJoin       = "join"
	TypePlaceShips = "place_ships"
	TypeAttack     = "attack"
	TypeReconnect  = "reconnect"
	TypeState      = "state"
	TypeStartSolo  = "start_solo"
	TypePing       = "ping"
	TypePong       = "pong"
	TypeError      = "error"
)

// Message - конверт для обоих направлений
type Message struct {
	Type    string `json:"type"`
	GameID  string `json:"game_id,omitempty"`
	Seq     uint64 `json:"seq,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

type inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type ConnectedPayload struct {
	ConnectionID string `json:"connection_id"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type joinRequest struct {
	Name string `json:"name"`
}

type placeShipsRequest struct {
	GameID     string               `json:"game_id"`
	Placements []game.ShipPlacement `json:"placements"`
}

type attackRequest struct {
	GameID string `json:"game_id"`
	X      *int   `json:"x"`
	Y      *int   `json:"y"`
}

type reconnectRequest struct {
	GameID string `json:"game_id"`
	Name   string `json:"name"`
	Token  string `json:"token"`
}

type startSoloRequest struct {
	Name       string               `json:"name"`
	Placements []game.ShipPlacement `json:"placements"`
}

// коды ошибок протокола
const (
	CodeBadRequest   = "bad_request"
	CodeNotFound     = "not_found"
	CodeInvalidMove  = "invalid_move"
	CodeInvalidToken = "invalid_token"
	CodeInternal     = "internal"
)

func errorCode(err error) string {
	switch {
	case errors.Is(err, game.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, game.ErrInvalidMove):
		return CodeInvalidMove
	case errors.Is(err, session.ErrInvalidToken):
		return CodeInvalidToken
	default:
		return CodeInternal
	}
}

func (c *Client) fail(code, msg string) {
	c.send(Message{Type: TypeError, Payload: ErrorPayload{Code: code, Message: msg}})
}

func (c *Client) failErr(err error) {
	c.fail(errorCode(err), err.Error())
}

func (c *Client) ok(typ, gameID string, payload any) {
	c.send(Message{Type: typ + "_ok", GameID: gameID, Payload: payload})
}

// gameID подставляет партию соединения, если клиент ее не указал
func (h *Hub) gameID(c *Client, requested string) string {
	if requested != "" {
		return requested
	}
	gid, _ := h.Registry.GameIDByConnection(c.ID)
	return gid
}

// HandleMessage разбирает сообщение клиента и передает действие реестру
func (h *Hub) HandleMessage(c *Client, raw []byte) {
	var msg inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.fail(CodeBadRequest, "malformed message")
		return
	}
	if h.Registry == nil {
		c.fail(CodeInternal, "registry is not attached")
		return
	}

	log := logger.ForConn(c.ID)
	log.Debug("ws message", "type", msg.Type)

	decode := func(v any) bool {
		if len(msg.Payload) == 0 {
			return true
		}
		if err := json.Unmarshal(msg.Payload, v); err != nil {
			c.fail(CodeBadRequest, "invalid payload: "+err.Error())
			return false
		}
		return true
	}

	switch msg.Type {
	case TypePing:
		c.send(Message{Type: TypePong})

	case TypeJoin:
		var req joinRequest
		if !decode(&req) {
			return
		}
		name := req.Name
		if name == "" {
			name = c.Name
		}
		res, err := h.Registry.Join(c.ID, name)
		if err != nil {
			c.failErr(err)
			return
		}
		c.ok(msg.Type, res.GameID, res)

	case TypePlaceShips:
		var req placeShipsRequest
		if !decode(&req) {
			return
		}
		gid := h.gameID(c, req.GameID)
		if err := h.Registry.PlaceShips(c.ID, gid, req.Placements); err != nil {
			c.failErr(err)
			return
		}
		c.ok(msg.Type, gid, nil)

	case TypeAttack:
		var req attackRequest
		if !decode(&req) {
			return
		}
		if req.X == nil || req.Y == nil {
			c.fail(CodeBadRequest, "x and y are required")
			return
		}
		gid := h.gameID(c, req.GameID)
		res, err := h.Registry.Attack(c.ID, gid, *req.X, *req.Y)
		if err != nil {
			c.failErr(err)
			return
		}
		c.ok(msg.Type, gid, res)

	case TypeReconnect:
		var req reconnectRequest
		if !decode(&req) {
			return
		}
		if req.Token != "" {
			gid, err := h.Registry.ReconnectWithToken(c.ID, req.Token)
			if err != nil {
				c.failErr(err)
				return
			}
			c.ok(msg.Type, gid, nil)
			return
		}
		name := req.Name
		if name == "" {
			name = c.Name
		}
		if !h.Registry.Reconnect(c.ID, req.GameID, name) {
			c.fail(CodeNotFound, "no matching player in game")
			return
		}
		c.ok(msg.Type, req.GameID, nil)

	case TypeState:
		view, err := h.Registry.StateByConnection(c.ID)
		if err != nil {
			c.failErr(err)
			return
		}
		c.ok(msg.Type, view.GameID, view)

	case TypeStartSolo:
		var req startSoloRequest
		if !decode(&req) {
			return
		}
		name := req.Name
		if name == "" {
			name = c.Name
		}
		res, err := h.Registry.StartSolo(c.ID, name, req.Placements)
		if err != nil {
			c.failErr(err)
			return
		}
		c.ok(msg.Type, res.GameID, res)

	default:
		c.fail(CodeBadRequest, "unknown message type "+msg.Type)
	}
}
