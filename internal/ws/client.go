package ws

import (
	"encoding/json"
	"time"

	"battleship/internal/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 50 * time.Second
	maxMessageSize = 16 * 1024
	sendBuffer     = 256
)

// Client - одно WebSocket соединение. ID - непрозрачный идентификатор
// соединения для реестра сессий
type Client struct {
	ID   string
	Name string
	Conn *websocket.Conn
	Send chan []byte
	Hub  *Hub
	Done chan struct{}
}

func NewClient(id, name string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		ID:   id,
		Name: name,
		Conn: conn,
		Send: make(chan []byte, sendBuffer),
		Hub:  hub,
		Done: make(chan struct{}),
	}
}

func (c *Client) Run() {
	c.Hub.Register(c)
	go c.writePump()

	c.send(Message{Type: TypeConnected, Payload: ConnectedPayload{ConnectionID: c.ID}})
	logger.ForConn(c.ID).Info("ws client connected", "name", c.Name)

	c.readPump()
}

// read
func (c *Client) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		_ = c.Conn.Close()
		close(c.Done)
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.ForConn(c.ID).Warn("ws read error", "error", err)
			}
			return
		}
		c.Hub.HandleMessage(c, msg)
	}
}

// write
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.ForConn(c.ID).Warn("ws write error", "error", err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// send - ответ на собственный запрос клиента
func (c *Client) send(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		logger.ForConn(c.ID).Error("marshal ws message", "type", msg.Type, "error", err)
		return
	}
	c.Hub.deliver(c.ID, data)
}
