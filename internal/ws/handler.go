package ws

import (
	"net/http"

	"battleship/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WSHandler содержит зависимости для обработки WebSocket
type WSHandler struct {
	Hub           *Hub
	AllowedOrigin string
}

func NewWSHandler(hub *Hub, allowedOrigin string) *WSHandler {
	return &WSHandler{Hub: hub, AllowedOrigin: allowedOrigin}
}

func (h *WSHandler) HandleWS() gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if h.AllowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == h.AllowedOrigin
		},
	}

	return func(c *gin.Context) {
		name := c.Query("name")
		if len([]rune(name)) > 32 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name is too long"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("ws upgrade failed", "error", err)
			return
		}

		client := NewClient(uuid.NewString(), name, conn, h.Hub)
		go client.Run()
	}
}
