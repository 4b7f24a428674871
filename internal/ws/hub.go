package ws

import (
	"encoding/json"
	"sync"

	"battleship/internal/logger"
	"battleship/internal/metrics"
	"battleship/internal/session"
)

// Hub хранит открытые соединения и доставляет им уведомления реестра.
// Реализует session.Notifier
type Hub struct {
	Registry *session.Registry

	mu      sync.RWMutex
	clients map[string]*Client
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	n := len(h.clients)
	h.mu.Unlock()
	metrics.WSConnections.Set(float64(n))
}

// Unregister закрывает канал отправки и сообщает реестру об обрыве
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if cur, ok := h.clients[c.ID]; ok && cur == c {
		delete(h.clients, c.ID)
		close(c.Send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	metrics.WSConnections.Set(float64(n))

	if h.Registry != nil {
		h.Registry.Disconnect(c.ID)
	}
	logger.ForConn(c.ID).Info("ws client disconnected")
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Notify ставит уведомление в очередь клиента. Неизвестные соединения
// (REST-игроки, уже закрытые сокеты) пропускаются
func (h *Hub) Notify(n session.Notification) {
	data, err := json.Marshal(Message{
		Type:    string(n.Type),
		GameID:  n.GameID,
		Seq:     n.Seq,
		Payload: n.Payload,
	})
	if err != nil {
		logger.ForGame(n.GameID).Error("marshal notification", "type", n.Type, "error", err)
		return
	}
	h.deliver(n.To, data)
}

// deliver не блокируется. Переполненный буфер означает отставшего клиента:
// его отключаем, чтобы пропуск уведомления был виден как обрыв
func (h *Hub) deliver(connID string, data []byte) {
	h.mu.RLock()
	c, ok := h.clients[connID]
	overflow := false
	if ok {
		select {
		case c.Send <- data:
		default:
			overflow = true
		}
	}
	h.mu.RUnlock()

	if overflow {
		logger.ForConn(connID).Warn("send buffer full, closing connection")
		// Unregister берет h.mu и вызывает реестр, который может снова прийти в deliver
		go h.Unregister(c)
	}
}
