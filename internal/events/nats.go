package events

import (
	"encoding/json"
	"fmt"
	"time"

	"battleship/internal/logger"
	"battleship/internal/session"

	"github.com/nats-io/nats.go"
)

const DefaultPrefix = "battleship.events"

// publisher - подмножество *nats.Conn, нужное для отправки
type publisher interface {
	Publish(subj string, data []byte) error
}

// Event - то, что уходит в шину. Одно уведомление реестра = одно сообщение
type Event struct {
	Type    session.EventType `json:"type"`
	GameID  string            `json:"game_id"`
	Seq     uint64            `json:"seq"`
	To      string            `json:"conn_id"`
	Payload any               `json:"payload,omitempty"`
	At      time.Time         `json:"at"`
}

// Publisher дублирует уведомления сессий в NATS
type Publisher struct {
	conn   publisher
	nc     *nats.Conn
	prefix string
	now    func() time.Time
}

// Connect подключается к NATS. Переподключения бесконечные, пока процесс жив
func Connect(url string) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("battleship"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	p := newPublisher(nc, DefaultPrefix)
	p.nc = nc
	return p, nil
}

func newPublisher(conn publisher, prefix string) *Publisher {
	return &Publisher{conn: conn, prefix: prefix, now: time.Now}
}

// Subject: <prefix>.<тип события>
func (p *Publisher) Subject(t session.EventType) string {
	return p.prefix + "." + string(t)
}

// Notify реализует session.Notifier. Ошибки шины не мешают игре
func (p *Publisher) Notify(n session.Notification) {
	data, err := json.Marshal(Event{
		Type:    n.Type,
		GameID:  n.GameID,
		Seq:     n.Seq,
		To:      n.To,
		Payload: n.Payload,
		At:      p.now(),
	})
	if err != nil {
		logger.Error("failed to encode event", "type", n.Type, "error", err)
		return
	}
	if err := p.conn.Publish(p.Subject(n.Type), data); err != nil {
		logger.Warn("failed to publish event", "type", n.Type, "game_id", n.GameID, "error", err)
	}
}

// Close досылает буфер и закрывает соединение
func (p *Publisher) Close() {
	if p.nc == nil {
		return
	}
	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
	}
}
