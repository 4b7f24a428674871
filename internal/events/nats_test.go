package events

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"battleship/internal/session"
)

type published struct {
	subj string
	data []byte
}

type fakeConn struct {
	msgs []published
	err  error
}

func (f *fakeConn) Publish(subj string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, published{subj, data})
	return nil
}

func TestPublisherEncodesEvent(t *testing.T) {
	conn := &fakeConn{}
	p := newPublisher(conn, DefaultPrefix)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return at }

	p.Notify(session.Notification{
		To:      "c1",
		Type:    session.EventGameWon,
		GameID:  "g1",
		Seq:     7,
		Payload: session.OutcomePayload{Winner: "Алиса"},
	})

	if len(conn.msgs) != 1 {
		t.Fatalf("ожидалось 1 сообщение, получено %d", len(conn.msgs))
	}
	if conn.msgs[0].subj != "battleship.events.game_won" {
		t.Fatalf("неверный subject: %s", conn.msgs[0].subj)
	}

	var ev struct {
		Type    string         `json:"type"`
		GameID  string         `json:"game_id"`
		Seq     uint64         `json:"seq"`
		To      string         `json:"conn_id"`
		Payload map[string]any `json:"payload"`
		At      time.Time      `json:"at"`
	}
	if err := json.Unmarshal(conn.msgs[0].data, &ev); err != nil {
		t.Fatal(err)
	}
	if ev.Type != "game_won" || ev.GameID != "g1" || ev.Seq != 7 || ev.To != "c1" {
		t.Fatalf("неверное событие: %+v", ev)
	}
	if ev.Payload["winner"] != "Алиса" || !ev.At.Equal(at) {
		t.Fatalf("неверная нагрузка: %+v", ev)
	}
}

func TestPublisherSwallowsErrors(t *testing.T) {
	conn := &fakeConn{err: errors.New("nats: connection closed")}
	p := newPublisher(conn, "test")

	// не паникует и не блокирует
	p.Notify(session.Notification{To: "c1", Type: session.EventWaiting})
	p.Close()
}
