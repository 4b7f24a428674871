package session

type EventType string

const (
	EventWaiting              EventType = "waiting"
	EventOpponentJoined       EventType = "opponent_joined"
	EventGameJoined           EventType = "game_joined"
	EventOpponentReady        EventType = "opponent_ready"
	EventGameStarted          EventType = "game_started"
	EventAttackResult         EventType = "attack_result"
	EventOpponentAttacked     EventType = "opponent_attacked"
	EventYourTurn             EventType = "your_turn"
	EventGameWon              EventType = "game_won"
	EventGameLost             EventType = "game_lost"
	EventOpponentDisconnected EventType = "opponent_disconnected"
	EventOpponentReconnected  EventType = "opponent_reconnected"
	EventSessionAborted       EventType = "session_aborted"
)

// Notification адресована одному соединению. Seq растет в пределах сессии
// в порядке применения операций
type Notification struct {
	To      string    `json:"-"`
	Type    EventType `json:"type"`
	GameID  string    `json:"game_id,omitempty"`
	Seq     uint64    `json:"seq,omitempty"`
	Payload any       `json:"payload,omitempty"`
}

// Notifier доставляет уведомления транспорту. Реестр никогда не вызывает его
// под блокировкой партии; реализация не должна надолго блокироваться
type Notifier interface {
	Notify(n Notification)
}

type NotifierFunc func(n Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// MultiNotifier рассылает уведомление всем получателям по порядку
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(n Notification) {
	for _, x := range m {
		if x != nil {
			x.Notify(n)
		}
	}
}

var Discard Notifier = NotifierFunc(func(Notification) {})

type JoinedPayload struct {
	OpponentName string `json:"opponent_name"`
	Side         string `json:"side"`
	Token        string `json:"token,omitempty"`
}

type ReadyPayload struct {
	OpponentName string `json:"opponent_name"`
}

type StartedPayload struct {
	Turn     string `json:"turn"`
	YourTurn bool   `json:"your_turn"`
}

type OutcomePayload struct {
	Winner string `json:"winner"`
}

type DisconnectPayload struct {
	OpponentName string `json:"opponent_name"`
	// секунды до завершения сессии; 0 - сессия уже закрыта
	GraceSeconds int `json:"grace_seconds"`
}

type AbortPayload struct {
	Reason string `json:"reason"`
}
