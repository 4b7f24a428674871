package game

import (
	"time"

	"github.com/google/uuid"
)

type Mode string

const (
	ModeVsAI        Mode = "vs_ai"
	ModeMultiplayer Mode = "multiplayer"
)

// Side - сторона партии. Side1 - тот, кто ждал в очереди дольше
type Side int

const (
	NoSide Side = iota
	Side1
	Side2
)

func (s Side) Opponent() Side {
	switch s {
	case Side1:
		return Side2
	case Side2:
		return Side1
	default:
		return NoSide
	}
}

func (s Side) String() string {
	switch s {
	case Side1:
		return "player1"
	case Side2:
		return "player2"
	default:
		return "none"
	}
}

func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// AttackRecord - запись истории выстрелов (только добавление)
type AttackRecord struct {
	X         int       `json:"x"`
	Y         int       `json:"y"`
	Hit       bool      `json:"hit"`
	Sunk      bool      `json:"sunk"`
	By        Side      `json:"by"`
	Timestamp time.Time `json:"timestamp"`
}

// Game - две доски и история
type Game struct {
	ID        string
	Board1    *Board
	Board2    *Board
	CreatedAt time.Time
	History   []AttackRecord
}

func NewGame(boardSize int) *Game {
	return &Game{
		ID:        uuid.NewString(),
		Board1:    NewBoard(boardSize),
		Board2:    NewBoard(boardSize),
		CreatedAt: time.Now().UTC(),
	}
}

// BoardOf возвращает собственную доску стороны
func (g *Game) BoardOf(s Side) *Board {
	switch s {
	case Side1:
		return g.Board1
	case Side2:
		return g.Board2
	default:
		return nil
	}
}

// SetBoard заменяет доску стороны целиком
func (g *Game) SetBoard(s Side, b *Board) {
	switch s {
	case Side1:
		g.Board1 = b
	case Side2:
		g.Board2 = b
	}
}

// TargetBoardOf - доска, по которой стреляет сторона s
func (g *Game) TargetBoardOf(s Side) *Board {
	return g.BoardOf(s.Opponent())
}

func (g *Game) Record(x, y int, hit, sunk bool, by Side) AttackRecord {
	rec := AttackRecord{X: x, Y: y, Hit: hit, Sunk: sunk, By: by, Timestamp: time.Now().UTC()}
	g.History = append(g.History, rec)
	return rec
}

// GameOver вычисляется заново при каждом вызове
func (g *Game) GameOver() bool {
	return g.Board1.AllSunk() || g.Board2.AllSunk()
}

// Winner - сторона, чья доска не потоплена; NoSide пока игра идет
func (g *Game) Winner() Side {
	switch {
	case g.Board1.AllSunk():
		return Side2
	case g.Board2.AllSunk():
		return Side1
	default:
		return NoSide
	}
}

type Player struct {
	ConnID string `json:"-"`
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	// соединение потеряно, ждем переподключения
	Disconnected bool `json:"disconnected"`
}

// MultiplayerGame добавляет к Game участников, готовность и очередность хода
type MultiplayerGame struct {
	*Game
	Players [2]Player
	Turn    Side
	Mode    Mode
}

func NewMultiplayerGame(boardSize int, mode Mode, conn1, name1, conn2, name2 string) *MultiplayerGame {
	return &MultiplayerGame{
		Game: NewGame(boardSize),
		Players: [2]Player{
			{ConnID: conn1, Name: name1},
			{ConnID: conn2, Name: name2},
		},
		Turn: Side1,
		Mode: mode,
	}
}

// Player возвращает участника стороны s (nil для NoSide)
func (g *MultiplayerGame) Player(s Side) *Player {
	switch s {
	case Side1:
		return &g.Players[0]
	case Side2:
		return &g.Players[1]
	default:
		return nil
	}
}

// SideOf находит сторону по идентификатору соединения
func (g *MultiplayerGame) SideOf(connID string) Side {
	if connID == "" {
		return NoSide
	}
	switch connID {
	case g.Players[0].ConnID:
		return Side1
	case g.Players[1].ConnID:
		return Side2
	default:
		return NoSide
	}
}

func (g *MultiplayerGame) BothReady() bool {
	return g.Players[0].Ready && g.Players[1].Ready
}

// WinnerName - имя победителя или пустая строка
func (g *MultiplayerGame) WinnerName() string {
	if p := g.Player(g.Winner()); p != nil {
		return p.Name
	}
	return ""
}
