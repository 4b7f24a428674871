package session

import (
	"time"

	"battleship/internal/game"
)

type CellView struct {
	X            int    `json:"x"`
	Y            int    `json:"y"`
	HasShip      bool   `json:"has_ship"`
	IsHit        bool   `json:"is_hit"`
	IsSunk       bool   `json:"is_sunk"`
	ShipType     string `json:"ship_type,omitempty"`
	IsShipStart  bool   `json:"is_ship_start,omitempty"`
	IsHorizontal bool   `json:"is_horizontal,omitempty"`
}

type BoardView struct {
	Size           int          `json:"size"`
	Cells          [][]CellView `json:"cells"`
	ShipsRemaining int          `json:"ships_remaining"`
}

type PlayerView struct {
	Side         game.Side `json:"side"`
	Name         string    `json:"name"`
	Ready        bool      `json:"ready"`
	Disconnected bool      `json:"disconnected"`
}

// GameView - снимок сессии глазами одной из сторон (или наблюдателя, You == NoSide)
type GameView struct {
	GameID         string              `json:"game_id,omitempty"`
	Mode           game.Mode           `json:"mode,omitempty"`
	State          State               `json:"state"`
	Turn           game.Side           `json:"turn"`
	You            game.Side           `json:"you"`
	Players        [2]PlayerView       `json:"players"`
	Board1         *BoardView          `json:"board1,omitempty"`
	Board2         *BoardView          `json:"board2,omitempty"`
	History        []game.AttackRecord `json:"history"`
	GameOver       bool                `json:"game_over"`
	Winner         string              `json:"winner,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	ReconnectToken string              `json:"reconnect_token,omitempty"`
}

// OwnBoard и OpponentBoard - удобные геттеры для транспорта
func (v GameView) OwnBoard() *BoardView {
	switch v.You {
	case game.Side1:
		return v.Board1
	case game.Side2:
		return v.Board2
	}
	return nil
}

func (v GameView) OpponentBoard() *BoardView {
	switch v.You {
	case game.Side1:
		return v.Board2
	case game.Side2:
		return v.Board1
	}
	return nil
}

// NewBoardView строит представление поля. full == false скрывает
// корабли, по которым еще не попали; тип раскрывается только у потопленных
func NewBoardView(b *game.Board, full bool) *BoardView {
	cells := b.Cells()
	bv := &BoardView{Size: b.Size, Cells: make([][]CellView, b.Size)}
	for x := range cells {
		bv.Cells[x] = make([]CellView, len(cells[x]))
		for y, c := range cells[x] {
			cv := CellView{X: c.X, Y: c.Y, IsHit: c.IsHit, IsSunk: c.IsSunk}
			visible := full || c.IsSunk
			if full || c.IsHit {
				cv.HasShip = c.HasShip
			}
			if visible && c.ShipType != nil {
				cv.ShipType = c.ShipType.String()
				cv.IsShipStart = c.IsShipStart
				cv.IsHorizontal = c.IsHorizontal
			}
			bv.Cells[x][y] = cv
		}
	}
	for _, s := range b.Ships {
		if !s.IsSunk(b) {
			bv.ShipsRemaining++
		}
	}
	return bv
}

func (r *Registry) viewLocked(e *entry, viewer game.Side) GameView {
	g := e.game
	v := GameView{
		GameID:    g.ID,
		Mode:      g.Mode,
		State:     e.state,
		Turn:      g.Turn,
		You:       viewer,
		Board1:    NewBoardView(g.Board1, viewer == game.Side1),
		Board2:    NewBoardView(g.Board2, viewer == game.Side2),
		History:   append([]game.AttackRecord(nil), g.History...),
		CreatedAt: g.CreatedAt,
	}
	// пустое поле до расстановки тоже "потоплено"
	v.GameOver = e.state == StateFinished || (e.state == StateInProgress && g.GameOver())
	if e.state == StateFinished {
		v.Winner = g.WinnerName()
	}
	for i, s := range []game.Side{game.Side1, game.Side2} {
		p := g.Player(s)
		v.Players[i] = PlayerView{Side: s, Name: p.Name, Ready: p.Ready, Disconnected: p.Disconnected}
	}
	return v
}
