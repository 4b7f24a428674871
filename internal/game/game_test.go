package game

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestGameOverAndWinnerAreDerived(t *testing.T) {
	g := NewMultiplayerGame(DefaultBoardSize, ModeMultiplayer, "c1", "Алиса", "c2", "Боб")
	if _, err := g.Board1.Place(5, 5, 3, false, Cruiser); err != nil {
		t.Fatal(err)
	}
	// горизонтальный двухклеточный корабль в (0,0) занимает (0,0) и (1,0)
	if _, err := g.Board2.Place(0, 0, 2, true, Destroyer); err != nil {
		t.Fatal(err)
	}

	if g.GameOver() || g.Winner() != NoSide {
		t.Fatalf("игра не должна быть окончена до выстрелов")
	}

	target := g.TargetBoardOf(Side1)
	out := target.Attack(0, 0)
	g.Record(0, 0, out.Hit, false, Side1)
	if !out.Hit || g.GameOver() {
		t.Fatalf("первое попадание: %+v, gameOver=%v", out, g.GameOver())
	}

	out = target.Attack(1, 0)
	sunk := target.ShipAt(1, 0).IsSunk(target)
	g.Record(1, 0, out.Hit, sunk, Side1)
	if !out.Hit || !sunk {
		t.Fatalf("второе попадание должно потопить корабль: %+v sunk=%v", out, sunk)
	}
	if !g.GameOver() {
		t.Fatalf("ожидался конец игры")
	}
	if g.Winner() != Side1 || g.WinnerName() != "Алиса" {
		t.Fatalf("ожидалась победа Side1, получено %s/%q", g.Winner(), g.WinnerName())
	}
	if len(g.History) != 2 || g.History[1].By != Side1 || !g.History[1].Sunk {
		t.Fatalf("история записана неверно: %+v", g.History)
	}
}

func TestSideLookup(t *testing.T) {
	g := NewMultiplayerGame(DefaultBoardSize, ModeMultiplayer, "c1", "a", "c2", "b")

	if g.SideOf("c1") != Side1 || g.SideOf("c2") != Side2 || g.SideOf("x") != NoSide || g.SideOf("") != NoSide {
		t.Fatalf("SideOf работает неверно")
	}
	if Side1.Opponent() != Side2 || Side2.Opponent() != Side1 || NoSide.Opponent() != NoSide {
		t.Fatalf("Opponent работает неверно")
	}
	if g.TargetBoardOf(Side1) != g.Board2 || g.BoardOf(Side1) != g.Board1 {
		t.Fatalf("доски сторон перепутаны")
	}
	if g.Turn != Side1 {
		t.Fatalf("первый ход должен принадлежать Side1")
	}
}

func TestPlacementJSONAcceptsNamesAndNumbers(t *testing.T) {
	var ps []ShipPlacement
	raw := `[{"x":1,"y":2,"size":3,"horizontal":true,"type":"Cruiser"},{"x":0,"y":0,"size":2,"type":5}]`
	if err := json.Unmarshal([]byte(raw), &ps); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ps[0].Type != Cruiser || ps[1].Type != Destroyer {
		t.Fatalf("неверные типы: %v %v", ps[0].Type, ps[1].Type)
	}

	var bad ShipPlacement
	err := json.Unmarshal([]byte(`{"type":"yacht"}`), &bad)
	if !errors.Is(err, ErrInvalidMove) {
		t.Fatalf("ожидалась ErrInvalidMove, получено %v", err)
	}

	out, _ := json.Marshal(AttackRecord{X: 1, Y: 2, By: Side2})
	if !json.Valid(out) || !strings.Contains(string(out), `"by":"player2"`) {
		t.Fatalf("сторона должна сериализоваться именем: %s", out)
	}
}
