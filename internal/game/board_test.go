package game

import (
	"errors"
	"math/rand"
	"testing"
)

func TestPlaceThenCanPlaceIsFalse(t *testing.T) {
	cases := []struct {
		name       string
		x, y, size int
		horizontal bool
	}{
		{"угол по горизонтали", 0, 0, 2, true},
		{"угол по вертикали", 0, 0, 5, false},
		{"правый край", 6, 9, 4, true},
		{"нижний край", 9, 7, 3, false},
		{"центр", 4, 4, 3, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := NewBoard(DefaultBoardSize)
			if !b.CanPlace(tc.x, tc.y, tc.size, tc.horizontal) {
				t.Fatalf("ожидалось, что размещение возможно")
			}
			if _, err := b.Place(tc.x, tc.y, tc.size, tc.horizontal, Destroyer); err != nil {
				t.Fatalf("неожиданная ошибка: %v", err)
			}
			if b.CanPlace(tc.x, tc.y, tc.size, tc.horizontal) {
				t.Fatalf("повторное размещение в тех же координатах должно быть запрещено")
			}
		})
	}
}

func TestPlaceRejectsOutOfBoundsWithoutMutation(t *testing.T) {
	b := NewBoard(DefaultBoardSize)

	_, err := b.Place(8, 0, 3, true, Cruiser)
	if !errors.Is(err, ErrInvalidMove) {
		t.Fatalf("ожидалась ErrInvalidMove, получено %v", err)
	}
	if len(b.Ships) != 0 {
		t.Fatalf("корабль не должен быть добавлен")
	}
	for x := 0; x < b.Size; x++ {
		if b.Cell(x, 0).HasShip {
			t.Fatalf("клетка (%d,0) не должна содержать корабль", x)
		}
	}
}

func TestPlaceRejectsOverlap(t *testing.T) {
	b := NewBoard(DefaultBoardSize)
	if _, err := b.Place(2, 2, 4, true, Battleship); err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if _, err := b.Place(3, 0, 3, false, Submarine); !errors.Is(err, ErrInvalidMove) {
		t.Fatalf("ожидалось пересечение, получено %v", err)
	}
	if len(b.Ships) != 1 {
		t.Fatalf("ожидался 1 корабль, получено %d", len(b.Ships))
	}
}

func TestPlaceMarksCells(t *testing.T) {
	b := NewBoard(DefaultBoardSize)
	ship, err := b.Place(1, 1, 3, false, Cruiser)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	want := []Coord{{1, 1}, {1, 2}, {1, 3}}
	for i, p := range want {
		if ship.Positions[i] != p {
			t.Fatalf("позиция %d: ожидалось %v, получено %v", i, p, ship.Positions[i])
		}
		c := b.Cell(p.X, p.Y)
		if !c.HasShip || c.IsHorizontal || c.ShipType == nil || *c.ShipType != Cruiser {
			t.Fatalf("клетка %v размечена неверно: %+v", p, c)
		}
		if c.IsShipStart != (i == 0) {
			t.Fatalf("клетка %v: IsShipStart=%v", p, c.IsShipStart)
		}
	}
}

func TestAttackIsIdempotent(t *testing.T) {
	b := NewBoard(DefaultBoardSize)
	if _, err := b.Place(0, 0, 2, true, Destroyer); err != nil {
		t.Fatal(err)
	}

	first := b.Attack(0, 0)
	if !first.Hit || first.AlreadyHit {
		t.Fatalf("первый выстрел: %+v", first)
	}
	second := b.Attack(0, 0)
	if !second.Hit || !second.AlreadyHit {
		t.Fatalf("второй выстрел должен вернуть alreadyHit: %+v", second)
	}
	c := b.Cell(0, 0)
	if !c.IsHit || !c.HasShip {
		t.Fatalf("флаги клетки изменились: %+v", c)
	}

	miss := b.Attack(5, 5)
	again := b.Attack(5, 5)
	if miss.Hit || miss.AlreadyHit || again.Hit || !again.AlreadyHit {
		t.Fatalf("промах: %+v, повтор: %+v", miss, again)
	}
}

func TestAttackOutOfBoundsIsNoop(t *testing.T) {
	b := NewBoard(DefaultBoardSize)
	for _, p := range []Coord{{-1, 0}, {0, -1}, {10, 0}, {0, 10}} {
		out := b.Attack(p.X, p.Y)
		if out.Hit || out.AlreadyHit {
			t.Fatalf("%v: ожидался пустой результат, получено %+v", p, out)
		}
	}
	if b.HitCount() != 0 {
		t.Fatalf("поле не должно измениться")
	}
}

func TestShipSunkOnlyWhenEveryCellHit(t *testing.T) {
	b := NewBoard(DefaultBoardSize)
	ship, err := b.Place(2, 5, 4, true, Battleship)
	if err != nil {
		t.Fatal(err)
	}

	order := []Coord{{4, 5}, {2, 5}, {5, 5}}
	for _, p := range order {
		b.Attack(p.X, p.Y)
		if ship.IsSunk(b) {
			t.Fatalf("корабль не должен быть потоплен после попадания в %v", p)
		}
	}
	// промах рядом ничего не меняет
	b.Attack(6, 5)
	if ship.IsSunk(b) {
		t.Fatalf("промах не должен топить корабль")
	}

	b.Attack(3, 5)
	if !ship.IsSunk(b) {
		t.Fatalf("корабль должен быть потоплен")
	}
	if !b.AllSunk() {
		t.Fatalf("единственный корабль потоплен, AllSunk должен быть true")
	}
}

func TestMarkSunkUsesOwningShip(t *testing.T) {
	b := NewBoard(DefaultBoardSize)
	// два горизонтальных корабля вплотную друг к другу
	left, _ := b.Place(0, 0, 2, true, Destroyer)
	if _, err := b.Place(2, 0, 3, true, Cruiser); err != nil {
		t.Fatal(err)
	}
	for _, p := range left.Positions {
		b.Attack(p.X, p.Y)
	}

	got := b.MarkSunk(1, 0)
	if got != left {
		t.Fatalf("MarkSunk вернул не тот корабль")
	}
	for x := 0; x < 5; x++ {
		want := x < 2
		if b.Cell(x, 0).IsSunk != want {
			t.Fatalf("клетка (%d,0): IsSunk=%v, ожидалось %v", x, b.Cell(x, 0).IsSunk, want)
		}
	}
	if b.MarkSunk(9, 9) != nil {
		t.Fatalf("пустая клетка не принадлежит кораблю")
	}
}

func TestBuildBoardIsAllOrNothing(t *testing.T) {
	_, err := BuildBoard(DefaultBoardSize, []ShipPlacement{
		{X: 0, Y: 0, Size: 5, Horizontal: true, Type: Carrier},
		{X: 2, Y: 0, Size: 2, Horizontal: false, Type: Destroyer},
	})
	if !errors.Is(err, ErrInvalidMove) {
		t.Fatalf("ожидалась ErrInvalidMove, получено %v", err)
	}

	_, err = BuildBoard(DefaultBoardSize, []ShipPlacement{{X: 0, Y: 0, Size: 3, Horizontal: true, Type: Destroyer}})
	if !errors.Is(err, ErrInvalidMove) {
		t.Fatalf("размер не соответствует классу, получено %v", err)
	}

	_, err = BuildBoard(DefaultBoardSize, nil)
	if !errors.Is(err, ErrInvalidMove) {
		t.Fatalf("пустая расстановка должна отклоняться, получено %v", err)
	}

	b, err := BuildBoard(DefaultBoardSize, []ShipPlacement{
		{X: 0, Y: 0, Size: 5, Horizontal: true, Type: Carrier},
		{X: 0, Y: 2, Size: 2, Horizontal: false, Type: Destroyer},
	})
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if b.ShipCells() != 7 {
		t.Fatalf("ожидалось 7 клеток, получено %d", b.ShipCells())
	}
}

func TestClearRemovesShips(t *testing.T) {
	b := NewBoard(DefaultBoardSize)
	b.Place(0, 0, 3, true, Cruiser)
	b.Attack(0, 0)
	b.Clear()

	if len(b.Ships) != 0 || b.ShipAt(0, 0) != nil {
		t.Fatalf("корабли должны быть удалены")
	}
	if c := b.Cell(0, 0); c.HasShip || c.IsHit || c.ShipType != nil {
		t.Fatalf("клетка не очищена: %+v", c)
	}
}

func TestRandomFleet(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		b, err := RandomFleet(DefaultBoardSize, rnd)
		if err != nil {
			t.Fatalf("неожиданная ошибка: %v", err)
		}
		if len(b.Ships) != len(StandardFleet) {
			t.Fatalf("ожидалось %d кораблей, получено %d", len(StandardFleet), len(b.Ships))
		}
		if b.ShipCells() != 17 {
			t.Fatalf("ожидалось 17 клеток, получено %d", b.ShipCells())
		}

		// расстановка воспроизводится через BuildBoard
		if _, err := BuildBoard(DefaultBoardSize, FleetPlacements(b)); err != nil {
			t.Fatalf("расстановка невалидна: %v", err)
		}
	}
}
