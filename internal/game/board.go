package game

import (
	"errors"
	"fmt"
)

const DefaultBoardSize = 10

// Cell - состояние одной клетки
type Cell struct {
	X            int       `json:"x"`
	Y            int       `json:"y"`
	HasShip      bool      `json:"has_ship"`
	IsHit        bool      `json:"is_hit"`
	IsSunk       bool      `json:"is_sunk"`
	ShipType     *ShipType `json:"ship_type,omitempty"`
	IsShipStart  bool      `json:"is_ship_start"`
	IsHorizontal bool      `json:"is_horizontal"`

	// индекс корабля в Board.Ships, -1 если пусто
	shipIndex int
}

// AttackOutcome - результат Board.Attack
type AttackOutcome struct {
	Hit        bool
	AlreadyHit bool
}

// Board - поле одного игрока. Клетки адресуются cells[x][y],
// x - столбец, y - строка
type Board struct {
	Size  int
	Ships []*Ship
	cells [][]Cell
}

// создает пустое поле size x size
func NewBoard(size int) *Board {
	if size <= 0 {
		size = DefaultBoardSize
	}
	b := &Board{Size: size}
	b.cells = make([][]Cell, size)
	for x := 0; x < size; x++ {
		b.cells[x] = make([]Cell, size)
		for y := 0; y < size; y++ {
			b.cells[x][y] = Cell{X: x, Y: y, shipIndex: -1}
		}
	}
	return b
}

func (b *Board) InBounds(x, y int) bool {
	return x >= 0 && x < b.Size && y >= 0 && y < b.Size
}

// Cell возвращает клетку или nil вне поля
func (b *Board) Cell(x, y int) *Cell {
	if !b.InBounds(x, y) {
		return nil
	}
	return &b.cells[x][y]
}

func run(x, y, size int, horizontal bool) []Coord {
	out := make([]Coord, size)
	for i := 0; i < size; i++ {
		if horizontal {
			out[i] = Coord{X: x + i, Y: y}
		} else {
			out[i] = Coord{X: x, Y: y + i}
		}
	}
	return out
}

// CanPlace: вся полоса внутри поля и ни одна клетка не занята
func (b *Board) CanPlace(x, y, size int, horizontal bool) bool {
	if size <= 0 {
		return false
	}
	for _, p := range run(x, y, size, horizontal) {
		if !b.InBounds(p.X, p.Y) || b.cells[p.X][p.Y].HasShip {
			return false
		}
	}
	return true
}

// Place размещает корабль. Выход за границы и пересечение отклоняются
// целиком, частичных размещений не бывает
func (b *Board) Place(x, y, size int, horizontal bool, t ShipType) (*Ship, error) {
	if !b.CanPlace(x, y, size, horizontal) {
		return nil, fmt.Errorf("%w: cannot place %s (size %d) at (%d,%d) horizontal=%v",
			ErrInvalidMove, t, size, x, y, horizontal)
	}

	ship := &Ship{
		Type:       t,
		Size:       size,
		Horizontal: horizontal,
		Positions:  run(x, y, size, horizontal),
	}
	idx := len(b.Ships)
	b.Ships = append(b.Ships, ship)

	for i, p := range ship.Positions {
		c := &b.cells[p.X][p.Y]
		st := t
		c.HasShip = true
		c.ShipType = &st
		c.IsHorizontal = horizontal
		c.IsShipStart = i == 0
		c.shipIndex = idx
	}
	return ship, nil
}

// Attack - единственная мутирующая операция боя
func (b *Board) Attack(x, y int) AttackOutcome {
	if !b.InBounds(x, y) {
		return AttackOutcome{}
	}
	c := &b.cells[x][y]
	if c.IsHit {
		return AttackOutcome{Hit: c.HasShip, AlreadyHit: true}
	}
	c.IsHit = true
	return AttackOutcome{Hit: c.HasShip}
}

// AllSunk: все клетки с кораблями подбиты. Поле без кораблей считается потопленным
func (b *Board) AllSunk() bool {
	for x := 0; x < b.Size; x++ {
		for y := 0; y < b.Size; y++ {
			c := &b.cells[x][y]
			if c.HasShip && !c.IsHit {
				return false
			}
		}
	}
	return true
}

// ShipAt возвращает корабль, занимающий клетку
func (b *Board) ShipAt(x, y int) *Ship {
	c := b.Cell(x, y)
	if c == nil || c.shipIndex < 0 || c.shipIndex >= len(b.Ships) {
		return nil
	}
	return b.Ships[c.shipIndex]
}

// MarkSunk помечает потопленным весь корабль, которому принадлежит клетка.
// Владелец ищется по обратной ссылке клетки, а не сканированием вдоль оси
func (b *Board) MarkSunk(x, y int) *Ship {
	ship := b.ShipAt(x, y)
	if ship == nil {
		return nil
	}
	for _, p := range ship.Positions {
		b.cells[p.X][p.Y].IsSunk = true
	}
	return ship
}

// AttackedMask - маска уже обстрелянных клеток для ИИ
func (b *Board) AttackedMask() [][]bool {
	mask := make([][]bool, b.Size)
	for x := 0; x < b.Size; x++ {
		mask[x] = make([]bool, b.Size)
		for y := 0; y < b.Size; y++ {
			mask[x][y] = b.cells[x][y].IsHit
		}
	}
	return mask
}

// Clear снимает все корабли; попадания тоже сбрасываются
func (b *Board) Clear() {
	b.Ships = nil
	for x := 0; x < b.Size; x++ {
		for y := 0; y < b.Size; y++ {
			b.cells[x][y] = Cell{X: x, Y: y, shipIndex: -1}
		}
	}
}

// ShipCells - число клеток с кораблями
func (b *Board) ShipCells() int {
	n := 0
	for _, s := range b.Ships {
		n += len(s.Positions)
	}
	return n
}

// HitCount - число подбитых клеток с кораблями
func (b *Board) HitCount() int {
	n := 0
	for x := 0; x < b.Size; x++ {
		for y := 0; y < b.Size; y++ {
			if b.cells[x][y].HasShip && b.cells[x][y].IsHit {
				n++
			}
		}
	}
	return n
}

// BuildBoard проверяет всю расстановку на чистом поле.
// Ошибка в любом корабле - поле не создается
func BuildBoard(size int, placements []ShipPlacement) (*Board, error) {
	if len(placements) == 0 {
		return nil, fmt.Errorf("%w: no ships placed", ErrInvalidMove)
	}
	b := NewBoard(size)
	var errs []error
	for i, p := range placements {
		if err := p.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("ship %d: %w", i, err))
			continue
		}
		if _, err := b.Place(p.X, p.Y, p.Size, p.Horizontal, p.Type); err != nil {
			errs = append(errs, fmt.Errorf("ship %d: %w", i, err))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return b, nil
}

// Cells возвращает копию сетки (для снимков)
func (b *Board) Cells() [][]Cell {
	out := make([][]Cell, b.Size)
	for x := 0; x < b.Size; x++ {
		out[x] = make([]Cell, b.Size)
		copy(out[x], b.cells[x])
	}
	return out
}

// ApplyPlacements заменяет расстановку целиком. Старые корабли и флаги
// снимаются; при ошибке поле остается прежним
func (b *Board) ApplyPlacements(placements []ShipPlacement) error {
	fresh, err := BuildBoard(b.Size, placements)
	if err != nil {
		return err
	}
	b.Ships = fresh.Ships
	b.cells = fresh.cells
	return nil
}
