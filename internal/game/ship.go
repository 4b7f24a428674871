package game

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type ShipType int

const (
	Carrier ShipType = iota + 1
	Battleship
	Cruiser
	Submarine
	Destroyer
)

const (
	MinShipSize = 2
	MaxShipSize = 5
)

// классический флот: 5, 4, 3, 3, 2
var StandardFleet = []ShipType{Carrier, Battleship, Cruiser, Submarine, Destroyer}

// размер корабля данного класса
func (t ShipType) Size() int {
	switch t {
	case Carrier:
		return 5
	case Battleship:
		return 4
	case Cruiser, Submarine:
		return 3
	case Destroyer:
		return 2
	default:
		return 0
	}
}

func (t ShipType) Valid() bool {
	return t >= Carrier && t <= Destroyer
}

func (t ShipType) String() string {
	switch t {
	case Carrier:
		return "carrier"
	case Battleship:
		return "battleship"
	case Cruiser:
		return "cruiser"
	case Submarine:
		return "submarine"
	case Destroyer:
		return "destroyer"
	default:
		return fmt.Sprintf("ship_type(%d)", int(t))
	}
}

func (t ShipType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON принимает и имя класса ("cruiser"), и число
func (t *ShipType) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		parsed, err := ParseShipType(name)
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return fmt.Errorf("%w: ship type %s", ErrInvalidMove, data)
	}
	*t = ShipType(n)
	return nil
}

// ParseShipType принимает имя класса без учета регистра
func ParseShipType(s string) (ShipType, error) {
	for _, t := range StandardFleet {
		if strings.EqualFold(t.String(), s) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown ship type %q", ErrInvalidMove, s)
}

type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Ship - размещенный корабль. Собственных флагов попаданий нет,
// потопленность вычисляется по сетке доски
type Ship struct {
	Type       ShipType `json:"type"`
	Size       int      `json:"size"`
	Horizontal bool     `json:"horizontal"`
	Positions  []Coord  `json:"positions"`
}

// IsSunk true, если каждая клетка корабля подбита на доске b
func (s *Ship) IsSunk(b *Board) bool {
	if len(s.Positions) == 0 {
		return false
	}
	for _, p := range s.Positions {
		c := b.Cell(p.X, p.Y)
		if c == nil || !c.IsHit {
			return false
		}
	}
	return true
}

// Contains проверяет, занимает ли корабль клетку
func (s *Ship) Contains(x, y int) bool {
	for _, p := range s.Positions {
		if p.X == x && p.Y == y {
			return true
		}
	}
	return false
}

// ShipPlacement - запрос клиента на размещение одного корабля
type ShipPlacement struct {
	X          int      `json:"x"`
	Y          int      `json:"y"`
	Size       int      `json:"size"`
	Horizontal bool     `json:"horizontal"`
	Type       ShipType `json:"type"`
}

// Validate проверяет размер и класс без учета доски
func (p ShipPlacement) Validate() error {
	if p.Size < MinShipSize || p.Size > MaxShipSize {
		return fmt.Errorf("%w: ship size %d out of range %d-%d", ErrInvalidMove, p.Size, MinShipSize, MaxShipSize)
	}
	if !p.Type.Valid() {
		return fmt.Errorf("%w: unknown ship type %d", ErrInvalidMove, int(p.Type))
	}
	if p.Type.Size() != p.Size {
		return fmt.Errorf("%w: %s must have size %d, got %d", ErrInvalidMove, p.Type, p.Type.Size(), p.Size)
	}
	return nil
}
