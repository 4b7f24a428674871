package game

import (
	"fmt"
	"math/rand"
	"time"
)

// Rand - источник случайности для ИИ и генератора флота.
// *rand.Rand подходит напрямую; в тестах подставляется фиксированная последовательность
type Rand interface {
	Intn(n int) int
}

// NewRand создает источник, засеянный временем
func NewRand() Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

const maxPlacementAttempts = 1000

// RandomFleet случайно расставляет классический флот на пустом поле
func RandomFleet(size int, rnd Rand) (*Board, error) {
	b := NewBoard(size)
	for _, t := range StandardFleet {
		placed := false
		for attempt := 0; attempt < maxPlacementAttempts; attempt++ {
			x := rnd.Intn(b.Size)
			y := rnd.Intn(b.Size)
			horizontal := rnd.Intn(2) == 0
			if !b.CanPlace(x, y, t.Size(), horizontal) {
				continue
			}
			if _, err := b.Place(x, y, t.Size(), horizontal, t); err != nil {
				return nil, err
			}
			placed = true
			break
		}
		if !placed {
			return nil, fmt.Errorf("%w: could not place %s on %dx%d board", ErrInvariantViolation, t, b.Size, b.Size)
		}
	}
	return b, nil
}

// FleetPlacements описывает корабли поля как запросы размещения
func FleetPlacements(b *Board) []ShipPlacement {
	out := make([]ShipPlacement, 0, len(b.Ships))
	for _, s := range b.Ships {
		start := s.Positions[0]
		out = append(out, ShipPlacement{
			X:          start.X,
			Y:          start.Y,
			Size:       s.Size,
			Horizontal: s.Horizontal,
			Type:       s.Type,
		})
	}
	return out
}
