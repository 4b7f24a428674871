package game

import "fmt"

type AIMode int

const (
	// слепой поиск по шахматной раскраске
	ModeHunt AIMode = iota
	// одно попадание, перебираем соседей
	ModeTarget
	// два и более попаданий на одной линии, добиваем вдоль оси
	ModeDestroy
)

func (m AIMode) String() string {
	switch m {
	case ModeTarget:
		return "target"
	case ModeDestroy:
		return "destroy"
	default:
		return "hunt"
	}
}

// TargetingAI выбирает выстрелы соперника-бота. Видит только маску
// обстрелянных клеток и результаты собственных выстрелов.
// Не потокобезопасен: владелец сессии вызывает его под своей блокировкой
type TargetingAI struct {
	mode       AIMode
	hits       []Coord
	pending    []Coord
	horizontal bool
	rnd        Rand
}

func NewTargetingAI(rnd Rand) *TargetingAI {
	if rnd == nil {
		rnd = NewRand()
	}
	return &TargetingAI{mode: ModeHunt, horizontal: true, rnd: rnd}
}

func (ai *TargetingAI) Mode() AIMode        { return ai.mode }
func (ai *TargetingAI) LastHitsCount() int  { return len(ai.hits) }
func (ai *TargetingAI) PendingTargets() int { return len(ai.pending) }

// Next предлагает следующую клетку. attacked[x][y] == true - клетка уже обстреляна
func (ai *TargetingAI) Next(attacked [][]bool) (Coord, error) {
	if len(attacked) == 0 {
		return Coord{}, fmt.Errorf("%w: empty attack mask", ErrInvariantViolation)
	}
	switch ai.mode {
	case ModeDestroy:
		return ai.destroyPick(attacked)
	case ModeTarget:
		return ai.targetPick(attacked)
	default:
		return ai.huntPick(attacked)
	}
}

// RegisterResult сообщает результат выстрела в (x, y).
// Вызывается строго в порядке фактически разрешенных атак
func (ai *TargetingAI) RegisterResult(x, y int, hit bool) {
	c := Coord{X: x, Y: y}

	if hit {
		ai.hits = append(ai.hits, c)
		switch {
		case len(ai.hits) == 1:
			ai.mode = ModeTarget
			ai.queueNeighbors(c)
		case len(ai.hits) == 2:
			if adjacent(ai.hits[0], ai.hits[1]) {
				ai.mode = ModeDestroy
				ai.horizontal = ai.hits[0].Y == ai.hits[1].Y
			} else {
				// другой корабль, старое попадание забываем
				ai.restartAt(c)
			}
		default:
			if ai.aligned() {
				ai.mode = ModeDestroy
			} else {
				ai.restartAt(c)
			}
		}
		return
	}

	switch {
	case ai.mode == ModeDestroy && len(ai.hits) >= 2:
		if len(ai.pending) > 0 {
			ai.mode = ModeTarget
		} else {
			ai.reset()
		}
	case ai.mode == ModeTarget && len(ai.pending) == 0:
		ai.reset()
	}
}

// OnShipSunk - корабль подтвержденно потоплен, возвращаемся к поиску
func (ai *TargetingAI) OnShipSunk() {
	ai.reset()
}

func (ai *TargetingAI) reset() {
	ai.mode = ModeHunt
	ai.hits = ai.hits[:0]
	ai.pending = ai.pending[:0]
}

func (ai *TargetingAI) restartAt(c Coord) {
	ai.hits = append(ai.hits[:0], c)
	ai.mode = ModeTarget
	ai.queueNeighbors(c)
}

// соседи в порядке: вверх, вниз, влево, вправо
func (ai *TargetingAI) queueNeighbors(c Coord) {
	ai.pending = append(ai.pending[:0],
		Coord{X: c.X, Y: c.Y - 1},
		Coord{X: c.X, Y: c.Y + 1},
		Coord{X: c.X - 1, Y: c.Y},
		Coord{X: c.X + 1, Y: c.Y},
	)
}

func (ai *TargetingAI) aligned() bool {
	if len(ai.hits) < 2 {
		return true
	}
	first := ai.hits[0]
	sameRow, sameCol := true, true
	for _, h := range ai.hits[1:] {
		if h.Y != first.Y {
			sameRow = false
		}
		if h.X != first.X {
			sameCol = false
		}
	}
	return sameRow || sameCol
}

func adjacent(a, b Coord) bool {
	dx, dy := abs(a.X-b.X), abs(a.Y-b.Y)
	return dx+dy == 1
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func open(attacked [][]bool, c Coord) bool {
	size := len(attacked)
	if c.X < 0 || c.X >= size || c.Y < 0 || c.Y >= len(attacked[c.X]) {
		return false
	}
	return !attacked[c.X][c.Y]
}

func (ai *TargetingAI) huntPick(attacked [][]bool) (Coord, error) {
	var parity, all []Coord
	for x := range attacked {
		for y := range attacked[x] {
			if attacked[x][y] {
				continue
			}
			all = append(all, Coord{X: x, Y: y})
			if (x+y)%2 == 0 {
				parity = append(parity, Coord{X: x, Y: y})
			}
		}
	}

	candidates := parity
	if len(candidates) == 0 {
		candidates = all
	}
	if len(candidates) == 0 {
		return Coord{}, fmt.Errorf("%w: no unattacked cells left", ErrInvariantViolation)
	}
	return candidates[ai.rnd.Intn(len(candidates))], nil
}

func (ai *TargetingAI) targetPick(attacked [][]bool) (Coord, error) {
	for len(ai.pending) > 0 {
		t := ai.pending[0]
		ai.pending = ai.pending[1:]
		if open(attacked, t) {
			return t, nil
		}
	}
	ai.reset()
	return ai.huntPick(attacked)
}

func (ai *TargetingAI) destroyPick(attacked [][]bool) (Coord, error) {
	if len(ai.hits) < 2 {
		return ai.targetPick(attacked)
	}

	first, last := ai.hits[0], ai.hits[len(ai.hits)-1]
	lo, hi := first, first
	for _, h := range ai.hits {
		if ai.horizontal {
			if h.X < lo.X {
				lo = h
			}
			if h.X > hi.X {
				hi = h
			}
		} else {
			if h.Y < lo.Y {
				lo = h
			}
			if h.Y > hi.Y {
				hi = h
			}
		}
	}

	var forward, backward Coord
	if ai.horizontal {
		forward, backward = Coord{X: hi.X + 1, Y: hi.Y}, Coord{X: lo.X - 1, Y: lo.Y}
	} else {
		forward, backward = Coord{X: hi.X, Y: hi.Y + 1}, Coord{X: lo.X, Y: lo.Y - 1}
	}
	// продолжаем в ту сторону, куда ушло последнее попадание
	if last == lo && lo != hi {
		forward, backward = backward, forward
	}

	if open(attacked, forward) {
		return forward, nil
	}
	if open(attacked, backward) {
		return backward, nil
	}

	if len(ai.pending) > 0 {
		ai.mode = ModeTarget
		ai.hits = ai.hits[:0]
		return ai.targetPick(attacked)
	}
	ai.reset()
	return ai.huntPick(attacked)
}
