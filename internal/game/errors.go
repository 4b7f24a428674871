package game

import "errors"

// таксономия ошибок движка: транспорт сопоставляет их через errors.Is
var (
	// неизвестная игра или соединение
	ErrNotFound = errors.New("not found")
	// ход вне поля, повторный выстрел, чужой ход, неверная расстановка
	ErrInvalidMove = errors.New("invalid move")
	// нарушение инварианта учета (ИИ не нашел цель при наличии свободных клеток);
	// фатально только для текущей сессии
	ErrInvariantViolation = errors.New("invariant violation")
)
