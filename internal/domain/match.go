package domain

import "time"

// MatchResult - итог завершенной партии для архива.
// Живые сессии не сохраняются, только исходы
type MatchResult struct {
	ID         int64     `db:"id" json:"id"`
	GameID     string    `db:"game_id" json:"game_id"`
	Mode       string    `db:"mode" json:"mode"`
	Player1    string    `db:"player1" json:"player1"`
	Player2    string    `db:"player2" json:"player2"`
	Winner     string    `db:"winner" json:"winner,omitempty"`
	// 1 или 2 - победившая сторона, 0 - без победителя. Имена сторон могут совпадать
	WinnerSide int       `db:"winner_side" json:"winner_side"`
	Reason     string    `db:"reason" json:"reason"`
	Shots      int       `db:"shots" json:"shots"`
	StartedAt  time.Time `db:"started_at" json:"started_at"`
	FinishedAt time.Time `db:"finished_at" json:"finished_at"`
}

// причины завершения
const (
	MatchReasonCompleted = "completed"
	MatchReasonAbandoned = "abandoned"
	MatchReasonAborted   = "aborted"
	MatchReasonExpired   = "expired"
)

// PlayerStats - сводка побед по имени
type PlayerStats struct {
	Name   string `json:"name"`
	Wins   int    `json:"wins"`
	Played int    `json:"played"`
}
