package repository

import (
	"context"
	"errors"

	"battleship/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const matchSchema = `
CREATE TABLE IF NOT EXISTS matches (
	id          BIGSERIAL PRIMARY KEY,
	game_id     TEXT        NOT NULL UNIQUE,
	mode        TEXT        NOT NULL,
	player1     TEXT        NOT NULL,
	player2     TEXT        NOT NULL,
	winner      TEXT        NOT NULL DEFAULT '',
	winner_side SMALLINT    NOT NULL DEFAULT 0,
	reason      TEXT        NOT NULL,
	shots       INT         NOT NULL DEFAULT 0,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL
);
ALTER TABLE matches ADD COLUMN IF NOT EXISTS winner_side SMALLINT NOT NULL DEFAULT 0;
CREATE INDEX IF NOT EXISTS matches_finished_at_idx ON matches (finished_at DESC);
`

// архив завершенных партий
type MatchRepository struct {
	db *pgxpool.Pool
}

func NewMatchRepository(db *pgxpool.Pool) *MatchRepository {
	return &MatchRepository{db: db}
}

// создает таблицу, если ее нет
func (r *MatchRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, matchSchema)
	return err
}

// сохраняет итог партии; повторная запись той же партии игнорируется
func (r *MatchRepository) Create(ctx context.Context, m *domain.MatchResult) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO matches (game_id, mode, player1, player2, winner, winner_side, reason, shots, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (game_id) DO NOTHING
		RETURNING id
	`, m.GameID, m.Mode, m.Player1, m.Player2, m.Winner, m.WinnerSide, m.Reason, m.Shots, m.StartedAt, m.FinishedAt).Scan(&m.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	return err
}

// Record реализует session.ResultRecorder
func (r *MatchRepository) Record(ctx context.Context, m domain.MatchResult) error {
	return r.Create(ctx, &m)
}

// возвращает последние завершенные партии
func (r *MatchRepository) GetRecent(ctx context.Context, limit int) ([]*domain.MatchResult, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, game_id, mode, player1, player2, winner, winner_side, reason, shots, started_at, finished_at
		FROM matches
		ORDER BY finished_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMatches(rows)
}

// возвращает партии игрока по имени
func (r *MatchRepository) GetByPlayer(ctx context.Context, name string, limit int) ([]*domain.MatchResult, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, game_id, mode, player1, player2, winner, winner_side, reason, shots, started_at, finished_at
		FROM matches
		WHERE player1 = $1 OR player2 = $1
		ORDER BY finished_at DESC
		LIMIT $2
	`, name, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMatches(rows)
}

// топ игроков по победам в доигранных партиях
func (r *MatchRepository) GetTopWinners(ctx context.Context, limit int) ([]domain.PlayerStats, error) {
	rows, err := r.db.Query(ctx, `
		WITH participants AS (
			SELECT player1 AS name, winner_side = 1 AS won FROM matches WHERE reason = 'completed'
			UNION ALL
			SELECT player2 AS name, winner_side = 2 AS won FROM matches WHERE reason = 'completed'
		)
		SELECT name,
		       COUNT(*) FILTER (WHERE won) AS wins,
		       COUNT(*) AS played
		FROM participants
		GROUP BY name
		ORDER BY wins DESC, played ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PlayerStats
	for rows.Next() {
		var s domain.PlayerStats
		if err := rows.Scan(&s.Name, &s.Wins, &s.Played); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// преобразует строки из БД в структуры MatchResult
func scanMatches(rows pgx.Rows) ([]*domain.MatchResult, error) {
	var out []*domain.MatchResult
	for rows.Next() {
		var m domain.MatchResult
		if err := rows.Scan(&m.ID, &m.GameID, &m.Mode, &m.Player1, &m.Player2, &m.Winner, &m.WinnerSide,
			&m.Reason, &m.Shots, &m.StartedAt, &m.FinishedAt); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}
