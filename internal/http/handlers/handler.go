package handlers

import (
	"context"
	"errors"
	"net/http"

	"battleship/internal/domain"
	"battleship/internal/game"
	"battleship/internal/session"

	"github.com/gin-gonic/gin"
)

// MatchStore - чтение архива партий. nil - архив выключен
type MatchStore interface {
	GetRecent(ctx context.Context, limit int) ([]*domain.MatchResult, error)
	GetByPlayer(ctx context.Context, name string, limit int) ([]*domain.MatchResult, error)
	GetTopWinners(ctx context.Context, limit int) ([]domain.PlayerStats, error)
}

type Handler struct {
	Registry *session.Registry
	Matches  MatchStore
	Version  string
	// число открытых ws соединений для /health
	Connections func() int
}

// respondError переводит ошибки движка в HTTP статусы
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, game.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrInvalidToken):
		status = http.StatusUnauthorized
	case errors.Is(err, session.ErrOutOfTurn), errors.Is(err, session.ErrWrongState):
		status = http.StatusConflict
	case errors.Is(err, game.ErrInvalidMove):
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (h *Handler) Health(c *gin.Context) {
	sessions, waiting := h.Registry.Counts()
	resp := gin.H{
		"status":   "ok",
		"version":  h.Version,
		"sessions": sessions,
		"waiting":  waiting,
		"archive":  h.Matches != nil,
	}
	if h.Connections != nil {
		resp["connections"] = h.Connections()
	}
	c.JSON(http.StatusOK, resp)
}
