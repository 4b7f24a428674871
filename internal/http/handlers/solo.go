package handlers

import (
	"errors"
	"io"
	"net/http"

	"battleship/internal/game"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type StartGameRequest struct {
	PlayerName string `json:"playerName" binding:"max=32"`
	// пусто - флот расставляется случайно
	Placements []game.ShipPlacement `json:"placements"`
}

type SoloAttackRequest struct {
	PlayerID string `json:"playerId" binding:"required"`
	X        *int   `json:"x" binding:"required"`
	Y        *int   `json:"y" binding:"required"`
}

// партия против бота
func (h *Handler) StartGame(c *gin.Context) {
	var req StartGameRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if req.PlayerName == "" {
		req.PlayerName = "player"
	}

	playerID := uuid.NewString()
	res, err := h.Registry.StartSolo(playerID, req.PlayerName, req.Placements)
	if err != nil {
		respondError(c, err)
		return
	}
	view, err := h.Registry.StateByConnection(playerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"gameId":      res.GameID,
		"playerId":    playerID,
		"token":       res.Token,
		"playerBoard": view.OwnBoard(),
	})
}

// выстрел игрока и немедленный ответ бота
func (h *Handler) SoloAttack(c *gin.Context) {
	var req SoloAttackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	gameID := c.Param("gameId")

	res, err := h.Registry.Attack(req.PlayerID, gameID, *req.X, *req.Y)
	if err != nil {
		respondError(c, err)
		return
	}
	view, err := h.Registry.StateByConnection(req.PlayerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"playerResult":  res.ShotResult,
		"aiMove":        res.OpponentMove,
		"gameOver":      res.GameOver,
		"winner":        res.Winner,
		"playerBoard":   view.OwnBoard(),
		"opponentBoard": view.OpponentBoard(),
	})
}
