package handlers

import (
	"net/http"

	"battleship/internal/game"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type JoinRequest struct {
	PlayerName string `json:"playerName" binding:"required,max=32"`
	// повторный вызов с тем же playerId не создает нового игрока
	PlayerID string `json:"playerId"`
}

type PlaceShipsRequest struct {
	PlayerID   string               `json:"playerId" binding:"required"`
	GameID     string               `json:"gameId" binding:"required"`
	Placements []game.ShipPlacement `json:"placements" binding:"required"`
}

type AttackRequest struct {
	PlayerID string `json:"playerId" binding:"required"`
	GameID   string `json:"gameId"`
	X        *int   `json:"x" binding:"required"`
	Y        *int   `json:"y" binding:"required"`
}

type ReconnectRequest struct {
	PlayerID   string `json:"playerId" binding:"required"`
	GameID     string `json:"gameId"`
	PlayerName string `json:"playerName"`
	Token      string `json:"token"`
}

// вход в очередь матчмейкинга
func (h *Handler) Join(c *gin.Context) {
	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	playerID := req.PlayerID
	if playerID == "" {
		playerID = uuid.NewString()
	}

	res, err := h.Registry.Join(playerID, req.PlayerName)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"gameId":       res.GameID,
		"playerId":     playerID,
		"waiting":      res.Waiting,
		"side":         res.Side,
		"opponentName": res.OpponentName,
		"token":        res.Token,
	})
}

func (h *Handler) PlaceShips(c *gin.Context) {
	var req PlaceShipsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	if err := h.Registry.PlaceShips(req.PlayerID, req.GameID, req.Placements); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) Attack(c *gin.Context) {
	var req AttackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	gameID := req.GameID
	if gameID == "" {
		gameID, _ = h.Registry.GameIDByConnection(req.PlayerID)
	}

	res, err := h.Registry.Attack(req.PlayerID, gameID, *req.X, *req.Y)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"hit":      res.Hit,
		"sunk":     res.Sunk,
		"sunkShip": res.SunkShip,
		"gameOver": res.GameOver,
		"winner":   res.Winner,
	})
}

func (h *Handler) Reconnect(c *gin.Context) {
	var req ReconnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	if req.Token != "" {
		gameID, err := h.Registry.ReconnectWithToken(req.PlayerID, req.Token)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "gameId": gameID})
		return
	}

	if req.GameID == "" || req.PlayerName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "gameId and playerName or token are required"})
		return
	}
	if !h.Registry.Reconnect(req.PlayerID, req.GameID, req.PlayerName) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no matching player in game"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "gameId": req.GameID})
}

// снимок партии для наблюдателя
func (h *Handler) GetGame(c *gin.Context) {
	view, err := h.Registry.StateByGame(c.Param("gameId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// снимок партии глазами игрока
func (h *Handler) GetPlayerGame(c *gin.Context) {
	view, err := h.Registry.StateByConnection(c.Param("playerId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
