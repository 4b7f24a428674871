package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

func listLimit(c *gin.Context) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n <= 0 {
		return defaultListLimit
	}
	if n > maxListLimit {
		return maxListLimit
	}
	return n
}

// последние завершенные партии
func (h *Handler) RecentMatches(c *gin.Context) {
	if h.Matches == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "match archive is disabled"})
		return
	}

	var (
		list any
		err  error
	)
	if name := c.Query("player"); name != "" {
		list, err = h.Matches.GetByPlayer(c.Request.Context(), name, listLimit(c))
	} else {
		list, err = h.Matches.GetRecent(c.Request.Context(), listLimit(c))
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get matches"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": list})
}

// список лучших игроков по победам
func (h *Handler) GetLeaderboard(c *gin.Context) {
	if h.Matches == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "match archive is disabled"})
		return
	}

	top, err := h.Matches.GetTopWinners(c.Request.Context(), listLimit(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get leaderboard"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": top})
}
