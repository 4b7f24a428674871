package http

import (
	"battleship/internal/http/handlers"
	"battleship/internal/http/middleware"
	"battleship/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes подключает REST, WebSocket и служебные маршруты
func RegisterRoutes(r *gin.Engine, h *handlers.Handler, wsHandler *ws.WSHandler, limiter *middleware.RateLimiter) {
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws", wsHandler.HandleWS())

	limited := r.Group("/")
	if limiter != nil {
		limited.Use(limiter.Middleware())
	}

	mp := limited.Group("/api/multiplayer")
	{
		mp.POST("/join", h.Join)
		mp.POST("/place-ships", h.PlaceShips)
		mp.POST("/attack", h.Attack)
		mp.POST("/reconnect", h.Reconnect)
		mp.GET("/game/:gameId", h.GetGame)
		mp.GET("/player/:playerId/game", h.GetPlayerGame)
	}

	solo := limited.Group("/game")
	{
		solo.POST("/start", h.StartGame)
		solo.POST("/:gameId/attack", h.SoloAttack)
	}

	matches := limited.Group("/api/matches")
	{
		matches.GET("/recent", h.RecentMatches)
		matches.GET("/leaderboard", h.GetLeaderboard)
	}
}

// CORS для фронта на другом домене
func CORS(allowedOrigin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" && (allowedOrigin == "" || origin == allowedOrigin) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
