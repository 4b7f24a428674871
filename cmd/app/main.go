package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"battleship/internal/config"
	"battleship/internal/db"
	"battleship/internal/events"
	httpServer "battleship/internal/http"
	"battleship/internal/http/handlers"
	"battleship/internal/http/middleware"
	"battleship/internal/logger"
	"battleship/internal/repository"
	"battleship/internal/session"
	"battleship/internal/ws"

	"github.com/gin-gonic/gin"
)

// Version устанавливается при сборке
var Version = "dev"

func main() {
	cfg := config.Load()

	logger.Init(cfg.LogLevel, cfg.LogJSON)
	log := logger.Get()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Архив матчей (опционально)
	var matches *repository.MatchRepository
	if cfg.DatabaseURL != "" {
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("database connect failed", "error", err)
		}
		defer pool.Close()

		matches = repository.NewMatchRepository(pool)
		if err := matches.EnsureSchema(ctx); err != nil {
			logger.Fatal("failed to ensure schema", "error", err)
		}
		log.Info("match archive enabled")
	} else {
		log.Warn("DATABASE_URL not set - match archive disabled")
	}

	hub := ws.NewHub()
	notifiers := session.MultiNotifier{hub}

	// Шина событий (опционально)
	if cfg.NatsURL != "" {
		pub, err := events.Connect(cfg.NatsURL)
		if err != nil {
			log.Error("failed to connect to nats, events disabled", "error", err)
		} else {
			defer pub.Close()
			notifiers = append(notifiers, pub)
			log.Info("nats event bus enabled", "url", cfg.NatsURL)
		}
	}

	opts := session.Options{
		BoardSize:      cfg.BoardSize,
		ReconnectGrace: cfg.ReconnectGrace,
		Tokens:         session.NewTokenIssuer(cfg.TokenSecret, cfg.TokenTTL),
	}
	if matches != nil {
		opts.Recorder = matches
	}
	registry := session.NewRegistry(opts, notifiers)
	hub.Registry = registry
	registry.StartCleanup(ctx, cfg.CleanupInterval, cfg.SessionMaxAge)

	limiter := middleware.InitRedisRateLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RateLimitPerMinute)
	defer limiter.Close()

	h := &handlers.Handler{
		Registry:    registry,
		Version:     Version,
		Connections: hub.Count,
	}
	if matches != nil {
		h.Matches = matches
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(httpServer.CORS(cfg.AllowedOrigin))
	httpServer.RegisterRoutes(r, h, ws.NewWSHandler(hub, cfg.AllowedOrigin), limiter)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		log.Info("server started", "port", cfg.AppPort, "version", Version, "board_size", registry.BoardSize())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	// итоги партий дописываются до закрытия пула
	if err := registry.WaitRecorded(shutdownCtx); err != nil {
		log.Warn("match archive writes interrupted", "error", err)
	}

	log.Info("server exited")
}
