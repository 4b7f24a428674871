package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"battleship/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const rateWindow = time.Minute

// RateLimiter - счетчик запросов в фиксированном минутном окне.
// С Redis лимит общий для всех экземпляров, без него - на процесс
type RateLimiter struct {
	perMinute int
	redis     *redis.Client

	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

type window struct {
	start time.Time
	count int
}

// InitRedisRateLimiter подключается к Redis; пустой адрес или недоступный
// сервер - лимитер в памяти
func InitRedisRateLimiter(addr, password string, db, perMinute int) *RateLimiter {
	rl := NewMemoryRateLimiter(perMinute)
	if addr == "" {
		logger.Info("rate limiter: in-memory", "per_minute", perMinute)
		return rl
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("rate limiter: redis unavailable, falling back to memory", "addr", addr, "error", err)
		_ = client.Close()
		return rl
	}

	rl.redis = client
	logger.Info("rate limiter: redis", "addr", addr, "per_minute", perMinute)
	return rl
}

func NewMemoryRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 120
	}
	return &RateLimiter{
		perMinute: perMinute,
		windows:   make(map[string]*window),
		now:       time.Now,
	}
}

// Allow учитывает запрос и сообщает, укладывается ли ключ в лимит
func (rl *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if rl.redis != nil {
		return rl.allowRedis(ctx, key)
	}
	return rl.allowMemory(key), nil
}

func (rl *RateLimiter) allowRedis(ctx context.Context, key string) (bool, error) {
	slot := rl.now().Unix() / int64(rateWindow/time.Second)
	k := fmt.Sprintf("ratelimit:%s:%d", key, slot)

	pipe := rl.redis.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, rateWindow)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, err
	}
	return incr.Val() <= int64(rl.perMinute), nil
}

func (rl *RateLimiter) allowMemory(key string) bool {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[key]
	if !ok || now.Sub(w.start) >= rateWindow {
		w = &window{start: now}
		rl.windows[key] = w
	}
	w.count++

	// старые окна не копим
	if len(rl.windows) > 10000 {
		for k, old := range rl.windows {
			if now.Sub(old.start) >= rateWindow {
				delete(rl.windows, k)
			}
		}
	}
	return w.count <= rl.perMinute
}

// Middleware ограничивает запросы по IP клиента
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := rl.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			// при сбое Redis запрос пропускаем
			logger.Warn("rate limiter error", "error", err)
		}
		if !ok {
			c.Header("Retry-After", strconv.Itoa(int(rateWindow/time.Second)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) Close() error {
	if rl.redis != nil {
		return rl.redis.Close()
	}
	return nil
}
