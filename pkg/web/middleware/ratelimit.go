package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/gachalogs/pkg/cache/lru"
	"github.com/lk2023060901/gachalogs/pkg/logger"
	weberrors "github.com/lk2023060901/gachalogs/pkg/web/errors"
	"golang.org/x/time/rate"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	// SkipPaths 不限流的路径
	SkipPaths []string
	// WaitTimeout >0 时排队等待，否则直接拒绝
	WaitTimeout time.Duration
	// KeyFunc 限流键，默认按客户端 IP；返回空串走全局限流器
	KeyFunc func(*gin.Context) string

	MaxLimiters int
	LimiterTTL  time.Duration
}

// RateLimiter 按键分桶的令牌桶
type RateLimiter struct {
	cfg      RateLimitConfig
	global   *rate.Limiter
	limiters *lru.LRU[string, *rate.Limiter]
	logger   logger.Logger
}

// NewRateLimiter 创建限流器，长期不活跃的键由 LRU 回收
func NewRateLimiter(l logger.Logger, cfg RateLimitConfig) *RateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = func(c *gin.Context) string { return "ip:" + c.ClientIP() }
	}
	rl := &RateLimiter{
		cfg:    cfg,
		global: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		logger: l,
	}
	rl.limiters = lru.New[string, *rate.Limiter](&lru.Config{
		MaxSize:         cfg.MaxLimiters,
		DefaultTTL:      cfg.LimiterTTL,
		CleanupInterval: cfg.LimiterTTL,
	}, lru.WithOnEvict(func(key string, _ *rate.Limiter) {
		l.Debug("rate limiter evicted", "key", key)
	}))
	return rl
}

// Allow 非阻塞判断
func (rl *RateLimiter) Allow(key string) bool {
	return rl.limiter(key).Allow()
}

// Wait 阻塞直到放行或 ctx 结束
func (rl *RateLimiter) Wait(ctx context.Context, key string) error {
	return rl.limiter(key).Wait(ctx)
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	if key == "" {
		return rl.global
	}
	return rl.limiters.GetOrCreate(key, func() *rate.Limiter {
		return rate.NewLimiter(rate.Limit(rl.cfg.RequestsPerSecond), rl.cfg.Burst)
	})
}

// Close 停止 LRU 清理
func (rl *RateLimiter) Close() error {
	return rl.limiters.Close()
}

// RateLimit 限流中间件
func RateLimit(rl *RateLimiter) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(rl.cfg.SkipPaths))
	for _, p := range rl.cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if _, ok := skip[path]; ok {
			c.Next()
			return
		}

		key := rl.cfg.KeyFunc(c)
		if rl.cfg.WaitTimeout > 0 {
			ctx, cancel := context.WithTimeout(c.Request.Context(), rl.cfg.WaitTimeout)
			err := rl.Wait(ctx, key)
			cancel()
			if err != nil {
				rl.logger.WarnContext(c.Request.Context(), "rate limit wait timeout", "key", key, "path", path, "error", err)
				abortRateLimited(c)
				return
			}
		} else if !rl.Allow(key) {
			rl.logger.WarnContext(c.Request.Context(), "rate limit exceeded", "key", key, "path", path)
			abortRateLimited(c)
			return
		}

		c.Next()
	}
}

func abortRateLimited(c *gin.Context) {
	c.Header("Retry-After", strconv.Itoa(1))
	abortJSON(c, weberrors.CodeRateLimited, "too many requests")
}
