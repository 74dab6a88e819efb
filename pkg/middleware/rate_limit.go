package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/yeisme/filevault/pkg/configs"
)

const (
	limiterSweepEvery   = time.Minute
	limiterSweepTrigger = 1024
)

// limiterEntry 按键的限流器及最近使用时间.
type limiterEntry struct {
	lim  *rate.Limiter
	seen time.Time
}

// keyedLimiter 维护按键限流器，闲置超过 idle 的条目在条目数较多时被批量淘汰.
type keyedLimiter struct {
	mu        sync.Mutex
	entries   map[string]*limiterEntry
	rps       rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
}

func newKeyedLimiter(rps float64, burst int, idle time.Duration) *keyedLimiter {
	if idle <= 0 {
		idle = configs.DefaultRateLimitIdleTTL
	}

	return &keyedLimiter{entries: map[string]*limiterEntry{}, rps: rate.Limit(rps), burst: burst, idle: idle}
}

func (k *keyedLimiter) allow(key string, now time.Time) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	if len(k.entries) >= limiterSweepTrigger && now.Sub(k.lastSweep) > limiterSweepEvery {
		for name, e := range k.entries {
			if now.Sub(e.seen) > k.idle {
				delete(k.entries, name)
			}
		}

		k.lastSweep = now
	}

	e, ok := k.entries[key]
	if !ok {
		e = &limiterEntry{lim: rate.NewLimiter(k.rps, k.burst)}
		k.entries[key] = e
	}

	e.seen = now

	return e.lim.AllowN(now, 1)
}

// RateLimitMiddleware 返回一个基于配置的限流中间件.
func RateLimitMiddleware(cfg configs.RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.RPS <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	keyMode := strings.ToLower(strings.TrimSpace(cfg.Key))

	// 全局 limiter
	if keyMode == "global" || keyMode == "" {
		limiter := rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)

		return func(c *gin.Context) {
			if isSkippedPath(c.Request.URL.Path, cfg.SkipPaths) {
				c.Next()
				return
			}

			if !limiter.Allow() {
				abort(c, http.StatusTooManyRequests, CodeRateLimited, "rate limit exceeded")
				return
			}

			c.Next()
		}
	}

	limiters := newKeyedLimiter(cfg.RPS, cfg.Burst, cfg.IdleTTL)

	return func(c *gin.Context) {
		if isSkippedPath(c.Request.URL.Path, cfg.SkipPaths) {
			c.Next()
			return
		}

		key := limitKey(c, keyMode)
		if key == "" {
			key = "unknown"
		}

		if !limiters.allow(key, time.Now()) {
			abort(c, http.StatusTooManyRequests, CodeRateLimited,
				"rate limit exceeded, request too frequent, please try again later")

			return
		}

		c.Next()
	}
}

// limitKey 按维度取限流键，取不到时回退到客户端 IP.
func limitKey(c *gin.Context, mode string) string {
	switch {
	case strings.HasPrefix(mode, "header:"):
		if v := c.GetHeader(strings.TrimPrefix(mode, "header:")); v != "" {
			return v
		}
	case mode == "user":
		if u := GetUser(c); u != "" {
			return "user:" + u
		}
	}

	return clientIP(c)
}

func clientIP(c *gin.Context) string {
	ip := c.ClientIP()
	if ip == "" {
		// 进一步尝试从 RemoteAddr
		host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
		if err == nil {
			ip = host
		} else {
			ip = c.Request.RemoteAddr
		}
	}

	return ip
}
