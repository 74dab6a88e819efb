package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker"

	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/log"
	"github.com/yeisme/filevault/pkg/metrics"
)

// errServerStatus 标记 5xx 响应，仅用于熔断计数.
var errServerStatus = errors.New("server error response")

// breakers 按名称懒创建熔断器.
type breakers struct {
	cfg configs.CircuitBreakerConfig
	mu  sync.Mutex
	m   map[string]*gobreaker.CircuitBreaker
}

func (b *breakers) get(name string) *gobreaker.CircuitBreaker {
	b.mu.Lock()
	defer b.mu.Unlock()

	if cb, ok := b.m[name]; ok {
		return cb
	}

	logger := log.Component("breaker")
	cfg := b.cfg

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequestsInHalf,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}

			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRate
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})
	b.m[name] = cb

	metrics.BreakerState.WithLabelValues(name).Set(float64(gobreaker.StateClosed))

	return cb
}

// CircuitBreakerMiddleware 基于 gobreaker 的熔断. 5xx 响应计为失败，打开状态直接返回 503.
// per_route 开启时按路由模板各自计数，一个接口故障不会拖垮其他接口.
// skip_paths 下的请求不计数，熔断期间也照常放行.
func CircuitBreakerMiddleware(cfg configs.CircuitBreakerConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	set := &breakers{cfg: cfg, m: map[string]*gobreaker.CircuitBreaker{}}

	return func(c *gin.Context) {
		if isSkippedPath(c.Request.URL.Path, cfg.SkipPaths) {
			c.Next()
			return
		}

		name := "http"
		if cfg.PerRoute {
			name = c.Request.Method + " " + c.FullPath()
			if c.FullPath() == "" {
				name = "unmatched"
			}
		}

		_, err := set.get(name).Execute(func() (any, error) {
			c.Next()

			if c.Writer.Status() >= http.StatusInternalServerError {
				return nil, errServerStatus
			}

			return nil, nil
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.Header("Retry-After", retryAfter(cfg))
			abort(c, http.StatusServiceUnavailable, CodeServiceUnavailable, "service temporarily unavailable")
		}
	}
}

// retryAfter 返回熔断打开时长，至少 1 秒.
func retryAfter(cfg configs.CircuitBreakerConfig) string {
	secs := max(int(cfg.Timeout.Seconds()), 1)
	return strconv.Itoa(secs)
}
