package middleware

import (
	"bytes"
	"context"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"

	appcache "github.com/yeisme/filevault/pkg/cache"
)

const (
	DefaultMaxBodyBytes = 1 << 20
	defaultTTL          = 30 * time.Second
	storeTimeout        = 200 * time.Millisecond
	bypassHeader        = "X-Cache-Bypass"
)

// unstoredHeaders 由外层中间件或本次传输决定的响应头，不随缓存回放.
var unstoredHeaders = []string{"X-Cache", "Content-Encoding", "Content-Length", "Vary", "Date"}

// CacheConfig 响应缓存配置.
type CacheConfig struct {
	Cache        *appcache.Cache // 必须
	TTL          time.Duration   // 响应未声明 max-age 时的缓存时间
	MaxBodyBytes int             // 超过该大小的响应不缓存，0 表示不限制
}

// DefaultCacheConfig 返回一份默认配置.
func DefaultCacheConfig(c *appcache.Cache) CacheConfig {
	return CacheConfig{Cache: c, TTL: defaultTTL, MaxBodyBytes: DefaultMaxBodyBytes}
}

// cachedResponse 写入 KV 的响应快照.
type cachedResponse struct {
	Status   int               `json:"s"`
	Header   map[string]string `json:"h,omitempty"`
	Body     []byte            `json:"b,omitempty"`
	ETag     string            `json:"e"`
	StoredAt int64             `json:"t"` // unix 毫秒
}

// CacheMiddleware 缓存 GET/HEAD 的 200 响应，键包含路由、用户与 query，不同用户互不可见.
// 命中时带 X-Cache: HIT 与 Age，If-None-Match 匹配时返回 304.
// 响应含 no-store/private 或请求带 X-Cache-Bypass 时不经过缓存. 缓存读写失败只会退化为直接处理.
func CacheMiddleware(cfg CacheConfig) gin.HandlerFunc {
	if cfg.Cache == nil {
		panic("CacheMiddleware: Cache cannot be nil")
	}

	return func(c *gin.Context) {
		m := c.Request.Method
		if (m != http.MethodGet && m != http.MethodHead) || c.GetHeader(bypassHeader) != "" {
			c.Next()
			return
		}

		key := responseKey(c)

		if entry, err := appcache.Get[cachedResponse](c.Request.Context(), cfg.Cache, key); err == nil {
			replay(c, entry)
			return
		}

		bw := &bodyCaptureWriter{ResponseWriter: c.Writer, max: cfg.MaxBodyBytes}
		c.Writer = bw
		c.Header("X-Cache", "MISS")
		c.Next()

		store(c, cfg, key, bw)
	}
}

// responseKey 由方法、路由模板、用户与排序后的 query 组成，哈希后作为键.
func responseKey(c *gin.Context) string {
	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}

	var b strings.Builder

	b.WriteString(c.Request.Method)
	b.WriteByte(' ')
	b.WriteString(route)
	b.WriteString("|u=")
	b.WriteString(GetUser(c))

	// 路径参数也要参与，同一模板下不同 ID 的响应不同
	for _, p := range c.Params {
		b.WriteString("|p:")
		b.WriteString(p.Key)
		b.WriteByte('=')
		b.WriteString(p.Value)
	}

	if q := c.Request.URL.Query(); len(q) > 0 {
		b.WriteByte('?')
		b.WriteString(q.Encode()) // Encode 按键排序
	}

	return "rc:" + strconv.FormatUint(xxhash.Sum64String(b.String()), 16)
}

func replay(c *gin.Context, e cachedResponse) {
	h := c.Writer.Header()
	for k, v := range e.Header {
		h.Set(k, v)
	}

	h.Set("ETag", e.ETag)
	h.Set("Age", strconv.FormatInt(max(time.Since(time.UnixMilli(e.StoredAt)).Milliseconds()/1000, 0), 10))
	h.Set("X-Cache", "HIT")

	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == e.ETag {
		c.AbortWithStatus(http.StatusNotModified)
		return
	}

	c.Status(e.Status)

	if c.Request.Method != http.MethodHead {
		_, _ = c.Writer.Write(e.Body)
	}

	c.Abort()
}

// store 仅缓存完整捕获的 200 响应.
func store(c *gin.Context, cfg CacheConfig, key string, bw *bodyCaptureWriter) {
	if c.Writer.Status() != http.StatusOK || bw.truncated {
		return
	}

	ttl, ok := cacheControlTTL(c.Writer.Header().Get("Cache-Control"))
	if !ok {
		return
	}

	if ttl == 0 {
		ttl = cfg.TTL
	}

	if ttl <= 0 {
		return
	}

	header := make(map[string]string, len(c.Writer.Header()))
	for k, v := range c.Writer.Header() {
		if len(v) > 0 && !slices.Contains(unstoredHeaders, k) {
			header[k] = v[0]
		}
	}

	body := bytes.Clone(bw.buf.Bytes())
	etag := `"` + strconv.FormatUint(xxhash.Sum64(body), 16) + `"`

	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), storeTimeout)
	defer cancel()

	_ = appcache.Set(ctx, cfg.Cache, key, cachedResponse{
		Status:   http.StatusOK,
		Header:   header,
		Body:     body,
		ETag:     etag,
		StoredAt: time.Now().UnixMilli(),
	}, ttl)
}

// cacheControlTTL 解析响应的 Cache-Control，返回 max-age 与是否允许缓存.
func cacheControlTTL(cc string) (time.Duration, bool) {
	if cc == "" {
		return 0, true
	}

	directives := strings.Split(strings.ToLower(cc), ",")
	for i := range directives {
		directives[i] = strings.TrimSpace(directives[i])
	}

	if slices.Contains(directives, "no-store") || slices.Contains(directives, "private") {
		return 0, false
	}

	for _, d := range directives {
		if v, ok := strings.CutPrefix(d, "max-age="); ok {
			if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
				return time.Duration(secs) * time.Second, true
			}
		}
	}

	return 0, true
}

// bodyCaptureWriter 在写出的同时保留响应体副本，超过 max 时放弃缓存.
type bodyCaptureWriter struct {
	gin.ResponseWriter

	buf       bytes.Buffer
	max       int
	truncated bool
}

func (w *bodyCaptureWriter) Write(b []byte) (int, error) {
	if !w.truncated {
		if w.max > 0 && w.buf.Len()+len(b) > w.max {
			w.truncated = true
			w.buf.Reset()
		} else {
			w.buf.Write(b)
		}
	}

	return w.ResponseWriter.Write(b)
}

func (w *bodyCaptureWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}
