package middleware

import (
	"hash/fnv"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/label-print-service/internal/domain/dto"
	"github.com/guttosm/label-print-service/internal/i18n"
	"github.com/guttosm/label-print-service/internal/metrics"
)

const (
	defaultLimiterShards = 16
	defaultLimiterScope  = "api"
)

// RateLimiter counts requests per key in fixed windows. Keys are spread over
// shards by FNV hash; a shard drops stale windows when it is next touched.
type RateLimiter struct {
	scope  string
	limit  int
	window time.Duration
	shards []*limiterShard
	now    func() time.Time
}

type limiterShard struct {
	mu        sync.Mutex
	windows   map[string]*fixedWindow
	lastSweep time.Time
}

type fixedWindow struct {
	used    int
	resetAt time.Time
}

// RateLimiterOption configures a RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithScope labels rejections in the http_rate_limited_total metric.
func WithScope(scope string) RateLimiterOption {
	return func(rl *RateLimiter) {
		if scope != "" {
			rl.scope = scope
		}
	}
}

// WithShards sets the shard count. Non-positive values keep the default.
func WithShards(n int) RateLimiterOption {
	return func(rl *RateLimiter) {
		if n > 0 {
			rl.shards = make([]*limiterShard, n)
		}
	}
}

// NewRateLimiter allows limit requests per key in every window.
func NewRateLimiter(limit int, window time.Duration, opts ...RateLimiterOption) *RateLimiter {
	rl := &RateLimiter{
		scope:  defaultLimiterScope,
		limit:  limit,
		window: window,
		shards: make([]*limiterShard, defaultLimiterShards),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(rl)
	}
	for i := range rl.shards {
		rl.shards[i] = &limiterShard{windows: make(map[string]*fixedWindow)}
	}
	return rl
}

func (rl *RateLimiter) shardFor(key string) *limiterShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return rl.shards[h.Sum32()%uint32(len(rl.shards))]
}

// Allow counts one request against key. It reports whether the request fits,
// how many remain in the window and when the window resets.
func (rl *RateLimiter) Allow(key string) (bool, int, time.Time) {
	now := rl.now()
	s := rl.shardFor(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastSweep) >= rl.window {
		for k, w := range s.windows {
			if !now.Before(w.resetAt) {
				delete(s.windows, k)
			}
		}
		s.lastSweep = now
	}

	w, ok := s.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &fixedWindow{resetAt: now.Add(rl.window)}
		s.windows[key] = w
	}
	if w.used >= rl.limit {
		return false, 0, w.resetAt
	}
	w.used++
	return true, rl.limit - w.used, w.resetAt
}

// RateLimit limits requests per client IP.
func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return rl.RateLimitBy(func(*gin.Context) string { return "" })
}

// RateLimitBy limits requests per key. An empty key falls back to the client IP.
func (rl *RateLimiter) RateLimitBy(key func(c *gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := key(c)
		if id == "" {
			id = "ip:" + c.ClientIP()
		}

		allowed, remaining, resetAt := rl.Allow(id)
		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

		if allowed {
			c.Next()
			return
		}

		metrics.RecordRateLimited(rl.scope)
		wait := int(math.Ceil(resetAt.Sub(rl.now()).Seconds()))
		if wait < 1 {
			wait = 1
		}
		c.Header("Retry-After", strconv.Itoa(wait))

		msg := i18n.GetTranslator().Translate(i18n.ErrKeyRateLimitExceeded, i18n.GetLocale(c))
		c.AbortWithStatusJSON(http.StatusTooManyRequests,
			dto.NewError(dto.ErrCodeRateLimit, msg).WithRequestID(GetRequestID(c)))
	}
}

// HeaderKey keys the limiter on a request header, prefixed with its name.
func HeaderKey(header string) func(c *gin.Context) string {
	return func(c *gin.Context) string {
		if v := c.GetHeader(header); v != "" {
			return header + ":" + v
		}
		return ""
	}
}

// Tracked returns the number of keys holding a window.
func (rl *RateLimiter) Tracked() int {
	n := 0
	for _, s := range rl.shards {
		s.mu.Lock()
		n += len(s.windows)
		s.mu.Unlock()
	}
	return n
}
