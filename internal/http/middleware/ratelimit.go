package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

var rateLimited = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "rate_limited_total",
		Help:      "Requests rejected with 429, by route.",
	},
	[]string{"route"},
)

func init() { prometheus.MustRegister(rateLimited) }

// keyFunc maps a request to the identity its buckets are keyed by.
type keyFunc func(*gin.Context) string

// KeyByUserOrIP keys by X-User-ID (or the context user) and falls back to
// the client IP for anonymous demo traffic.
func KeyByUserOrIP() keyFunc {
	return func(c *gin.Context) string {
		if uid := userIDFromCtx(c); uid != "demo-user" {
			return "user:" + uid
		}
		return "ip:" + c.ClientIP()
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type routeLimit struct {
	rps   rate.Limit
	burst int
}

// RateLimiter is a process-local token bucket per identity. Routes added with
// Limit get their own, usually tighter, bucket per identity: chat sends cost
// an upstream generation and unlock attempts must not be usable to sweep tag
// UUIDs.
type RateLimiter struct {
	rps    rate.Limit
	burst  int
	keyFn  keyFunc
	routes map[string]routeLimit // "METHOD route"

	mu       sync.Mutex
	visitors map[string]*visitor
	ttl      time.Duration
	lookups  uint64
}

// NewRateLimiter builds the default bucket. burst <= 0 is treated as 1.
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		keyFn:    keyFn,
		routes:   make(map[string]routeLimit),
		visitors: make(map[string]*visitor),
		ttl:      10 * time.Minute,
	}
}

// Limit installs a dedicated bucket for method + Gin route pattern. A zero
// rps disables the override.
func (rl *RateLimiter) Limit(method, route string, rps float64, burst int) *RateLimiter {
	if rps <= 0 {
		return rl
	}
	if burst <= 0 {
		burst = 1
	}
	rl.routes[method+" "+route] = routeLimit{rps: rate.Limit(rps), burst: burst}
	return rl
}

// bucket returns the limiter for key under the given limit. Idle entries are
// swept every 5000 lookups, before the requested key is touched.
func (rl *RateLimiter) bucket(key string, lim routeLimit) *rate.Limiter {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.lookups++
	if rl.lookups >= 5000 {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) >= rl.ttl {
				delete(rl.visitors, k)
			}
		}
		rl.lookups = 0
	}

	if v, ok := rl.visitors[key]; ok {
		v.lastSeen = now
		return v.limiter
	}
	l := rate.NewLimiter(lim.rps, lim.burst)
	rl.visitors[key] = &visitor{limiter: l, lastSeen: now}
	return l
}

// IsRateBypass reports whether IdempotencyValidator marked the request as a
// replay, which is served without spending a token.
func IsRateBypass(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyRateBypass)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Handler enforces the limits. Rejections get 429 with the standard error
// body and a Retry-After of one token interval, rounded up to whole seconds.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}

		route := c.FullPath()
		key := rl.keyFn(c)
		lim := routeLimit{rps: rl.rps, burst: rl.burst}
		if rr, ok := rl.routes[c.Request.Method+" "+route]; ok {
			lim = rr
			key += "|" + c.Request.Method + " " + route
		}

		if rl.bucket(key, lim).Allow() {
			c.Next()
			return
		}

		if route == "" {
			route = unmatchedRoute
		}
		rateLimited.WithLabelValues(route).Inc()
		c.Header("Retry-After", retryAfter(lim.rps))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get("X-Request-ID"),
			"code":       "rate_limited",
			"message":    "rate limit exceeded",
		})
	}
}

func retryAfter(rps rate.Limit) string {
	if rps <= 0 || rps == rate.Inf {
		return "1"
	}
	secs := int(math.Ceil(1 / float64(rps)))
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
