package middlewares

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hxuan190/amm-router/internal/common"
	"github.com/hxuan190/amm-router/internal/http/httputil"
)

type bucket struct {
	tokens float64
	last   time.Time
}

// RateLimiter is a per client IP token bucket refilled at rate tokens per
// second up to burst. A bucket idle for burst/rate seconds is full again, so
// it is dropped and recreated on the next request.
type RateLimiter struct {
	mu        sync.Mutex
	rate      float64
	burst     float64
	buckets   map[string]*bucket
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func NewRateLimiter(rate, burst int) *RateLimiter {
	idle := time.Second
	if rate > 0 {
		if d := time.Duration(float64(burst) / float64(rate) * float64(time.Second)); d > idle {
			idle = d
		}
	}
	return &RateLimiter{
		rate:    float64(rate),
		burst:   float64(burst),
		buckets: make(map[string]*bucket),
		idle:    idle,
		now:     time.Now,
	}
}

// sweep drops full buckets at most once per idle period. Caller holds mu.
func (rl *RateLimiter) sweep(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.idle {
		return
	}
	rl.lastSweep = now
	for key, b := range rl.buckets {
		if now.Sub(b.last) >= rl.idle {
			delete(rl.buckets, key)
		}
	}
}

// Allow takes one token from key's bucket.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.sweep(now)
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: rl.burst, last: now}
		rl.buckets[key] = b
	}

	b.tokens += now.Sub(b.last).Seconds() * rl.rate
	if b.tokens > rl.burst {
		b.tokens = rl.burst
	}
	b.last = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (rl *RateLimiter) RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			httputil.Fail(c, common.HTTPErrorTooManyRequests(""))
			return
		}
		c.Next()
	}
}
