// internal/middleware/ratelimit_middleware.go
package middleware

import (
	"net/http"
	"sync"
	"time"

	"panel-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per client IP; idle buckets expire
type RateLimiter struct {
	mu       sync.Mutex
	limiters *expirable.LRU[string, *rate.Limiter]
	rate     rate.Limit
	burst    int
}

func NewRateLimiter(requestsPerMin int) *RateLimiter {
	if requestsPerMin <= 0 {
		requestsPerMin = 1
	}
	return &RateLimiter{
		limiters: expirable.NewLRU[string, *rate.Limiter](
			1000,
			nil,
			5*time.Minute,
		),
		rate:  rate.Every(time.Minute / time.Duration(requestsPerMin)),
		burst: requestsPerMin,
	}
}

func (r *RateLimiter) Allow(key string) bool {
	return r.limiterFor(key).Allow()
}

// limiterFor returns the bucket for key, creating it at most once
func (r *RateLimiter) limiterFor(key string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	limiter, ok := r.limiters.Get(key)
	if !ok {
		limiter = rate.NewLimiter(r.rate, r.burst)
		r.limiters.Add(key, limiter)
	}
	return limiter
}

func (r *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !r.Allow(c.ClientIP()) {
			response.Error(c, http.StatusTooManyRequests, "too many requests", nil)
			return
		}
		c.Next()
	}
}
