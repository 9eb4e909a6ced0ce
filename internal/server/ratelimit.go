package server

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"carz-auction/internal/biddingerrors"
	"carz-auction/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter hands out one token bucket per client IP
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*clientLimiter
	rate     rate.Limit
	burst    int
	idle     time.Duration
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a limiter allowing requestsPerSecond with the given burst per client.
// A non-positive rate disables limiting.
func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limiters: make(map[string]*clientLimiter),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
		idle:     10 * time.Minute,
	}
}

// Allow reports whether the client identified by key may proceed now
func (rl *RateLimiter) Allow(key string) bool {
	if rl.rate <= 0 {
		return true
	}

	rl.mu.Lock()
	cl, ok := rl.limiters[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[key] = cl
	}
	cl.lastSeen = time.Now()
	rl.mu.Unlock()

	return cl.limiter.Allow()
}

// Middleware rejects requests over the client's budget with 429 RateLimited
func (rl *RateLimiter) Middleware(c *gin.Context) {
	key := c.ClientIP()
	if rl.Allow(key) {
		c.Next()
		return
	}

	utils.Warn("rate limit exceeded", map[string]any{
		"client_ip": key,
		"path":      c.Request.URL.Path,
		"method":    c.Request.Method,
	})
	utils.JSONError(c, http.StatusTooManyRequests, biddingerrors.ReasonRateLimited,
		errors.New(biddingerrors.ErrRateLimited.Error()), "too many requests")
	c.Abort()
}

// Cleanup drops limiters idle for longer than the idle window and returns how many were removed
func (rl *RateLimiter) Cleanup(now time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for key, cl := range rl.limiters {
		if now.Sub(cl.lastSeen) > rl.idle {
			delete(rl.limiters, key)
			removed++
		}
	}
	return removed
}
