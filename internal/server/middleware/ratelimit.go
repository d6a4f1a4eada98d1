// file: internal/server/middleware/ratelimit.go
// version: 1.1.0
// guid: 4e6f8a0b-2c4d-4e6f-8a0b-0c2d4e6f8a0c

// Package middleware holds HTTP middleware for the status server.
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter is a per-client-IP token bucket. Idle clients are evicted
// lazily so the map stays bounded.
type IPRateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientEntry
	rate    rate.Limit
	burst   int
	idleTTL time.Duration
}

func NewIPRateLimiter(requestsPerMinute, burst int) *IPRateLimiter {
	if requestsPerMinute < 1 {
		requestsPerMinute = 1
	}
	if burst < 1 {
		burst = 1
	}
	return &IPRateLimiter{
		clients: make(map[string]*clientEntry),
		rate:    rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:   burst,
		idleTTL: 15 * time.Minute,
	}
}

func (r *IPRateLimiter) allow(ip string) bool {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	for key, entry := range r.clients {
		if now.Sub(entry.lastSeen) > r.idleTTL {
			delete(r.clients, key)
		}
	}

	entry, ok := r.clients[ip]
	if !ok {
		entry = &clientEntry{limiter: rate.NewLimiter(r.rate, r.burst)}
		r.clients[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter.Allow()
}

// Middleware rejects over-limit clients with 429.
func (r *IPRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		if !r.allow(ip) {
			c.Header("Retry-After", "60")
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			c.Abort()
			return
		}
		c.Next()
	}
}
