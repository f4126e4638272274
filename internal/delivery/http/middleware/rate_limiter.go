package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/flaviabeo/caikit/internal/domain"
)

// clientLimiter pairs a token bucket with its last use, so idle clients
// can be evicted.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter returns a middleware enforcing a per-client token bucket:
// rps sustained requests per second with the given burst, keyed by client IP.
func RateLimiter(rps float64, burst int) gin.HandlerFunc {
	if burst < 1 {
		burst = 1
	}

	var mu sync.Mutex
	clients := make(map[string]*clientLimiter)

	// Evict clients idle for a few minutes.
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			mu.Lock()
			cutoff := time.Now().Add(-3 * time.Minute)
			for ip, cl := range clients {
				if cl.lastSeen.Before(cutoff) {
					delete(clients, ip)
				}
			}
			mu.Unlock()
		}
	}()

	return func(c *gin.Context) {
		ip := c.ClientIP()

		mu.Lock()
		cl, ok := clients[ip]
		if !ok {
			cl = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
			clients[ip] = cl
		}
		cl.lastSeen = time.Now()
		mu.Unlock()

		if !cl.limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": domain.ErrRateLimitExceeded.Error(),
			})
			return
		}
		c.Next()
	}
}
