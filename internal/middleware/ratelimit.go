package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/docchat/internal/pkg/response"
)

// UploadRateLimit allows one ingestion per client IP per window. Ingestion
// embeds every chunk upstream, so a tight window keeps a single client from
// exhausting the embedding quota.
func UploadRateLimit(window time.Duration) gin.HandlerFunc {
	limiter := &rateLimiter{
		window:        window,
		last:          make(map[string]time.Time),
		sweepInterval: 10 * window,
		now:           time.Now,
	}
	return limiter.handle
}

type rateLimiter struct {
	window        time.Duration
	sweepInterval time.Duration
	now           func() time.Time

	mu        sync.Mutex
	last      map[string]time.Time
	lastSweep time.Time
}

func (l *rateLimiter) handle(c *gin.Context) {
	key := c.ClientIP()
	now := l.now()

	l.mu.Lock()
	if now.Sub(l.lastSweep) >= l.sweepInterval {
		l.cleanupExpiredLocked(now)
	}
	previous, seen := l.last[key]
	if seen && now.Sub(previous) < l.window {
		l.mu.Unlock()
		response.Error(c, http.StatusTooManyRequests, "too_many", "too many uploads, slow down")
		c.Abort()
		return
	}
	l.last[key] = now
	l.mu.Unlock()

	c.Next()
}

func (l *rateLimiter) cleanupExpiredLocked(now time.Time) {
	for key, seen := range l.last {
		if now.Sub(seen) >= l.window {
			delete(l.last, key)
		}
	}
	l.lastSweep = now
}
