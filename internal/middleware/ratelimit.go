package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"insight-explorer/internal/logger"
	"insight-explorer/internal/utils"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// limiterIdleTTL is how long a quiet client's bucket is kept
const limiterIdleTTL = 10 * time.Minute

// RateLimiter keeps one token bucket per client IP. Buckets of idle clients
// expire.
type RateLimiter struct {
	limiters *gocache.Cache
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
}

// NewRateLimiter creates a per-client limiter. A non-positive rate disables limiting.
func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limiters: gocache.New(limiterIdleTTL, limiterIdleTTL/2),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

// Allow reports whether the client may make another request now
func (l *RateLimiter) Allow(clientKey string) bool {
	if l.rate <= 0 {
		return true
	}
	return l.getLimiter(clientKey).Allow()
}

// Count returns the number of buckets currently held
func (l *RateLimiter) Count() int {
	return l.limiters.ItemCount()
}

func (l *RateLimiter) getLimiter(clientKey string) *rate.Limiter {
	if value, found := l.limiters.Get(clientKey); found {
		limiter := value.(*rate.Limiter)
		// refresh the idle expiry
		l.limiters.SetDefault(clientKey, limiter)
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring the lock
	if value, found := l.limiters.Get(clientKey); found {
		return value.(*rate.Limiter)
	}

	limiter := rate.NewLimiter(l.rate, l.burst)
	l.limiters.SetDefault(clientKey, limiter)
	return limiter
}

// retryAfterSeconds is the wait until one token is available again
func (l *RateLimiter) retryAfterSeconds() int {
	if l.rate <= 0 {
		return 1
	}
	return int(math.Ceil(1 / float64(l.rate)))
}

// RateLimitMiddleware rejects clients that exceed their request budget. Buckets
// are keyed by the caller's IP; X-Client-ID is caller-chosen and never selects
// a bucket.
func RateLimitMiddleware(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientKey := utils.GetClientIP(c.Request)

		if limiter.Allow(clientKey) {
			c.Next()
			return
		}

		correlationID := logger.CorrelationIDFromContext(c.Request.Context())
		logger.WithCorrelationID(correlationID).WithFields(map[string]interface{}{
			"client_ip": clientKey,
			"client_id": utils.GetClientID(c.Request, ""),
			"path":      c.Request.URL.Path,
		}).Warn("Rate limit exceeded")

		c.Header("Retry-After", strconv.Itoa(limiter.retryAfterSeconds()))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": gin.H{
				"code":           "RATE_LIMITED",
				"message":        "Too many requests. Please slow down.",
				"correlation_id": correlationID,
			},
		})
	}
}
