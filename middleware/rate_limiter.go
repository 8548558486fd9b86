// middleware/rate_limiter.go
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/clipcash/clipcash_backend/models"
)

type endpointLimit struct {
	limit rate.Limit
	burst int
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keys request limits by client IP. Idle limiters are evicted
// after idleTTL so the map cannot grow unbounded. Constructed once in main and
// injected; there is no package-level state.
type RateLimiter struct {
	mu             sync.Mutex
	entries        map[string]*limiterEntry
	defaultLimit   rate.Limit
	defaultBurst   int
	idleTTL        time.Duration
	endpointLimits map[string]endpointLimit
}

// NewRateLimiter creates a rate limiter with sensible defaults and stricter
// limits on expensive endpoints
func NewRateLimiter() *RateLimiter {
	limiter := &RateLimiter{
		entries:        make(map[string]*limiterEntry),
		defaultLimit:   rate.Every(100 * time.Millisecond), // 10 requests per second
		defaultBurst:   20,
		idleTTL:        15 * time.Minute,
		endpointLimits: make(map[string]endpointLimit),
	}

	// Login gets strict limits against brute force
	limiter.endpointLimits["/api/auth/login"] = endpointLimit{
		limit: rate.Every(2 * time.Second),
		burst: 5,
	}

	// Submissions and bio verification both hit the TikTok scraping API
	limiter.endpointLimits["/api/campaigns/:id/submissions"] = endpointLimit{
		limit: rate.Every(5 * time.Second),
		burst: 3,
	}
	limiter.endpointLimits["/api/tiktok/verify"] = endpointLimit{
		limit: rate.Every(10 * time.Second),
		burst: 2,
	}

	go limiter.evictIdle()

	return limiter
}

// evictIdle drops limiters that have not been touched within idleTTL
func (r *RateLimiter) evictIdle() {
	for {
		time.Sleep(5 * time.Minute)
		cutoff := time.Now().Add(-r.idleTTL)
		r.mu.Lock()
		for key, entry := range r.entries {
			if entry.lastSeen.Before(cutoff) {
				delete(r.entries, key)
			}
		}
		r.mu.Unlock()
	}
}

// RateLimit returns the echo middleware
func (r *RateLimiter) RateLimit() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()

			limit := r.defaultLimit
			burst := r.defaultBurst
			if endpoint, exists := r.endpointLimits[c.Path()]; exists {
				limit = endpoint.limit
				burst = endpoint.burst
			}

			if !r.getLimiter(ip+c.Path(), limit, burst).Allow() {
				return c.JSON(http.StatusTooManyRequests, models.Response{
					Status:  http.StatusTooManyRequests,
					Message: "Too many requests",
				})
			}

			return next(c)
		}
	}
}

func (r *RateLimiter) getLimiter(key string, limit rate.Limit, burst int) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.entries[key]
	if !exists {
		entry = &limiterEntry{limiter: rate.NewLimiter(limit, burst)}
		r.entries[key] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}
