package middleware

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const cleanupInterval = 5 * time.Minute

// userLimiter pairs a token bucket with its last access time
type userLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter enforces a per-user request budget on authenticated routes.
// Idle limiters are cleaned up in the background.
type RateLimiter struct {
	rate  rate.Limit
	burst int
	log   *logrus.Logger

	mu       sync.Mutex
	limiters map[int64]*userLimiter

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter creates a rate limiter allowing perMin requests per user
// per minute and starts its cleanup goroutine.
func NewRateLimiter(perMin int, log *logrus.Logger) *RateLimiter {
	rl := &RateLimiter{
		rate:     rate.Limit(float64(perMin) / 60.0),
		burst:    perMin,
		log:      log,
		limiters: make(map[int64]*userLimiter),
		stopCh:   make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop terminates the cleanup goroutine
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Middleware returns the rate limiting middleware. It must be placed after
// AuthMiddleware, which provides the user id.
func (rl *RateLimiter) Middleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := UserIDFromContext(r.Context())
			if err != nil {
				writeUnauthorized(w)
				return
			}

			if !rl.limiterFor(userID).Allow() {
				rl.log.Warnf("Rate limit exceeded for user %d", userID)
				rl.writeRateLimitResponse(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// limiterFor returns the user's limiter, creating it on first use
func (rl *RateLimiter) limiterFor(userID int64) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if ul, exists := rl.limiters[userID]; exists {
		ul.lastAccess = time.Now()
		return ul.limiter
	}

	limiter := rate.NewLimiter(rl.rate, rl.burst)
	rl.limiters[userID] = &userLimiter{limiter: limiter, lastAccess: time.Now()}
	return limiter
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup drops limiters idle for more than twice the cleanup interval
func (rl *RateLimiter) cleanup() {
	ttl := cleanupInterval * 2
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for userID, ul := range rl.limiters {
		if now.Sub(ul.lastAccess) > ttl {
			delete(rl.limiters, userID)
		}
	}
}

func (rl *RateLimiter) writeRateLimitResponse(w http.ResponseWriter) {
	retryAfterSec := int(math.Ceil(1.0 / float64(rl.rate)))
	if retryAfterSec < 1 {
		retryAfterSec = 1
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSec))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Too many requests, please try again later",
	})
}
