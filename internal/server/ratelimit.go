package server

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"resumescore/internal/errors"

	"golang.org/x/time/rate"
)

// limiterIdleTTL is how long an unused client limiter is kept
const limiterIdleTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client key (IP or API key)
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	rate    rate.Limit
	burst   int
	done    chan struct{}
	once    sync.Once
	logger  *errors.Logger
}

// NewRateLimiter allows requestsPerMin requests per window (a minute when
// zero) with a bucket of burstCapacity tokens. Idle clients are evicted in
// the background until Close is called.
func NewRateLimiter(requestsPerMin int, window time.Duration, burstCapacity int, logger *errors.Logger) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if burstCapacity <= 0 {
		burstCapacity = 1
	}

	rl := &RateLimiter{
		clients: make(map[string]*clientLimiter),
		rate:    rate.Limit(float64(requestsPerMin) / window.Seconds()),
		burst:   burstCapacity,
		done:    make(chan struct{}),
		logger:  logger,
	}
	go rl.evictLoop(limiterIdleTTL)
	return rl
}

// Allow takes a token for key. When none is available it reports how long
// the client has to wait for the next one.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	c, ok := rl.clients[key]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.clients[key] = c
	}
	c.lastSeen = time.Now()
	rl.mu.Unlock()

	reservation := c.limiter.Reserve()
	if !reservation.OK() {
		return false, time.Minute
	}
	if delay := reservation.Delay(); delay > 0 {
		reservation.Cancel()
		return false, delay
	}
	return true, 0
}

// GetStats returns current rate limiter statistics
func (rl *RateLimiter) GetStats() map[string]any {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return map[string]any{
		"active_limiters": len(rl.clients),
		"rate_per_second": float64(rl.rate),
		"rate_per_minute": float64(rl.rate) * 60.0,
		"burst_capacity":  rl.burst,
	}
}

func (rl *RateLimiter) evictLoop(ttl time.Duration) {
	ticker := time.NewTicker(ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evictIdle(ttl)
		case <-rl.done:
			return
		}
	}
}

// evictIdle drops clients not seen for ttl
func (rl *RateLimiter) evictIdle(ttl time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-ttl)
	for key, c := range rl.clients {
		if c.lastSeen.Before(cutoff) {
			delete(rl.clients, key)
		}
	}
	if rl.logger != nil {
		rl.logger.Debug("Rate limiter cleanup completed", "remaining_limiters", len(rl.clients))
	}
}

// Close stops background eviction. It is safe to call more than once.
func (rl *RateLimiter) Close() {
	rl.once.Do(func() { close(rl.done) })
}

// rateLimitMiddleware rejects requests over the client's budget with 429
func (s *Server) rateLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	if s.RateLimit == nil || !s.RateLimit.Enabled || s.RateLimiter == nil {
		return func(next http.HandlerFunc) http.HandlerFunc { return next }
	}

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			key := getRateLimitKey(r, s.RateLimit.ByAPIKey, s.RateLimit.ByIP)
			if key == "" {
				next(w, r)
				return
			}

			allowed, wait := s.RateLimiter.Allow(key)
			if !allowed {
				s.Logger.Info("Rate limit exceeded",
					"key", maskRateLimitKey(key),
					"endpoint", r.URL.Path,
					"client_ip", getClientIP(r),
					"retry_after", wait.String())
				w.Header().Set("Retry-After", retryAfterSeconds(wait))
				writeErrorResponse(w, http.StatusTooManyRequests, ErrorBody{
					Code:    errCodeRateLimited,
					Message: "Too many requests",
					Type:    errTypeRateLimit,
				})
				return
			}

			next(w, r)
		}
	}
}

// getRateLimitKey prefers the API key over the client IP
func getRateLimitKey(r *http.Request, byAPIKey, byIP bool) string {
	if byAPIKey {
		if apiKey := requestAPIKey(r); apiKey != "" {
			return "api:" + apiKey
		}
	}
	if byIP {
		return "ip:" + getClientIP(r)
	}
	return ""
}

func maskRateLimitKey(key string) string {
	if apiKey, ok := strings.CutPrefix(key, "api:"); ok {
		return "api:" + maskAPIKey(apiKey)
	}
	return key
}

// getClientIP honours X-Forwarded-For and X-Real-IP before RemoteAddr
func getClientIP(r *http.Request) string {
	for ip := range strings.SplitSeq(r.Header.Get("X-Forwarded-For"), ",") {
		if ip = strings.TrimSpace(ip); net.ParseIP(ip) != nil {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(xri) != nil {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// retryAfterSeconds rounds wait up to whole seconds, at least one
func retryAfterSeconds(wait time.Duration) string {
	return strconv.Itoa(max(1, int(math.Ceil(wait.Seconds()))))
}
