package server

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"careertools/internal/config"
	"careertools/internal/errors"

	"golang.org/x/time/rate"
)

// LimiterManager manages a collection of rate limiters for different keys (IPs, API keys).
type LimiterManager struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	lastSeen map[string]time.Time
	rate     rate.Limit
	perMin   int
	burst    int
	done     chan struct{}
	logger   *errors.Logger
	now      func() time.Time
}

// Decision is the limiter verdict for one request plus what the response headers report
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
	ResetAt    time.Time
}

// RetryAfterSeconds rounds the wait up so clients never retry early
func (d Decision) RetryAfterSeconds() int {
	return int(math.Ceil(d.RetryAfter.Seconds()))
}

// NewRateLimiter creates a new manager.
// requestsPerMin is the sustained rate and burstCapacity the token bucket size.
func NewRateLimiter(requestsPerMin int, burstCapacity int, logger *errors.Logger) *LimiterManager {
	if logger == nil {
		logger = errors.Discard()
	}
	m := &LimiterManager{
		limiters: make(map[string]*rate.Limiter),
		lastSeen: make(map[string]time.Time),
		rate:     rate.Limit(float64(requestsPerMin) / 60.0),
		perMin:   requestsPerMin,
		burst:    burstCapacity,
		done:     make(chan struct{}),
		logger:   logger,
		now:      time.Now,
	}

	go m.cleanupRoutine(10 * time.Minute)
	return m
}

// GetLimiter retrieves or creates a limiter for a given key.
func (m *LimiterManager) GetLimiter(key string) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	limiter, exists := m.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(m.rate, m.burst)
		m.limiters[key] = limiter
	}
	m.lastSeen[key] = m.now()

	return limiter
}

// Allow checks if a request should be allowed for the given key
func (m *LimiterManager) Allow(key string) bool {
	return m.Decide(key).Allowed
}

// Decide takes a token for key when one is available. A denied request consumes nothing.
func (m *LimiterManager) Decide(key string) Decision {
	limiter := m.GetLimiter(key)
	now := m.now()

	d := Decision{Limit: m.perMin}
	reservation := limiter.ReserveN(now, 1)
	if !reservation.OK() {
		d.RetryAfter = time.Minute
		d.ResetAt = now.Add(d.RetryAfter)
		return d
	}
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		d.RetryAfter = delay
		d.ResetAt = now.Add(delay)
		return d
	}

	tokens := limiter.TokensAt(now)
	d.Allowed = true
	d.Remaining = max(int(math.Floor(tokens)), 0)
	if m.rate > 0 {
		refill := (float64(m.burst) - tokens) / float64(m.rate)
		d.ResetAt = now.Add(time.Duration(refill * float64(time.Second)))
	} else {
		d.ResetAt = now
	}
	return d
}

// GetStats returns current rate limiter statistics
func (m *LimiterManager) GetStats() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	return map[string]any{
		"active_limiters": len(m.limiters),
		"rate_per_second": float64(m.rate),
		"rate_per_minute": float64(m.rate) * 60.0,
		"burst_capacity":  m.burst,
	}
}

// cleanupRoutine periodically removes inactive limiters
func (m *LimiterManager) cleanupRoutine(cleanupInterval time.Duration) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.cleanup(cleanupInterval)
		case <-m.done:
			return
		}
	}
}

// cleanup removes limiters that haven't been used for the specified duration
func (m *LimiterManager) cleanup(evictionAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for key, lastSeen := range m.lastSeen {
		if now.Sub(lastSeen) > evictionAge {
			delete(m.limiters, key)
			delete(m.lastSeen, key)
		}
	}

	m.logger.Debug("Rate limiter cleanup completed",
		"remaining_limiters", len(m.limiters))
}

// Close stops the cleanup goroutine. Should be called when shutting down the server.
func (m *LimiterManager) Close() {
	close(m.done)
}

// rateLimitMiddleware rejects requests over the per-key budget with 429 and back-off hints
func (s *Server) rateLimitMiddleware(tool string) func(http.HandlerFunc) http.HandlerFunc {
	if s.RateLimiter == nil || !s.RateLimit.Enabled {
		return func(next http.HandlerFunc) http.HandlerFunc { return next }
	}

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			rateLimitKey := getRateLimitKey(r, s.RateLimit)
			if rateLimitKey == "" {
				next(w, r)
				return
			}

			d := s.RateLimiter.Decide(rateLimitKey)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))

			if !d.Allowed {
				retryAfter := d.RetryAfterSeconds()
				s.Logger.Info("Rate limit exceeded",
					"key", maskRateLimitKey(rateLimitKey),
					"endpoint", r.URL.Path,
					"client_ip", getClientIP(r),
					"retry_after", retryAfter)
				s.Observability.RecordRateLimitHit(r.Context(), tool, strings.SplitN(rateLimitKey, ":", 2)[0])

				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				writeJSON(w, http.StatusTooManyRequests, ErrorResponse{
					Error:      "rate_limit_exceeded",
					Message:    "Too many requests. Please wait before trying again.",
					RetryAfter: &retryAfter,
				})
				return
			}

			next(w, r)
		}
	}
}

// getRateLimitKey prefers the API key when configured and falls back to the client IP
func getRateLimitKey(r *http.Request, cfg config.RateLimitConfig) string {
	if cfg.ByAPIKey {
		if apiKey := requestAPIKey(r); apiKey != "" {
			return "api:" + apiKey
		}
	}

	if cfg.ByIP {
		return "ip:" + getClientIP(r)
	}

	return ""
}

func maskRateLimitKey(key string) string {
	if after, ok := strings.CutPrefix(key, "api:"); ok {
		return "api:" + maskAPIKey(after)
	}
	return key
}

// getClientIP extracts the client IP address from the request
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := parseFirstIP(xff); ip != "" {
			return ip
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if ip := net.ParseIP(xri); ip != nil {
			return xri
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// parseFirstIP parses the first valid IP from a comma-separated list
func parseFirstIP(ips string) string {
	for ip := range strings.SplitSeq(ips, ",") {
		ip = strings.TrimSpace(ip)
		if parsed := net.ParseIP(ip); parsed != nil {
			return ip
		}
	}
	return ""
}
