package httpx

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig defines the rate limiting parameters.
type RateLimitConfig struct {
	// RequestsPerWindow is the number of requests allowed in the time window
	RequestsPerWindow int
	// Window is the time window for rate limiting
	Window time.Duration
	// Burst allows for temporary bursts above the rate limit
	Burst int
}

// Common rate limit profiles for different endpoint types.
var (
	// StrictLimit for authentication and passcode endpoints (brute force
	// prevention). 5 requests per minute, all available as a burst.
	StrictLimit = RateLimitConfig{RequestsPerWindow: 5, Window: time.Minute, Burst: 5}

	// ModerateLimit for authenticated operations.
	ModerateLimit = RateLimitConfig{RequestsPerWindow: 20, Window: time.Minute, Burst: 20}

	// LenientLimit for health checks and other low-sensitivity endpoints.
	LenientLimit = RateLimitConfig{RequestsPerWindow: 100, Window: time.Minute, Burst: 100}
)

// limiterPool tracks a rate.Limiter per key (IP or user id) and drops
// entries that have been idle long enough to be fully replenished.
type limiterPool struct {
	mu       sync.Mutex
	cfg      RateLimitConfig
	limiters map[string]*poolEntry
}

type poolEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiterPool(cfg RateLimitConfig) *limiterPool {
	p := &limiterPool{
		cfg:      cfg,
		limiters: make(map[string]*poolEntry),
	}

	go p.cleanupLoop()
	return p
}

func (p *limiterPool) allow(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.limiters[key]
	if !ok {
		perSecond := rate.Limit(float64(p.cfg.RequestsPerWindow) / p.cfg.Window.Seconds())
		entry = &poolEntry{limiter: rate.NewLimiter(perSecond, p.cfg.Burst)}
		p.limiters[key] = entry
	}
	entry.lastSeen = time.Now()

	return entry.limiter.Allow()
}

func (p *limiterPool) cleanupLoop() {
	ticker := time.NewTicker(p.cfg.Window)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-3 * p.cfg.Window)

		p.mu.Lock()
		for key, entry := range p.limiters {
			if entry.lastSeen.Before(cutoff) {
				delete(p.limiters, key)
			}
		}
		p.mu.Unlock()
	}
}

// RateLimitByIP limits requests per client IP. Used on unauthenticated
// endpoints where the IP is the only stable key we have.
func RateLimitByIP(cfg RateLimitConfig) Middleware {
	pool := newLimiterPool(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !pool.allow(clientIP(r)) {
				writeRateLimited(w, cfg)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitByUser limits requests per authenticated user id, falling back to
// IP when no user is in context. Place it after AuthnMiddleware.
func RateLimitByUser(cfg RateLimitConfig) Middleware {
	pool := newLimiterPool(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := UserIDFromCtx(r.Context())
			if !ok {
				key = clientIP(r)
			}

			if !pool.allow(key) {
				writeRateLimited(w, cfg)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeRateLimited(w http.ResponseWriter, cfg RateLimitConfig) {
	w.Header().Set("Retry-After", cfg.Window.String())
	WriteError(w, http.StatusTooManyRequests, "rate_limited", "too many requests, slow down")
}
