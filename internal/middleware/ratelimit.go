package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/portfolio-cms/apiserver/config"
	"golang.org/x/time/rate"
)

const (
	limiterSweepInterval = 5 * time.Minute
	rateLimitMessage     = "Too many requests from this IP, please try again later."
)

// RateLimiter is a per-client token bucket. Each client may burst up to
// Requests and refills at Requests per Window.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	every    rate.Limit
	burst    int
	idleTTL  time.Duration
	trusted  []*net.IPNet
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter starts a limiter and its sweep goroutine. Call Stop to
// release it. A non-positive request count disables limiting. Forwarding
// headers are only honoured on connections from cfg.TrustedProxies;
// entries that do not parse are ignored.
func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	trusted, _ := config.ParseCIDRs(cfg.TrustedProxies)
	rl := &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		burst:    cfg.Requests,
		idleTTL:  cfg.Window,
		trusted:  trusted,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	if cfg.Requests > 0 && cfg.Window > 0 {
		rl.every = rate.Every(cfg.Window / time.Duration(cfg.Requests))
		go rl.sweepLoop()
	}
	return rl
}

// Handler enforces the limit keyed by client IP. Health checks are exempt.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.burst <= 0 || r.URL.Path == "/api/health" {
			next.ServeHTTP(w, r)
			return
		}

		now := rl.now()
		reservation := rl.limiter(rl.clientKey(r)).ReserveN(now, 1)
		if !reservation.OK() {
			rl.reject(w, rl.idleTTL)
			return
		}
		if delay := reservation.DelayFrom(now); delay > 0 {
			reservation.CancelAt(now)
			rl.reject(w, min(delay, rl.idleTTL))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) reject(w http.ResponseWriter, retryAfter time.Duration) {
	w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
	writeError(w, http.StatusTooManyRequests, rateLimitMessage)
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if entry, ok := rl.limiters[key]; ok {
		entry.lastSeen = rl.now()
		return entry.limiter
	}
	limiter := rate.NewLimiter(rl.every, rl.burst)
	rl.limiters[key] = &limiterEntry{limiter: limiter, lastSeen: rl.now()}
	return limiter
}

func (rl *RateLimiter) sweepLoop() {
	ticker := time.NewTicker(limiterSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.sweep()
		case <-rl.stop:
			return
		}
	}
}

// sweep drops clients idle for a full window; their bucket would be full
// again anyway.
func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	for key, entry := range rl.limiters {
		if now.Sub(entry.lastSeen) > rl.idleTTL {
			delete(rl.limiters, key)
		}
	}
}

// Stop ends the sweep goroutine.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// clientKey identifies the caller by socket address. When the peer is a
// trusted proxy, X-Forwarded-For is walked from the right and the first hop
// that is not itself a trusted proxy wins, so a client cannot pick its key
// by prepending entries. X-Real-IP is the fallback.
func (rl *RateLimiter) clientKey(r *http.Request) string {
	remote := r.RemoteAddr
	if host, _, err := net.SplitHostPort(remote); err == nil {
		remote = host
	}
	if !rl.isTrusted(remote) {
		return remote
	}

	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		hops := strings.Split(forwarded, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if net.ParseIP(hop) == nil {
				break
			}
			if !rl.isTrusted(hop) {
				return hop
			}
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(realIP) != nil {
		return realIP
	}
	return remote
}

func (rl *RateLimiter) isTrusted(ip string) bool {
	if len(rl.trusted) == 0 {
		return false
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	for _, network := range rl.trusted {
		if network.Contains(parsed) {
			return true
		}
	}
	return false
}
