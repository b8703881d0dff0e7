// Package ratelimit throttles unauthenticated routes per client IP.
package ratelimit

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"coach-schedule/pkg/response"

	"github.com/go-chi/render"
	"golang.org/x/time/rate"
)

const idleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rps      rate.Limit
	burst    int
	now      func() time.Time
	log      *slog.Logger
}

func New(rps float64, burst int, log *slog.Logger) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
		log:      log.With(slog.String("component", "middleware/ratelimit")),
	}
}

// getLimiter returns the limiter for ip, dropping visitors idle longer than idleTTL.
func (rl *RateLimiter) getLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for k, v := range rl.visitors {
		if now.Sub(v.lastSeen) > idleTTL {
			delete(rl.visitors, k)
		}
	}

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now

	return v.limiter
}

func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)

		if !rl.getLimiter(ip).AllowN(rl.now(), 1) {
			rl.log.Warn("rate limited", slog.String("ip", ip), slog.String("path", r.URL.Path))
			render.Status(r, http.StatusTooManyRequests)
			render.JSON(w, r, response.Error(string(response.TOO_MANY_REQUESTS), "too many requests"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
