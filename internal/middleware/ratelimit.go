package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// idleTTL is how long a client's limiter is kept after its last request.
const idleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type ipLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	rate      rate.Limit
	burst     int
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func newIPLimiter(r rate.Limit, burst int) *ipLimiter {
	return &ipLimiter{
		visitors:  make(map[string]*visitor),
		rate:      r,
		burst:     burst,
		ttl:       idleTTL,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (ipl *ipLimiter) get(ip string) *rate.Limiter {
	ipl.mu.Lock()
	defer ipl.mu.Unlock()

	now := ipl.now()
	if now.Sub(ipl.lastSweep) >= ipl.ttl {
		ipl.sweep(now)
	}

	v, ok := ipl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(ipl.rate, ipl.burst)}
		ipl.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

// sweep drops clients idle for longer than ttl. Callers hold mu.
func (ipl *ipLimiter) sweep(now time.Time) {
	for ip, v := range ipl.visitors {
		if now.Sub(v.lastSeen) >= ipl.ttl {
			delete(ipl.visitors, ip)
		}
	}
	ipl.lastSweep = now
}

// PerMinute converts a per-minute allowance into a rate.Limit.
func PerMinute(n int) rate.Limit {
	return rate.Every(time.Minute / time.Duration(n))
}

// RateLimit allows burst requests per client IP, refilled at r. Run it after
// chi's RealIP so proxied clients are told apart.
func RateLimit(r rate.Limit, burst int) func(http.Handler) http.Handler {
	il := newIPLimiter(r, burst)
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !il.get(clientIP(r)).Allow() {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"please try again later"}`))
				return
			}
			h.ServeHTTP(w, r)
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
