package rpc

import (
	"net"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// requestLimiter enforces a per-client token bucket on the RPC endpoint.
type requestLimiter struct {
	mu       sync.Mutex
	visitors map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newRequestLimiter(perSecond float64, burst int) *requestLimiter {
	if perSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = int(perSecond)
	}
	return &requestLimiter{
		visitors: make(map[string]*rate.Limiter),
		limit:    rate.Limit(perSecond),
		burst:    burst,
	}
}

func (l *requestLimiter) allow(r *http.Request) bool {
	if l == nil {
		return true
	}
	id := clientID(r)
	l.mu.Lock()
	limiter, ok := l.visitors[id]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.visitors[id] = limiter
	}
	l.mu.Unlock()
	return limiter.Allow()
}

func clientID(r *http.Request) string {
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		if idx := strings.Index(fwd, ","); idx >= 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
