package middleware

import (
	"net"
	"net/http"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

const maxTrackedClients = 10000

// RateLimiter holds one token bucket per client address. The least recently
// seen addresses are evicted once maxTrackedClients is reached.
type RateLimiter struct {
	clients *lru.Cache[string, *rate.Limiter]
	burst   int
	refill  rate.Limit
}

// NewRateLimiter allows burst requests per address, refilled at refillPerSec.
func NewRateLimiter(burst, refillPerSec int) *RateLimiter {
	clients, err := lru.New[string, *rate.Limiter](maxTrackedClients)
	if err != nil {
		panic(err)
	}
	return &RateLimiter{clients: clients, burst: burst, refill: rate.Limit(refillPerSec)}
}

func (rl *RateLimiter) Allow(addr string) bool {
	lim, ok := rl.clients.Get(addr)
	if !ok {
		lim = rate.NewLimiter(rl.refill, rl.burst)
		if prev, found, _ := rl.clients.PeekOrAdd(addr, lim); found {
			lim = prev
		}
	}
	return lim.Allow()
}

// Tracked is the number of addresses currently holding a bucket.
func (rl *RateLimiter) Tracked() int { return rl.clients.Len() }

// RateLimitMiddleware rejects requests from an address that ran out of tokens.
// The key is the client address only: userId is caller-chosen and unvalidated here.
func RateLimitMiddleware(burst, refillPerSec int) func(http.Handler) http.Handler {
	return RateLimit(NewRateLimiter(burst, refillPerSec))
}

func RateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	retryAfter := "60"
	if limiter.refill > 0 {
		retryAfter = strconv.Itoa(max(1, int(1/float64(limiter.refill))))
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(clientIP(r)) {
				w.Header().Set("Retry-After", retryAfter)
				WriteError(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
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
