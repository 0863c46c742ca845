package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// client is one IP's fixed window.
type client struct {
	windowStart time.Time
	count       int
}

// limiter counts requests per client IP in fixed windows.
// State is in-memory and per process.
type limiter struct {
	mu      sync.Mutex
	clients map[string]*client
	window  time.Duration
	limit   int
	now     func() time.Time
}

func newLimiter(limit int, window time.Duration) *limiter {
	return &limiter{
		clients: make(map[string]*client),
		window:  window,
		limit:   limit,
		now:     time.Now,
	}
}

// allow records a request from ip and reports whether it is within the limit,
// plus the time left in the current window.
func (l *limiter) allow(ip string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cl, ok := l.clients[ip]
	if !ok || now.Sub(cl.windowStart) >= l.window {
		cl = &client{windowStart: now}
		l.clients[ip] = cl
		l.sweep(now)
	}
	cl.count++
	return cl.count <= l.limit, l.window - now.Sub(cl.windowStart)
}

// sweep drops clients whose window has closed.
func (l *limiter) sweep(now time.Time) {
	for ip, cl := range l.clients {
		if now.Sub(cl.windowStart) >= l.window {
			delete(l.clients, ip)
		}
	}
}

// RateLimiter limits each client IP to perMinute requests per minute.
// A non-positive perMinute disables limiting.
//
// Response when limit exceeded:
//
//	HTTP/1.1 429 Too Many Requests
//	Retry-After: 42
//	{"message": "rate limit exceeded", "timestamp": "..."}
func RateLimiter(perMinute int) gin.HandlerFunc {
	if perMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return rateLimit(newLimiter(perMinute, time.Minute))
}

func rateLimit(l *limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, retry := l.allow(c.ClientIP())
		if !ok {
			secs := int(retry.Round(time.Second) / time.Second)
			c.Header("Retry-After", strconv.Itoa(max(secs, 1)))
			AbortWithError(c, http.StatusTooManyRequests, "rate limit exceeded", nil)
			return
		}
		c.Next()
	}
}
