package middleware

import (
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP. A bucket holding max
// tokens that refills over window approximates "max requests per window".
type RateLimiter struct {
	mu      sync.Mutex
	ips     map[string]*limiterEntry
	rate    rate.Limit
	burst   int
	window  time.Duration
	message string
	now     func() time.Time
}

func NewRateLimiter(max int, window time.Duration, message string) *RateLimiter {
	return &RateLimiter{
		ips:     make(map[string]*limiterEntry),
		rate:    rate.Every(window / time.Duration(max)),
		burst:   max,
		window:  window,
		message: message,
		now:     time.Now,
	}
}

func (rl *RateLimiter) limiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	entry, ok := rl.ips[ip]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.ips[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// Sweep drops buckets idle for longer than a window.
func (rl *RateLimiter) Sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := rl.now().Add(-rl.window)
	for ip, e := range rl.ips {
		if e.lastSeen.Before(cutoff) {
			delete(rl.ips, ip)
		}
	}
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	retryAfter := int(math.Ceil(rl.window.Seconds()))
	return func(c *gin.Context) {
		if !rl.limiter(c.ClientIP()).AllowN(rl.now(), 1) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success":    false,
				"message":    rl.message,
				"retryAfter": retryAfter,
			})
			return
		}
		c.Next()
	}
}

// Limiters groups the per-route-class rate limits.
type Limiters struct {
	General *RateLimiter
	Auth    *RateLimiter
	Payment *RateLimiter
	Contact *RateLimiter
}

func NewLimiters() *Limiters {
	return &Limiters{
		General: NewRateLimiter(100, 15*time.Minute, "Too many requests from this IP, please try again later"),
		Auth:    NewRateLimiter(5, 15*time.Minute, "Too many authentication attempts, please try again later"),
		Payment: NewRateLimiter(10, 15*time.Minute, "Too many payment attempts, please try again later"),
		Contact: NewRateLimiter(3, time.Hour, "Too many contact form submissions, please try again later"),
	}
}

func (l *Limiters) all() []*RateLimiter {
	return []*RateLimiter{l.General, l.Auth, l.Payment, l.Contact}
}

// RunSweeper evicts idle buckets every interval until stop is closed.
func (l *Limiters) RunSweeper(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			for _, rl := range l.all() {
				rl.Sweep()
			}
		}
	}
}
