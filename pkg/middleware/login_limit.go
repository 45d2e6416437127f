package middleware

import (
	"cedarhill/portal-api/internal/service"
	"cedarhill/portal-api/pkg/httpx"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type loginWindow struct {
	start time.Time
	count int
}

// LoginLimiter counts login attempts per client address in fixed
// windows. The counter resets completely when a window ends. Attempts
// over the limit are rejected immediately, never queued.
type LoginLimiter struct {
	window      time.Duration
	maxAttempts int

	mu      sync.Mutex
	windows map[string]*loginWindow
}

func NewLoginLimiter(window time.Duration, maxAttempts int) *LoginLimiter {
	l := &LoginLimiter{
		window:      window,
		maxAttempts: maxAttempts,
		windows:     make(map[string]*loginWindow),
	}

	// Closed windows are dead weight, sweep them now and then
	go func() {
		for {
			time.Sleep(window)

			l.mu.Lock()
			for ip, w := range l.windows {
				if time.Since(w.start) >= window {
					delete(l.windows, ip)
				}
			}
			l.mu.Unlock()
		}
	}()

	return l
}

// Allow records one attempt for ip and reports whether it still fits
// into the current window.
func (l *LoginLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[ip]
	if !ok || time.Since(w.start) >= l.window {
		l.windows[ip] = &loginWindow{start: time.Now(), count: 1}
		return true
	}

	w.count++
	return w.count <= l.maxAttempts
}

func (l *LoginLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			c.Abort()
			httpx.Fail(c, service.RateLimited("Too many login attempts. Please try again later"))
			return
		}

		c.Next()
	}
}
