package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Ranjel272/POSBF/internal/apierror"
	"github.com/Ranjel272/POSBF/internal/infra"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ── Login rate limiter ────────────────────────────────────────────────────────

// LoginRateLimiter limits login attempts per client IP. With a shared limiter
// (Redis) the budget holds across server processes; when the limiter is nil or
// errors, a per-process window with the same limit is used instead.
func LoginRateLimiter(shared infra.RateLimiter, limit int, window time.Duration) gin.HandlerFunc {
	local := newWindowLimiter(limit, window)
	return func(c *gin.Context) {
		ip := c.ClientIP()

		if shared != nil {
			res, err := shared.Allow(c.Request.Context(), ip)
			if err == nil {
				if !res.Allowed {
					retryAfter(c, res.RetryAfter)
					c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("Too many login attempts. Try again later."))
					return
				}
				c.Next()
				return
			}
			log.Warn().Err(err).Msg("shared login limiter unavailable, using local window")
		}

		if ok, wait := local.allow(ip); !ok {
			retryAfter(c, wait)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("Too many login attempts. Try again later."))
			return
		}
		c.Next()
	}
}

// ── General API rate limiter ──────────────────────────────────────────────────

// RateLimiter returns a general-purpose per-IP fixed-window limiter.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	wl := newWindowLimiter(limit, window)
	return func(c *gin.Context) {
		if ok, wait := wl.allow(c.ClientIP()); !ok {
			retryAfter(c, wait)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("Too many requests. Try again shortly."))
			return
		}
		c.Next()
	}
}

func retryAfter(c *gin.Context, d time.Duration) {
	secs := int(d.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	c.Header("Retry-After", strconv.Itoa(secs))
}

// ── In-process window ─────────────────────────────────────────────────────────

// rateEntry tracks request counts per IP within a window.
type rateEntry struct {
	count     int
	windowEnd time.Time
}

type windowLimiter struct {
	mu      sync.Mutex
	entries map[string]*rateEntry
	limit   int
	window  time.Duration
	now     func() time.Time
	lastGC  time.Time
}

func newWindowLimiter(limit int, window time.Duration) *windowLimiter {
	return &windowLimiter{
		entries: make(map[string]*rateEntry),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

// purgeInterval bounds how often expired entries are dropped so IPs that
// never return do not accumulate.
const purgeInterval = 5 * time.Minute

func (l *windowLimiter) allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastGC) > purgeInterval {
		l.purge(now)
	}

	entry, ok := l.entries[key]
	if !ok || now.After(entry.windowEnd) {
		entry = &rateEntry{windowEnd: now.Add(l.window)}
		l.entries[key] = entry
	}
	entry.count++
	if entry.count > l.limit {
		return false, entry.windowEnd.Sub(now)
	}
	return true, 0
}

func (l *windowLimiter) purge(now time.Time) {
	purged := 0
	for key, entry := range l.entries {
		if now.After(entry.windowEnd) {
			delete(l.entries, key)
			purged++
		}
	}
	l.lastGC = now
	if purged > 0 {
		log.Debug().Int("purged", purged).Int("remaining", len(l.entries)).Msg("rate limiter entries purged")
	}
}
