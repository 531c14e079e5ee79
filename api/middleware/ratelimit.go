package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/vehicledesc/config"
	"github.com/use-agent/vehicledesc/models"
	"golang.org/x/time/rate"
)

const (
	bucketIdleTTL    = time.Hour
	bucketSweepEvery = 5 * time.Minute
)

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// launchBudget hands out one token bucket per client. Every admitted lookup
// starts a Chromium process, so the bucket is effectively a per-client
// browser launch budget.
type launchBudget struct {
	cfg config.RateLimitConfig

	mu      sync.Mutex
	buckets map[string]*bucket
}

func newLaunchBudget(cfg config.RateLimitConfig) *launchBudget {
	return &launchBudget{cfg: cfg, buckets: make(map[string]*bucket)}
}

// reserve takes a token for client. It returns zero when the request may run
// now, or how long the client must wait otherwise; no token is consumed then.
func (b *launchBudget) reserve(client string, now time.Time) time.Duration {
	b.mu.Lock()
	bk, ok := b.buckets[client]
	if !ok {
		bk = &bucket{limiter: rate.NewLimiter(rate.Limit(b.cfg.RequestsPerSecond), b.cfg.Burst)}
		b.buckets[client] = bk
	}
	bk.lastSeen = now
	b.mu.Unlock()

	r := bk.limiter.ReserveN(now, 1)
	if !r.OK() {
		return bucketIdleTTL
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return delay
	}
	return 0
}

// sweep drops buckets idle since before cutoff.
func (b *launchBudget) sweep(cutoff time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, bk := range b.buckets {
		if bk.lastSeen.Before(cutoff) {
			delete(b.buckets, id)
		}
	}
}

// RateLimit bounds how fast each client can start lookups, keyed by API key
// when authenticated and by client IP otherwise. Rejected requests get 429
// with a Retry-After hint and never reach the browser.
func RateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	budget := newLaunchBudget(cfg)

	go func() {
		ticker := time.NewTicker(bucketSweepEvery)
		defer ticker.Stop()
		for range ticker.C {
			budget.sweep(time.Now().Add(-bucketIdleTTL))
		}
	}()

	return func(c *gin.Context) {
		client := c.GetString(ClientKey)
		if client == "" {
			client = c.ClientIP()
		}

		if wait := budget.reserve(client, time.Now()); wait > 0 {
			retryAfter := strconv.Itoa(int(math.Ceil(wait.Seconds())))
			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResult{
				Error: "too many lookups: each one launches a browser session, retry after " + retryAfter + "s",
				Code:  models.ErrCodeRateLimited,
			})
			return
		}

		c.Next()
	}
}
