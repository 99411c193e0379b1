package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/iliyamo/spa-booking-deposits/internal/config"
	"github.com/iliyamo/spa-booking-deposits/internal/utils"
)

const (
	sweepEvery = time.Minute
	idleAfter  = 3 * time.Minute
)

var limiterScript = redis.NewScript(`
	local key = KEYS[1]
	local now_ms = tonumber(ARGV[1])
	local capacity = tonumber(ARGV[2])
	local refill_tokens = tonumber(ARGV[3])
	local interval_ms = tonumber(ARGV[4])
	local ttl_seconds = tonumber(ARGV[5])

	local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
	local tokens = tonumber(state[1])
	local last_refill = tonumber(state[2])

	if tokens == nil or last_refill == nil then
		tokens = capacity
		last_refill = now_ms
	end

	if interval_ms > 0 and refill_tokens > 0 then
		local elapsed = math.max(0, now_ms - last_refill)
		local intervals = math.floor(elapsed / interval_ms)
		if intervals > 0 then
			tokens = math.min(capacity, tokens + (intervals * refill_tokens))
			last_refill = last_refill + (intervals * interval_ms)
		end
	end

	local allowed = 0
	local retry_after_ms = 0
	if tokens > 0 then
		allowed = 1
		tokens = tokens - 1
	else
		local until_next = interval_ms - (now_ms - last_refill)
		if until_next < 0 then until_next = 0 end
		retry_after_ms = until_next
	end

	redis.call('HMSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
	redis.call('EXPIRE', key, ttl_seconds)

	return { allowed, tokens, retry_after_ms }
`)

// localLimiters is the in-process fallback used while Redis is missing or
// failing.  Limits then hold per instance only.
type localLimiters struct {
	mu    sync.Mutex
	rps   rate.Limit
	burst int
	m     map[string]*localEntry
}

type localEntry struct {
	lim  *rate.Limiter
	seen time.Time
}

func newLocalLimiters(rps float64, burst int) *localLimiters {
	return &localLimiters{rps: rate.Limit(rps), burst: burst, m: map[string]*localEntry{}}
}

func (l *localLimiters) allow(key string, now time.Time) bool {
	l.mu.Lock()
	ent, ok := l.m[key]
	if !ok {
		ent = &localEntry{lim: rate.NewLimiter(l.rps, l.burst)}
		l.m[key] = ent
	}
	ent.seen = now
	l.mu.Unlock()
	return ent.lim.AllowN(now, 1)
}

// sweep drops keys not seen within idle and reports how many remain.
func (l *localLimiters) sweep(now time.Time, idle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, ent := range l.m {
		if now.Sub(ent.seen) > idle {
			delete(l.m, k)
		}
	}
	return len(l.m)
}

func (l *localLimiters) sweepLoop(ctx context.Context) {
	t := time.NewTicker(sweepEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			l.sweep(now, idleAfter)
		}
	}
}

// NewTokenBucket limits requests per (ip, user, route).  The bucket lives
// in Redis when rdb is set; otherwise, or when a Redis call fails, a
// golang.org/x/time/rate limiter per key takes over.  The middleware runs
// ahead of the route's JWTAuth, so the user is read from the bearer token
// signed with secret.  Idle local keys are swept until ctx is done.
func NewTokenBucket(ctx context.Context, cfg config.RateLimitConfig, rdb *redis.Client, secret string) echo.MiddlewareFunc {
	if !cfg.Enabled {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	local := newLocalLimiters(cfg.LocalRPS, cfg.LocalBurst)
	go local.sweepLoop(ctx)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := rateKey(cfg.Prefix, secret, c)
			if rdb == nil {
				return allowLocal(c, next, local, key)
			}

			args := []interface{}{
				time.Now().UnixMilli(),
				cfg.Capacity,
				cfg.RefillTokens,
				cfg.RefillInterval.Milliseconds(),
				int64(cfg.TTL / time.Second),
			}
			vals, err := limiterScript.Run(c.Request().Context(), rdb, []string{key}, args...).Result()
			arr, ok := vals.([]interface{})
			if err != nil || !ok || len(arr) != 3 {
				if cfg.Debug {
					c.Logger().Warnf("ratelimit: redis unavailable for key=%s: %v", key, err)
				}
				return allowLocal(c, next, local, key)
			}

			allowed := fmt.Sprint(arr[0]) == "1"
			remaining := asInt64(arr[1])
			retryMs := asInt64(arr[2])

			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			if !allowed {
				secs := int(math.Ceil(float64(retryMs) / 1000.0))
				if secs < 1 {
					secs = 1
				}
				return tooMany(c, secs)
			}
			if cfg.Debug {
				c.Response().Header().Set("X-RateLimit-Key", key)
			}
			return next(c)
		}
	}
}

func allowLocal(c echo.Context, next echo.HandlerFunc, l *localLimiters, key string) error {
	if !l.allow(key, time.Now()) {
		return tooMany(c, 1)
	}
	return next(c)
}

func tooMany(c echo.Context, secs int) error {
	c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
	return c.JSON(http.StatusTooManyRequests, echo.Map{
		"error":       "rate limit exceeded",
		"code":        "too_many_requests",
		"retry_after": secs,
	})
}

func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		n, _ := strconv.ParseInt(t, 10, 64)
		return n
	}
	return 0
}

func rateKey(prefix, secret string, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	route := c.Request().Method + " " + c.Path()
	return strings.Join([]string{prefix, "ip", ip, "user", subject(c, secret), "route", route}, ":")
}

// subject is the rate limit subject: the user ID stored by JWTAuth, else the
// one in a valid bearer token, else "guest".
func subject(c echo.Context, secret string) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	raw := bearer(c.Request())
	if raw == "" || secret == "" {
		return "guest"
	}
	claims, err := utils.ParseAccessToken(secret, raw)
	if err != nil {
		return "guest"
	}
	return claims.Subject
}
