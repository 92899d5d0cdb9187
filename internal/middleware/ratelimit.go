package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"spacerental/internal/config"
	"spacerental/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// tokenBucket refills one token per interval up to capacity and takes one
// token per request. Returns {allowed, remaining, retry_after_ms}.
var tokenBucket = redis.NewScript(`
	local key = KEYS[1]
	local now_ms = tonumber(ARGV[1])
	local capacity = tonumber(ARGV[2])
	local interval_ms = tonumber(ARGV[3])
	local ttl_seconds = tonumber(ARGV[4])

	local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
	local tokens = tonumber(state[1])
	local last_refill = tonumber(state[2])

	if tokens == nil or last_refill == nil then
		tokens = capacity
		last_refill = now_ms
	end

	if interval_ms > 0 then
		local elapsed = math.max(0, now_ms - last_refill)
		local intervals = math.floor(elapsed / interval_ms)
		if intervals > 0 then
			tokens = math.min(capacity, tokens + intervals)
			last_refill = last_refill + (intervals * interval_ms)
		end
	end

	local allowed = 0
	local retry_after_ms = 0
	if tokens > 0 then
		allowed = 1
		tokens = tokens - 1
	else
		retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
	end

	redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
	redis.call('EXPIRE', key, ttl_seconds)

	return { allowed, tokens, retry_after_ms }
`)

// RateLimiter limits requests per user (or per client IP before auth).
// Redis holds the buckets when available so limits hold across instances;
// without Redis, or when a Redis call fails, an in-process limiter is used.
type RateLimiter struct {
	cfg    config.RateLimitConfig
	rdb    *redis.Client
	logger *zap.Logger

	mu       sync.Mutex
	limiters map[string]*localLimiter
}

type localLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(cfg config.RateLimitConfig, rdb *redis.Client, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimiter{
		cfg:      cfg,
		rdb:      rdb,
		logger:   logger,
		limiters: make(map[string]*localLimiter),
	}
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	if !rl.cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		key := rateKey(c)

		allowed, remaining, retryAfter := rl.take(c, key)

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.cfg.Capacity))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if !allowed {
			secs := int(math.Ceil(retryAfter.Seconds()))
			c.Header("Retry-After", strconv.Itoa(secs))
			rl.logger.Warn("rate limit exceeded", zap.String("key", key))
			response.Abort(c, http.StatusTooManyRequests, "RATE_LIMITED", "Rate limit exceeded. Try again later.")
			return
		}

		c.Next()
	}
}

func (rl *RateLimiter) take(c *gin.Context, key string) (bool, int64, time.Duration) {
	if rl.rdb != nil {
		allowed, remaining, retry, err := rl.takeRedis(c, key)
		if err == nil {
			return allowed, remaining, retry
		}
		rl.logger.Warn("redis rate limit unavailable, using local limiter", zap.String("key", key), zap.Error(err))
	}
	return rl.takeLocal(key)
}

func (rl *RateLimiter) takeRedis(c *gin.Context, key string) (bool, int64, time.Duration, error) {
	args := []interface{}{
		time.Now().UnixMilli(),
		rl.cfg.Capacity,
		rl.cfg.RefillInterval.Milliseconds(),
		int64(rl.ttl() / time.Second),
	}

	vals, err := tokenBucket.Run(c.Request.Context(), rl.rdb, []string{key}, args...).Int64Slice()
	if err != nil {
		return false, 0, 0, err
	}
	if len(vals) != 3 {
		return false, 0, 0, fmt.Errorf("unexpected rate limit script result %v", vals)
	}
	return vals[0] == 1, vals[1], time.Duration(vals[2]) * time.Millisecond, nil
}

func (rl *RateLimiter) takeLocal(key string) (bool, int64, time.Duration) {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	l, ok := rl.limiters[key]
	if !ok {
		rl.evictIdle(now)
		l = &localLimiter{limiter: rate.NewLimiter(rate.Every(rl.cfg.RefillInterval), rl.cfg.Capacity)}
		rl.limiters[key] = l
	}
	l.lastSeen = now

	if !l.limiter.AllowN(now, 1) {
		return false, 0, rl.cfg.RefillInterval
	}
	return true, int64(l.limiter.TokensAt(now)), 0
}

// evictIdle drops local buckets unused for longer than the TTL. Caller holds rl.mu.
func (rl *RateLimiter) evictIdle(now time.Time) {
	ttl := rl.ttl()
	for k, l := range rl.limiters {
		if now.Sub(l.lastSeen) > ttl {
			delete(rl.limiters, k)
		}
	}
}

func (rl *RateLimiter) ttl() time.Duration {
	if rl.cfg.TTL > 0 {
		return rl.cfg.TTL
	}
	return 10 * time.Minute
}

func rateKey(c *gin.Context) string {
	if uid := c.GetInt64(ContextUserID); uid != 0 {
		return "ratelimit:user:" + strconv.FormatInt(uid, 10)
	}
	return "ratelimit:ip:" + c.ClientIP()
}
