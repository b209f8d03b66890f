package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/piwi3910/itemgraph/internal/config"
)

// rateLimitKeyPrefix namespaces limiter buckets inside a shared Redis.
const rateLimitKeyPrefix = "ratelimit:"

// tokenBucketScript atomically refills and takes one token from a bucket.
// Returns {allowed, remaining, burst}.
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local rate = tonumber(ARGV[2])
	local burst = tonumber(ARGV[3])
	local ttl = tonumber(ARGV[4])

	local tokens_key = key .. ":tokens"
	local timestamp_key = key .. ":ts"

	local tokens = tonumber(redis.call('GET', tokens_key) or burst)
	local last_update = tonumber(redis.call('GET', timestamp_key) or now)

	local elapsed = math.max(0, now - last_update)
	tokens = math.min(burst, tokens + elapsed * rate)

	if tokens >= 1 then
		tokens = tokens - 1
		redis.call('SET', tokens_key, tokens, 'EX', ttl)
		redis.call('SET', timestamp_key, now, 'EX', ttl)
		return {1, tokens, burst}
	end
	return {0, 0, burst}
`)

// RateLimiter limits requests per client IP with a Redis token bucket.
type RateLimiter struct {
	client redis.UniversalClient
	logger *zap.Logger
	config config.RateLimitConfig
	prefix string
	now    func() time.Time
}

// NewRateLimiter creates a rate limiter backed by client.
// The key prefix shares the store's Redis key prefix so several deployments
// can use one Redis instance.
func NewRateLimiter(
	ctx context.Context,
	cfg config.RateLimitConfig,
	keyPrefix string,
	client redis.UniversalClient,
	logger *zap.Logger,
) (*RateLimiter, error) {
	if client == nil {
		return nil, errors.New("redis client cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.RequestsPerSecond < 1 {
		return nil, fmt.Errorf("requests per second must be at least 1, got %d", cfg.RequestsPerSecond)
	}
	if cfg.Burst < cfg.RequestsPerSecond {
		cfg.Burst = cfg.RequestsPerSecond
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RateLimiter{
		client: client,
		logger: logger,
		config: cfg,
		prefix: keyPrefix + rateLimitKeyPrefix,
		now:    time.Now,
	}, nil
}

// Middleware returns a Gin middleware function for rate limiting.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.config.Enabled {
			c.Next()
			return
		}

		if !rl.checkLimit(c.Request.Context(), c, rl.prefix+c.ClientIP()) {
			return
		}

		c.Next()
	}
}

// bucketTTL keeps a bucket until it would have refilled completely.
func (rl *RateLimiter) bucketTTL() int {
	return rl.config.Burst/rl.config.RequestsPerSecond + 1
}

// checkLimit takes a token for key. Returns false after writing a 429.
// Redis failures let the request through.
func (rl *RateLimiter) checkLimit(ctx context.Context, c *gin.Context, key string) bool {
	now := rl.now().Unix()

	result, err := tokenBucketScript.Run(ctx, rl.client, []string{key},
		now, rl.config.RequestsPerSecond, rl.config.Burst, rl.bucketTTL()).Int64Slice()
	if err != nil {
		rl.logger.Error("rate limit check failed",
			zap.String("key", key),
			zap.Error(err),
		)
		return true
	}
	if len(result) < 3 {
		rl.logger.Error("invalid rate limit result format", zap.Int("length", len(result)))
		return true
	}

	allowed := result[0] == 1
	remaining := result[1]
	limit := result[2]

	c.Header("X-RateLimit-Limit", strconv.FormatInt(limit, 10))
	c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(now+1, 10))

	if allowed {
		return true
	}

	c.Header("Retry-After", "1")

	rl.logger.Warn("rate limit exceeded",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("client_ip", c.ClientIP()),
	)

	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"errors": []gin.H{{
			"message": "Rate limit exceeded.",
			"extensions": gin.H{
				"code": "RATE_LIMITED",
			},
		}},
	})
	return false
}
