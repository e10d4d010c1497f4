package middleware

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"event-marketplace/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var tokenBucketScript = redis.NewScript(`
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

	redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
	redis.call('EXPIRE', key, ttl_seconds)

	return { allowed, tokens, retry_after_ms }
`)

// RateLimit is a Redis token bucket keyed by client IP, user and route. It
// passes every request through when disabled, when rdb is nil, or when Redis
// errors.
func RateLimit(cfg utils.RateLimitConfig, rdb redis.Scripter, logger *zap.Logger) func(http.Handler) http.Handler {
	if !cfg.Enabled || rdb == nil {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := rateKey(cfg.Prefix, r)

			vals, err := tokenBucketScript.Run(r.Context(), rdb, []string{key},
				time.Now().UnixMilli(),
				cfg.Capacity,
				cfg.RefillTokens,
				cfg.RefillInterval.Milliseconds(),
				int64(cfg.TTL/time.Second),
			).Int64Slice()
			if err != nil || len(vals) != 3 {
				logger.Warn("Rate limiter unavailable", zap.Error(err), zap.String("key", key))
				next.ServeHTTP(w, r)
				return
			}

			allowed, remaining, retryMs := vals[0] == 1, vals[1], vals[2]

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if !allowed {
				secs := int(math.Ceil(float64(retryMs) / 1000.0))
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				logger.Info("Rate limit exceeded", zap.String("key", key), zap.Int64("retry_after_ms", retryMs))
				utils.ResponseTooManyRequests(w, fmt.Sprintf("Rate limit exceeded, retry in %d seconds", secs))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func rateKey(prefix string, r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil || ip == "" {
		ip = r.RemoteAddr
	}
	if ip == "" {
		ip = "unknown"
	}

	user := "anon"
	if userID, ok := utils.GetUserIDFromContext(r.Context()); ok {
		user = userID.String()
	}

	route := r.URL.Path
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			route = pattern
		}
	}

	return strings.Join([]string{prefix, "ip", ip, "user", user, "route", r.Method + " " + route}, ":")
}
