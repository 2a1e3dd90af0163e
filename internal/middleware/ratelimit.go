package middleware

import (
    "context"
    "fmt"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/hotel-reservation/internal/config"
)

// bucketScript refills the bucket in whole intervals, takes one token
// when available and returns {allowed, remaining, retry_after_ms}.
var bucketScript = redis.NewScript(`
    local key = KEYS[1]
    local now_ms = tonumber(ARGV[1])
    local capacity = tonumber(ARGV[2])
    local refill = tonumber(ARGV[3])
    local interval_ms = tonumber(ARGV[4])
    local ttl = tonumber(ARGV[5])

    local state = redis.call('HMGET', key, 'tokens', 'last_ms')
    local tokens = tonumber(state[1]) or capacity
    local last = tonumber(state[2]) or now_ms

    local steps = math.floor(math.max(0, now_ms - last) / interval_ms)
    if steps > 0 then
        tokens = math.min(capacity, tokens + steps * refill)
        last = last + steps * interval_ms
    end

    local allowed, wait = 0, 0
    if tokens > 0 then
        allowed = 1
        tokens = tokens - 1
    else
        wait = math.max(0, interval_ms - (now_ms - last))
    end

    redis.call('HSET', key, 'tokens', tokens, 'last_ms', last)
    redis.call('EXPIRE', key, ttl)
    return { allowed, tokens, wait }
`)

// Decision is the outcome of one draw from a bucket.
type Decision struct {
    Allowed    bool
    Remaining  int64
    RetryAfter time.Duration
}

// Limiter draws tokens from per-key buckets kept in Redis.
type Limiter struct {
    cfg config.RateLimitConfig
    rdb *redis.Client
    now func() time.Time
}

// NewLimiter returns a limiter for cfg backed by rdb.
func NewLimiter(cfg config.RateLimitConfig, rdb *redis.Client) *Limiter {
    return &Limiter{cfg: cfg, rdb: rdb, now: time.Now}
}

// Take draws one token from the bucket stored under key.
func (l *Limiter) Take(ctx context.Context, key string) (Decision, error) {
    vals, err := bucketScript.Run(ctx, l.rdb, []string{key},
        l.now().UnixMilli(),
        l.cfg.Capacity,
        l.cfg.RefillTokens,
        l.cfg.RefillInterval.Milliseconds(),
        int64(l.cfg.TTL/time.Second),
    ).Int64Slice()
    if err != nil {
        return Decision{}, err
    }
    return parseDecision(vals)
}

func parseDecision(vals []int64) (Decision, error) {
    if len(vals) != 3 {
        return Decision{}, fmt.Errorf("ratelimit: unexpected script result %v", vals)
    }
    return Decision{
        Allowed:    vals[0] == 1,
        Remaining:  vals[1],
        RetryAfter: time.Duration(vals[2]) * time.Millisecond,
    }, nil
}

// NewTokenBucket limits requests per key (see buildRateKey).  Without
// Redis, or when the script fails, requests pass through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    lim := NewLimiter(cfg, rdb)

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := buildRateKey(cfg, c)
            d, err := lim.Take(c.Request().Context(), key)
            if err != nil {
                if cfg.Debug {
                    c.Logger().Warnf("ratelimit: key=%s: %v", key, err)
                }
                return next(c)
            }

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining, 10))
            if d.Allowed {
                return next(c)
            }
            secs := retrySeconds(d.RetryAfter)
            h.Set("Retry-After", strconv.Itoa(secs))
            if cfg.Debug {
                c.Logger().Infof("ratelimit: blocked key=%s retry=%s", key, d.RetryAfter)
            }
            return c.JSON(http.StatusTooManyRequests, echo.Map{
                "error":       "rate limit exceeded",
                "retry_after": secs,
            })
        }
    }
}

// retrySeconds rounds up to whole seconds, never below one.
func retrySeconds(d time.Duration) int {
    secs := int((d + time.Second - 1) / time.Second)
    if secs < 1 {
        return 1
    }
    return secs
}

// buildRateKey joins the configured identity parts under cfg.Prefix.
// Strategies combine ip, user and route; unknown ones use all three.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    parts := map[string]string{
        "ip":    ip,
        "user":  currentUserID(c),
        "route": c.Request().Method + " " + c.Path(),
    }
    var order []string
    switch strings.ToLower(cfg.KeyStrategy) {
    case "ip", "user", "route":
        order = []string{strings.ToLower(cfg.KeyStrategy)}
    case "ip_user":
        order = []string{"ip", "user"}
    case "ip_route":
        order = []string{"ip", "route"}
    case "user_route":
        order = []string{"user", "route"}
    default:
        order = []string{"ip", "user", "route"}
    }
    key := []string{cfg.Prefix}
    for _, name := range order {
        key = append(key, name, parts[name])
    }
    return strings.Join(key, ":")
}
