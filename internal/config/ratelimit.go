package config

import (
    "os"
    "strconv"
    "strings"
    "time"
)

// RateLimitConfig drives the Redis token bucket.  Every request draws
// from a bucket of Capacity tokens; reservation writes also draw from a
// smaller bucket of WriteCapacity tokens (see ForWrites).
type RateLimitConfig struct {
    Enabled        bool
    Capacity       int
    RefillTokens   int
    RefillInterval time.Duration
    TTL            time.Duration
    KeyStrategy    string // ip, user, route or a combination such as user_route
    Prefix         string
    Debug          bool
    WriteCapacity  int
}

// LoadRateLimitConfig reads RATE_LIMIT_* variables and clamps them to
// usable values.
func LoadRateLimitConfig() RateLimitConfig {
    c := RateLimitConfig{
        Enabled:        envBool("RATE_LIMIT_ENABLED", true),
        Capacity:       envInt("RATE_LIMIT_CAPACITY", 60),
        RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
        RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
        TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
        KeyStrategy:    envStr("RATE_LIMIT_KEY_STRATEGY", "ip_user_route"),
        Prefix:         envStr("RATE_LIMIT_PREFIX", "hotel:rl"),
        Debug:          envBool("RATE_LIMIT_DEBUG", false),
        WriteCapacity:  envInt("RATE_LIMIT_WRITE_CAPACITY", 10),
    }
    c.Capacity = max(c.Capacity, 1)
    c.RefillTokens = max(c.RefillTokens, 1)
    if c.RefillInterval <= 0 {
        c.RefillInterval = time.Second
    }
    if c.WriteCapacity < 1 || c.WriteCapacity > c.Capacity {
        c.WriteCapacity = c.Capacity
    }
    // An idle bucket must outlive a few refill steps or it resets early.
    c.TTL = max(c.TTL, 5*c.RefillInterval)
    return c
}

// ForWrites returns the bucket applied to reservation writes.  It is
// keyed per user so one guest cannot exhaust another's allowance.
func (c RateLimitConfig) ForWrites() RateLimitConfig {
    out := c
    out.Capacity = c.WriteCapacity
    out.Prefix = c.Prefix + ":w"
    out.KeyStrategy = "user_route"
    return out
}

func envStr(k, d string) string {
    if v := strings.TrimSpace(os.Getenv(k)); v != "" {
        return v
    }
    return d
}

func envBool(k string, d bool) bool {
    switch strings.ToLower(strings.TrimSpace(os.Getenv(k))) {
    case "1", "true", "yes", "on":
        return true
    case "0", "false", "no", "off":
        return false
    }
    return d
}

func envInt(k string, d int) int {
    if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(k))); err == nil {
        return n
    }
    return d
}

func envDur(k string, d time.Duration) time.Duration {
    if v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(k))); err == nil {
        return v
    }
    return d
}
