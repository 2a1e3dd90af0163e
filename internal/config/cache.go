package config

import (
    "strings"
    "time"
)

// CacheConfig drives the Redis response cache.  Catalog reads use Prefix
// and TTL.  Availability and quote answers change with every booking, so
// they live under AvailabilityPrefix with a shorter TTL and are purged
// whenever a reservation changes.
type CacheConfig struct {
    Enabled      bool
    Methods      map[string]bool // upper-case HTTP methods eligible for caching
    TTL          time.Duration
    KeyStrategy  string // route, method_route, method_route_query or route_query
    Prefix       string
    MaxBodyBytes int

    AvailabilityTTL    time.Duration
    AvailabilityPrefix string
}

// LoadCacheConfig reads CACHE_* variables.
func LoadCacheConfig() CacheConfig {
    prefix := envStr("CACHE_PREFIX", "hotel:cache")
    c := CacheConfig{
        Enabled:            envBool("CACHE_ENABLED", true),
        Methods:            parseMethods(envStr("CACHE_METHODS", "GET")),
        TTL:                envDur("CACHE_TTL", 5*time.Minute),
        KeyStrategy:        envStr("CACHE_KEY_STRATEGY", "route_query"),
        Prefix:             prefix,
        MaxBodyBytes:       envInt("CACHE_MAX_BODY_BYTES", 1<<20),
        AvailabilityTTL:    envDur("CACHE_AVAILABILITY_TTL", 30*time.Second),
        AvailabilityPrefix: prefix + ":avail",
    }
    if c.AvailabilityTTL <= 0 || c.AvailabilityTTL > c.TTL {
        c.AvailabilityTTL = min(30*time.Second, c.TTL)
    }
    return c
}

// ForAvailability returns the variant used for availability and quote
// routes.
func (c CacheConfig) ForAvailability() CacheConfig {
    out := c
    out.TTL = c.AvailabilityTTL
    out.Prefix = c.AvailabilityPrefix
    return out
}

func parseMethods(s string) map[string]bool {
    m := map[string]bool{}
    for _, p := range strings.Split(s, ",") {
        if p = strings.ToUpper(strings.TrimSpace(p)); p != "" {
            m[p] = true
        }
    }
    return m
}
