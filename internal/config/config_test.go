package config

import (
    "os"
    "path/filepath"
    "testing"
    "time"

    "github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
    t.Helper()
    for k, v := range map[string]string{
        "APP_ENV": "test", "APP_PORT": "8080", "DB_USER": "app", "DB_HOST": "localhost",
        "DB_PORT": "3306", "DB_NAME": "hotel", "JWT_SECRET": "s", "ACCESS_TOKEN_TTL_MIN": "15",
        "REFRESH_TOKEN_TTL_DAYS": "7", "BCRYPT_COST": "4",
    } {
        t.Setenv(k, v)
    }
}

func TestLoadDefaults(t *testing.T) {
    setRequired(t)
    cfg := Load()
    require.Equal(t, "UTC", cfg.PropertyTZ)
    require.Equal(t, 5*time.Second, cfg.OpTimeout)
    require.Equal(t, "CONFIRMED", cfg.InitialStatus)
    require.False(t, cfg.RequireConfirmation())
    require.True(t, cfg.EventsEnabled)
    require.Equal(t, "reservation.events", cfg.EventsQueue)
    require.Equal(t, 15*time.Minute, cfg.AccessTTL())
    require.Equal(t, 7*24*time.Hour, cfg.RefreshTTL())
    require.Equal(t, time.UTC, cfg.Location())
    require.False(t, cfg.AutoMigrate)
    require.Empty(t, cfg.StaffEmail)
}

func TestLoadOverrides(t *testing.T) {
    setRequired(t)
    t.Setenv("PROPERTY_TZ", "UTC")
    t.Setenv("OP_TIMEOUT", "750ms")
    t.Setenv("RESERVATION_INITIAL_STATUS", "pending")
    t.Setenv("EVENTS_ENABLED", "off")
    t.Setenv("RABBITMQ_URL", "amqp://u:p@broker:5672/")
    cfg := Load()
    require.Equal(t, 750*time.Millisecond, cfg.OpTimeout)
    require.Equal(t, "PENDING", cfg.InitialStatus)
    require.True(t, cfg.RequireConfirmation())
    require.False(t, cfg.EventsEnabled)
    require.Equal(t, "amqp://u:p@broker:5672/", cfg.RabbitURL)
}

func TestLoadDotEnvKeepsExisting(t *testing.T) {
    dir := t.TempDir()
    path := filepath.Join(dir, "test.env")
    require.NoError(t, os.WriteFile(path, []byte("HOTEL_CFG_A=from-file\nHOTEL_CFG_B=from-file\n"), 0o600))
    t.Setenv("HOTEL_CFG_A", "from-env")
    t.Setenv("HOTEL_CFG_B", "")
    os.Unsetenv("HOTEL_CFG_B")

    LoadDotEnv(path, filepath.Join(dir, "missing.env"))
    require.Equal(t, "from-env", os.Getenv("HOTEL_CFG_A"))
    require.Equal(t, "from-file", os.Getenv("HOTEL_CFG_B"))
    os.Unsetenv("HOTEL_CFG_B")
}

func TestRateLimitConfigClamps(t *testing.T) {
    t.Setenv("RATE_LIMIT_CAPACITY", "0")
    t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
    t.Setenv("RATE_LIMIT_TTL", "1s")
    cfg := LoadRateLimitConfig()
    require.Equal(t, 1, cfg.Capacity)
    require.Equal(t, 10*time.Second, cfg.TTL)
}

func TestCacheConfig(t *testing.T) {
    t.Setenv("CACHE_METHODS", "get, head")
    t.Setenv("CACHE_TTL", "1m")
    cfg := LoadCacheConfig()
    require.True(t, cfg.Methods["GET"])
    require.True(t, cfg.Methods["HEAD"])
    require.Equal(t, time.Minute, cfg.TTL)

    avail := cfg.ForAvailability()
    require.Equal(t, "hotel:cache:avail", avail.Prefix)
    require.Equal(t, 30*time.Second, avail.TTL)

    t.Setenv("CACHE_TTL", "10s")
    require.Equal(t, 10*time.Second, LoadCacheConfig().AvailabilityTTL)
}

func TestRateLimitWriteBucket(t *testing.T) {
    t.Setenv("RATE_LIMIT_CAPACITY", "30")
    t.Setenv("RATE_LIMIT_WRITE_CAPACITY", "5")
    w := LoadRateLimitConfig().ForWrites()
    require.Equal(t, 5, w.Capacity)
    require.Equal(t, "hotel:rl:w", w.Prefix)
    require.Equal(t, "user_route", w.KeyStrategy)
}

func TestRedisOptions(t *testing.T) {
    t.Setenv("REDIS_ADDR", "cache.internal:6380")
    t.Setenv("REDIS_DB", "2")
    opts := RedisOptions()
    require.Equal(t, "cache.internal:6380", opts.Addr)
    require.Equal(t, 2, opts.DB)
    require.Nil(t, opts.TLSConfig)

    t.Setenv("REDIS_HOST", "redis")
    t.Setenv("REDIS_PORT", "6379")
    t.Setenv("REDIS_TLS", "true")
    opts = RedisOptions()
    require.Equal(t, "redis:6379", opts.Addr)
    require.NotNil(t, opts.TLSConfig)
    require.Equal(t, "redis", opts.TLSConfig.ServerName)
}
