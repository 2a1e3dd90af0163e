package service

import (
    "context"

    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/hotel-reservation/internal/middleware"
    "github.com/iliyamo/hotel-reservation/internal/reservation"
)

// CachePurger drops cached availability answers whenever a reservation
// changes.  A nil client makes it a no-op.
type CachePurger struct {
    Redis  *redis.Client
    Prefix string
}

func (p CachePurger) Notify(ctx context.Context, _ reservation.Event) error {
    if p.Redis == nil {
        return nil
    }
    _, err := middleware.PurgeCache(ctx, p.Redis, p.Prefix)
    return err
}
