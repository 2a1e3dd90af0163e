package reservation

import (
    "context"
    "time"

    "github.com/iliyamo/hotel-reservation/internal/model"
)

// Reader is the read side of the persistence gateway.  FindRoom and
// FindByID return (nil, nil) when the record does not exist.  excludeID
// of zero excludes nothing.
type Reader interface {
    FindRoom(ctx context.Context, roomID uint64) (*model.Room, error)
    FindByID(ctx context.Context, id uint64) (*model.Reservation, error)
    HasOverlap(ctx context.Context, roomID uint64, checkIn, checkOut time.Time, excludeID uint64) (bool, error)
}

// Tx is a unit of work against the store.  Reads through a Tx lock the
// rows they return until Commit or Rollback, so writers of the same room
// or reservation serialise.  Rollback after Commit is a no-op.
type Tx interface {
    Reader
    Insert(ctx context.Context, r *model.Reservation) (uint64, error)
    Update(ctx context.Context, r *model.Reservation) error
    Commit() error
    Rollback() error
}

// Gateway is the durable store for reservations and the room catalog.
type Gateway interface {
    Reader
    Begin(ctx context.Context) (Tx, error)
}
