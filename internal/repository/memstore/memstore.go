// Package memstore is an in-process reservation store.  It implements
// the reservation gateway with one open write transaction at a time, so
// the engine's concurrency guarantees can be exercised without MySQL.
package memstore

import (
    "context"
    "fmt"
    "sort"
    "strings"
    "sync"
    "time"

    "github.com/iliyamo/hotel-reservation/internal/model"
    "github.com/iliyamo/hotel-reservation/internal/reservation"
)

// Store holds rooms and reservations in memory.  The zero value is not
// usable; call New.
type Store struct {
    mu           sync.RWMutex
    rooms        map[uint64]model.Room
    reservations map[uint64]model.Reservation
    nextID       uint64

    // writer is a one-slot semaphore held by the open transaction.
    writer chan struct{}
}

// New returns a store seeded with the given room catalog.
func New(rooms ...model.Room) *Store {
    s := &Store{
        rooms:        make(map[uint64]model.Room, len(rooms)),
        reservations: make(map[uint64]model.Reservation),
        writer:       make(chan struct{}, 1),
    }
    for _, r := range rooms {
        s.rooms[r.ID] = r
    }
    return s
}

// PutRoom adds or replaces a catalog entry.
func (s *Store) PutRoom(r model.Room) {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.rooms[r.ID] = r
}

// FindRoom implements reservation.Reader.
func (s *Store) FindRoom(ctx context.Context, roomID uint64) (*model.Room, error) {
    if err := ctx.Err(); err != nil {
        return nil, err
    }
    s.mu.RLock()
    defer s.mu.RUnlock()
    r, ok := s.rooms[roomID]
    if !ok {
        return nil, nil
    }
    return &r, nil
}

// FindByID implements reservation.Reader.
func (s *Store) FindByID(ctx context.Context, id uint64) (*model.Reservation, error) {
    if err := ctx.Err(); err != nil {
        return nil, err
    }
    s.mu.RLock()
    defer s.mu.RUnlock()
    r, ok := s.reservations[id]
    if !ok {
        return nil, nil
    }
    return &r, nil
}

// HasOverlap implements reservation.Reader.
func (s *Store) HasOverlap(ctx context.Context, roomID uint64, checkIn, checkOut time.Time, excludeID uint64) (bool, error) {
    if err := ctx.Err(); err != nil {
        return false, err
    }
    s.mu.RLock()
    defer s.mu.RUnlock()
    return overlapIn(s.reservations, nil, roomID, checkIn, checkOut, excludeID), nil
}

// Begin implements reservation.Gateway.  It waits for the running
// transaction to finish; a context that ends first yields ErrTransient.
func (s *Store) Begin(ctx context.Context) (reservation.Tx, error) {
    select {
    case s.writer <- struct{}{}:
    case <-ctx.Done():
        return nil, fmt.Errorf("memstore: begin: %w: %w", reservation.ErrTransient, ctx.Err())
    }
    return &tx{s: s, staged: make(map[uint64]model.Reservation)}, nil
}

// GetByID returns the reservation or nil when it does not exist.
func (s *Store) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
    return s.FindByID(ctx, id)
}

// ListByGuest returns the guest's reservations, newest first.
func (s *Store) ListByGuest(ctx context.Context, guestID uint64) ([]model.Reservation, error) {
    out := s.filter(func(r model.Reservation) bool { return r.GuestID == guestID })
    sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
    return out, ctx.Err()
}

// ListByRoom returns the room's reservations, latest check-in first.
func (s *Store) ListByRoom(ctx context.Context, roomID uint64) ([]model.Reservation, error) {
    out := s.filter(func(r model.Reservation) bool { return r.RoomID == roomID })
    sort.Slice(out, func(i, j int) bool { return out[i].CheckIn.After(out[j].CheckIn) })
    return out, ctx.Err()
}

// ListByDateRange returns reservations touching [from, to], earliest
// check-in first.
func (s *Store) ListByDateRange(ctx context.Context, from, to time.Time) ([]model.Reservation, error) {
    out := s.filter(func(r model.Reservation) bool {
        return !r.CheckIn.After(to) && !r.CheckOut.Before(from)
    })
    sortByCheckIn(out)
    return out, ctx.Err()
}

// ListUpcoming returns active reservations arriving on or after today.
func (s *Store) ListUpcoming(ctx context.Context, today time.Time) ([]model.Reservation, error) {
    out := s.filter(func(r model.Reservation) bool {
        return r.Status != model.StatusCancelled && !r.CheckIn.Before(today)
    })
    sortByCheckIn(out)
    return out, ctx.Err()
}

// Catalog is the read-only room catalog view of a Store.
type Catalog struct{ s *Store }

// Rooms returns the store's room catalog.
func (s *Store) Rooms() Catalog { return Catalog{s: s} }

// GetByID returns the room or nil when it does not exist.
func (c Catalog) GetByID(ctx context.Context, id uint64) (*model.Room, error) {
    return c.s.FindRoom(ctx, id)
}

// List returns the catalog ordered by room number.
func (c Catalog) List(ctx context.Context) ([]model.Room, error) {
    s := c.s
    s.mu.RLock()
    out := make([]model.Room, 0, len(s.rooms))
    for _, r := range s.rooms {
        out = append(out, r)
    }
    s.mu.RUnlock()
    sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
    return out, ctx.Err()
}

// SearchAvailable returns bookable rooms matching f with no active
// reservation overlapping the requested dates.
func (c Catalog) SearchAvailable(ctx context.Context, f model.RoomFilter) ([]model.Room, error) {
    s := c.s
    rooms, err := c.List(ctx)
    if err != nil {
        return nil, err
    }
    s.mu.RLock()
    defer s.mu.RUnlock()
    out := make([]model.Room, 0, len(rooms))
    for _, r := range rooms {
        if !r.IsBookable || r.Capacity < f.MinCapacity {
            continue
        }
        if f.MaxPriceCents > 0 && r.NightlyPriceCents > f.MaxPriceCents {
            continue
        }
        if f.Type != "" && !strings.EqualFold(r.Type, f.Type) {
            continue
        }
        if overlapIn(s.reservations, nil, r.ID, f.CheckIn, f.CheckOut, 0) {
            continue
        }
        out = append(out, r)
    }
    return out, nil
}

func (s *Store) filter(keep func(model.Reservation) bool) []model.Reservation {
    s.mu.RLock()
    defer s.mu.RUnlock()
    out := make([]model.Reservation, 0)
    for _, r := range s.reservations {
        if keep(r) {
            out = append(out, r)
        }
    }
    return out
}

func sortByCheckIn(rs []model.Reservation) {
    sort.Slice(rs, func(i, j int) bool {
        if rs[i].CheckIn.Equal(rs[j].CheckIn) {
            return rs[i].ID < rs[j].ID
        }
        return rs[i].CheckIn.Before(rs[j].CheckIn)
    })
}

// overlapIn scans committed rows, with staged rows taking precedence.
func overlapIn(committed, staged map[uint64]model.Reservation, roomID uint64, checkIn, checkOut time.Time, excludeID uint64) bool {
    seen := func(r model.Reservation) bool {
        return r.ID != excludeID &&
            r.RoomID == roomID &&
            r.Status != model.StatusCancelled &&
            reservation.Overlaps(r.CheckIn, r.CheckOut, checkIn, checkOut)
    }
    for id, r := range committed {
        if _, ok := staged[id]; ok {
            continue
        }
        if seen(r) {
            return true
        }
    }
    for _, r := range staged {
        if seen(r) {
            return true
        }
    }
    return false
}

// tx buffers writes until Commit.
type tx struct {
    s      *Store
    staged map[uint64]model.Reservation
    done   bool
}

func (t *tx) FindRoom(ctx context.Context, roomID uint64) (*model.Room, error) {
    if err := t.check(ctx); err != nil {
        return nil, err
    }
    return t.s.FindRoom(ctx, roomID)
}

func (t *tx) FindByID(ctx context.Context, id uint64) (*model.Reservation, error) {
    if err := t.check(ctx); err != nil {
        return nil, err
    }
    if r, ok := t.staged[id]; ok {
        return &r, nil
    }
    return t.s.FindByID(ctx, id)
}

func (t *tx) HasOverlap(ctx context.Context, roomID uint64, checkIn, checkOut time.Time, excludeID uint64) (bool, error) {
    if err := t.check(ctx); err != nil {
        return false, err
    }
    t.s.mu.RLock()
    defer t.s.mu.RUnlock()
    return overlapIn(t.s.reservations, t.staged, roomID, checkIn, checkOut, excludeID), nil
}

// Insert rejects a row overlapping an active one with ErrWriteConflict,
// mirroring an exclusion constraint.
func (t *tx) Insert(ctx context.Context, r *model.Reservation) (uint64, error) {
    if err := t.check(ctx); err != nil {
        return 0, err
    }
    t.s.mu.Lock()
    defer t.s.mu.Unlock()
    if r.Status != model.StatusCancelled && overlapIn(t.s.reservations, t.staged, r.RoomID, r.CheckIn, r.CheckOut, 0) {
        return 0, reservation.ErrWriteConflict
    }
    t.s.nextID++
    row := *r
    row.ID = t.s.nextID
    t.staged[row.ID] = row
    return row.ID, nil
}

func (t *tx) Update(ctx context.Context, r *model.Reservation) error {
    if err := t.check(ctx); err != nil {
        return err
    }
    t.s.mu.RLock()
    _, exists := t.s.reservations[r.ID]
    conflict := r.Status != model.StatusCancelled &&
        overlapIn(t.s.reservations, t.staged, r.RoomID, r.CheckIn, r.CheckOut, r.ID)
    t.s.mu.RUnlock()
    if _, ok := t.staged[r.ID]; !ok && !exists {
        return fmt.Errorf("memstore: update: reservation %d does not exist", r.ID)
    }
    if conflict {
        return reservation.ErrWriteConflict
    }
    t.staged[r.ID] = *r
    return nil
}

func (t *tx) Commit() error {
    if t.done {
        return fmt.Errorf("memstore: transaction already finished")
    }
    t.s.mu.Lock()
    for id, r := range t.staged {
        t.s.reservations[id] = r
    }
    t.s.mu.Unlock()
    t.finish()
    return nil
}

func (t *tx) Rollback() error {
    if t.done {
        return nil
    }
    t.finish()
    return nil
}

func (t *tx) finish() {
    t.done = true
    t.staged = nil
    <-t.s.writer
}

func (t *tx) check(ctx context.Context) error {
    if t.done {
        return fmt.Errorf("memstore: transaction already finished")
    }
    return ctx.Err()
}
