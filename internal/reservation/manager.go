// Package reservation is the stay reservation engine: it checks room
// availability, prices stays and drives reservations through their
// lifecycle.  All durable state lives behind a Gateway; the Manager
// itself holds none and is safe for concurrent use.
package reservation

import (
    "context"
    "errors"
    "fmt"
    "log"
    "time"

    "github.com/iliyamo/hotel-reservation/internal/model"
)

// Guest count bounds for any reservation, independent of the room.
const (
    MinGuests = 1
    MaxGuests = 10
)

// transitions lists the allowed lifecycle moves.  Terminal states have
// no entry.
var transitions = map[model.Status][]model.Status{
    model.StatusPending:   {model.StatusConfirmed, model.StatusCancelled},
    model.StatusConfirmed: {model.StatusCheckedIn, model.StatusCancelled},
    model.StatusCheckedIn: {model.StatusCheckedOut, model.StatusCancelled},
}

// CanTransition reports whether a reservation may move from one status
// to another.
func CanTransition(from, to model.Status) bool {
    for _, s := range transitions[from] {
        if s == to {
            return true
        }
    }
    return false
}

// Options configures a Manager.  Zero values select the defaults noted
// on each field.
type Options struct {
    Clock         Clock          // SystemClock
    Location      *time.Location // property time zone used for "today"; UTC
    OpTimeout     time.Duration  // applied when ctx has no deadline; none
    Notifier      Notifier       // receives committed events; none
    Logger        *log.Logger    // log.Default()

    // RequireConfirmation makes Create store PENDING reservations that
    // staff must confirm.  By default they are stored CONFIRMED.
    RequireConfirmation bool
}

// Manager is the only writer of reservation state.
type Manager struct {
    gw       Gateway
    clock    Clock
    loc      *time.Location
    timeout  time.Duration
    initial  model.Status
    notifier Notifier
    logger   *log.Logger
}

// NewManager builds a Manager on top of gw.  It panics when gw is nil.
func NewManager(gw Gateway, opts Options) *Manager {
    if gw == nil {
        panic("nil gateway passed to NewManager")
    }
    m := &Manager{
        gw:       gw,
        clock:    opts.Clock,
        loc:      opts.Location,
        timeout:  opts.OpTimeout,
        initial:  model.StatusConfirmed,
        notifier: opts.Notifier,
        logger:   opts.Logger,
    }
    if m.clock == nil {
        m.clock = SystemClock
    }
    if m.loc == nil {
        m.loc = time.UTC
    }
    if opts.RequireConfirmation {
        m.initial = model.StatusPending
    }
    if m.logger == nil {
        m.logger = log.Default()
    }
    return m
}

// CreateInput carries a booking request.
type CreateInput struct {
    RoomID          uint64
    GuestID         uint64
    CheckIn         time.Time
    CheckOut        time.Time
    GuestCount      int
    SpecialRequests *string
}

// Create books a room for a guest.  Availability is checked once up front
// and again inside the insert transaction with the room row locked, so of
// two concurrent overlapping requests only one commits.
func (m *Manager) Create(ctx context.Context, in CreateInput) (*model.Reservation, error) {
    ctx, cancel := m.withTimeout(ctx)
    defer cancel()

    checkIn, checkOut := Date(in.CheckIn), Date(in.CheckOut)
    if err := m.validateRange(checkIn, checkOut); err != nil {
        return nil, err
    }
    room, err := m.gw.FindRoom(ctx, in.RoomID)
    if err != nil {
        return nil, classify(err)
    }
    if room == nil || !room.IsBookable {
        return nil, ErrRoomNotFound
    }
    if err := validateGuestCount(in.GuestCount); err != nil {
        return nil, err
    }
    if err := checkRoom(room, in.GuestCount); err != nil {
        return nil, err
    }
    ok, err := IsAvailable(ctx, m.gw, in.RoomID, checkIn, checkOut, 0)
    if err != nil {
        return nil, classify(err)
    }
    if !ok {
        return nil, ErrRoomUnavailable
    }

    res := &model.Reservation{
        RoomID:          in.RoomID,
        GuestID:         in.GuestID,
        CheckIn:         checkIn,
        CheckOut:        checkOut,
        GuestCount:      in.GuestCount,
        Status:          m.initial,
        SpecialRequests: in.SpecialRequests,
    }
    err = m.inTx(ctx, func(tx Tx) error {
        room, err := tx.FindRoom(ctx, in.RoomID)
        if err != nil {
            return err
        }
        if err := checkRoom(room, in.GuestCount); err != nil {
            return err
        }
        ok, err := IsAvailable(ctx, tx, in.RoomID, checkIn, checkOut, 0)
        if err != nil {
            return err
        }
        if !ok {
            return ErrRoomUnavailable
        }
        price, err := ComputePrice(room.NightlyPriceCents, checkIn, checkOut)
        if err != nil {
            return err
        }
        res.TotalPriceCents = price
        res.CreatedAt = m.clock.Now().UTC()
        id, err := tx.Insert(ctx, res)
        if err != nil {
            return err
        }
        res.ID = id
        return nil
    })
    if err != nil {
        return nil, err
    }
    m.emit(ctx, EventCreated, res, res.Status)
    return res, nil
}

// Reschedule moves a reservation to new dates.  Rescheduling to the
// current dates succeeds without touching the stored record.  A guest who
// has already checked in keeps the check-in date; only check-out may move.
func (m *Manager) Reschedule(ctx context.Context, id uint64, newCheckIn, newCheckOut time.Time) (*model.Reservation, error) {
    ctx, cancel := m.withTimeout(ctx)
    defer cancel()

    checkIn, checkOut := Date(newCheckIn), Date(newCheckOut)
    if !checkIn.Before(checkOut) {
        return nil, fmt.Errorf("%w: check-out must be after check-in", ErrInvalidDateRange)
    }
    current, err := m.load(ctx, m.gw, id)
    if err != nil {
        return nil, err
    }
    if err := m.checkReschedule(current, checkIn, checkOut); err != nil {
        return nil, err
    }
    if current.CheckIn.Equal(checkIn) && current.CheckOut.Equal(checkOut) {
        return current, nil
    }
    room, err := m.gw.FindRoom(ctx, current.RoomID)
    if err != nil {
        return nil, classify(err)
    }
    if err := checkRoom(room, current.GuestCount); err != nil {
        return nil, err
    }
    ok, err := IsAvailable(ctx, m.gw, current.RoomID, checkIn, checkOut, id)
    if err != nil {
        return nil, classify(err)
    }
    if !ok {
        return nil, ErrRoomUnavailable
    }

    var out *model.Reservation
    changed := true
    err = m.inTx(ctx, func(tx Tx) error {
        room, res, err := m.lockForWrite(ctx, tx, current.RoomID, id)
        if err != nil {
            return err
        }
        if err := m.checkReschedule(res, checkIn, checkOut); err != nil {
            return err
        }
        if res.CheckIn.Equal(checkIn) && res.CheckOut.Equal(checkOut) {
            out, changed = res, false
            return nil
        }
        if err := checkRoom(room, res.GuestCount); err != nil {
            return err
        }
        ok, err := IsAvailable(ctx, tx, res.RoomID, checkIn, checkOut, id)
        if err != nil {
            return err
        }
        if !ok {
            return ErrRoomUnavailable
        }
        price, err := ComputePrice(room.NightlyPriceCents, checkIn, checkOut)
        if err != nil {
            return err
        }
        res.CheckIn, res.CheckOut, res.TotalPriceCents = checkIn, checkOut, price
        m.touch(res)
        if err := tx.Update(ctx, res); err != nil {
            return err
        }
        out = res
        return nil
    })
    if err != nil {
        return nil, err
    }
    if changed {
        m.emit(ctx, EventRescheduled, out, out.Status)
    }
    return out, nil
}

// UpdateDetails changes the guest count and special requests of an
// active reservation.  The guest count is checked against the room
// capacity again.  A nil specialRequests clears the field.
func (m *Manager) UpdateDetails(ctx context.Context, id uint64, guestCount int, specialRequests *string) (*model.Reservation, error) {
    ctx, cancel := m.withTimeout(ctx)
    defer cancel()

    if err := validateGuestCount(guestCount); err != nil {
        return nil, err
    }
    current, err := m.load(ctx, m.gw, id)
    if err != nil {
        return nil, err
    }
    if current.Status.Terminal() {
        return nil, fmt.Errorf("%w: reservation is %s", ErrInvalidState, current.Status)
    }

    var out *model.Reservation
    err = m.inTx(ctx, func(tx Tx) error {
        room, res, err := m.lockForWrite(ctx, tx, current.RoomID, id)
        if err != nil {
            return err
        }
        if res.Status.Terminal() {
            return fmt.Errorf("%w: reservation is %s", ErrInvalidState, res.Status)
        }
        if room == nil {
            return ErrRoomNotFound
        }
        if guestCount > room.Capacity {
            return fmt.Errorf("%w: room capacity is %d guests", ErrCapacityExceeded, room.Capacity)
        }
        res.GuestCount = guestCount
        res.SpecialRequests = specialRequests
        m.touch(res)
        if err := tx.Update(ctx, res); err != nil {
            return err
        }
        out = res
        return nil
    })
    if err != nil {
        return nil, err
    }
    m.emit(ctx, EventUpdated, out, out.Status)
    return out, nil
}

// Confirm moves a pending reservation to confirmed.
func (m *Manager) Confirm(ctx context.Context, id uint64) (*model.Reservation, error) {
    return m.transition(ctx, id, model.StatusConfirmed, EventConfirmed)
}

// Cancel cancels a reservation that has not checked out.  Cancelling a
// cancelled reservation succeeds and changes nothing.
func (m *Manager) Cancel(ctx context.Context, id uint64) (*model.Reservation, error) {
    return m.transition(ctx, id, model.StatusCancelled, EventCancelled)
}

// CheckIn records the guest's arrival on a confirmed reservation.
func (m *Manager) CheckIn(ctx context.Context, id uint64) (*model.Reservation, error) {
    return m.transition(ctx, id, model.StatusCheckedIn, EventCheckedIn)
}

// CheckOut records the departure of a checked-in guest.
func (m *Manager) CheckOut(ctx context.Context, id uint64) (*model.Reservation, error) {
    return m.transition(ctx, id, model.StatusCheckedOut, EventCheckedOut)
}

// ComputePrice previews the cost of a stay.  It does not check
// availability or capacity.
func (m *Manager) ComputePrice(ctx context.Context, roomID uint64, checkIn, checkOut time.Time) (Quote, error) {
    ctx, cancel := m.withTimeout(ctx)
    defer cancel()

    room, err := m.gw.FindRoom(ctx, roomID)
    if err != nil {
        return Quote{}, classify(err)
    }
    if room == nil {
        return Quote{}, ErrRoomNotFound
    }
    total, err := ComputePrice(room.NightlyPriceCents, checkIn, checkOut)
    if err != nil {
        return Quote{}, err
    }
    return Quote{
        RoomID:            roomID,
        Nights:            Nights(checkIn, checkOut),
        NightlyPriceCents: room.NightlyPriceCents,
        TotalPriceCents:   total,
    }, nil
}

func (m *Manager) transition(ctx context.Context, id uint64, to model.Status, evType EventType) (*model.Reservation, error) {
    ctx, cancel := m.withTimeout(ctx)
    defer cancel()

    var out *model.Reservation
    var prev model.Status
    noop := false
    err := m.inTx(ctx, func(tx Tx) error {
        res, err := m.load(ctx, tx, id)
        if err != nil {
            return err
        }
        if to == model.StatusCancelled && res.Status == model.StatusCancelled {
            out, noop = res, true
            return nil
        }
        if !CanTransition(res.Status, to) {
            return fmt.Errorf("%w: cannot move from %s to %s", ErrInvalidState, res.Status, to)
        }
        prev = res.Status
        res.Status = to
        m.touch(res)
        if err := tx.Update(ctx, res); err != nil {
            return err
        }
        out = res
        return nil
    })
    if err != nil {
        return nil, err
    }
    if !noop {
        m.emit(ctx, evType, out, prev)
    }
    return out, nil
}

// lockForWrite locks the room row before the reservation row.  Create
// locks the room and then reads the room's reservations, so taking the
// locks in the same order keeps writers of one room from deadlocking.
func (m *Manager) lockForWrite(ctx context.Context, tx Tx, roomID, id uint64) (*model.Room, *model.Reservation, error) {
    room, err := tx.FindRoom(ctx, roomID)
    if err != nil {
        return nil, nil, err
    }
    res, err := m.load(ctx, tx, id)
    if err != nil {
        return nil, nil, err
    }
    if res.RoomID != roomID {
        return nil, nil, fmt.Errorf("%w: reservation %d moved rooms during update", ErrTransient, id)
    }
    return room, res, nil
}

func (m *Manager) load(ctx context.Context, r Reader, id uint64) (*model.Reservation, error) {
    res, err := r.FindByID(ctx, id)
    if err != nil {
        return nil, classify(err)
    }
    if res == nil {
        return nil, ErrNotFound
    }
    return res, nil
}

func (m *Manager) checkReschedule(res *model.Reservation, checkIn, checkOut time.Time) error {
    if res.Status.Terminal() {
        return fmt.Errorf("%w: reservation is %s", ErrInvalidState, res.Status)
    }
    if res.CheckIn.Equal(checkIn) && res.CheckOut.Equal(checkOut) {
        return nil
    }
    if res.Status != model.StatusCheckedIn {
        return m.validateRange(checkIn, checkOut)
    }
    // A guest in the room can only move the departure.
    if !res.CheckIn.Equal(checkIn) {
        return fmt.Errorf("%w: check-in date of a checked-in stay cannot change", ErrInvalidState)
    }
    if !checkOut.After(m.today()) {
        return fmt.Errorf("%w: check-out cannot be in the past", ErrInvalidDateRange)
    }
    return nil
}

func (m *Manager) validateRange(checkIn, checkOut time.Time) error {
    if !checkIn.Before(checkOut) {
        return fmt.Errorf("%w: check-out must be after check-in", ErrInvalidDateRange)
    }
    if checkIn.Before(m.today()) {
        return fmt.Errorf("%w: check-in cannot be in the past", ErrInvalidDateRange)
    }
    return nil
}

func (m *Manager) today() time.Time { return Date(m.clock.Now().In(m.loc)) }

func (m *Manager) touch(res *model.Reservation) {
    now := m.clock.Now().UTC()
    res.UpdatedAt = &now
}

func validateGuestCount(n int) error {
    if n < MinGuests || n > MaxGuests {
        return fmt.Errorf("%w: must be between %d and %d", ErrInvalidGuestCount, MinGuests, MaxGuests)
    }
    return nil
}

func checkRoom(room *model.Room, guests int) error {
    if room == nil || !room.IsBookable {
        return ErrRoomNotFound
    }
    if guests > room.Capacity {
        return fmt.Errorf("%w: room capacity is %d guests", ErrCapacityExceeded, room.Capacity)
    }
    return nil
}

// inTx runs fn in a transaction and commits when fn succeeds.  Any error,
// or a context cancelled before commit, rolls the transaction back.
func (m *Manager) inTx(ctx context.Context, fn func(tx Tx) error) error {
    tx, err := m.gw.Begin(ctx)
    if err != nil {
        return classify(err)
    }
    committed := false
    defer func() {
        if !committed {
            if rbErr := tx.Rollback(); rbErr != nil {
                m.logger.Printf("reservation: rollback failed: %v", rbErr)
            }
        }
    }()
    if err := fn(tx); err != nil {
        return classify(err)
    }
    if err := ctx.Err(); err != nil {
        return classify(err)
    }
    if err := tx.Commit(); err != nil {
        return classify(err)
    }
    committed = true
    return nil
}

// classify maps gateway failures onto the error taxonomy.  Domain errors
// pass through untouched.
func classify(err error) error {
    switch {
    case err == nil:
        return nil
    case errors.Is(err, ErrRoomUnavailable), errors.Is(err, ErrRetryable):
        return err
    case errors.Is(err, ErrWriteConflict):
        return fmt.Errorf("%w: %w", ErrRoomUnavailable, err)
    case errors.Is(err, ErrTransient), errors.Is(err, context.DeadlineExceeded):
        return fmt.Errorf("%w: %w", ErrRetryable, err)
    }
    return err
}

func (m *Manager) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
    if m.timeout <= 0 {
        return ctx, func() {}
    }
    if _, ok := ctx.Deadline(); ok {
        return ctx, func() {}
    }
    return context.WithTimeout(ctx, m.timeout)
}

// emit hands a committed change to the notifier on a context detached
// from the request's cancellation.
func (m *Manager) emit(ctx context.Context, t EventType, res *model.Reservation, prev model.Status) {
    if m.notifier == nil {
        return
    }
    ev := Event{Type: t, Reservation: *res, PreviousStatus: prev, OccurredAt: m.clock.Now().UTC()}
    nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
    defer cancel()
    if err := m.notifier.Notify(nctx, ev); err != nil {
        m.logger.Printf("reservation: notify %s for reservation %d failed: %v", t, res.ID, err)
    }
}
