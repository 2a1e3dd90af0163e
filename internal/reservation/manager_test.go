package reservation_test

import (
    "context"
    "errors"
    "math/rand"
    "sync"
    "testing"
    "time"

    "github.com/stretchr/testify/require"

    "github.com/iliyamo/hotel-reservation/internal/model"
    "github.com/iliyamo/hotel-reservation/internal/repository/memstore"
    "github.com/iliyamo/hotel-reservation/internal/reservation"
)

var now = time.Date(2025, 2, 20, 10, 0, 0, 0, time.UTC)

func date(t *testing.T, s string) time.Time {
    t.Helper()
    v, err := reservation.ParseDate(s)
    require.NoError(t, err)
    return v
}

func testRooms() []model.Room {
    return []model.Room{
        {ID: 1, Number: "101", Type: "DOUBLE", Capacity: 2, NightlyPriceCents: 100, IsBookable: true},
        {ID: 2, Number: "102", Type: "SUITE", Capacity: 4, NightlyPriceCents: 25000, IsBookable: true},
        {ID: 3, Number: "103", Type: "SINGLE", Capacity: 1, NightlyPriceCents: 9000, IsBookable: false},
    }
}

func newManager(t *testing.T, gw reservation.Gateway, opts reservation.Options) *reservation.Manager {
    t.Helper()
    if opts.Clock == nil {
        opts.Clock = reservation.ClockFunc(func() time.Time { return now })
    }
    return reservation.NewManager(gw, opts)
}

func book(t *testing.T, m *reservation.Manager, roomID uint64, in, out string, guests int) (*model.Reservation, error) {
    t.Helper()
    return m.Create(context.Background(), reservation.CreateInput{
        RoomID:     roomID,
        GuestID:    500,
        CheckIn:    date(t, in),
        CheckOut:   date(t, out),
        GuestCount: guests,
    })
}

func TestCreate_Success(t *testing.T) {
    store := memstore.New(testRooms()...)
    m := newManager(t, store, reservation.Options{})

    note := "late arrival"
    res, err := m.Create(context.Background(), reservation.CreateInput{
        RoomID: 1, GuestID: 9, CheckIn: date(t, "2025-03-01"), CheckOut: date(t, "2025-03-04"),
        GuestCount: 2, SpecialRequests: &note,
    })
    require.NoError(t, err)
    require.NotZero(t, res.ID)
    require.Equal(t, int64(300), res.TotalPriceCents)
    require.Equal(t, model.StatusConfirmed, res.Status)
    require.Equal(t, now, res.CreatedAt)

    stored, err := store.FindByID(context.Background(), res.ID)
    require.NoError(t, err)
    require.Equal(t, *res, *stored)
}

func TestCreate_DefaultsToConfirmed(t *testing.T) {
    ctx := context.Background()
    m := newManager(t, memstore.New(testRooms()...), reservation.Options{})
    res, err := book(t, m, 1, "2025-02-20", "2025-02-22", 1)
    require.NoError(t, err)
    require.Equal(t, model.StatusConfirmed, res.Status)

    res, err = m.CheckIn(ctx, res.ID)
    require.NoError(t, err)
    require.Equal(t, model.StatusCheckedIn, res.Status)
}

func TestCreate_RequireConfirmation(t *testing.T) {
    m := newManager(t, memstore.New(testRooms()...), reservation.Options{RequireConfirmation: true})
    res, err := book(t, m, 1, "2025-03-01", "2025-03-02", 1)
    require.NoError(t, err)
    require.Equal(t, model.StatusPending, res.Status)

    res, err = m.Confirm(context.Background(), res.ID)
    require.NoError(t, err)
    require.Equal(t, model.StatusConfirmed, res.Status)
}

func TestCreate_Validation(t *testing.T) {
    m := newManager(t, memstore.New(testRooms()...), reservation.Options{})
    cases := []struct {
        name    string
        room    uint64
        in, out string
        guests  int
        want    error
    }{
        {"check-out before check-in", 1, "2025-03-05", "2025-03-01", 1, reservation.ErrInvalidDateRange},
        {"zero nights", 1, "2025-03-05", "2025-03-05", 1, reservation.ErrInvalidDateRange},
        {"check-in in the past", 1, "2025-02-19", "2025-02-22", 1, reservation.ErrInvalidDateRange},
        {"no guests", 1, "2025-03-01", "2025-03-02", 0, reservation.ErrInvalidGuestCount},
        {"too many guests", 2, "2025-03-01", "2025-03-02", 11, reservation.ErrInvalidGuestCount},
        {"unknown room", 99, "2025-03-01", "2025-03-02", 1, reservation.ErrRoomNotFound},
        {"unknown room with too many guests", 99, "2025-03-01", "2025-03-02", 11, reservation.ErrRoomNotFound},
        {"room not bookable", 3, "2025-03-01", "2025-03-02", 1, reservation.ErrRoomNotFound},
        {"capacity exceeded", 1, "2025-03-01", "2025-03-02", 3, reservation.ErrCapacityExceeded},
    }
    for _, c := range cases {
        t.Run(c.name, func(t *testing.T) {
            res, err := book(t, m, c.room, c.in, c.out, c.guests)
            require.ErrorIs(t, err, c.want)
            require.Nil(t, res)
        })
    }
}

func TestCreate_CheckInTodayAllowed(t *testing.T) {
    m := newManager(t, memstore.New(testRooms()...), reservation.Options{})
    _, err := book(t, m, 1, "2025-02-20", "2025-02-21", 1)
    require.NoError(t, err)
}

func TestCreate_TodayFollowsPropertyTimeZone(t *testing.T) {
    tokyo := time.FixedZone("JST", 9*3600)
    // 20:00 UTC on Feb 20 is already Feb 21 at the property.
    clock := reservation.ClockFunc(func() time.Time { return time.Date(2025, 2, 20, 20, 0, 0, 0, time.UTC) })
    m := newManager(t, memstore.New(testRooms()...), reservation.Options{Clock: clock, Location: tokyo})
    _, err := book(t, m, 1, "2025-02-20", "2025-02-22", 1)
    require.ErrorIs(t, err, reservation.ErrInvalidDateRange)
    _, err = book(t, m, 1, "2025-02-21", "2025-02-22", 1)
    require.NoError(t, err)
}

func TestCreate_CapacityRejectionLeavesNoReservation(t *testing.T) {
    store := memstore.New(testRooms()...)
    m := newManager(t, store, reservation.Options{})
    _, err := book(t, m, 1, "2025-03-01", "2025-03-04", 3)
    require.ErrorIs(t, err, reservation.ErrCapacityExceeded)

    list, err := store.ListByRoom(context.Background(), 1)
    require.NoError(t, err)
    require.Empty(t, list)
}

func TestCreate_SameDayTurnover(t *testing.T) {
    m := newManager(t, memstore.New(testRooms()...), reservation.Options{})
    _, err := book(t, m, 1, "2025-03-01", "2025-03-05", 1)
    require.NoError(t, err)
    _, err = book(t, m, 1, "2025-03-05", "2025-03-08", 1)
    require.NoError(t, err)
    _, err = book(t, m, 1, "2025-02-27", "2025-03-01", 1)
    require.NoError(t, err)
}

func TestCreate_OverlapRejected(t *testing.T) {
    m := newManager(t, memstore.New(testRooms()...), reservation.Options{})
    _, err := book(t, m, 1, "2025-03-01", "2025-03-05", 1)
    require.NoError(t, err)
    _, err = book(t, m, 1, "2025-03-03", "2025-03-06", 1)
    require.ErrorIs(t, err, reservation.ErrRoomUnavailable)

    // Other rooms are unaffected.
    _, err = book(t, m, 2, "2025-03-03", "2025-03-06", 1)
    require.NoError(t, err)
}

func TestCreate_CancelledStayFreesDates(t *testing.T) {
    m := newManager(t, memstore.New(testRooms()...), reservation.Options{})
    first, err := book(t, m, 1, "2025-03-01", "2025-03-05", 1)
    require.NoError(t, err)
    _, err = m.Cancel(context.Background(), first.ID)
    require.NoError(t, err)
    _, err = book(t, m, 1, "2025-03-02", "2025-03-04", 1)
    require.NoError(t, err)
}

func TestCreate_Concurrent(t *testing.T) {
    store := memstore.New(testRooms()...)
    m := newManager(t, store, reservation.Options{})

    const workers = 16
    var wg sync.WaitGroup
    errs := make([]error, workers)
    start := make(chan struct{})
    for i := 0; i < workers; i++ {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            <-start
            in, out := "2025-03-01", "2025-03-05"
            if i%2 == 1 {
                in, out = "2025-03-03", "2025-03-06"
            }
            _, errs[i] = m.Create(context.Background(), reservation.CreateInput{
                RoomID: 1, GuestID: uint64(i + 1), CheckIn: date(t, in), CheckOut: date(t, out), GuestCount: 1,
            })
        }(i)
    }
    close(start)
    wg.Wait()

    ok := 0
    for _, err := range errs {
        if err == nil {
            ok++
            continue
        }
        require.ErrorIs(t, err, reservation.ErrRoomUnavailable)
    }
    require.Equal(t, 1, ok)
    list, err := store.ListByRoom(context.Background(), 1)
    require.NoError(t, err)
    require.Len(t, list, 1)
}

func TestReschedule(t *testing.T) {
    ctx := context.Background()
    m := newManager(t, memstore.New(testRooms()...), reservation.Options{})
    res, err := book(t, m, 1, "2025-03-01", "2025-03-04", 1)
    require.NoError(t, err)
    other, err := book(t, m, 1, "2025-03-10", "2025-03-12", 1)
    require.NoError(t, err)

    t.Run("same dates is a no-op", func(t *testing.T) {
        got, err := m.Reschedule(ctx, res.ID, date(t, "2025-03-01"), date(t, "2025-03-04"))
        require.NoError(t, err)
        require.Equal(t, int64(300), got.TotalPriceCents)
        require.Equal(t, model.StatusConfirmed, got.Status)
        require.Nil(t, got.UpdatedAt)
    })
    t.Run("overlapping itself is allowed", func(t *testing.T) {
        got, err := m.Reschedule(ctx, res.ID, date(t, "2025-03-02"), date(t, "2025-03-07"))
        require.NoError(t, err)
        require.Equal(t, int64(500), got.TotalPriceCents)
        require.NotNil(t, got.UpdatedAt)
    })
    t.Run("conflict with another stay", func(t *testing.T) {
        _, err := m.Reschedule(ctx, res.ID, date(t, "2025-03-08"), date(t, "2025-03-11"))
        require.ErrorIs(t, err, reservation.ErrRoomUnavailable)
    })
    t.Run("past check-in", func(t *testing.T) {
        _, err := m.Reschedule(ctx, res.ID, date(t, "2025-02-10"), date(t, "2025-02-12"))
        require.ErrorIs(t, err, reservation.ErrInvalidDateRange)
    })
    t.Run("inverted range", func(t *testing.T) {
        _, err := m.Reschedule(ctx, res.ID, date(t, "2025-03-09"), date(t, "2025-03-08"))
        require.ErrorIs(t, err, reservation.ErrInvalidDateRange)
    })
    t.Run("missing reservation", func(t *testing.T) {
        _, err := m.Reschedule(ctx, 9999, date(t, "2025-03-01"), date(t, "2025-03-02"))
        require.ErrorIs(t, err, reservation.ErrNotFound)
    })
    t.Run("terminal reservation", func(t *testing.T) {
        _, err := m.Cancel(ctx, other.ID)
        require.NoError(t, err)
        _, err = m.Reschedule(ctx, other.ID, date(t, "2025-03-20"), date(t, "2025-03-21"))
        require.ErrorIs(t, err, reservation.ErrInvalidState)
    })
}

func TestReschedule_CheckedInKeepsCheckInDate(t *testing.T) {
    ctx := context.Background()
    clock := now
    m := newManager(t, memstore.New(testRooms()...), reservation.Options{
        Clock: reservation.ClockFunc(func() time.Time { return clock }),
    })
    res, err := book(t, m, 1, "2025-02-20", "2025-02-22", 1)
    require.NoError(t, err)
    _, err = m.CheckIn(ctx, res.ID)
    require.NoError(t, err)

    clock = clock.Add(24 * time.Hour)
    got, err := m.Reschedule(ctx, res.ID, date(t, "2025-02-20"), date(t, "2025-02-25"))
    require.NoError(t, err)
    require.Equal(t, int64(500), got.TotalPriceCents)
    require.Equal(t, model.StatusCheckedIn, got.Status)

    _, err = m.Reschedule(ctx, res.ID, date(t, "2025-02-22"), date(t, "2025-02-25"))
    require.ErrorIs(t, err, reservation.ErrInvalidState)
}

func TestReschedule_ArrivalPassedWithoutCheckIn(t *testing.T) {
    ctx := context.Background()
    clock := now
    m := newManager(t, memstore.New(testRooms()...), reservation.Options{
        Clock: reservation.ClockFunc(func() time.Time { return clock }),
    })
    res, err := book(t, m, 1, "2025-03-01", "2025-03-04", 1)
    require.NoError(t, err)

    clock = time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
    _, err = m.Reschedule(ctx, res.ID, date(t, "2025-03-01"), date(t, "2025-03-06"))
    require.ErrorIs(t, err, reservation.ErrInvalidDateRange)

    got, err := m.Reschedule(ctx, res.ID, date(t, "2025-03-01"), date(t, "2025-03-04"))
    require.NoError(t, err)
    require.Equal(t, model.StatusConfirmed, got.Status)
    require.Nil(t, got.UpdatedAt)
}

func TestUpdateDetails(t *testing.T) {
    ctx := context.Background()
    m := newManager(t, memstore.New(testRooms()...), reservation.Options{})
    res, err := book(t, m, 1, "2025-03-01", "2025-03-04", 1)
    require.NoError(t, err)

    note := "crib please"
    got, err := m.UpdateDetails(ctx, res.ID, 2, &note)
    require.NoError(t, err)
    require.Equal(t, 2, got.GuestCount)
    require.Equal(t, note, *got.SpecialRequests)
    require.Equal(t, res.TotalPriceCents, got.TotalPriceCents)

    _, err = m.UpdateDetails(ctx, res.ID, 3, nil)
    require.ErrorIs(t, err, reservation.ErrCapacityExceeded)
    _, err = m.UpdateDetails(ctx, res.ID, 0, nil)
    require.ErrorIs(t, err, reservation.ErrInvalidGuestCount)
    _, err = m.UpdateDetails(ctx, 777, 1, nil)
    require.ErrorIs(t, err, reservation.ErrNotFound)

    _, err = m.Cancel(ctx, res.ID)
    require.NoError(t, err)
    _, err = m.UpdateDetails(ctx, res.ID, 1, nil)
    require.ErrorIs(t, err, reservation.ErrInvalidState)
}

func TestLifecycle(t *testing.T) {
    ctx := context.Background()
    m := newManager(t, memstore.New(testRooms()...), reservation.Options{})
    res, err := book(t, m, 1, "2025-03-01", "2025-03-04", 1)
    require.NoError(t, err)

    _, err = m.CheckOut(ctx, res.ID)
    require.ErrorIs(t, err, reservation.ErrInvalidState)
    _, err = m.Confirm(ctx, res.ID)
    require.ErrorIs(t, err, reservation.ErrInvalidState)

    got, err := m.CheckIn(ctx, res.ID)
    require.NoError(t, err)
    require.Equal(t, model.StatusCheckedIn, got.Status)
    _, err = m.CheckIn(ctx, res.ID)
    require.ErrorIs(t, err, reservation.ErrInvalidState)

    got, err = m.CheckOut(ctx, res.ID)
    require.NoError(t, err)
    require.Equal(t, model.StatusCheckedOut, got.Status)

    _, err = m.Cancel(ctx, res.ID)
    require.ErrorIs(t, err, reservation.ErrInvalidState)
    _, err = m.CheckIn(ctx, res.ID)
    require.ErrorIs(t, err, reservation.ErrInvalidState)

    _, err = m.CheckIn(ctx, 31337)
    require.ErrorIs(t, err, reservation.ErrNotFound)
}

func TestCancel(t *testing.T) {
    ctx := context.Background()
    var events []reservation.Event
    notifier := reservation.NotifierFunc(func(_ context.Context, ev reservation.Event) error {
        events = append(events, ev)
        return nil
    })
    m := newManager(t, memstore.New(testRooms()...), reservation.Options{Notifier: notifier})
    res, err := book(t, m, 1, "2025-03-01", "2025-03-04", 1)
    require.NoError(t, err)

    got, err := m.Cancel(ctx, res.ID)
    require.NoError(t, err)
    require.Equal(t, model.StatusCancelled, got.Status)
    updated := got.UpdatedAt

    again, err := m.Cancel(ctx, res.ID)
    require.NoError(t, err)
    require.Equal(t, model.StatusCancelled, again.Status)
    require.Equal(t, updated, again.UpdatedAt)

    _, err = m.CheckIn(ctx, res.ID)
    require.ErrorIs(t, err, reservation.ErrInvalidState)

    require.Len(t, events, 2)
    require.Equal(t, reservation.EventCreated, events[0].Type)
    require.Equal(t, reservation.EventCancelled, events[1].Type)
    require.Equal(t, model.StatusConfirmed, events[1].PreviousStatus)
}

func TestComputePrice(t *testing.T) {
    ctx := context.Background()
    m := newManager(t, memstore.New(testRooms()...), reservation.Options{})

    q, err := m.ComputePrice(ctx, 1, date(t, "2025-03-01"), date(t, "2025-03-04"))
    require.NoError(t, err)
    require.Equal(t, reservation.Quote{RoomID: 1, Nights: 3, NightlyPriceCents: 100, TotalPriceCents: 300}, q)

    // Quotes ignore bookability and existing stays.
    _, err = m.ComputePrice(ctx, 3, date(t, "2025-03-01"), date(t, "2025-03-02"))
    require.NoError(t, err)

    _, err = m.ComputePrice(ctx, 42, date(t, "2025-03-01"), date(t, "2025-03-02"))
    require.ErrorIs(t, err, reservation.ErrRoomNotFound)
    _, err = m.ComputePrice(ctx, 1, date(t, "2025-03-02"), date(t, "2025-03-02"))
    require.ErrorIs(t, err, reservation.ErrInvalidDateRange)
}

// faultGateway injects failures into the transactions of an underlying
// gateway.
type faultGateway struct {
    reservation.Gateway
    beginErr  error
    insertErr error
    updateErr error
    rollbacks int
}

type faultTx struct {
    reservation.Tx
    g *faultGateway
}

func (g *faultGateway) Begin(ctx context.Context) (reservation.Tx, error) {
    if g.beginErr != nil {
        return nil, g.beginErr
    }
    tx, err := g.Gateway.Begin(ctx)
    if err != nil {
        return nil, err
    }
    return &faultTx{Tx: tx, g: g}, nil
}

func (t *faultTx) Insert(ctx context.Context, r *model.Reservation) (uint64, error) {
    if t.g.insertErr != nil {
        return 0, t.g.insertErr
    }
    return t.Tx.Insert(ctx, r)
}

func (t *faultTx) Update(ctx context.Context, r *model.Reservation) error {
    if t.g.updateErr != nil {
        return t.g.updateErr
    }
    return t.Tx.Update(ctx, r)
}

func (t *faultTx) Rollback() error {
    t.g.rollbacks++
    return t.Tx.Rollback()
}

func TestStorageErrorClassification(t *testing.T) {
    ctx := context.Background()
    store := memstore.New(testRooms()...)
    gw := &faultGateway{Gateway: store}
    var events int
    m := newManager(t, gw, reservation.Options{Notifier: reservation.NotifierFunc(func(context.Context, reservation.Event) error {
        events++
        return nil
    })})

    gw.insertErr = reservation.ErrWriteConflict
    _, err := book(t, m, 1, "2025-03-01", "2025-03-04", 1)
    require.ErrorIs(t, err, reservation.ErrRoomUnavailable)

    gw.insertErr = reservation.ErrTransient
    _, err = book(t, m, 1, "2025-03-01", "2025-03-04", 1)
    require.ErrorIs(t, err, reservation.ErrRetryable)

    gw.insertErr = context.DeadlineExceeded
    _, err = book(t, m, 1, "2025-03-01", "2025-03-04", 1)
    require.ErrorIs(t, err, reservation.ErrRetryable)

    boom := errors.New("disk on fire")
    gw.insertErr = boom
    _, err = book(t, m, 1, "2025-03-01", "2025-03-04", 1)
    require.ErrorIs(t, err, boom)
    require.NotErrorIs(t, err, reservation.ErrRetryable)

    require.Equal(t, 4, gw.rollbacks)
    require.Zero(t, events)
    list, err := store.ListByRoom(ctx, 1)
    require.NoError(t, err)
    require.Empty(t, list)

    // A retry after a transient failure books exactly once.
    gw.insertErr = nil
    res, err := book(t, m, 1, "2025-03-01", "2025-03-04", 1)
    require.NoError(t, err)
    require.Equal(t, 1, events)

    gw.updateErr = reservation.ErrTransient
    _, err = m.CheckIn(ctx, res.ID)
    require.ErrorIs(t, err, reservation.ErrRetryable)
    stored, err := store.FindByID(ctx, res.ID)
    require.NoError(t, err)
    require.Equal(t, model.StatusConfirmed, stored.Status)

    gw.beginErr = reservation.ErrTransient
    _, err = m.Cancel(ctx, res.ID)
    require.ErrorIs(t, err, reservation.ErrRetryable)
}

func TestTimeoutWaitingForTransaction(t *testing.T) {
    store := memstore.New(testRooms()...)
    m := newManager(t, store, reservation.Options{OpTimeout: 20 * time.Millisecond})

    // Hold the store's only write slot so Create cannot begin.
    tx, err := store.Begin(context.Background())
    require.NoError(t, err)
    defer tx.Rollback()

    _, err = book(t, m, 1, "2025-03-01", "2025-03-04", 1)
    require.ErrorIs(t, err, reservation.ErrRetryable)
}

func TestCancelledContextLeavesNoState(t *testing.T) {
    store := memstore.New(testRooms()...)
    ctx, cancel := context.WithCancel(context.Background())
    gw := &faultGateway{Gateway: store}
    m := newManager(t, gw, reservation.Options{})

    // Cancel the request between the insert and the commit.
    gw.Gateway = cancelAfterInsert{Gateway: store, cancel: cancel}
    _, err := m.Create(ctx, reservation.CreateInput{
        RoomID: 1, GuestID: 1, CheckIn: date(t, "2025-03-01"), CheckOut: date(t, "2025-03-02"), GuestCount: 1,
    })
    require.ErrorIs(t, err, context.Canceled)
    list, err := store.ListByRoom(context.Background(), 1)
    require.NoError(t, err)
    require.Empty(t, list)
    require.Equal(t, 1, gw.rollbacks)
}

type cancelAfterInsert struct {
    reservation.Gateway
    cancel context.CancelFunc
}

type cancelTx struct {
    reservation.Tx
    cancel context.CancelFunc
}

func (g cancelAfterInsert) Begin(ctx context.Context) (reservation.Tx, error) {
    tx, err := g.Gateway.Begin(ctx)
    if err != nil {
        return nil, err
    }
    return cancelTx{Tx: tx, cancel: g.cancel}, nil
}

func (t cancelTx) Insert(ctx context.Context, r *model.Reservation) (uint64, error) {
    id, err := t.Tx.Insert(ctx, r)
    t.cancel()
    return id, err
}

func TestNotifierFailureDoesNotFailOperation(t *testing.T) {
    m := newManager(t, memstore.New(testRooms()...), reservation.Options{
        Notifier: reservation.NotifierFunc(func(context.Context, reservation.Event) error { return errors.New("broker down") }),
    })
    _, err := book(t, m, 1, "2025-03-01", "2025-03-04", 1)
    require.NoError(t, err)
}

// TestNonOverlapInvariant runs a random mix of operations and checks that
// no two active stays on a room overlap afterwards.
func TestNonOverlapInvariant(t *testing.T) {
    ctx := context.Background()
    store := memstore.New(testRooms()...)
    m := newManager(t, store, reservation.Options{})
    rng := rand.New(rand.NewSource(7))
    base := date(t, "2025-03-01")

    var ids []uint64
    for i := 0; i < 400; i++ {
        in := base.AddDate(0, 0, rng.Intn(40))
        out := in.AddDate(0, 0, 1+rng.Intn(6))
        room := uint64(1 + rng.Intn(2))
        switch op := rng.Intn(10); {
        case op < 6 || len(ids) == 0:
            res, err := m.Create(ctx, reservation.CreateInput{RoomID: room, GuestID: 1, CheckIn: in, CheckOut: out, GuestCount: 1})
            if err == nil {
                ids = append(ids, res.ID)
            } else {
                require.ErrorIs(t, err, reservation.ErrRoomUnavailable)
            }
        case op < 9:
            _, err := m.Reschedule(ctx, ids[rng.Intn(len(ids))], in, out)
            if err != nil && !errors.Is(err, reservation.ErrRoomUnavailable) && !errors.Is(err, reservation.ErrInvalidState) {
                t.Fatalf("reschedule: %v", err)
            }
        default:
            _, err := m.Cancel(ctx, ids[rng.Intn(len(ids))])
            require.NoError(t, err)
        }
    }

    for _, room := range []uint64{1, 2} {
        list, err := store.ListByRoom(ctx, room)
        require.NoError(t, err)
        for i := range list {
            for j := i + 1; j < len(list); j++ {
                a, b := list[i], list[j]
                if a.Status == model.StatusCancelled || b.Status == model.StatusCancelled {
                    continue
                }
                require.Falsef(t, reservation.Overlaps(a.CheckIn, a.CheckOut, b.CheckIn, b.CheckOut),
                    "room %d: reservations %d and %d overlap", room, a.ID, b.ID)
            }
            nightly := int64(100)
            if room == 2 {
                nightly = 25000
            }
            require.Equal(t, nightly*int64(reservation.Nights(list[i].CheckIn, list[i].CheckOut)), list[i].TotalPriceCents)
        }
    }
}
