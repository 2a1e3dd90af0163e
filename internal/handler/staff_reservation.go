package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/hotel-reservation/internal/model"
    "github.com/iliyamo/hotel-reservation/internal/reservation"
)

// StaffHandler serves front-desk endpoints.  Staff may act on any
// reservation.
type StaffHandler struct {
    Manager  ReservationService
    Reads    ReservationReader
    Rooms    RoomCatalog
    Clock    reservation.Clock
    Location *time.Location
}

// NewStaffHandler panics when a required dependency is nil.  A nil clock
// or location selects the system clock and UTC.
func NewStaffHandler(m ReservationService, reads ReservationReader, rooms RoomCatalog, clock reservation.Clock, loc *time.Location) *StaffHandler {
    if m == nil || reads == nil || rooms == nil {
        panic("nil dependency passed to NewStaffHandler")
    }
    if clock == nil {
        clock = reservation.SystemClock
    }
    if loc == nil {
        loc = time.UTC
    }
    return &StaffHandler{Manager: m, Reads: reads, Rooms: rooms, Clock: clock, Location: loc}
}

// List handles GET /v1/staff/reservations.  With from and to it returns
// every reservation touching that date range; with neither it returns
// upcoming arrivals.
func (h *StaffHandler) List(c echo.Context) error {
    from, okFrom := queryDate(c, "from")
    to, okTo := queryDate(c, "to")
    if !okFrom || !okTo {
        return badRequest(c, "from and to must be YYYY-MM-DD")
    }
    if from.IsZero() != to.IsZero() {
        return badRequest(c, "from and to must be given together")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), readTimeout)
    defer cancel()
    var (
        list []model.Reservation
        err  error
    )
    if from.IsZero() {
        list, err = h.Reads.ListUpcoming(ctx, reservation.Date(h.Clock.Now().In(h.Location)))
    } else {
        if to.Before(from) {
            return writeError(c, reservation.ErrInvalidDateRange)
        }
        list, err = h.Reads.ListByDateRange(ctx, from, to)
    }
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"reservations": toViews(list)})
}

// ListByRoom handles GET /v1/staff/rooms/:id/reservations.
func (h *StaffHandler) ListByRoom(c echo.Context) error {
    roomID, ok := pathID(c, "id")
    if !ok {
        return badRequest(c, "invalid room id")
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), readTimeout)
    defer cancel()
    room, err := h.Rooms.GetByID(ctx, roomID)
    if err != nil {
        return writeError(c, err)
    }
    if room == nil {
        return writeError(c, reservation.ErrRoomNotFound)
    }
    list, err := h.Reads.ListByRoom(ctx, roomID)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"room": room, "reservations": toViews(list)})
}

// Get handles GET /v1/staff/reservations/:id.
func (h *StaffHandler) Get(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return badRequest(c, "invalid reservation id")
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), readTimeout)
    defer cancel()
    res, err := h.Reads.GetByID(ctx, id)
    if err != nil {
        return writeError(c, err)
    }
    if res == nil {
        return writeError(c, reservation.ErrNotFound)
    }
    return c.JSON(http.StatusOK, toView(res))
}

// Confirm handles POST /v1/staff/reservations/:id/confirm.
func (h *StaffHandler) Confirm(c echo.Context) error { return h.act(c, h.Manager.Confirm) }

// CheckIn handles POST /v1/staff/reservations/:id/check-in.
func (h *StaffHandler) CheckIn(c echo.Context) error { return h.act(c, h.Manager.CheckIn) }

// CheckOut handles POST /v1/staff/reservations/:id/check-out.
func (h *StaffHandler) CheckOut(c echo.Context) error { return h.act(c, h.Manager.CheckOut) }

// Cancel handles POST /v1/staff/reservations/:id/cancel.
func (h *StaffHandler) Cancel(c echo.Context) error { return h.act(c, h.Manager.Cancel) }

// Reschedule handles PATCH /v1/staff/reservations/:id/dates.
func (h *StaffHandler) Reschedule(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return badRequest(c, "invalid reservation id")
    }
    var req rescheduleReq
    if ok, err := bindValid(c, &req); !ok {
        return err
    }
    in, _ := reservation.ParseDate(req.CheckIn)
    out, _ := reservation.ParseDate(req.CheckOut)
    res, err := h.Manager.Reschedule(c.Request().Context(), id, in, out)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, toView(res))
}

func (h *StaffHandler) act(c echo.Context, op func(context.Context, uint64) (*model.Reservation, error)) error {
    id, ok := pathID(c, "id")
    if !ok {
        return badRequest(c, "invalid reservation id")
    }
    res, err := op(c.Request().Context(), id)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, toView(res))
}
