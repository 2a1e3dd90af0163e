package handler

import (
    "context"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/hotel-reservation/internal/model"
    "github.com/iliyamo/hotel-reservation/internal/repository"
    "github.com/iliyamo/hotel-reservation/internal/reservation"
)

// GuestHandler serves the endpoints guests use to book and manage their
// own stays.  Every route under it requires the GUEST role.
type GuestHandler struct {
    Manager ReservationService
    Reads   ReservationReader
}

// NewGuestHandler panics when a dependency is nil.
func NewGuestHandler(m ReservationService, reads ReservationReader) *GuestHandler {
    if m == nil || reads == nil {
        panic("nil dependency passed to NewGuestHandler")
    }
    return &GuestHandler{Manager: m, Reads: reads}
}

type createReservationReq struct {
    RoomID          uint64  `json:"room_id" validate:"required"`
    CheckIn         string  `json:"check_in" validate:"required,datetime=2006-01-02"`
    CheckOut        string  `json:"check_out" validate:"required,datetime=2006-01-02"`
    GuestCount      int     `json:"guest_count"`
    SpecialRequests *string `json:"special_requests" validate:"omitempty,max=1000"`
}

type rescheduleReq struct {
    CheckIn  string `json:"check_in" validate:"required,datetime=2006-01-02"`
    CheckOut string `json:"check_out" validate:"required,datetime=2006-01-02"`
}

type updateDetailsReq struct {
    GuestCount      int     `json:"guest_count"`
    SpecialRequests *string `json:"special_requests" validate:"omitempty,max=1000"`
}

// Create handles POST /v1/reservations.
func (h *GuestHandler) Create(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req createReservationReq
    if ok, err := bindValid(c, &req); !ok {
        return err
    }
    in, _ := reservation.ParseDate(req.CheckIn)
    out, _ := reservation.ParseDate(req.CheckOut)

    res, err := h.Manager.Create(c.Request().Context(), reservation.CreateInput{
        RoomID:          req.RoomID,
        GuestID:         uid,
        CheckIn:         in,
        CheckOut:        out,
        GuestCount:      req.GuestCount,
        SpecialRequests: req.SpecialRequests,
    })
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, toView(res))
}

// ListMine handles GET /v1/reservations and GET /v1/my-reservations.
func (h *GuestHandler) ListMine(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), readTimeout)
    defer cancel()
    list, err := h.Reads.ListByGuest(ctx, uid)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"reservations": toViews(list)})
}

// Get handles GET /v1/reservations/:id.
func (h *GuestHandler) Get(c echo.Context) error {
    res, err := h.own(c)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, toView(res))
}

// Reschedule handles PATCH /v1/reservations/:id/dates.
func (h *GuestHandler) Reschedule(c echo.Context) error {
    var req rescheduleReq
    if ok, err := bindValid(c, &req); !ok {
        return err
    }
    res, err := h.own(c)
    if err != nil {
        return writeError(c, err)
    }
    in, _ := reservation.ParseDate(req.CheckIn)
    out, _ := reservation.ParseDate(req.CheckOut)
    updated, err := h.Manager.Reschedule(c.Request().Context(), res.ID, in, out)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, toView(updated))
}

// Update handles PATCH /v1/reservations/:id (guest count and special
// requests).
func (h *GuestHandler) Update(c echo.Context) error {
    var req updateDetailsReq
    if ok, err := bindValid(c, &req); !ok {
        return err
    }
    res, err := h.own(c)
    if err != nil {
        return writeError(c, err)
    }
    updated, err := h.Manager.UpdateDetails(c.Request().Context(), res.ID, req.GuestCount, req.SpecialRequests)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, toView(updated))
}

// Cancel handles POST /v1/reservations/:id/cancel.
func (h *GuestHandler) Cancel(c echo.Context) error {
    res, err := h.own(c)
    if err != nil {
        return writeError(c, err)
    }
    updated, err := h.Manager.Cancel(c.Request().Context(), res.ID)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, toView(updated))
}

// own loads the reservation named by :id and checks it belongs to the
// caller.
func (h *GuestHandler) own(c echo.Context) (*model.Reservation, error) {
    uid, err := getUserID(c)
    if err != nil {
        return nil, repository.ErrForbidden
    }
    id, ok := pathID(c, "id")
    if !ok {
        return nil, reservation.ErrNotFound
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), readTimeout)
    defer cancel()
    res, err := h.Reads.GetByID(ctx, id)
    if err != nil {
        return nil, err
    }
    if res == nil {
        return nil, reservation.ErrNotFound
    }
    if res.GuestID != uid {
        return nil, repository.ErrForbidden
    }
    return res, nil
}
