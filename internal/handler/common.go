package handler

import (
    "context"
    "errors"
    "log"
    "net/http"
    "reflect"
    "strconv"
    "strings"
    "time"

    "github.com/go-playground/validator/v10"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/hotel-reservation/internal/model"
    "github.com/iliyamo/hotel-reservation/internal/repository"
    "github.com/iliyamo/hotel-reservation/internal/reservation"
)

// readTimeout bounds the plain repository reads done by handlers.  Writes
// go through the reservation manager, which applies its own timeout.
const readTimeout = 5 * time.Second

// ReservationService is the part of *reservation.Manager the handlers use.
type ReservationService interface {
    Create(ctx context.Context, in reservation.CreateInput) (*model.Reservation, error)
    Reschedule(ctx context.Context, id uint64, checkIn, checkOut time.Time) (*model.Reservation, error)
    UpdateDetails(ctx context.Context, id uint64, guestCount int, specialRequests *string) (*model.Reservation, error)
    Confirm(ctx context.Context, id uint64) (*model.Reservation, error)
    Cancel(ctx context.Context, id uint64) (*model.Reservation, error)
    CheckIn(ctx context.Context, id uint64) (*model.Reservation, error)
    CheckOut(ctx context.Context, id uint64) (*model.Reservation, error)
    ComputePrice(ctx context.Context, roomID uint64, checkIn, checkOut time.Time) (reservation.Quote, error)
}

// ReservationReader serves reservation reads.  Implemented by
// repository.ReservationRepo and memstore.Store.
type ReservationReader interface {
    GetByID(ctx context.Context, id uint64) (*model.Reservation, error)
    ListByGuest(ctx context.Context, guestID uint64) ([]model.Reservation, error)
    ListByRoom(ctx context.Context, roomID uint64) ([]model.Reservation, error)
    ListByDateRange(ctx context.Context, from, to time.Time) ([]model.Reservation, error)
    ListUpcoming(ctx context.Context, today time.Time) ([]model.Reservation, error)
}

// RoomCatalog serves room reads.  Implemented by repository.RoomRepo and
// memstore.Catalog.
type RoomCatalog interface {
    GetByID(ctx context.Context, id uint64) (*model.Room, error)
    List(ctx context.Context) ([]model.Room, error)
    SearchAvailable(ctx context.Context, f model.RoomFilter) ([]model.Room, error)
}

// reservationView is the JSON shape of a reservation.  Dates are
// YYYY-MM-DD.
type reservationView struct {
    ID              uint64       `json:"id"`
    RoomID          uint64       `json:"room_id"`
    GuestID         uint64       `json:"guest_id"`
    CheckIn         string       `json:"check_in"`
    CheckOut        string       `json:"check_out"`
    Nights          int          `json:"nights"`
    GuestCount      int          `json:"guest_count"`
    TotalPriceCents int64        `json:"total_price_cents"`
    Status          model.Status `json:"status"`
    SpecialRequests *string      `json:"special_requests,omitempty"`
    CreatedAt       time.Time    `json:"created_at"`
    UpdatedAt       *time.Time   `json:"updated_at,omitempty"`
}

func toView(r *model.Reservation) reservationView {
    return reservationView{
        ID:              r.ID,
        RoomID:          r.RoomID,
        GuestID:         r.GuestID,
        CheckIn:         reservation.FormatDate(r.CheckIn),
        CheckOut:        reservation.FormatDate(r.CheckOut),
        Nights:          reservation.Nights(r.CheckIn, r.CheckOut),
        GuestCount:      r.GuestCount,
        TotalPriceCents: r.TotalPriceCents,
        Status:          r.Status,
        SpecialRequests: r.SpecialRequests,
        CreatedAt:       r.CreatedAt,
        UpdatedAt:       r.UpdatedAt,
    }
}

func toViews(rs []model.Reservation) []reservationView {
    out := make([]reservationView, 0, len(rs))
    for i := range rs {
        out = append(out, toView(&rs[i]))
    }
    return out
}

// getUserID returns the caller's ID stored by the JWT middleware.
func getUserID(c echo.Context) (uint64, error) {
    v := c.Get("user_id")
    switch t := v.(type) {
    case uint64:
        if t != 0 {
            return t, nil
        }
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil && n != 0 {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    return id, err == nil && id > 0
}

// queryDate parses a YYYY-MM-DD query parameter.  A missing parameter
// returns the zero time and ok.
func queryDate(c echo.Context, name string) (time.Time, bool) {
    v := strings.TrimSpace(c.QueryParam(name))
    if v == "" {
        return time.Time{}, true
    }
    t, err := reservation.ParseDate(v)
    return t, err == nil
}

func badRequest(c echo.Context, msg string) error {
    return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// statusClientClosedRequest is the nginx convention for a request the
// client abandoned.
const statusClientClosedRequest = 499

// writeError maps engine and repository errors onto HTTP responses.
func writeError(c echo.Context, err error) error {
    switch {
    case errors.Is(err, reservation.ErrInvalidDateRange), errors.Is(err, reservation.ErrInvalidGuestCount):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    case errors.Is(err, reservation.ErrCapacityExceeded):
        return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
    case errors.Is(err, reservation.ErrRoomNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": reservation.ErrRoomNotFound.Error()})
    case errors.Is(err, reservation.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": reservation.ErrNotFound.Error()})
    case errors.Is(err, reservation.ErrRoomUnavailable):
        return c.JSON(http.StatusConflict, echo.Map{"error": reservation.ErrRoomUnavailable.Error()})
    case errors.Is(err, reservation.ErrInvalidState):
        return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
    case errors.Is(err, repository.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    case errors.Is(err, repository.ErrConflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
    case errors.Is(err, reservation.ErrRetryable), errors.Is(err, context.DeadlineExceeded):
        c.Response().Header().Set("Retry-After", "1")
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": reservation.ErrRetryable.Error()})
    case errors.Is(err, context.Canceled):
        // Nobody is left to read the body.
        return c.NoContent(statusClientClosedRequest)
    }
    log.Printf("handler: %s %s: %v", c.Request().Method, c.Path(), err)
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// Validator adapts go-playground/validator to echo.Validator.
type Validator struct {
    v *validator.Validate
}

// NewValidator returns the validator installed on the Echo instance.
// Field names in messages are the JSON names.
func NewValidator() *Validator {
    v := validator.New(validator.WithRequiredStructEnabled())
    v.RegisterTagNameFunc(func(f reflect.StructField) string {
        name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
        if name == "-" {
            return ""
        }
        return name
    })
    return &Validator{v: v}
}

func (cv *Validator) Validate(i interface{}) error { return cv.v.Struct(i) }

// bindValid binds the request body into dst and validates it.  It writes
// the 400 response itself and reports whether the handler may continue.
func bindValid(c echo.Context, dst interface{}) (bool, error) {
    if err := c.Bind(dst); err != nil {
        return false, badRequest(c, "invalid body")
    }
    if err := c.Validate(dst); err != nil {
        var verrs validator.ValidationErrors
        if errors.As(err, &verrs) && len(verrs) > 0 {
            fe := verrs[0]
            return false, badRequest(c, "invalid "+fe.Field()+": failed "+fe.Tag())
        }
        return false, badRequest(c, "invalid body")
    }
    return true, nil
}
