package handler

import (
    "context"
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/hotel-reservation/internal/model"
    "github.com/iliyamo/hotel-reservation/internal/reservation"
)

// RoomHandler serves the public room catalog endpoints.
type RoomHandler struct {
    Rooms  RoomCatalog
    Quotes ReservationService
}

// NewRoomHandler panics when a dependency is nil.
func NewRoomHandler(rooms RoomCatalog, quotes ReservationService) *RoomHandler {
    if rooms == nil || quotes == nil {
        panic("nil dependency passed to NewRoomHandler")
    }
    return &RoomHandler{Rooms: rooms, Quotes: quotes}
}

// List handles GET /v1/rooms.
func (h *RoomHandler) List(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), readTimeout)
    defer cancel()
    rooms, err := h.Rooms.List(ctx)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"rooms": rooms})
}

// Available handles GET /v1/rooms/available.  check_in and check_out are
// required; guests, max_price_cents and type narrow the search.
func (h *RoomHandler) Available(c echo.Context) error {
    in, okIn := queryDate(c, "check_in")
    out, okOut := queryDate(c, "check_out")
    if !okIn || !okOut || in.IsZero() || out.IsZero() {
        return badRequest(c, "check_in and check_out are required as YYYY-MM-DD")
    }
    if !in.Before(out) {
        return writeError(c, reservation.ErrInvalidDateRange)
    }
    f := model.RoomFilter{CheckIn: in, CheckOut: out, Type: strings.TrimSpace(c.QueryParam("type"))}
    if v := c.QueryParam("guests"); v != "" {
        n, err := strconv.Atoi(v)
        if err != nil || n < 0 {
            return badRequest(c, "guests must be a non-negative integer")
        }
        f.MinCapacity = n
    }
    if v := c.QueryParam("max_price_cents"); v != "" {
        n, err := strconv.ParseInt(v, 10, 64)
        if err != nil || n < 0 {
            return badRequest(c, "max_price_cents must be a non-negative integer")
        }
        f.MaxPriceCents = n
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), readTimeout)
    defer cancel()
    rooms, err := h.Rooms.SearchAvailable(ctx, f)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "check_in":  reservation.FormatDate(in),
        "check_out": reservation.FormatDate(out),
        "nights":    reservation.Nights(in, out),
        "rooms":     rooms,
    })
}

// Quote handles GET /v1/rooms/:id/quote.
func (h *RoomHandler) Quote(c echo.Context) error {
    roomID, ok := pathID(c, "id")
    if !ok {
        return badRequest(c, "invalid room id")
    }
    in, okIn := queryDate(c, "check_in")
    out, okOut := queryDate(c, "check_out")
    if !okIn || !okOut || in.IsZero() || out.IsZero() {
        return badRequest(c, "check_in and check_out are required as YYYY-MM-DD")
    }
    q, err := h.Quotes.ComputePrice(c.Request().Context(), roomID, in, out)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, q)
}
