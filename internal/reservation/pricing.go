package reservation

import (
    "fmt"
    "time"
)

const day = 24 * time.Hour

// Nights counts the calendar days between check-in and check-out.
// Time of day is ignored.  The result is negative when check-out comes
// first.
func Nights(checkIn, checkOut time.Time) int {
    return int(Date(checkOut).Sub(Date(checkIn)) / day)
}

// ComputePrice returns nightlyCents × nights for the stay.
func ComputePrice(nightlyCents int64, checkIn, checkOut time.Time) (int64, error) {
    n := Nights(checkIn, checkOut)
    if n <= 0 {
        return 0, fmt.Errorf("%w: stay must be at least one night", ErrInvalidDateRange)
    }
    return nightlyCents * int64(n), nil
}

// Quote is the cost preview returned by Manager.ComputePrice.
type Quote struct {
    RoomID            uint64 `json:"room_id"`
    Nights            int    `json:"nights"`
    NightlyPriceCents int64  `json:"nightly_price_cents"`
    TotalPriceCents   int64  `json:"total_price_cents"`
}
