// Package queue defines the lifecycle event payload exchanged over the
// message broker and the consumer that records it.
package queue

// ReservationEvent is published after a reservation change commits.  It
// carries enough of the reservation for downstream consumers (logging,
// notifications, billing) to act without querying the primary database.
// Dates are YYYY-MM-DD; timestamps are RFC 3339 UTC.
type ReservationEvent struct {
    EventID         string `json:"event_id"`
    Type            string `json:"type"`
    ReservationID   uint64 `json:"reservation_id"`
    RoomID          uint64 `json:"room_id"`
    GuestID         uint64 `json:"guest_id"`
    CheckIn         string `json:"check_in"`
    CheckOut        string `json:"check_out"`
    GuestCount      int    `json:"guest_count"`
    TotalPriceCents int64  `json:"total_price_cents"`
    Status          string `json:"status"`
    PreviousStatus  string `json:"previous_status,omitempty"`
    OccurredAt      string `json:"occurred_at"`
}
