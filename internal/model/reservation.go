package model

import (
    "fmt"
    "strings"
    "time"
)

// Status is the lifecycle state of a reservation.  The zero value is
// Pending.
type Status int

const (
    StatusPending Status = iota
    StatusConfirmed
    StatusCheckedIn
    StatusCheckedOut
    StatusCancelled
)

var statusNames = [...]string{
    StatusPending:    "PENDING",
    StatusConfirmed:  "CONFIRMED",
    StatusCheckedIn:  "CHECKED_IN",
    StatusCheckedOut: "CHECKED_OUT",
    StatusCancelled:  "CANCELLED",
}

// String returns the stored form of the status (e.g. CHECKED_IN).
func (s Status) String() string {
    if s < 0 || int(s) >= len(statusNames) {
        return fmt.Sprintf("Status(%d)", int(s))
    }
    return statusNames[s]
}

// ParseStatus converts a stored status name back to a Status.  Matching
// is case-insensitive.
func ParseStatus(v string) (Status, error) {
    v = strings.ToUpper(strings.TrimSpace(v))
    for i, name := range statusNames {
        if name == v {
            return Status(i), nil
        }
    }
    return 0, fmt.Errorf("unknown reservation status %q", v)
}

// Terminal reports whether no transition leaves the status.
func (s Status) Terminal() bool {
    return s == StatusCheckedOut || s == StatusCancelled
}

// MarshalText lets statuses appear as strings in JSON payloads.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText is the inverse of MarshalText.
func (s *Status) UnmarshalText(b []byte) error {
    v, err := ParseStatus(string(b))
    if err != nil {
        return err
    }
    *s = v
    return nil
}

// Reservation records a guest's stay in one room.  CheckIn and CheckOut
// are calendar dates held as UTC midnight; the stay occupies the room for
// the half-open interval [CheckIn, CheckOut).
//
// Fields:
//  ID              – primary key identifier.
//  RoomID          – room being reserved.
//  GuestID         – user who owns the stay.
//  CheckIn         – arrival date.
//  CheckOut        – departure date, strictly after CheckIn.
//  GuestCount      – number of guests (1–10).
//  TotalPriceCents – nightly price × nights, in cents.
//  Status          – lifecycle state.
//  SpecialRequests – optional free text from the guest.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp (nil until first update).
type Reservation struct {
    ID              uint64     `json:"id"`                         // reservations.id
    RoomID          uint64     `json:"room_id"`                    // reservations.room_id
    GuestID         uint64     `json:"guest_id"`                   // reservations.guest_id
    CheckIn         time.Time  `json:"check_in"`                   // reservations.check_in (DATE)
    CheckOut        time.Time  `json:"check_out"`                  // reservations.check_out (DATE)
    GuestCount      int        `json:"guest_count"`                // reservations.guest_count
    TotalPriceCents int64      `json:"total_price_cents"`          // reservations.total_price_cents
    Status          Status     `json:"status"`                     // reservations.status
    SpecialRequests *string    `json:"special_requests,omitempty"` // reservations.special_requests (nullable)
    CreatedAt       time.Time  `json:"created_at"`                 // reservations.created_at
    UpdatedAt       *time.Time `json:"updated_at,omitempty"`       // reservations.updated_at (nullable)
}
