package reservation

import (
    "context"
    "time"

    "github.com/iliyamo/hotel-reservation/internal/model"
)

// EventType names a committed lifecycle change.
type EventType string

const (
    EventCreated     EventType = "reservation.created"
    EventRescheduled EventType = "reservation.rescheduled"
    EventUpdated     EventType = "reservation.updated"
    EventConfirmed   EventType = "reservation.confirmed"
    EventCancelled   EventType = "reservation.cancelled"
    EventCheckedIn   EventType = "reservation.checked_in"
    EventCheckedOut  EventType = "reservation.checked_out"
)

// Event is handed to the Notifier after a transaction commits.
type Event struct {
    Type           EventType
    Reservation    model.Reservation
    PreviousStatus model.Status
    OccurredAt     time.Time
}

// Notifier receives lifecycle events.  Delivery is best-effort: errors
// are logged by the Manager and never undo the committed change.
type Notifier interface {
    Notify(ctx context.Context, ev Event) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, ev Event) error

func (f NotifierFunc) Notify(ctx context.Context, ev Event) error { return f(ctx, ev) }
