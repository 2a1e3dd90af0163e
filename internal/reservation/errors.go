package reservation

import "errors"

// Errors returned by the Manager.  Callers match them with errors.Is;
// the returned error may carry extra context around the sentinel.
var (
    // ErrInvalidDateRange is returned when check-out is not after
    // check-in or when a new check-in date lies in the past.
    ErrInvalidDateRange = errors.New("invalid date range")
    // ErrInvalidGuestCount is returned when the guest count is outside
    // MinGuests..MaxGuests.
    ErrInvalidGuestCount = errors.New("invalid guest count")
    // ErrCapacityExceeded is returned when the guest count is larger
    // than the room capacity.
    ErrCapacityExceeded = errors.New("guest count exceeds room capacity")
    // ErrRoomNotFound is returned for unknown or non-bookable rooms.
    ErrRoomNotFound = errors.New("room not found")
    // ErrRoomUnavailable is returned when another active reservation
    // overlaps the requested dates.
    ErrRoomUnavailable = errors.New("room is not available for the selected dates")
    // ErrNotFound is returned when the reservation does not exist.
    ErrNotFound = errors.New("reservation not found")
    // ErrInvalidState is returned for transitions the lifecycle does not
    // allow.
    ErrInvalidState = errors.New("invalid reservation state")
    // ErrRetryable marks transient storage failures and timeouts.  The
    // operation left no committed state and may be retried as is.
    ErrRetryable = errors.New("temporary failure, retry the request")
)

// Errors a Gateway implementation reports so the Manager can classify
// storage failures.
var (
    // ErrWriteConflict signals that the store rejected a write because it
    // would break a uniqueness or exclusion rule on (room, dates).
    ErrWriteConflict = errors.New("storage write conflict")
    // ErrTransient signals a failure that is expected to go away on
    // retry: deadlocks, lock wait timeouts, dropped connections.
    ErrTransient = errors.New("transient storage failure")
)
