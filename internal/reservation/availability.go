package reservation

import (
    "context"
    "fmt"
    "time"
)

// Overlaps reports whether the half-open intervals [aIn, aOut) and
// [bIn, bOut) share at least one night.  A check-out and a check-in on
// the same day do not overlap.
func Overlaps(aIn, aOut, bIn, bOut time.Time) bool {
    return aIn.Before(bOut) && bIn.Before(aOut)
}

// IsAvailable reports whether no active reservation on the room other
// than excludeID overlaps [checkIn, checkOut).  Pass a Tx as r to check
// under the transaction's locks.
func IsAvailable(ctx context.Context, r Reader, roomID uint64, checkIn, checkOut time.Time, excludeID uint64) (bool, error) {
    checkIn, checkOut = Date(checkIn), Date(checkOut)
    if !checkIn.Before(checkOut) {
        return false, fmt.Errorf("%w: check-out must be after check-in", ErrInvalidDateRange)
    }
    overlap, err := r.HasOverlap(ctx, roomID, checkIn, checkOut, excludeID)
    if err != nil {
        return false, err
    }
    return !overlap, nil
}
