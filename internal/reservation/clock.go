package reservation

import "time"

// Clock supplies the current time.
type Clock interface {
    Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

const dateLayout = "2006-01-02"

// Date truncates t to its calendar date in t's location and returns that
// date as UTC midnight.  All reservation dates are held in this form.
func Date(t time.Time) time.Time {
    y, m, d := t.Date()
    return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a reservation date.
func ParseDate(s string) (time.Time, error) {
    t, err := time.ParseInLocation(dateLayout, s, time.UTC)
    if err != nil {
        return time.Time{}, err
    }
    return t, nil
}

// FormatDate is the inverse of ParseDate.
func FormatDate(t time.Time) string { return t.Format(dateLayout) }
