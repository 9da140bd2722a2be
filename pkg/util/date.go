package util

import (
    "fmt"
    "time"
)

// DateLayout is the day format used in report subjects, cache keys and archive rows.
const DateLayout = "2006-01-02"

// ParseClock parses a wall-clock "HH:MM" (24h) into hour and minute.
func ParseClock(s string) (int, int, error) {
    t, err := time.Parse("15:04", s)
    if err != nil {
        return 0, 0, fmt.Errorf("invalid clock %q, want HH:MM", s)
    }
    return t.Hour(), t.Minute(), nil
}

// NextDaily returns the first instant strictly after now that falls on hour:min in now's location.
func NextDaily(now time.Time, hour, min int) time.Time {
    next := time.Date(now.Year(), now.Month(), now.Day(), hour, min, 0, 0, now.Location())
    if !next.After(now) {
        next = time.Date(now.Year(), now.Month(), now.Day()+1, hour, min, 0, 0, now.Location())
    }
    return next
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
    return t.Format(DateLayout)
}
