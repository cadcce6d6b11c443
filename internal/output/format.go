package output

import (
	"fmt"
	"strconv"
	"time"
)

// FormatSeconds renders a whole-second duration as the two largest units,
// "2h 05m", "4m 30s", or "45s".
func FormatSeconds(secs int64) string {
	if secs < 0 {
		secs = 0
	}
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %02dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm %02ds", m, s)
	default:
		return strconv.FormatInt(s, 10) + "s"
	}
}

// FormatClock renders an instant in the given timezone.
func FormatClock(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format("2006-01-02 15:04")
}

// FormatDay renders the date part of an instant in the given timezone.
func FormatDay(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format("2006-01-02")
}

// FormatHours renders an optional hour quantity, "--" when absent.
func FormatHours(h *float64) string {
	if h == nil {
		return "--"
	}
	return strconv.FormatFloat(*h, 'g', -1, 64) + "h"
}

// FormatPoints renders an optional story-point estimate, "--" when absent.
func FormatPoints(p *float64) string {
	if p == nil {
		return "--"
	}
	return strconv.FormatFloat(*p, 'g', -1, 64)
}
