package ui

import (
	"fmt"
	"time"
)

// RelativeTime renders t relative to now, e.g. "5m ago" or "in 2d".
func RelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := now.Sub(t)
	suffix := func(s string) string { return s + " ago" }
	if d < 0 {
		d = -d
		suffix = func(s string) string { return "in " + s }
	}

	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return suffix(fmt.Sprintf("%dm", int(d.Minutes())))
	case d < 24*time.Hour:
		return suffix(fmt.Sprintf("%dh", int(d.Hours())))
	case d < 7*24*time.Hour:
		return suffix(fmt.Sprintf("%dd", int(d.Hours()/24)))
	default:
		return suffix(fmt.Sprintf("%dw", int(d.Hours()/24/7)))
	}
}
