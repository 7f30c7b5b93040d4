// Package timeutil formats timestamps and durations for CLI output.
package timeutil

import (
	"fmt"
	"strings"
	"time"
)

// LocalTimeFormat is how local timestamps are rendered in tables. It is
// Go's reference time: Mon Jan 2 15:04:05 2006.
const LocalTimeFormat = "Mon Jan 2 15:04:05 2006"

// FormatUptime renders a Go duration string ("72h30m15s") as a day-based
// breakdown like "3d 0h 30m 15s". Leading zero units are dropped except
// when they sit between larger and smaller non-zero ones. Unparseable
// input is returned verbatim so a changed server never breaks the table.
func FormatUptime(uptime string) string {
	d, err := time.ParseDuration(uptime)
	if err != nil {
		return uptime
	}

	total := int(d.Seconds())
	days := total / 86400
	hours := total % 86400 / 3600
	minutes := total % 3600 / 60
	seconds := total % 60

	var b strings.Builder
	if days > 0 {
		fmt.Fprintf(&b, "%dd ", days)
	}
	if b.Len() > 0 || hours > 0 {
		fmt.Fprintf(&b, "%dh ", hours)
	}
	if b.Len() > 0 || minutes > 0 {
		fmt.Fprintf(&b, "%dm ", minutes)
	}
	fmt.Fprintf(&b, "%ds", seconds)
	return b.String()
}

// FormatTime renders an RFC3339 timestamp in local time. Unparseable input
// is returned verbatim.
func FormatTime(timestamp string) string {
	t, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return timestamp
	}
	return t.Local().Format(LocalTimeFormat)
}
