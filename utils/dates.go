// utils/dates.go
package utils

import (
	"fmt"
	"time"
)

func BeginningOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func DaysBetween(start, end time.Time) int {
	start = BeginningOfDay(start)
	end = BeginningOfDay(end)
	return int(end.Sub(start).Hours() / 24)
}

// NextAnniversary returns the next occurrence (today included) of the month/day of date.
func NextAnniversary(date, from time.Time) time.Time {
	from = BeginningOfDay(from)
	next := time.Date(from.Year(), date.Month(), date.Day(), 0, 0, 0, 0, from.Location())
	if next.Before(from) {
		next = next.AddDate(1, 0, 0)
	}
	return next
}

// RelativeDayLabel renders "Today", "Tomorrow" or "N days" for upcoming events.
func RelativeDayLabel(days int) string {
	switch days {
	case 0:
		return "Today"
	case 1:
		return "Tomorrow"
	default:
		return fmt.Sprintf("%d days", days)
	}
}

// ParseDate parses YYYY-MM-DD in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation("2006-01-02", value, loc)
}
