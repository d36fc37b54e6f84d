package calendar

import (
	"errors"
	"time"
)

var (
	ErrInvalidTimeRange = errors.New("invalid time range")
	ErrSlotDuration     = errors.New("slot duration must be positive")
	ErrInvalidPointer   = errors.New("invalid pointer position")
	ErrDeletedOrder     = errors.New("deleted appointments cannot be moved")
)

// TimeRange is the half-open interval [Start, End).
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func NewTimeRange(start, end time.Time) (TimeRange, error) {
	if start.IsZero() || end.IsZero() || !end.After(start) {
		return TimeRange{}, ErrInvalidTimeRange
	}
	return TimeRange{Start: start, End: end}, nil
}

func (tr TimeRange) Duration() time.Duration { return tr.End.Sub(tr.Start) }

// Overlaps reports whether two half-open ranges intersect. Touching ranges
// (one ends when the other starts) do not.
func (tr TimeRange) Overlaps(other TimeRange) bool {
	return tr.Start.Before(other.End) && other.Start.Before(tr.End)
}

// SplitToSlots cuts tr into consecutive slots of length d. A trailing piece
// shorter than d is dropped.
func SplitToSlots(tr TimeRange, d time.Duration) ([]TimeRange, error) {
	if d <= 0 {
		return nil, ErrSlotDuration
	}
	slots := []TimeRange{}
	for cur := tr.Start; !cur.Add(d).After(tr.End); cur = cur.Add(d) {
		slots = append(slots, TimeRange{Start: cur, End: cur.Add(d)})
	}
	return slots, nil
}

func dateOnly(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// dayRange is the whole local day containing t. DST days are 23 or 25 hours.
func dayRange(t time.Time) TimeRange {
	start := dateOnly(t)
	return TimeRange{Start: start, End: start.AddDate(0, 0, 1)}
}

// WeekStart returns the Monday of t's week at midnight.
func WeekStart(t time.Time) time.Time {
	d := dateOnly(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

func atMinute(day time.Time, minute int) time.Time {
	d := dateOnly(day)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, minute, 0, 0, d.Location())
}
