package calendar

import (
	"math"
	"time"

	"github.com/google/uuid"

	"salonpro-crm/models"
)

// SnapIncrement is the granularity of drag-to-reschedule.
const SnapIncrement = 15 * time.Minute

// Snap rounds t to the nearest multiple of step counted from local midnight.
func Snap(t time.Time, step time.Duration) time.Time {
	if step <= 0 {
		return t
	}
	midnight := dateOnly(t)
	return midnight.Add(t.Sub(midnight).Round(step))
}

// PointerToTime converts a drop position, in pixels below the top of a day
// grid that starts at gridOpen, into a snapped start time.
func PointerToTime(gridOpen time.Time, offsetPx, pxPerHour float64) (time.Time, error) {
	if pxPerHour <= 0 || math.IsNaN(pxPerHour) || math.IsInf(pxPerHour, 0) ||
		math.IsNaN(offsetPx) || math.IsInf(offsetPx, 0) {
		return time.Time{}, ErrInvalidPointer
	}
	if offsetPx < 0 {
		offsetPx = 0
	}
	offset := time.Duration(offsetPx / pxPerHour * float64(time.Hour))
	return Snap(gridOpen.Add(offset), SnapIncrement), nil
}

// Move is a drop target. A nil TeamMemberID keeps the current assignee.
type Move struct {
	Start        time.Time
	TeamMemberID *uuid.UUID
}

// Reschedule returns a copy of o moved to the snapped target start with its
// original duration kept.
func Reschedule(o models.Order, m Move) (models.Order, error) {
	if o.IsDeleted() {
		return o, ErrDeletedOrder
	}
	d := o.Duration()
	if d <= 0 || m.Start.IsZero() {
		return o, ErrInvalidTimeRange
	}
	moved := o
	moved.StartAt = Snap(m.Start, SnapIncrement)
	moved.EndAt = moved.StartAt.Add(d)
	if m.TeamMemberID != nil {
		id := *m.TeamMemberID
		moved.TeamMemberID = &id
	}
	return moved, nil
}
