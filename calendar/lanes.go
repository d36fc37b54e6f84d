package calendar

import (
	"sort"
	"time"

	"salonpro-crm/models"
)

// Event is one appointment placed on a grid.
type Event struct {
	Order models.Order `json:"order"`
	Style Style        `json:"style"`
	// MemberColor is the assigned team member's calendar colour, if any.
	MemberColor string `json:"memberColor,omitempty"`
	// Lane is the column inside the overlap cluster, Lanes the cluster width.
	Lane  int `json:"lane"`
	Lanes int `json:"lanes"`
	// Minutes from the top of the day grid, and the visible length.
	OffsetMinutes   int `json:"offsetMinutes"`
	DurationMinutes int `json:"durationMinutes"`
	// Continues is set when the appointment runs past the end of the day.
	Continues bool `json:"continues,omitempty"`
}

func (e Event) Range() TimeRange {
	return TimeRange{Start: e.Order.StartAt, End: e.Order.EndAt}
}

// AssignLanes lays overlapping events side by side. Events are sorted by
// start (longer first on ties); each takes the lowest lane free at its start,
// and every event in a cluster of transitively overlapping events reports the
// cluster's lane count.
func AssignLanes(events []Event) []Event {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i].Order, events[j].Order
		if !a.StartAt.Equal(b.StartAt) {
			return a.StartAt.Before(b.StartAt)
		}
		return a.Duration() > b.Duration()
	})

	var (
		laneEnds     []time.Time
		clusterStart int
		clusterEnd   time.Time
	)
	closeCluster := func(end int) {
		for k := clusterStart; k < end; k++ {
			events[k].Lanes = len(laneEnds)
		}
	}

	for i := range events {
		r := events[i].Range()
		if i > 0 && !r.Start.Before(clusterEnd) {
			closeCluster(i)
			clusterStart = i
			laneEnds = laneEnds[:0]
		}

		lane := -1
		for l, end := range laneEnds {
			if !end.After(r.Start) {
				lane = l
				break
			}
		}
		if lane < 0 {
			laneEnds = append(laneEnds, r.End)
			lane = len(laneEnds) - 1
		} else {
			laneEnds[lane] = r.End
		}
		events[i].Lane = lane

		if i == clusterStart || r.End.After(clusterEnd) {
			clusterEnd = r.End
		}
	}
	closeCluster(len(events))
	return events
}
