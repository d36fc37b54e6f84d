package calendar

import (
	"github.com/google/uuid"

	"salonpro-crm/models"
)

// Filter selects which appointments reach the grid. Empty lists match everything.
type Filter struct {
	TeamMemberIDs []uuid.UUID
	Statuses      []string
	ShowDeleted   bool
}

// Match reports whether o passes the filter. Deleted appointments only pass
// with ShowDeleted, whatever the status list says.
func (f Filter) Match(o models.Order) bool {
	if o.IsDeleted() && !f.ShowDeleted {
		return false
	}
	if len(f.Statuses) > 0 && !containsString(f.Statuses, o.Status) {
		return false
	}
	if len(f.TeamMemberIDs) > 0 {
		if o.TeamMemberID == nil {
			return false
		}
		found := false
		for _, id := range f.TeamMemberIDs {
			if id == *o.TeamMemberID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (f Filter) Apply(orders []models.Order) []models.Order {
	out := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if f.Match(o) {
			out = append(out, o)
		}
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
