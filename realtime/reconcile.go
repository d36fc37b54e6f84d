package realtime

import (
	"github.com/google/uuid"

	"salonpro-crm/models"
)

// Delta is the net effect of a batch on the order set.
type Delta struct {
	Inserted []models.Order `json:"inserted"`
	Updated  []models.Order `json:"updated"`
	Deleted  []uuid.UUID    `json:"deleted"`
}

func (d Delta) Empty() bool {
	return len(d.Inserted) == 0 && len(d.Updated) == 0 && len(d.Deleted) == 0
}

func (d Delta) Size() int {
	return len(d.Inserted) + len(d.Updated) + len(d.Deleted)
}

type change struct {
	first EventType
	last  EventType
	row   *models.Order
}

// Reconcile folds a batch into one Delta. Per order the latest row wins; an
// insert followed by updates stays an insert, and an insert deleted inside the
// same batch disappears. Output keeps first-seen order.
func Reconcile(events []ChangeEvent) Delta {
	changes := make(map[uuid.UUID]*change)
	var order []uuid.UUID

	for _, ev := range events {
		if ev.Table != TableOrders {
			continue
		}
		id := ev.OrderID()
		if id == uuid.Nil {
			continue
		}
		c, ok := changes[id]
		if !ok {
			c = &change{first: ev.Type}
			changes[id] = c
			order = append(order, id)
		}
		c.last = ev.Type
		if ev.New != nil {
			c.row = ev.New
		}
	}

	d := Delta{Inserted: []models.Order{}, Updated: []models.Order{}, Deleted: []uuid.UUID{}}
	for _, id := range order {
		c := changes[id]
		switch {
		case c.last == EventDelete:
			if c.first != EventInsert {
				d.Deleted = append(d.Deleted, id)
			}
		case c.row == nil:
		case c.first == EventInsert:
			d.Inserted = append(d.Inserted, *c.row)
		default:
			// includes delete-then-insert, which the client treats as an upsert
			d.Updated = append(d.Updated, *c.row)
		}
	}
	return d
}
