package realtime

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"salonpro-crm/models"
)

// OrderState is the in-memory order set of one salon, kept current by deltas.
// Soft-deleted orders are never held.
type OrderState struct {
	mu     sync.RWMutex
	rev    uint64
	orders map[uuid.UUID]entry

	// Set while the initial rows load: touched collects the orders deltas
	// wrote so seed does not overwrite them with older rows.
	touched map[uuid.UUID]struct{}
	ready   chan struct{}
	loadErr error
}

type entry struct {
	order models.Order
	rev   uint64
}

func NewOrderState(initial []models.Order) *OrderState {
	s := &OrderState{orders: make(map[uuid.UUID]entry, len(initial))}
	for _, o := range initial {
		if o.Status != models.OrderDeleted {
			s.put(o)
		}
	}
	return s
}

func newLoadingState() *OrderState {
	return &OrderState{
		orders:  make(map[uuid.UUID]entry),
		touched: make(map[uuid.UUID]struct{}),
		ready:   make(chan struct{}),
	}
}

// seed adds the loaded rows, skipping orders a delta already wrote, and
// releases callers waiting on the load.
func (s *OrderState) seed(initial []models.Order) {
	s.mu.Lock()
	for _, o := range initial {
		if _, ok := s.touched[o.ID]; ok || o.Status == models.OrderDeleted {
			continue
		}
		s.put(o)
	}
	s.touched = nil
	s.mu.Unlock()
	close(s.ready)
}

func (s *OrderState) fail(err error) {
	s.loadErr = err
	close(s.ready)
}

// wait blocks until a loading state is seeded or its load failed.
func (s *OrderState) wait(ctx context.Context) error {
	if s.ready == nil {
		return nil
	}
	select {
	case <-s.ready:
		return s.loadErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *OrderState) touch(id uuid.UUID) {
	if s.touched != nil {
		s.touched[id] = struct{}{}
	}
}

func (s *OrderState) put(o models.Order) uint64 {
	s.rev++
	s.orders[o.ID] = entry{order: o, rev: s.rev}
	return s.rev
}

// Apply folds a delta in. Updates of unknown orders are upserted; an update
// to status deleted removes the order.
func (s *OrderState) Apply(d Delta) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range d.Inserted {
		s.upsert(o)
	}
	for _, o := range d.Updated {
		s.upsert(o)
	}
	for _, id := range d.Deleted {
		s.touch(id)
		delete(s.orders, id)
	}
}

func (s *OrderState) upsert(o models.Order) {
	s.touch(o.ID)
	if o.Status == models.OrderDeleted {
		delete(s.orders, o.ID)
		return
	}
	s.put(o)
}

// Revert undoes an optimistic write. It returns the restored row (nil when the
// order did not exist before) and false when a newer write already replaced it.
type Revert func() (restored *models.Order, reverted bool)

// ApplyOptimistic stores o immediately and returns its Revert.
func (s *OrderState) ApplyOptimistic(o models.Order) Revert {
	s.mu.Lock()
	prev, existed := s.orders[o.ID]
	rev := s.put(o)
	s.mu.Unlock()

	return func() (*models.Order, bool) {
		s.mu.Lock()
		defer s.mu.Unlock()
		cur, ok := s.orders[o.ID]
		if !ok || cur.rev != rev {
			return nil, false
		}
		if existed {
			s.put(prev.order)
			restored := prev.order
			return &restored, true
		}
		delete(s.orders, o.ID)
		return nil, true
	}
}

func (s *OrderState) Get(id uuid.UUID) (models.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.orders[id]
	return e.order, ok
}

func (s *OrderState) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}

// Snapshot returns the orders sorted by start time.
func (s *OrderState) Snapshot() []models.Order {
	s.mu.RLock()
	out := make([]models.Order, 0, len(s.orders))
	for _, e := range s.orders {
		out = append(out, e.order)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartAt.Equal(out[j].StartAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].StartAt.Before(out[j].StartAt)
	})
	return out
}
