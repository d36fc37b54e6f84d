package realtime

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const DefaultBatchWindow = 100 * time.Millisecond

// Batch is every event one salon produced inside a window, in arrival order.
type Batch struct {
	SalonID uuid.UUID
	Events  []ChangeEvent
}

// Batcher groups events per salon. The first event for a salon opens a window;
// everything arriving before it closes is flushed together.
type Batcher struct {
	window time.Duration
	flush  func(Batch)

	mu      sync.Mutex
	pending map[uuid.UUID]*pendingBatch
	closed  bool
}

type pendingBatch struct {
	events []ChangeEvent
	timer  *time.Timer
}

func NewBatcher(window time.Duration, flush func(Batch)) *Batcher {
	if window <= 0 {
		window = DefaultBatchWindow
	}
	return &Batcher{
		window:  window,
		flush:   flush,
		pending: make(map[uuid.UUID]*pendingBatch),
	}
}

func (b *Batcher) Add(ev ChangeEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	p, ok := b.pending[ev.SalonID]
	if !ok {
		p = &pendingBatch{}
		salonID := ev.SalonID
		p.timer = time.AfterFunc(b.window, func() { b.flushSalon(salonID) })
		b.pending[salonID] = p
	}
	p.events = append(p.events, ev)
}

func (b *Batcher) flushSalon(salonID uuid.UUID) {
	b.mu.Lock()
	p, ok := b.pending[salonID]
	if ok {
		delete(b.pending, salonID)
	}
	b.mu.Unlock()

	if ok && len(p.events) > 0 {
		b.flush(Batch{SalonID: salonID, Events: p.events})
	}
}

// Flush emits every pending batch now.
func (b *Batcher) Flush() {
	b.mu.Lock()
	ids := make([]uuid.UUID, 0, len(b.pending))
	for id, p := range b.pending {
		p.timer.Stop()
		ids = append(ids, id)
	}
	b.mu.Unlock()

	for _, id := range ids {
		b.flushSalon(id)
	}
}

// Close flushes what is pending and drops later events.
func (b *Batcher) Close() {
	b.Flush()
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
}
