package realtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"salonpro-crm/logger"
	"salonpro-crm/metrics"
	"salonpro-crm/models"
)

// Loader fetches a salon's current orders when its state is first needed.
type Loader func(ctx context.Context, salonID uuid.UUID) ([]models.Order, error)

// Adapter ties the pieces together: writers publish change events on the
// bus, the orders channel feeds the batcher, each flushed batch is reconciled
// into the salon's OrderState and pushed to SSE subscribers as one delta.
type Adapter struct {
	bus     Bus
	hub     *Hub
	batcher *Batcher
	orders  *Channel
	chat    *Channel
	load    Loader
	log     *logger.Logger
	rec     metrics.Recorder

	mu     sync.Mutex
	states map[uuid.UUID]*OrderState
	cancel context.CancelFunc
}

type Options struct {
	Bus         Bus
	Hub         *Hub
	BatchWindow time.Duration
	Loader      Loader
	Logger      *logger.Logger
	Metrics     metrics.Recorder
}

func NewAdapter(opts Options) *Adapter {
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Nop()
	}
	if opts.Bus == nil {
		opts.Bus = NewLocalBus()
	}
	if opts.Hub == nil {
		opts.Hub = NewHub(opts.Logger)
	}

	a := &Adapter{
		bus:    opts.Bus,
		hub:    opts.Hub,
		load:   opts.Loader,
		log:    opts.Logger.With("component", "RealtimeAdapter"),
		rec:    opts.Metrics,
		states: make(map[uuid.UUID]*OrderState),
		orders: NewChannel(TableOrders),
		chat:   NewChannel(TableChat),
	}
	a.batcher = NewBatcher(opts.BatchWindow, a.flush)

	a.orders.On(EventAll, func(ev ChangeEvent) {
		a.rec.IncRealtimeEvent(ev.Table, string(ev.Type))
		a.batcher.Add(ev)
	})
	a.chat.On(EventInsert, func(ev ChangeEvent) {
		a.rec.IncRealtimeEvent(ev.Table, string(ev.Type))
		if ev.Message != nil {
			a.hub.Broadcast(Message{Channel: ChatChannel(ev.SalonID), Event: StreamChat, Data: ev.Message})
		}
	})
	return a
}

// Start subscribes to the bus until ctx is cancelled or Close is called.
func (a *Adapter) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	a.mu.Lock()
	a.cancel = cancel
	a.mu.Unlock()

	if err := a.bus.Subscribe(ctx, a.dispatch); err != nil {
		cancel()
		return fmt.Errorf("realtime subscribe: %w", err)
	}
	return nil
}

func (a *Adapter) dispatch(ev ChangeEvent) {
	a.orders.Dispatch(ev)
	a.chat.Dispatch(ev)
}

func (a *Adapter) Hub() *Hub { return a.hub }

// PublishOrder announces a committed order write.
func (a *Adapter) PublishOrder(ctx context.Context, typ EventType, old, new *models.Order) error {
	return a.bus.Publish(ctx, NewOrderEvent(typ, old, new))
}

func (a *Adapter) PublishChat(ctx context.Context, msg *models.ChatMessage) error {
	return a.bus.Publish(ctx, NewChatEvent(msg))
}

// State returns the salon's order state, loading it on first use. The state is
// registered before the load so deltas flushed meanwhile are kept.
func (a *Adapter) State(ctx context.Context, salonID uuid.UUID) (*OrderState, error) {
	a.mu.Lock()
	if s, ok := a.states[salonID]; ok {
		a.mu.Unlock()
		if err := s.wait(ctx); err != nil {
			return nil, err
		}
		return s, nil
	}
	s := newLoadingState()
	a.states[salonID] = s
	a.mu.Unlock()

	var initial []models.Order
	if a.load != nil {
		var err error
		initial, err = a.load(ctx, salonID)
		if err != nil {
			err = fmt.Errorf("load orders for salon %s: %w", salonID, err)
			a.mu.Lock()
			delete(a.states, salonID)
			a.mu.Unlock()
			s.fail(err)
			return nil, err
		}
	}
	s.seed(initial)
	return s, nil
}

// Optimistic applies o to the salon state ahead of the database write and
// pushes it to subscribers. Call the returned func if the write fails.
func (a *Adapter) Optimistic(ctx context.Context, o models.Order) (func(), error) {
	state, err := a.State(ctx, o.SalonID)
	if err != nil {
		return func() {}, err
	}
	revert := state.ApplyOptimistic(o)
	channel := OrdersChannel(o.SalonID)
	a.hub.Broadcast(Message{Channel: channel, Event: StreamOptimistic, Data: Delta{Updated: []models.Order{o}}})

	return func() {
		restored, ok := revert()
		if !ok {
			return
		}
		d := Delta{Inserted: []models.Order{}, Updated: []models.Order{}, Deleted: []uuid.UUID{}}
		if restored != nil {
			d.Updated = append(d.Updated, *restored)
		} else {
			d.Deleted = append(d.Deleted, o.ID)
		}
		a.log.Debug("optimistic order write reverted", "orderID", o.ID, "salonID", o.SalonID)
		a.hub.Broadcast(Message{Channel: channel, Event: StreamRevert, Data: d})
	}, nil
}

func (a *Adapter) flush(b Batch) {
	a.rec.ObserveRealtimeBatch(len(b.Events))
	d := Reconcile(b.Events)
	if d.Empty() {
		return
	}

	a.mu.Lock()
	state, ok := a.states[b.SalonID]
	a.mu.Unlock()
	if ok {
		state.Apply(d)
	}

	a.hub.Broadcast(Message{Channel: OrdersChannel(b.SalonID), Event: StreamDelta, Data: d})
}

// Close stops the subscription and flushes pending batches.
func (a *Adapter) Close() error {
	a.mu.Lock()
	cancel := a.cancel
	a.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	a.batcher.Close()
	return a.bus.Close()
}
