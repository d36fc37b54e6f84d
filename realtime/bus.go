package realtime

import (
	"context"
	"fmt"
	"sync"
)

// Bus carries change events from the writers to every subscriber, possibly
// across processes.
type Bus interface {
	Publish(ctx context.Context, ev ChangeEvent) error
	// Subscribe delivers events to onEvent until ctx is cancelled.
	Subscribe(ctx context.Context, onEvent func(ChangeEvent)) error
	Close() error
}

// LocalBus delivers events in-process, synchronously and in publish order.
type LocalBus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]func(ChangeEvent)
	closed   bool
}

func NewLocalBus() *LocalBus {
	return &LocalBus{handlers: make(map[int]func(ChangeEvent))}
}

func (b *LocalBus) Publish(ctx context.Context, ev ChangeEvent) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return fmt.Errorf("local bus closed")
	}
	handlers := make([]func(ChangeEvent), 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
	return nil
}

func (b *LocalBus) Subscribe(ctx context.Context, onEvent func(ChangeEvent)) error {
	if onEvent == nil {
		return fmt.Errorf("onEvent callback required")
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return fmt.Errorf("local bus closed")
	}
	id := b.nextID
	b.nextID++
	b.handlers[id] = onEvent
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
	}()
	return nil
}

func (b *LocalBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.handlers = make(map[int]func(ChangeEvent))
	return nil
}
