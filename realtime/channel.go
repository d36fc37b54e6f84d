package realtime

import "sync"

// Channel routes one table's change events to the callbacks registered with On.
type Channel struct {
	table    string
	mu       sync.RWMutex
	handlers map[EventType][]func(ChangeEvent)
}

func NewChannel(table string) *Channel {
	return &Channel{table: table, handlers: make(map[EventType][]func(ChangeEvent))}
}

// On registers fn for events of typ (EventAll for every type) and returns the
// channel so registrations chain.
func (c *Channel) On(typ EventType, fn func(ChangeEvent)) *Channel {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[typ] = append(c.handlers[typ], fn)
	return c
}

// Dispatch runs the matching callbacks. Events for other tables are ignored.
func (c *Channel) Dispatch(ev ChangeEvent) {
	if ev.Table != c.table {
		return
	}
	c.mu.RLock()
	specific := c.handlers[ev.Type]
	all := c.handlers[EventAll]
	c.mu.RUnlock()

	for _, fn := range specific {
		fn(ev)
	}
	for _, fn := range all {
		fn(ev)
	}
}
