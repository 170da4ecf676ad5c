package event

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// Name identifies an event. Names produced by this repository are declared as
// constants; protocol tags defined by a codec convert with Name(tag).
type Name string

// Events published by the connection manager.
const (
	ConnectionStatusChange Name = "ConnectionStatusChange"
	ConnectionOpen         Name = "ConnectionOpen"
	ConnectionClose        Name = "ConnectionClose"
)

// Callback is invoked on Publish. It receives no payload.
type Callback func()

// Unsubscribe removes the registration that produced it. Calling it more than
// once is a no-op.
type Unsubscribe func()

// entry is one registration. Identical callbacks registered twice are two entries.
type entry struct {
	id     uint64
	cb     Callback
	active atomic.Bool
}

// Stats contains bus counters.
type Stats struct {
	Published int64
	Delivered int64
	Panics    int64
}

// Bus is a synchronous publish/subscribe table keyed by event name.
type Bus struct {
	logger *slog.Logger

	mu     sync.Mutex
	subs   map[Name][]*entry
	nextID uint64

	published atomic.Int64
	delivered atomic.Int64
	panics    atomic.Int64
}

// NewBus creates an empty bus.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}

	return &Bus{
		logger: logger,
		subs:   make(map[Name][]*entry),
	}
}

// Subscribe registers cb for name and returns a handle that removes it.
func (b *Bus) Subscribe(name Name, cb Callback) Unsubscribe {
	b.mu.Lock()
	b.nextID++
	e := &entry{id: b.nextID, cb: cb}
	e.active.Store(true)
	b.subs[name] = append(b.subs[name], e)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(name, e) })
	}
}

// Publish invokes every callback registered for name, in registration order.
//
// Dispatch runs over the list as it was when Publish started. A callback
// removed during dispatch is skipped if its turn has not come yet; callbacks
// added during dispatch run on the next Publish. A panicking callback is
// recovered and logged, and the remaining callbacks still run.
func (b *Bus) Publish(name Name) {
	b.mu.Lock()
	snapshot := make([]*entry, len(b.subs[name]))
	copy(snapshot, b.subs[name])
	b.mu.Unlock()

	b.published.Add(1)

	for _, e := range snapshot {
		if !e.active.Load() {
			continue
		}
		b.invoke(name, e)
	}
}

// Subscribers returns the number of live registrations for name.
func (b *Bus) Subscribers(name Name) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[name])
}

// Stats returns current counters.
func (b *Bus) Stats() Stats {
	return Stats{
		Published: b.published.Load(),
		Delivered: b.delivered.Load(),
		Panics:    b.panics.Load(),
	}
}

func (b *Bus) invoke(name Name, e *entry) {
	defer func() {
		if r := recover(); r != nil {
			b.panics.Add(1)
			b.logger.Error("event subscriber panicked",
				"event", string(name),
				"subscription", e.id,
				"panic", r,
			)
		}
	}()

	e.cb()
	b.delivered.Add(1)
}

func (b *Bus) remove(name Name, target *entry) {
	target.active.Store(false)

	b.mu.Lock()
	defer b.mu.Unlock()

	list := b.subs[name]
	for i, e := range list {
		if e != target {
			continue
		}
		// Copy instead of shifting in place so in-flight snapshots stay intact.
		next := make([]*entry, 0, len(list)-1)
		next = append(next, list[:i]...)
		next = append(next, list[i+1:]...)
		if len(next) == 0 {
			delete(b.subs, name)
		} else {
			b.subs[name] = next
		}
		return
	}
}
