package history

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/ipg-client/internal/connection"
	"github.com/rickgao/ipg-client/internal/event"
	"github.com/rickgao/ipg-client/internal/model"
)

// DefaultEvents are the connection events recorded when none are given.
var DefaultEvents = []event.Name{
	event.ConnectionStatusChange,
	event.ConnectionOpen,
	event.ConnectionClose,
}

// StatusSource reports the connection state at the time of an event.
// *connection.Manager implements it.
type StatusSource interface {
	Status() connection.Status
	SessionID() uuid.UUID
	Stats() connection.ManagerStats
}

// Recorder turns bus events into history rows.
type Recorder struct {
	bus    *event.Bus
	source StatusSource
	queue  *Queue[model.ConnectionEvent]
	logger *slog.Logger
	now    func() time.Time

	mu     sync.Mutex
	unsubs []event.Unsubscribe
}

// NewRecorder creates a Recorder. Call Start to subscribe.
func NewRecorder(bus *event.Bus, source StatusSource, queue *Queue[model.ConnectionEvent], logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		bus:    bus,
		source: source,
		queue:  queue,
		logger: logger,
		now:    time.Now,
	}
}

// Start subscribes to names, or DefaultEvents when none are given.
func (r *Recorder) Start(names ...event.Name) {
	if len(names) == 0 {
		names = DefaultEvents
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range names {
		r.unsubs = append(r.unsubs, r.bus.Subscribe(name, r.record(name)))
	}
}

// Close unsubscribes from every event.
func (r *Recorder) Close() {
	r.mu.Lock()
	unsubs := r.unsubs
	r.unsubs = nil
	r.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
}

func (r *Recorder) record(name event.Name) event.Callback {
	return func() {
		row := model.NewConnectionEvent(
			r.source.SessionID(),
			string(name),
			r.source.Status().String(),
			r.source.Stats().Attempts,
			r.now(),
		)
		if !r.queue.Push(row) {
			r.logger.Warn("history queue full, event dropped", "event", name)
		}
	}
}
