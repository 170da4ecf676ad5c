package connection

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/ipg-client/internal/event"
)

// Option customizes a Manager.
type Option func(*Manager)

// WithDialer replaces the websocket dialer.
func WithDialer(d Dialer) Option {
	return func(m *Manager) {
		m.dialer = d
	}
}

// WithScheduler replaces the time-based scheduler.
func WithScheduler(s Scheduler) Option {
	return func(m *Manager) {
		m.sched = s
	}
}

// WithDecodeErrorHandler sets the handler for frames the codec rejects.
// The default logs the failure.
func WithDecodeErrorHandler(h DecodeErrorHandler) Option {
	return func(m *Manager) {
		m.onDecodeError = h
	}
}

// Manager owns the connection to the game server.
type Manager struct {
	cfg           ManagerConfig
	bus           *event.Bus
	newCodec      CodecFactory
	dialer        Dialer
	sched         Scheduler
	backoff       Backoff
	onDecodeError DecodeErrorHandler
	logger        *slog.Logger
	sessionID     uuid.UUID

	ctx     context.Context
	cancel  context.CancelFunc
	actions chan func()
	done    chan struct{}

	// Written only from the loop (or Close); read by accessors.
	mu             sync.RWMutex
	started        bool
	closed         bool
	status         Status
	transport      Transport
	codec          Codec
	delay          time.Duration
	gen            uint64
	lastOpenAt     time.Time
	pendingTimer   Timer
	reconnectTimer Timer
	keepalive      Timer

	// Loop-owned
	url string

	// Stats
	attempts     atomic.Int64
	reconnects   atomic.Int64
	opens        atomic.Int64
	closes       atomic.Int64
	messages     atomic.Int64
	decodeErrors atomic.Int64
	pingsSent    atomic.Int64
}

// NewManager creates a Connection Manager. newCodec is called once, with the
// first transport.
func NewManager(cfg ManagerConfig, bus *event.Bus, newCodec CodecFactory, logger *slog.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	sessionID := uuid.New()
	ctx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		cfg:       cfg,
		bus:       bus,
		newCodec:  newCodec,
		sched:     NewScheduler(),
		backoff:   Backoff{Floor: cfg.ReconnectBaseWait, Ceiling: cfg.ReconnectMaxWait},
		logger:    logger.With("session_id", sessionID.String()),
		sessionID: sessionID,
		ctx:       ctx,
		cancel:    cancel,
		actions:   make(chan func(), 256),
		done:      make(chan struct{}),
		status:    StatusInit,
		delay:     cfg.ReconnectBaseWait,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.dialer == nil {
		m.dialer = NewDialer(cfg.Transport, m.logger)
	}
	if m.onDecodeError == nil {
		m.onDecodeError = m.logDecodeError
	}

	return m
}

// Connect starts the connection to rawURL. It returns once the first attempt
// is under way; the outcome is reported through the Event Bus.
func (m *Manager) Connect(rawURL string) error {
	if m.newCodec == nil {
		return errors.New("connection: codec factory is nil")
	}

	url, err := ResolveURL(rawURL, m.cfg.SecureOrigin)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.started {
		m.mu.Unlock()
		return ErrAlreadyStarted
	}
	m.started = true
	m.mu.Unlock()

	m.logger.Info("connecting", "url", url)

	go m.loop()
	m.post(func() {
		m.url = url
		m.dial()
	})

	return nil
}

// Close stops timers, closes the transport, and stops the loop. Events from
// transports or timers that arrive afterwards are ignored. A closed manager
// never reports open.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	if m.status == StatusOpen {
		m.status = StatusError
	}
	t := m.transport
	timers := []Timer{m.pendingTimer, m.reconnectTimer, m.keepalive}
	m.pendingTimer, m.reconnectTimer, m.keepalive = nil, nil, nil
	m.mu.Unlock()

	m.cancel()
	close(m.done)

	for _, timer := range timers {
		if timer != nil {
			timer.Stop()
		}
	}
	if t != nil {
		t.Close()
	}

	m.logger.Info("connection manager closed")
	return nil
}

// Send forwards a frame verbatim. Frames sent while the connection is not
// open are dropped and ErrNotConnected is returned.
func (m *Manager) Send(data []byte) error {
	m.mu.RLock()
	closed := m.closed
	status := m.status
	t := m.transport
	m.mu.RUnlock()

	if closed {
		return ErrClosed
	}
	if t == nil || status != StatusOpen {
		return ErrNotConnected
	}
	return t.Send(data)
}

// Status returns the current connection status.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Codec returns the game codec, or nil before the first Connect.
func (m *Manager) Codec() Codec {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.codec
}

// SessionID identifies this manager in logs and recorded history.
func (m *Manager) SessionID() uuid.UUID {
	return m.sessionID
}

// NextDelay returns the wait that will precede the next reconnect.
func (m *Manager) NextDelay() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.delay
}

// Stats returns current statistics.
func (m *Manager) Stats() ManagerStats {
	m.mu.RLock()
	status := m.status
	delay := m.delay
	lastOpen := m.lastOpenAt
	m.mu.RUnlock()

	return ManagerStats{
		Status:           status,
		Attempts:         m.attempts.Load(),
		Reconnects:       m.reconnects.Load(),
		Opens:            m.opens.Load(),
		Closes:           m.closes.Load(),
		MessagesReceived: m.messages.Load(),
		DecodeErrors:     m.decodeErrors.Load(),
		PingsSent:        m.pingsSent.Load(),
		NextDelay:        delay,
		LastOpenAt:       lastOpen,
	}
}

// loop runs every state transition in order.
func (m *Manager) loop() {
	for {
		select {
		case <-m.done:
			return
		case fn := <-m.actions:
			fn()
		}
	}
}

// post enqueues fn on the loop. It reports false once the manager is closed.
func (m *Manager) post(fn func()) bool {
	select {
	case <-m.done:
		return false
	case m.actions <- fn:
		return true
	}
}

// dial creates a fresh transport for the current generation and binds the codec to it.
func (m *Manager) dial() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.gen++
	gen := m.gen
	m.mu.Unlock()

	t := m.dialer.Dial(m.ctx, m.url, m.listener(gen))
	m.attempts.Add(1)

	codec := m.codec
	if codec == nil {
		codec = m.newCodec(t)
	} else {
		codec.Bind(t)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		t.Close()
		return
	}
	m.transport = t
	m.codec = codec
	m.mu.Unlock()

	m.logger.Debug("transport created", "transport_id", t.ID(), "attempt", m.attempts.Load())

	m.setTimer(&m.pendingTimer, m.sched.AfterFunc(m.cfg.PendingThreshold, func() {
		m.post(func() { m.handlePendingElapsed(gen) })
	}))
}

// listener adapts transport callbacks for generation gen onto the loop.
func (m *Manager) listener(gen uint64) Listener {
	return Listener{
		OnOpen: func() {
			m.post(func() { m.handleOpen(gen) })
		},
		OnMessage: func(data []byte) {
			m.post(func() { m.handleMessage(gen, data) })
		},
		OnClose: func(err error) {
			m.post(func() { m.handleClose(gen, err) })
		},
	}
}

func (m *Manager) handleOpen(gen uint64) {
	if m.stale(gen) {
		return
	}

	m.stopTimer(&m.pendingTimer)

	m.mu.Lock()
	m.delay = m.backoff.Floor
	m.lastOpenAt = time.Now()
	m.mu.Unlock()
	m.opens.Add(1)

	// Subscribers may close the manager while the status change is published
	if !m.setStatus(StatusOpen) || m.stale(gen) {
		return
	}
	m.bus.Publish(event.ConnectionOpen)
	if m.stale(gen) {
		return
	}

	m.setTimer(&m.keepalive, m.sched.Every(m.cfg.PingInterval, func() {
		m.post(func() { m.sendPing(gen) })
	}))
}

func (m *Manager) handleMessage(gen uint64, data []byte) {
	if m.stale(gen) {
		return
	}

	m.messages.Add(1)

	name, err := m.codec.Decode(data)
	if err != nil {
		m.decodeErrors.Add(1)
		m.onDecodeError(data, err)
		return
	}
	if name == "" {
		return
	}

	m.bus.Publish(name)
}

func (m *Manager) handleClose(gen uint64, err error) {
	if m.stale(gen) {
		return
	}

	m.stopTimer(&m.keepalive)
	m.stopTimer(&m.pendingTimer)
	m.closes.Add(1)

	delay := m.NextDelay()
	m.logger.Warn("connection closed, reconnect scheduled",
		"error", err,
		"delay", delay,
	)

	if !m.setStatus(StatusError) || m.stale(gen) {
		return
	}
	m.bus.Publish(event.ConnectionClose)
	if m.stale(gen) {
		return
	}

	m.setTimer(&m.reconnectTimer, m.sched.AfterFunc(delay, func() {
		m.post(func() { m.reconnect(gen) })
	}))
}

// reconnect replaces the failed transport and doubles the delay for the next failure.
func (m *Manager) reconnect(gen uint64) {
	if m.stale(gen) {
		return
	}

	m.mu.Lock()
	m.reconnectTimer = nil
	m.delay = m.backoff.Next(m.delay)
	old := m.transport
	m.mu.Unlock()

	if old != nil {
		old.Close()
	}

	m.reconnects.Add(1)
	m.logger.Info("attempting reconnection", "attempt", m.attempts.Load()+1)

	m.dial()
}

// handlePendingElapsed reports a slow first attempt. Retries after a failure
// stay in error until they open.
func (m *Manager) handlePendingElapsed(gen uint64) {
	if m.stale(gen) {
		return
	}

	m.mu.Lock()
	m.pendingTimer = nil
	status := m.status
	m.mu.Unlock()

	if status != StatusInit {
		return
	}
	m.setStatus(StatusPending)
}

func (m *Manager) sendPing(gen uint64) {
	if m.stale(gen) || m.Status() != StatusOpen {
		return
	}

	m.mu.RLock()
	t := m.transport
	m.mu.RUnlock()

	if err := t.Send(PingFrame); err != nil {
		m.logger.Debug("failed to send ping", "error", err)
		return
	}
	m.pingsSent.Add(1)
}

// setStatus is the only place a running manager changes status. Every
// change publishes ConnectionStatusChange. It reports false once the manager
// is closed.
func (m *Manager) setStatus(s Status) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	prev := m.status
	m.status = s
	m.mu.Unlock()

	m.logger.Info("connection status changed", "from", prev.String(), "to", s.String())
	m.bus.Publish(event.ConnectionStatusChange)
	return true
}

// stale reports whether an event for gen should be ignored.
func (m *Manager) stale(gen uint64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed || gen != m.gen
}

// setTimer stores t in slot, stopping it instead if the manager is closed.
func (m *Manager) setTimer(slot *Timer, t Timer) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		t.Stop()
		return
	}
	prev := *slot
	*slot = t
	m.mu.Unlock()

	if prev != nil {
		prev.Stop()
	}
}

func (m *Manager) stopTimer(slot *Timer) {
	m.mu.Lock()
	t := *slot
	*slot = nil
	m.mu.Unlock()

	if t != nil {
		t.Stop()
	}
}

func (m *Manager) logDecodeError(raw []byte, err error) {
	const maxLogged = 256
	frame := raw
	if len(frame) > maxLogged {
		frame = frame[:maxLogged]
	}
	m.logger.Error("failed to decode frame", "error", err, "frame", string(frame))
}
