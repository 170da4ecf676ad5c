package connection

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/rickgao/ipg-client/internal/version"
)

// Transport is a single websocket connection. It is never reused: the manager
// dials a new one for every attempt.
type Transport interface {
	// ID returns a unique identifier for this transport.
	ID() string

	// Send writes one text frame.
	Send(data []byte) error

	// Close tears the connection down. OnClose still fires once afterwards.
	Close() error
}

// Listener receives transport lifecycle events. For a given transport the
// callbacks run sequentially on the transport's goroutine: at most one OnOpen,
// any number of OnMessage, then exactly one OnClose.
type Listener struct {
	OnOpen    func()
	OnMessage func(data []byte)
	OnClose   func(err error)
}

// Dialer creates transports. Dial returns immediately; the outcome of the
// attempt is reported through the listener.
type Dialer interface {
	Dial(ctx context.Context, url string, l Listener) Transport
}

// wsDialer dials gorilla websocket transports.
type wsDialer struct {
	cfg    TransportConfig
	logger *slog.Logger
}

// NewDialer creates a websocket Dialer.
func NewDialer(cfg TransportConfig, logger *slog.Logger) Dialer {
	if logger == nil {
		logger = slog.Default()
	}

	return &wsDialer{cfg: cfg, logger: logger}
}

// Dial starts connecting to url in the background.
func (d *wsDialer) Dial(ctx context.Context, url string, l Listener) Transport {
	id := uuid.NewString()

	var limiter *rate.Limiter
	if d.cfg.SendRate > 0 {
		burst := d.cfg.SendBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(d.cfg.SendRate), burst)
	}

	ctx, cancel := context.WithCancel(ctx)
	t := &wsTransport{
		id:       id,
		url:      url,
		cfg:      d.cfg,
		logger:   d.logger.With("transport_id", id),
		listener: l,
		limiter:  limiter,
		ctx:      ctx,
		cancel:   cancel,
	}

	go t.run()

	return t
}

// wsTransport implements Transport over gorilla/websocket.
type wsTransport struct {
	id       string
	url      string
	cfg      TransportConfig
	logger   *slog.Logger
	listener Listener
	limiter  *rate.Limiter

	ctx    context.Context
	cancel context.CancelFunc

	// Write serialization
	writeMu sync.Mutex

	// State
	mu        sync.RWMutex
	conn      *websocket.Conn
	connected bool
	closed    bool

	finishOnce sync.Once
}

// ID returns the transport identifier.
func (t *wsTransport) ID() string {
	return t.id
}

// Send writes a text frame.
func (t *wsTransport) Send(data []byte) error {
	t.mu.RLock()
	conn := t.conn
	connected := t.connected
	t.mu.RUnlock()

	if !connected || conn == nil {
		return ErrNotConnected
	}

	if t.limiter != nil && !t.limiter.Allow() {
		return ErrRateLimited
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(t.cfg.WriteTimeout))
	return conn.WriteMessage(websocket.TextMessage, data)
}

// Close gracefully closes the connection.
func (t *wsTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	conn := t.conn
	t.mu.Unlock()

	// Abort a dial still in progress
	t.cancel()

	if conn == nil {
		return nil
	}

	// WriteControl may run concurrently with WriteMessage
	conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)

	return conn.Close()
}

// run dials, then reads until the connection fails.
func (t *wsTransport) run() {
	dialer := websocket.Dialer{
		HandshakeTimeout: t.cfg.HandshakeTimeout,
	}

	header := http.Header{}
	header.Set("User-Agent", version.UserAgent())

	conn, _, err := dialer.DialContext(t.ctx, t.url, header)
	if err != nil {
		t.logger.Debug("websocket dial failed", "url", t.url, "error", err)
		t.finish(err)
		return
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		conn.Close()
		t.finish(ErrTransportClosed)
		return
	}
	t.conn = conn
	t.connected = true
	t.mu.Unlock()

	t.logger.Debug("websocket connected", "url", t.url)

	if t.listener.OnOpen != nil {
		t.listener.OnOpen()
	}

	t.readLoop(conn)
}

// readLoop hands every inbound frame to the listener.
func (t *wsTransport) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.mu.RLock()
			closed := t.closed
			t.mu.RUnlock()
			if closed {
				err = ErrTransportClosed
			}
			t.finish(err)
			return
		}

		if t.listener.OnMessage != nil {
			t.listener.OnMessage(data)
		}
	}
}

// finish marks the transport dead and reports the close exactly once.
func (t *wsTransport) finish(err error) {
	t.finishOnce.Do(func() {
		t.mu.Lock()
		t.connected = false
		conn := t.conn
		t.mu.Unlock()

		if conn != nil {
			conn.Close()
		}
		t.cancel()

		if t.listener.OnClose != nil {
			t.listener.OnClose(err)
		}
	})
}
