package connection

import (
	"errors"
	"time"
)

// Errors
var (
	ErrNotConnected      = errors.New("not connected")
	ErrClosed            = errors.New("connection manager closed")
	ErrAlreadyStarted    = errors.New("connection already started")
	ErrRateLimited       = errors.New("outbound rate limit exceeded")
	ErrUnsupportedScheme = errors.New("unsupported url scheme")
	ErrTransportClosed   = errors.New("transport closed")
)

// Status is the connection state observed by consumers.
type Status int

const (
	// StatusInit means the manager exists but no attempt has resolved yet.
	StatusInit Status = iota
	// StatusPending means an attempt has been outstanding longer than the
	// pending threshold.
	StatusPending
	// StatusOpen means the transport is live.
	StatusOpen
	// StatusError means the transport closed or failed and a reconnect is scheduled.
	StatusError
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusInit:
		return "init"
	case StatusPending:
		return "pending"
	case StatusOpen:
		return "open"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// PingFrame is the application-level keep-alive, a bare JSON string.
var PingFrame = []byte(`"Ping"`)

// TransportConfig configures the websocket transport.
type TransportConfig struct {
	HandshakeTimeout time.Duration // Dial + upgrade deadline
	WriteTimeout     time.Duration // Write deadline for sends
	SendRate         float64       // Outbound frames per second (0 = unlimited)
	SendBurst        int           // Outbound burst size
}

// DefaultTransportConfig returns sensible defaults.
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
		SendRate:         20,
		SendBurst:        40,
	}
}

// ManagerConfig configures the Connection Manager.
type ManagerConfig struct {
	SecureOrigin      bool          // Upgrade ws:// to wss:// before dialing
	PendingThreshold  time.Duration // Delay before an outstanding attempt is reported as pending
	ReconnectBaseWait time.Duration // Backoff floor, restored on every successful open
	ReconnectMaxWait  time.Duration // Backoff ceiling
	PingInterval      time.Duration // Keep-alive interval while open
	Transport         TransportConfig
}

// DefaultManagerConfig returns sensible defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		PendingThreshold:  1 * time.Second,
		ReconnectBaseWait: 1 * time.Second,
		ReconnectMaxWait:  8 * time.Second,
		PingInterval:      30 * time.Second,
		Transport:         DefaultTransportConfig(),
	}
}

// ManagerStats provides statistics about the connection manager.
type ManagerStats struct {
	Status           Status
	Attempts         int64 // Transports dialed, including the first
	Reconnects       int64 // Transports dialed by the retry timer
	Opens            int64
	Closes           int64
	MessagesReceived int64
	DecodeErrors     int64
	PingsSent        int64
	NextDelay        time.Duration
	LastOpenAt       time.Time
}
