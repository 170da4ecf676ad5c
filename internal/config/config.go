package config

import "time"

// ClientConfig is the root configuration for a game client.
type ClientConfig struct {
	Server     ServerConfig     `yaml:"server"`
	Connection ConnectionConfig `yaml:"connection"`
	Player     PlayerConfig     `yaml:"player"`
	History    HistoryConfig    `yaml:"history"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig holds the game server address.
type ServerConfig struct {
	URL          string `yaml:"url"`
	SecureOrigin bool   `yaml:"secure_origin"` // Force wss even for ws/http URLs
}

// ConnectionConfig holds connection manager settings.
type ConnectionConfig struct {
	PendingThreshold   time.Duration `yaml:"pending_threshold"`
	ReconnectBaseDelay time.Duration `yaml:"reconnect_base_delay"`
	ReconnectMaxDelay  time.Duration `yaml:"reconnect_max_delay"`
	PingInterval       time.Duration `yaml:"ping_interval"`
	HandshakeTimeout   time.Duration `yaml:"handshake_timeout"`
	WriteTimeout       time.Duration `yaml:"write_timeout"`
	SendRate           *float64      `yaml:"send_rate"` // Outbound frames per second, 0 = unlimited
	SendBurst          int           `yaml:"send_burst"`
}

// OutboundRate returns the configured send rate, or the default when unset.
func (c ConnectionConfig) OutboundRate() float64 {
	if c.SendRate == nil {
		return DefaultSendRate
	}
	return *c.SendRate
}

// PlayerConfig holds the player identity.
type PlayerConfig struct {
	Name string `yaml:"name"`
}

// HistoryConfig holds connection history recording settings.
type HistoryConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Database      DBConfig      `yaml:"database"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	BufferSize    int           `yaml:"buffer_size"`
	MaxBufferSize int           `yaml:"max_buffer_size"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// LoggingConfig holds log settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}
