// Package config handles application configuration via environment variables.
// It uses kelseyhightower/envconfig for parsing and provides sensible defaults.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config holds all application configuration.
// Values are loaded from environment variables with the prefix "APP".
// Example: APP_PORT=8080, APP_STORE_DRIVER=postgres
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Database  DatabaseConfig
	Log       LogConfig
	Game      GameConfig
	WebSocket WebSocketConfig
	Telemetry TelemetryConfig
	Lobby     LobbyConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Port is the HTTP server port (default: 8080)
	Port int `envconfig:"PORT" default:"8080"`

	// Host is the HTTP server host (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// ReadTimeout is the maximum duration for reading the entire request (default: 10s)
	ReadTimeout time.Duration `envconfig:"READ_TIMEOUT" default:"10s"`

	// WriteTimeout is the maximum duration before timing out writes of the response (default: 30s)
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"30s"`

	// ShutdownTimeout is the maximum duration to wait for active connections to finish (default: 30s)
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`

	// Mode is the gin mode: debug, release, test (default: release)
	Mode string `envconfig:"GIN_MODE" default:"release"`
}

// StoreConfig selects the event store.
type StoreConfig struct {
	// Driver is one of postgres, sqlite, memory (default: sqlite)
	Driver string `envconfig:"STORE_DRIVER" default:"sqlite"`

	// SQLitePath is the database file used by the sqlite driver.
	SQLitePath string `envconfig:"SQLITE_PATH" default:"pulljoker.db"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name     string `envconfig:"DB_NAME" default:"pulljoker"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	// MaxOpenConns is the maximum number of open connections (default: 25)
	MaxOpenConns int `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`

	// MaxIdleConns is the minimum number of connections kept open (default: 5)
	MaxIdleConns int `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`

	// ConnMaxLifetime is the maximum lifetime of a connection (default: 5m)
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	// Level is the log level: debug, info, warn, error (default: info)
	Level string `envconfig:"LOG_LEVEL" default:"info"`

	// Format is the log format: json, text, plain (default: json)
	Format string `envconfig:"LOG_FORMAT" default:"json"`
}

// GameConfig tunes command handling.
type GameConfig struct {
	// RetryMaxAttempts bounds re-runs of a command that lost an append race.
	RetryMaxAttempts int `envconfig:"RETRY_MAX_ATTEMPTS" default:"3"`

	RetryInitialBackoff time.Duration `envconfig:"RETRY_INITIAL_BACKOFF" default:"20ms"`
	RetryMaxBackoff     time.Duration `envconfig:"RETRY_MAX_BACKOFF" default:"250ms"`

	// DrawRandomCard makes the server choose the drawn card. Used by CI bots.
	DrawRandomCard bool `envconfig:"DRAW_RANDOM_CARD" default:"false"`
}

// WebSocketConfig holds real-time connection settings.
type WebSocketConfig struct {
	ReadLimit    int64         `envconfig:"WS_READ_LIMIT" default:"4096"`
	PingInterval time.Duration `envconfig:"WS_PING_INTERVAL" default:"30s"`
	WriteWait    time.Duration `envconfig:"WS_WRITE_WAIT" default:"10s"`
	SendBuffer   int           `envconfig:"WS_SEND_BUFFER" default:"64"`

	// AllowedOrigins is a comma separated list; empty allows any origin.
	AllowedOrigins string `envconfig:"WS_ALLOWED_ORIGINS" default:""`
}

// TelemetryConfig holds OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled     bool   `envconfig:"OTEL_ENABLED" default:"false"`
	Endpoint    string `envconfig:"OTEL_ENDPOINT" default:""`
	ServiceName string `envconfig:"OTEL_SERVICE_NAME" default:"pulljoker"`
}

// LobbyConfig points at the lobby service that hosts rooms.
type LobbyConfig struct {
	// BackendURL receives a notification when a game ends. Empty disables it.
	BackendURL string `envconfig:"LOBBY_BACKEND_URL" default:""`

	// FrontendURL is the base of the game URLs handed to players.
	FrontendURL string `envconfig:"FRONTEND_URL" default:"http://localhost:3000"`

	// NotifyTimeout bounds each notification request.
	NotifyTimeout time.Duration `envconfig:"LOBBY_NOTIFY_TIMEOUT" default:"5s"`
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

// Addr returns the server address in host:port format.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Origins splits AllowedOrigins.
func (c *WebSocketConfig) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Validate rejects combinations envconfig cannot express.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Game.RetryMaxAttempts < 1 {
		return fmt.Errorf("retry max attempts must be at least 1, got %d", c.Game.RetryMaxAttempts)
	}
	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		return fmt.Errorf("telemetry enabled without an endpoint")
	}
	return nil
}

// Load reads configuration from environment variables.
// It returns an error if required variables are missing or invalid.
func Load() (*Config, error) {
	var cfg Config

	// Each section is processed on its own so names stay flat (APP_PORT,
	// not APP_SERVER_PORT).
	sections := []struct {
		name string
		spec any
	}{
		{"server", &cfg.Server},
		{"store", &cfg.Store},
		{"database", &cfg.Database},
		{"log", &cfg.Log},
		{"game", &cfg.Game},
		{"websocket", &cfg.WebSocket},
		{"telemetry", &cfg.Telemetry},
		{"lobby", &cfg.Lobby},
	}
	for _, s := range sections {
		if err := envconfig.Process("APP", s.spec); err != nil {
			return nil, fmt.Errorf("failed to load %s config: %w", s.name, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// MustLoad loads configuration and panics on error.
// Use this only in main.go during startup.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
