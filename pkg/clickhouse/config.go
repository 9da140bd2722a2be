package clickhouse

import (
	"errors"
	"time"
)

// Config describes how the report archive reaches ClickHouse.
type Config struct {
	Host     string
	Port     int
	Database string // created by InitSchema when missing
	User     string
	Password string
	UseHTTP  bool

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	QueryTimeout time.Duration // sent as max_execution_time, 0 leaves the server default

	// the archive writes a handful of rows a day, a small pool is plenty
	MaxOpenConns int
	MaxIdleConns int
	ConnLifetime time.Duration
}

// ClientOption configures Client.
type ClientOption func(*Config)

func defaultConfig() Config {
	return Config{
		Port:         9000,
		Database:     "stockbrief",
		User:         "default",
		DialTimeout:  5 * time.Second,
		ReadTimeout:  10 * time.Second,
		MaxOpenConns: 4,
		MaxIdleConns: 2,
		ConnLifetime: 5 * time.Minute,
	}
}

func (c Config) validate() error {
	if c.Host == "" {
		return errors.New("clickhouse: host is required")
	}
	if c.Database == "" {
		return errors.New("clickhouse: database is required")
	}
	return nil
}

func WithHost(host string) ClientOption {
	return func(c *Config) { c.Host = host }
}

// WithPort ignores non-positive values.
func WithPort(port int) ClientOption {
	return func(c *Config) {
		if port > 0 {
			c.Port = port
		}
	}
}

func WithDatabase(database string) ClientOption {
	return func(c *Config) { c.Database = database }
}

func WithCredentials(user, password string) ClientOption {
	return func(c *Config) {
		c.User, c.Password = user, password
	}
}

// WithHTTP switches from the native protocol (9000) to HTTP (8123).
func WithHTTP(useHTTP bool) ClientOption {
	return func(c *Config) { c.UseHTTP = useHTTP }
}

// WithTimeouts sets dial and read timeouts. Zero keeps the default.
func WithTimeouts(dial, read time.Duration) ClientOption {
	return func(c *Config) {
		if dial > 0 {
			c.DialTimeout = dial
		}
		if read > 0 {
			c.ReadTimeout = read
		}
	}
}

func WithMaxExecutionTime(d time.Duration) ClientOption {
	return func(c *Config) { c.QueryTimeout = d }
}
