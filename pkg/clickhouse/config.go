package clickhouse

import "time"

// Option configures a Client.
type Option func(*Config)

// Settings are server-side query settings sent with every connection.
type Settings struct {
	AsyncInsert      bool
	WaitAsyncInsert  bool
	MaxExecutionTime time.Duration
}

// Config describes how to reach the archive database.
type Config struct {
	Addr     string // host:port
	Database string
	User     string
	Password string
	HTTP     bool

	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	Settings Settings
}

func defaultConfig() *Config {
	return &Config{
		Database:     "default",
		User:         "default",
		MaxOpen:      10,
		MaxIdle:      5,
		MaxLifetime:  5 * time.Minute,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// WithAddr sets the server address. useHTTP selects the HTTP interface over the native protocol.
func WithAddr(host string, port int, useHTTP bool) Option {
	return func(c *Config) {
		if host != "" {
			c.Addr = joinHostPort(host, port, useHTTP)
		}
		c.HTTP = useHTTP
	}
}

// WithAuth sets the database and the credentials used to open it.
func WithAuth(database, user, password string) Option {
	return func(c *Config) {
		if database != "" {
			c.Database = database
		}
		if user != "" {
			c.User = user
		}
		c.Password = password
	}
}

// WithPool sizes the connection pool.
func WithPool(maxOpen, maxIdle int, lifetime time.Duration) Option {
	return func(c *Config) {
		if maxOpen > 0 {
			c.MaxOpen = maxOpen
		}
		if maxIdle >= 0 {
			c.MaxIdle = maxIdle
		}
		if lifetime > 0 {
			c.MaxLifetime = lifetime
		}
	}
}

// WithTimeouts sets dial, read and write timeouts. Zero keeps the default.
func WithTimeouts(dial, read, write time.Duration) Option {
	return func(c *Config) {
		if dial > 0 {
			c.DialTimeout = dial
		}
		if read > 0 {
			c.ReadTimeout = read
		}
		if write > 0 {
			c.WriteTimeout = write
		}
	}
}

// WithSettings sets server-side query settings.
func WithSettings(s Settings) Option {
	return func(c *Config) { c.Settings = s }
}
