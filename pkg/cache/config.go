package cache

import "time"

// RedisOption configures a RedisCache.
type RedisOption func(*redisOptions)

type redisOptions struct {
	addr        string
	password    string
	db          int
	poolSize    int
	minIdle     int
	poolTimeout time.Duration
	pingTimeout time.Duration
	prefix      string
}

// WithRedisAddr sets the server address as host:port.
func WithRedisAddr(addr string) RedisOption {
	return func(o *redisOptions) {
		if addr != "" {
			o.addr = addr
		}
	}
}

// WithRedisAuth selects the logical database and the password for it.
func WithRedisAuth(password string, db int) RedisOption {
	return func(o *redisOptions) {
		o.password = password
		o.db = db
	}
}

// WithRedisPool sizes the pool; idle connections default to half the pool.
func WithRedisPool(size int, timeout time.Duration) RedisOption {
	return func(o *redisOptions) {
		if size > 0 {
			o.poolSize = size
			o.minIdle = size / 2
		}
		if timeout > 0 {
			o.poolTimeout = timeout
		}
	}
}

// WithRedisPrefix namespaces every key. Replicas sharing a prefix share entries.
func WithRedisPrefix(prefix string) RedisOption {
	return func(o *redisOptions) { o.prefix = prefix }
}

// MemoryOption configures a MemoryCache.
type MemoryOption func(*memoryOptions)

type memoryOptions struct {
	maxEntries int
	sweepEvery time.Duration
}

// WithMemoryMaxSize caps the number of entries; the least recently used goes first.
func WithMemoryMaxSize(n int) MemoryOption {
	return func(o *memoryOptions) { o.maxEntries = n }
}

// WithMemoryCleanup sets how often expired entries are swept.
func WithMemoryCleanup(every time.Duration) MemoryOption {
	return func(o *memoryOptions) {
		if every > 0 {
			o.sweepEvery = every
		}
	}
}

// LayeredOption configures a LayeredCache.
type LayeredOption func(*layeredOptions)

type layeredOptions struct {
	l1Entries int
	l1TTL     time.Duration
}

// WithLayeredMemorySize caps the L1 entries.
func WithLayeredMemorySize(n int) LayeredOption {
	return func(o *layeredOptions) {
		if n > 0 {
			o.l1Entries = n
		}
	}
}

// WithLayeredL1TTL caps how long an entry stays in L1.
func WithLayeredL1TTL(ttl time.Duration) LayeredOption {
	return func(o *layeredOptions) {
		if ttl > 0 {
			o.l1TTL = ttl
		}
	}
}
