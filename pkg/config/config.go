package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"PriceBoard/pkg/logger"
)

type Config struct {
	Environment string        `yaml:"environment" default:"development"`
	Server      ServerConfig  `yaml:"server"`
	Logger      logger.Config `yaml:"logger"`
	LogShipping struct {
		Enabled        bool          `yaml:"enabled"`
		Topic          string        `yaml:"topic" default:"logs.aggregated"`
		Interval       time.Duration `yaml:"interval" default:"30s"`
		CountThreshold int           `yaml:"count_threshold" default:"100"`
	} `yaml:"log_shipping"`
	Metrics struct {
		Enabled       bool          `yaml:"enabled" default:"true"`
		Path          string        `yaml:"path" default:"/metrics"`
		SlowThreshold time.Duration `yaml:"slow_threshold" default:"500ms"`
	} `yaml:"metrics"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Cache    struct {
		Type          string        `yaml:"type" default:"memory"` // memory | layered
		PredictionTTL time.Duration `yaml:"prediction_ttl" default:"5m"`
		NewsTTL       time.Duration `yaml:"news_ttl" default:"10m"`
		MemoryMaxSize int           `yaml:"memory_max_size" default:"256"`
	} `yaml:"cache"`
	Redis struct {
		Host     string `yaml:"host" default:"localhost"`
		Port     int    `yaml:"port" default:"6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size" default:"10"`
		Prefix   string `yaml:"prefix" default:"priceboard"`
	} `yaml:"redis"`
	Refresh struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Cron    string `yaml:"cron" default:"0 */10 * * * *"`
		Dev     bool   `yaml:"dev"`
	} `yaml:"refresh"`
	Queue struct {
		Enabled    bool          `yaml:"enabled"`
		Workers    int           `yaml:"workers" default:"2"`
		RetryLimit int           `yaml:"retry_limit" default:"3"`
		RetryDelay time.Duration `yaml:"retry_delay" default:"10s"`
		Prefix     string        `yaml:"prefix" default:"priceboard:queue"`
	} `yaml:"queue"`
	Archive struct {
		Backend string `yaml:"backend" default:"none"` // none | kafka | clickhouse
	} `yaml:"archive"`
	Kafka struct {
		Brokers       []string `yaml:"brokers"`
		SnapshotTopic string   `yaml:"snapshot_topic" default:"prediction.snapshots"`
		Compression   string   `yaml:"compression" default:"gzip"`
		RequiredAcks  int      `yaml:"required_acks" default:"-1"`
		Producer      struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"1s"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			Enabled    bool          `yaml:"enabled"`
			Topic      string        `yaml:"topic" default:"prediction.updated"`
			GroupID    string        `yaml:"group_id" default:"priceboard"`
			Workers    int           `yaml:"workers" default:"1"`
			BufferSize int           `yaml:"buffer_size" default:"16"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"50ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"2s"`
			MinBytes   int           `yaml:"min_bytes" default:"1"`
			MaxBytes   int           `yaml:"max_bytes" default:"1048576"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"priceboard"`
		Table            string        `yaml:"table" default:"prediction_points"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
	} `yaml:"clickhouse"`
	News struct {
		PerPage int `yaml:"per_page" default:"5"`
	} `yaml:"news"`
	RateLimit struct {
		Capacity     float64 `yaml:"capacity" default:"20"`
		RefillPerSec float64 `yaml:"refill_per_sec" default:"10"`
	} `yaml:"rate_limit"`
	Websocket struct {
		PingInterval time.Duration `yaml:"ping_interval" default:"30s"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		SendBuffer   int           `yaml:"send_buffer" default:"16"`
	} `yaml:"websocket"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" default:"0.0.0.0"`
	Port            int           `yaml:"port" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	CORS            bool          `yaml:"cors" default:"true"`
	CORSOrigins     []string      `yaml:"cors_origins"`
}

// UpstreamConfig points at the prediction API the dashboard reads.
type UpstreamConfig struct {
	BaseURL      string        `yaml:"base_url" default:"http://127.0.0.1:8000"`
	Timeout      time.Duration `yaml:"timeout" default:"10s"`
	Attempts     int           `yaml:"attempts" default:"3"`
	RetryBackoff time.Duration `yaml:"retry_backoff" default:"200ms"`
	DevMode      bool          `yaml:"dev_mode" default:"true"`
}

// Default returns a config populated only from struct-tag defaults.
func Default() *Config {
	var c Config
	if err := defaults.Set(&c); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return &c
}

// Load reads and parses a YAML configuration file on top of the defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes on top of the defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads .env (if present), the YAML file, then applies environment overrides.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.ApplyEnv()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// ApplyEnv overrides selected fields from environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("UPSTREAM_BASE_URL"); v != "" {
		c.Upstream.BaseURL = v
	}
	if v := os.Getenv("CACHE_TYPE"); v != "" {
		c.Cache.Type = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("ARCHIVE_BACKEND"); v != "" {
		c.Archive.Backend = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logger.Level = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url is required")
	}
	if c.Upstream.Attempts < 1 {
		return fmt.Errorf("upstream.attempts must be >= 1, got %d", c.Upstream.Attempts)
	}
	if c.Cache.Type != "memory" && c.Cache.Type != "layered" {
		return fmt.Errorf("cache.type must be 'memory' or 'layered', got '%s'", c.Cache.Type)
	}
	switch c.Archive.Backend {
	case "none":
	case "kafka":
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers required for archive.backend 'kafka'")
		}
	case "clickhouse":
		if c.ClickHouse.Host == "" {
			return fmt.Errorf("clickhouse.host required for archive.backend 'clickhouse'")
		}
	default:
		return fmt.Errorf("archive.backend must be 'none', 'kafka' or 'clickhouse', got '%s'", c.Archive.Backend)
	}
	if (c.Kafka.Consumer.Enabled || c.LogShipping.Enabled) && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers required when the consumer or log shipping is enabled")
	}
	if c.Queue.Enabled && c.Cache.Type != "layered" {
		return fmt.Errorf("queue.enabled requires cache.type 'layered' (redis)")
	}
	if c.News.PerPage < 1 {
		return fmt.Errorf("news.per_page must be >= 1, got %d", c.News.PerPage)
	}
	return nil
}

// KafkaEnabled reports whether any component needs a Kafka producer.
func (c *Config) KafkaEnabled() bool {
	return c.Archive.Backend == "kafka" || c.LogShipping.Enabled
}
