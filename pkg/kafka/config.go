package kafka

import "time"

// ProducerOption configures a Producer.
type ProducerOption func(*producerOptions)

type producerOptions struct {
	brokers      []string
	acks         int
	attempts     int
	compression  string
	batchSize    int
	batchBytes   int
	linger       time.Duration
	writeTimeout time.Duration
	readTimeout  time.Duration
	async        bool
	keyed        bool
	autoTopics   bool
}

func defaultProducerOptions() *producerOptions {
	return &producerOptions{
		acks:         -1,
		attempts:     3,
		compression:  "gzip",
		batchSize:    100,
		batchBytes:   1 << 20,
		linger:       time.Second,
		writeTimeout: 10 * time.Second,
		readTimeout:  10 * time.Second,
	}
}

// WithBrokers sets the bootstrap brokers.
func WithBrokers(brokers []string) ProducerOption {
	return func(o *producerOptions) { o.brokers = brokers }
}

// WithDelivery sets required acks (-1 waits for all replicas) and writer attempts.
func WithDelivery(acks, attempts int) ProducerOption {
	return func(o *producerOptions) {
		o.acks = acks
		if attempts > 0 {
			o.attempts = attempts
		}
	}
}

// WithBatching bounds a batch by message count, bytes and linger time.
func WithBatching(size, bytes int, linger time.Duration) ProducerOption {
	return func(o *producerOptions) {
		if size > 0 {
			o.batchSize = size
		}
		if bytes > 0 {
			o.batchBytes = bytes
		}
		if linger > 0 {
			o.linger = linger
		}
	}
}

// WithTimeouts sets writer write and read timeouts.
func WithTimeouts(write, read time.Duration) ProducerOption {
	return func(o *producerOptions) {
		if write > 0 {
			o.writeTimeout = write
		}
		if read > 0 {
			o.readTimeout = read
		}
	}
}

// WithCompression selects gzip, snappy, lz4 or zstd. Anything else means gzip.
func WithCompression(codec string) ProducerOption {
	return func(o *producerOptions) { o.compression = codec }
}

// WithAsync makes Publish return before the broker acknowledges.
func WithAsync(async bool) ProducerOption {
	return func(o *producerOptions) { o.async = async }
}

// WithKeyedPartitioning routes messages with equal keys to one partition.
func WithKeyedPartitioning(keyed bool) ProducerOption {
	return func(o *producerOptions) { o.keyed = keyed }
}

// WithAutoCreateTopics lets the writer create missing topics on first publish.
func WithAutoCreateTopics(enabled bool) ProducerOption {
	return func(o *producerOptions) { o.autoTopics = enabled }
}

// ConsumerOption configures Consumer.
type ConsumerOption func(*ConsumerConfig)

// ConsumerConfig holds consumer configuration.
type ConsumerConfig struct {
	Brokers     []string
	GroupID     string
	WorkerCount int
	BufferSize  int
	RetryMax    int
	BackoffMin  time.Duration
	BackoffMax  time.Duration
	MinBytes    int
	MaxBytes    int
}

// WithConsumerBrokers sets Kafka brokers.
func WithConsumerBrokers(brokers []string) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.Brokers = brokers
	}
}

// WithConsumerGroupID sets consumer group ID.
func WithConsumerGroupID(groupID string) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.GroupID = groupID
	}
}

// WithConsumerWorkers sets number of worker goroutines.
func WithConsumerWorkers(count int) ConsumerOption {
	return func(c *ConsumerConfig) {
		if count > 0 {
			c.WorkerCount = count
		}
	}
}

// WithConsumerRetry configures retry attempts and backoff range.
func WithConsumerRetry(max int, backoffMin, backoffMax time.Duration) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.RetryMax = max
		c.BackoffMin = backoffMin
		c.BackoffMax = backoffMax
	}
}

// WithConsumerFetch sets fetch min/max bytes.
func WithConsumerFetch(minBytes, maxBytes int) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.MinBytes = minBytes
		c.MaxBytes = maxBytes
	}
}

// WithConsumerBufferSize sets the internal channel buffer size.
func WithConsumerBufferSize(n int) ConsumerOption {
	return func(c *ConsumerConfig) {
		if n > 0 {
			c.BufferSize = n
		}
	}
}
