package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

const headerContentType = "content-type"

// Producer publishes JSON or raw payloads to Kafka.
type Producer struct {
	writer *kafka.Writer
	codec  string
}

// NewProducer creates a producer. No connection is made until the first publish.
func NewProducer(opts ...ProducerOption) (*Producer, error) {
	o := defaultProducerOptions()
	for _, opt := range opts {
		opt(o)
	}
	if len(o.brokers) == 0 {
		return nil, fmt.Errorf("kafka producer: brokers are required")
	}

	var balancer kafka.Balancer = &kafka.LeastBytes{}
	if o.keyed {
		balancer = &kafka.Hash{}
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(o.brokers...),
		Balancer:               balancer,
		RequiredAcks:           kafka.RequiredAcks(o.acks),
		MaxAttempts:            o.attempts,
		Compression:            parseCompression(o.compression),
		BatchSize:              o.batchSize,
		BatchBytes:             int64(o.batchBytes),
		BatchTimeout:           o.linger,
		WriteTimeout:           o.writeTimeout,
		ReadTimeout:            o.readTimeout,
		Async:                  o.async,
		AllowAutoTopicCreation: o.autoTopics,
	}

	registerProducerMetrics()
	return &Producer{writer: writer, codec: o.compression}, nil
}

// Publish sends one message. value may be raw bytes, a string, or anything
// json.Marshal accepts; JSON values carry a content-type header.
func (p *Producer) Publish(ctx context.Context, topic string, key []byte, value interface{}) error {
	msg, err := newMessage(topic, key, value)
	if err != nil {
		return err
	}

	start := time.Now()
	err = p.writer.WriteMessages(ctx, msg)
	producerMetrics.observe(topic, p.codec, len(msg.Value), time.Since(start), err)
	if err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// PublishMessage publishes payload without a key. It satisfies logger.Publisher.
func (p *Producer) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.Publish(ctx, topic, nil, payload)
}

// Close flushes pending messages and closes the writer.
func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

func newMessage(topic string, key []byte, value interface{}) (kafka.Message, error) {
	msg := kafka.Message{Topic: topic, Key: key, Time: time.Now().UTC()}
	switch v := value.(type) {
	case []byte:
		msg.Value = v
	case string:
		msg.Value = []byte(v)
	default:
		b, err := json.Marshal(value)
		if err != nil {
			return kafka.Message{}, fmt.Errorf("marshal %s value: %w", topic, err)
		}
		msg.Value = b
		msg.Headers = []kafka.Header{{Key: headerContentType, Value: []byte("application/json")}}
	}
	return msg, nil
}

func parseCompression(codec string) kafka.Compression {
	switch codec {
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	default:
		return kafka.Gzip
	}
}

type producerCollectors struct {
	messages *prometheus.CounterVec
	bytes    *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

var (
	producerMetrics     *producerCollectors
	producerMetricsOnce sync.Once
)

func registerProducerMetrics() {
	producerMetricsOnce.Do(func() {
		producerMetrics = &producerCollectors{
			messages: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "priceboard_kafka_producer_messages_total",
				Help: "Messages published to Kafka by topic and result",
			}, []string{"topic", "result"}),
			bytes: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "priceboard_kafka_producer_bytes_total",
				Help: "Payload bytes published to Kafka",
			}, []string{"topic", "compression"}),
			latency: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "priceboard_kafka_producer_publish_seconds",
				Help:    "Publish latency",
				Buckets: prometheus.DefBuckets,
			}, []string{"topic"}),
		}
	})
}

func (m *producerCollectors) observe(topic, codec string, size int, dur time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.messages.WithLabelValues(topic, result).Inc()
	if err == nil {
		m.bytes.WithLabelValues(topic, codec).Add(float64(size))
	}
	m.latency.WithLabelValues(topic).Observe(dur.Seconds())
}
