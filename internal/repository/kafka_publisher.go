package repository

import (
	"context"

	"PriceBoard/internal/domain/models"
	domrepo "PriceBoard/internal/domain/repository"
	pkgkafka "PriceBoard/pkg/kafka"
)

// KafkaPublisher implements Publisher for Kafka. Messages are keyed by series
// so every update of one commodity lands on the same partition.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

// SnapshotMessage is the JSON value published per snapshot.
type SnapshotMessage struct {
	Commodity models.Commodity    `json:"commodity"`
	Dev       bool                `json:"dev"`
	Seq       uint64              `json:"seq"`
	FetchedAt int64               `json:"fetched_at"`
	Dropped   int                 `json:"dropped"`
	Points    []models.PricePoint `json:"points"`
}

// NewSnapshotMessage builds the published form of s.
func NewSnapshotMessage(s *models.Snapshot) SnapshotMessage {
	return SnapshotMessage{
		Commodity: s.Commodity,
		Dev:       s.Dev,
		Seq:       s.Seq,
		FetchedAt: s.FetchedAt.UnixMilli(),
		Dropped:   s.Dropped,
		Points:    s.Merged,
	}
}

func (p *KafkaPublisher) PublishSnapshot(ctx context.Context, s *models.Snapshot) error {
	return p.producer.Publish(ctx, p.topic, []byte(s.Key().String()), NewSnapshotMessage(s))
}

// Close is a no-op; the producer is shared with log shipping and closed by the app.
func (p *KafkaPublisher) Close() error {
	return nil
}

var _ domrepo.Publisher = (*KafkaPublisher)(nil)
