package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"PriceBoard/internal/domain/models"
	drepo "PriceBoard/internal/domain/repository"
)

// Archive backends.
const (
	BackendNone       = "none"
	BackendKafka      = "kafka"
	BackendClickHouse = "clickhouse"
)

// ErrHistoryUnavailable is returned by History when the backend cannot be queried.
var ErrHistoryUnavailable = errors.New("archive history requires the clickhouse backend")

// ArchiveProcessor routes fresh snapshots to the configured backend.
type ArchiveProcessor struct {
	pub     drepo.Publisher
	store   drepo.Archive
	metrics drepo.Metrics
	backend string
}

// NewArchiveProcessor creates an ArchiveProcessor. pub and store may be nil
// when the backend does not use them.
func NewArchiveProcessor(pub drepo.Publisher, store drepo.Archive, metrics drepo.Metrics, backend string) *ArchiveProcessor {
	if backend == "" {
		backend = BackendNone
	}
	return &ArchiveProcessor{pub: pub, store: store, metrics: metrics, backend: backend}
}

// Backend returns the configured backend name.
func (p *ArchiveProcessor) Backend() string { return p.backend }

// Process archives one snapshot.
func (p *ArchiveProcessor) Process(ctx context.Context, s *models.Snapshot) error {
	if s == nil {
		return fmt.Errorf("snapshot is nil")
	}

	start := time.Now()
	var err error

	switch p.backend {
	case BackendNone:
		return nil
	case BackendKafka:
		if p.pub == nil {
			return fmt.Errorf("kafka backend without publisher")
		}
		err = p.pub.PublishSnapshot(ctx, s)
	case BackendClickHouse:
		if p.store == nil {
			return fmt.Errorf("clickhouse backend without archive")
		}
		err = p.store.StoreSnapshot(ctx, s)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("archive")
		return fmt.Errorf("archive snapshot: %w", err)
	}

	p.metrics.RecordArchived(p.backend, string(s.Commodity))
	p.metrics.RecordLatency("archive", time.Since(start).Seconds())
	return nil
}

// History returns archived versions of the point at date for key, newest first.
func (p *ArchiveProcessor) History(ctx context.Context, key models.SeriesKey, date string, limit int) ([]models.ArchivedPoint, error) {
	if p.backend != BackendClickHouse || p.store == nil {
		return nil, ErrHistoryUnavailable
	}
	start := time.Now()
	out, err := p.store.History(ctx, key, date, limit)
	if err != nil {
		p.metrics.RecordError("archive_history")
		return nil, fmt.Errorf("archive history: %w", err)
	}
	p.metrics.RecordLatency("archive_history", time.Since(start).Seconds())
	return out, nil
}

// Close closes underlying resources if available.
func (p *ArchiveProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}

var _ SnapshotSink = (*ArchiveProcessor)(nil)
