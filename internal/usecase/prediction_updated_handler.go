package usecase

import (
	"context"
	"encoding/json"
	"time"

	"PriceBoard/internal/domain/models"
	drepo "PriceBoard/internal/domain/repository"
	pkgkafka "PriceBoard/pkg/kafka"
	applogger "PriceBoard/pkg/logger"
)

// PredictionUpdatedHandler refreshes a series when the model pipeline
// announces new predictions on Kafka.
type PredictionUpdatedHandler struct {
	topic   string
	chart   *ChartUseCase
	metrics drepo.Metrics
	log     *applogger.Logger
}

func NewPredictionUpdatedHandler(topic string, chart *ChartUseCase, metrics drepo.Metrics, log *applogger.Logger) *PredictionUpdatedHandler {
	if log == nil {
		log = applogger.Nop()
	}
	return &PredictionUpdatedHandler{topic: topic, chart: chart, metrics: metrics, log: log}
}

func (h *PredictionUpdatedHandler) Topic() string { return h.topic }

// incoming message schema: {"commodity": "corn", "dev": false}
func (h *PredictionUpdatedHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Commodity string `json:"commodity"`
		Dev       bool   `json:"dev"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		// retrying a malformed payload cannot succeed
		h.metrics.RecordError("consumer_unmarshal")
		h.log.Warn("bad prediction.updated payload", applogger.Error(err))
		return nil
	}
	c, err := models.ParseCommodity(m.Commodity)
	if err != nil {
		h.metrics.RecordError("consumer_commodity")
		h.log.Warn("prediction.updated for unknown commodity", applogger.String("commodity", m.Commodity))
		return nil
	}

	start := time.Now()
	key := models.SeriesKey{Commodity: c, Dev: m.Dev}
	if _, err := h.chart.Refresh(ctx, key); err != nil {
		h.metrics.RecordError("consumer_refresh")
		return err
	}
	h.metrics.RecordLatency("consumer_refresh", time.Since(start).Seconds())
	h.log.Info("series refreshed from notification", applogger.String("key", key.String()))
	return nil
}

var _ pkgkafka.MessageHandler = (*PredictionUpdatedHandler)(nil)
