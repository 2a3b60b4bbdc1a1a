package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/reservoir-forecast-service/internal/config"
	"github.com/couchcryptid/reservoir-forecast-service/internal/domain"
	"github.com/couchcryptid/reservoir-forecast-service/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of kafkago.Writer used by Writer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes scenario predictions to a Kafka topic.
type Writer struct {
	writer  messageWriter
	topic   string
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewWriter creates a Kafka producer for the configured forecast topic.
func NewWriter(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, topic: cfg.KafkaTopic, logger: logger, metrics: metrics}
}

// Publish writes one prediction keyed by its response ID.
func (w *Writer) Publish(ctx context.Context, resp domain.ScenarioResponse) error {
	msg, err := serializeToMessage(resp)
	if err != nil {
		w.metrics.PublishErrors.Inc()
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		w.metrics.PublishErrors.Inc()
		return fmt.Errorf("publish prediction %s: %w", resp.ID, err)
	}
	w.metrics.Published.Inc()
	w.logger.Debug("prediction published", "id", resp.ID, "topic", w.topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a ScenarioResponse into a Kafka message.
func serializeToMessage(resp domain.ScenarioResponse) (kafkago.Message, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize prediction: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(resp.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "escenario", Value: []byte(resp.Scenario)},
			{Key: "riesgo", Value: []byte(resp.Risk)},
			{Key: "generated_at", Value: []byte(resp.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
