package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/emdat-etl/internal/config"
	"github.com/couchcryptid/emdat-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Header keys set on every published event.
const (
	TypeHeader    = "type"
	BatchIDHeader = "batch_id"
)

// Writer publishes normalized events to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchFlushInterval,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch publishes every event of batch, one message per event, in a single
// WriteMessages call. Events with the same ID always land on the same
// partition.
func (w *Writer) LoadBatch(ctx context.Context, batch domain.Batch) error {
	if len(batch.Events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(batch.Events))
	for i := range batch.Events {
		msg, err := serializeToMessage(batch.ID, &batch.Events[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish batch %s: %w", batch.ID, err)
	}
	w.logger.Debug("batch published", "batch_id", batch.ID, "events", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a DisasterEvent into a Kafka message keyed by
// event ID.
func serializeToMessage(batchID string, event *domain.DisasterEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize disaster event %s: %w", event.ID, err)
	}
	return kafkago.Message{
		Key:   []byte(event.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: TypeHeader, Value: []byte(event.Type)},
			{Key: BatchIDHeader, Value: []byte(batchID)},
		},
	}, nil
}
