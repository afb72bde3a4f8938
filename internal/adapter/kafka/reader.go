package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/emdat-etl/internal/config"
	"github.com/couchcryptid/emdat-etl/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
)

// FilenameHeader names the upload on the source topic. The extension picks
// the parser.
const FilenameHeader = "filename"

// defaultFilename is used when a message carries neither a filename header
// nor a key; the format is then sniffed from the content.
const defaultFilename = "kafka-upload"

// Reader consumes uploaded files from a Kafka topic.
// It implements pipeline.UploadExtractor.
type Reader struct {
	reader       *kafkago.Reader
	flushTimeout time.Duration
	logger       *slog.Logger
}

// NewReader creates a consumer-group reader for the configured source topic.
// Offsets are committed explicitly through Upload.Commit.
func NewReader(cfg *config.Config, logger *slog.Logger) *Reader {
	maxBytes := int(cfg.MaxUploadBytes)
	if maxBytes <= 0 {
		maxBytes = 32 << 20
	}
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		Topic:    cfg.KafkaSourceTopic,
		GroupID:  cfg.KafkaGroupID,
		MinBytes: 1,
		MaxBytes: maxBytes,
	})
	flush := cfg.BatchFlushInterval
	if flush <= 0 {
		flush = 500 * time.Millisecond
	}
	return &Reader{reader: r, flushTimeout: flush, logger: logger}
}

// ExtractBatch fetches up to batchSize uploads. It returns early with what it
// has once the flush interval passes without a new message, so an empty
// result with a nil error just means the topic is idle.
func (r *Reader) ExtractBatch(ctx context.Context, batchSize int) ([]pipeline.Upload, error) {
	uploads := make([]pipeline.Upload, 0, batchSize)
	for len(uploads) < batchSize {
		fetchCtx, cancel := context.WithTimeout(ctx, r.flushTimeout)
		msg, err := r.reader.FetchMessage(fetchCtx)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return uploads, ctx.Err()
			}
			if errors.Is(err, context.DeadlineExceeded) {
				return uploads, nil
			}
			return uploads, fmt.Errorf("fetch message: %w", err)
		}
		uploads = append(uploads, r.mapMessageToUpload(msg))
	}
	return uploads, nil
}

func (r *Reader) mapMessageToUpload(msg kafkago.Message) pipeline.Upload {
	u := mapMessageToUpload(msg)
	u.Commit = func(ctx context.Context) error {
		return r.reader.CommitMessages(ctx, msg)
	}
	return u
}

// mapMessageToUpload converts a source message into an Upload without a
// commit callback.
func mapMessageToUpload(msg kafkago.Message) pipeline.Upload {
	filename := ""
	for _, h := range msg.Headers {
		if h.Key == FilenameHeader {
			filename = string(h.Value)
			break
		}
	}
	if filename == "" {
		filename = string(msg.Key)
	}
	if filename == "" {
		filename = defaultFilename
	}
	return pipeline.Upload{
		Filename:  filename,
		Data:      msg.Value,
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
	}
}

func (r *Reader) Close() error {
	return r.reader.Close()
}
