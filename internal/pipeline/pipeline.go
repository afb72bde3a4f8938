package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/emdat-etl/internal/domain"
	"github.com/couchcryptid/emdat-etl/internal/ingest"
	"github.com/couchcryptid/emdat-etl/internal/observability"
	"github.com/couchcryptid/emdat-etl/internal/store"
)

// ErrStaleBatch is returned when an upload finishes after a newer one has
// already replaced the current batch. The older result is discarded.
var ErrStaleBatch = errors.New("a newer upload replaced the current batch")

// Upload is one file submitted for ingestion, over HTTP, the CLI or Kafka.
type Upload struct {
	Filename string
	Data     []byte

	// Kafka provenance, zero for other sources.
	Topic     string
	Partition int
	Offset    int64
	Commit    func(ctx context.Context) error
}

// UploadExtractor reads up to batchSize uploads from the source.
type UploadExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]Upload, error)
}

// Ingester parses and normalizes one file into a batch.
type Ingester interface {
	Ingest(ctx context.Context, source string, format domain.Format, data []byte) (domain.Batch, error)
}

// BatchLoader publishes the events of an accepted batch.
type BatchLoader interface {
	LoadBatch(ctx context.Context, batch domain.Batch) error
}

// BatchStore persists the current batch across restarts.
type BatchStore interface {
	ReplaceBatch(ctx context.Context, batch domain.Batch) error
	LoadCurrent(ctx context.Context) (domain.Batch, bool, error)
}

// Stages wires the pipeline. Only Ingester and Current are required.
type Stages struct {
	Extractor UploadExtractor
	Ingester  Ingester
	Current   *store.Memory
	Store     BatchStore
	Loader    BatchLoader
}

// Pipeline turns uploads into the current batch of disaster events and,
// when a loader is configured, publishes them downstream.
type Pipeline struct {
	extractor UploadExtractor
	ingester  Ingester
	current   *store.Memory
	store     BatchStore
	loader    BatchLoader
	logger    *slog.Logger
	metrics   *observability.Metrics
	batchSize int

	seq      atomic.Uint64
	commitMu sync.Mutex
	ready    atomic.Bool
}

// New creates a Pipeline with the given stages and observability.
func New(s Stages, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Pipeline{
		extractor: s.Extractor,
		ingester:  s.Ingester,
		current:   s.Current,
		store:     s.Store,
		loader:    s.Loader,
		logger:    logger,
		metrics:   metrics,
		batchSize: batchSize,
	}
}

// Restore installs the persisted batch, if any, as the current batch. Any
// upload accepted afterwards replaces it.
func (p *Pipeline) Restore(ctx context.Context) error {
	if p.store == nil {
		return nil
	}
	batch, ok, err := p.store.LoadCurrent(ctx)
	if err != nil {
		return fmt.Errorf("restore batch: %w", err)
	}
	if !ok {
		return nil
	}
	p.current.Replace(0, batch)
	p.logger.Info("restored batch", "batch_id", batch.ID, "events", len(batch.Events))
	return nil
}

// CheckReadiness returns nil once the service can serve its purpose. Without a
// Kafka source that is immediately; with one, only after the first upload
// from it was processed.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if p.extractor == nil {
		return nil
	}
	if !p.ready.Load() {
		return errors.New("pipeline has not processed any messages yet")
	}
	return nil
}

// Ingest processes one upload synchronously: detect the format, normalize,
// install the batch as current, then publish it if a loader is configured.
// A publish failure is logged but does not undo the accepted batch.
func (p *Pipeline) Ingest(ctx context.Context, u Upload) (domain.Batch, error) {
	batch, err := p.accept(ctx, u)
	if err != nil {
		return domain.Batch{}, err
	}
	if p.loader != nil {
		if err := p.loader.LoadBatch(ctx, batch); err != nil {
			p.logger.Error("publish batch failed", "error", err, "batch_id", batch.ID)
		} else {
			p.metrics.EventsPublished.Add(float64(len(batch.Events)))
		}
	}
	return batch, nil
}

// accept runs ingestion and swaps the result in as the current batch.
func (p *Pipeline) accept(ctx context.Context, u Upload) (domain.Batch, error) {
	seq := p.seq.Add(1)

	format, err := ingest.DetectFormat(u.Filename, u.Data)
	if err != nil {
		p.metrics.UploadsTotal.WithLabelValues("unknown", "rejected").Inc()
		return domain.Batch{}, err
	}

	batch, err := p.ingester.Ingest(ctx, u.Filename, format, u.Data)
	if err != nil {
		return domain.Batch{}, err
	}

	if err := p.install(ctx, seq, batch); err != nil {
		return domain.Batch{}, err
	}
	return batch, nil
}

// install persists batch and makes it current unless a newer upload got
// there first.
func (p *Pipeline) install(ctx context.Context, seq uint64, batch domain.Batch) error {
	p.commitMu.Lock()
	defer p.commitMu.Unlock()

	if seq <= p.current.Sequence() {
		p.logger.Warn("discarding stale batch", "batch_id", batch.ID, "sequence", seq)
		return ErrStaleBatch
	}
	if p.store != nil {
		if err := p.store.ReplaceBatch(ctx, batch); err != nil {
			return fmt.Errorf("persist batch %s: %w", batch.ID, err)
		}
	}
	p.current.Replace(seq, batch)
	return nil
}

// Run consumes uploads from the Kafka source until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	if p.extractor == nil {
		return errors.New("pipeline has no upload source")
	}
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff, maxBackoff) {
			return nil
		}
	}
}

// processBatch runs one extract-ingest-load cycle. Returns false if the
// pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	uploads, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	if len(uploads) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.MessagesConsumed.Add(float64(len(uploads)))
	*backoff = 200 * time.Millisecond

	for _, u := range uploads {
		if !p.processUpload(ctx, u, backoff, maxBackoff) {
			return false
		}
	}
	p.ready.Store(true)
	return true
}

// processUpload ingests and publishes one upload, committing its offset once
// it has been fully handled. Uploads that cannot be ingested are committed and
// skipped. Returns false if the pipeline should stop.
func (p *Pipeline) processUpload(ctx context.Context, u Upload, backoff *time.Duration, maxBackoff time.Duration) bool {
	batch, err := p.accept(ctx, u)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Warn("upload skipped",
			"error", err,
			"filename", u.Filename,
			"topic", u.Topic,
			"partition", u.Partition,
			"offset", u.Offset,
		)
		p.commitOffset(ctx, u)
		return true
	}

	if p.loader != nil {
		for {
			err := p.loader.LoadBatch(ctx, batch)
			if err == nil {
				break
			}
			p.logger.Error("load batch failed", "error", err, "batch_id", batch.ID, "events", len(batch.Events))
			if !p.backoffOrStop(ctx, backoff, maxBackoff) {
				return false
			}
		}
		p.metrics.EventsPublished.Add(float64(len(batch.Events)))
	}

	p.commitOffset(ctx, u)
	return true
}

// backoffOrStop checks for context cancellation, sleeps with the current backoff,
// and advances the backoff. Returns false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

// commitOffset commits the message offset if a commit function is available.
func (p *Pipeline) commitOffset(ctx context.Context, u Upload) {
	if u.Commit == nil {
		return
	}
	if err := u.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", u.Topic, "partition", u.Partition, "offset", u.Offset)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
