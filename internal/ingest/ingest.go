package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/emdat-etl/internal/domain"
	"github.com/couchcryptid/emdat-etl/internal/observability"
)

// Options controls parsing and parallelism.
type Options struct {
	// Workers bounds concurrent normalization. Values below 1 mean 1.
	Workers int
	// Quoted switches delimited input to the quote-aware tokenizer.
	Quoted bool
}

// Ingester turns an uploaded file into a Batch of normalized events.
type Ingester struct {
	normalizer *domain.Normalizer
	opts       Options
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// New creates an Ingester.
func New(normalizer *domain.Normalizer, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Ingester {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Ingester{normalizer: normalizer, opts: opts, logger: logger, metrics: metrics}
}

type outcome struct {
	event domain.DisasterEvent
	err   error
}

// Ingest parses data in the given format and normalizes every row. Rejected
// rows are logged and summarized in the batch; the call only fails when the
// file itself is unusable or no row survives. Output keeps input row order.
func (in *Ingester) Ingest(ctx context.Context, source string, format domain.Format, data []byte) (domain.Batch, error) {
	start := time.Now()

	batch, err := in.ingest(ctx, source, format, data)
	in.metrics.IngestDuration.Observe(time.Since(start).Seconds())

	label := string(format)
	if label == "" {
		label = "unknown"
	}
	switch {
	case err == nil:
		in.metrics.UploadsTotal.WithLabelValues(label, "success").Inc()
	case IsBatchError(err):
		in.metrics.UploadsTotal.WithLabelValues(label, "rejected").Inc()
	default:
		in.metrics.UploadsTotal.WithLabelValues(label, "error").Inc()
	}
	return batch, err
}

func (in *Ingester) ingest(ctx context.Context, source string, format domain.Format, data []byte) (domain.Batch, error) {
	rows, err := in.parse(format, data)
	if err != nil {
		return domain.Batch{}, err
	}
	in.metrics.RecordsRead.Add(float64(len(rows)))

	outcomes, err := in.normalizeAll(ctx, rows)
	if err != nil {
		return domain.Batch{}, err
	}

	events := make([]domain.DisasterEvent, 0, len(outcomes))
	var rejections []domain.Rejection
	// First record to claim an ID keeps it; later claimants are rejected.
	claimed := make(map[string]int, len(outcomes))
	for i, o := range outcomes {
		if o.err == nil && domain.IsPlaceholder(o.event.Location.Lat, o.event.Location.Lng) {
			o.err = domain.NewRejectionError(i, domain.ColCountry, domain.ErrUnresolvedLocation,
				"resolved to placeholder coordinates (0,0)")
		}
		if o.err == nil {
			if first, dup := claimed[o.event.ID]; dup {
				o.err = domain.NewRejectionError(i, domain.ColDisasterNo, domain.ErrDuplicateID,
					fmt.Sprintf("id %q already used by record %d", o.event.ID, first))
			}
		}
		if o.err != nil {
			rejections = append(rejections, in.reject(source, i, o.err))
			continue
		}
		claimed[o.event.ID] = i
		in.metrics.ResolverFallback.WithLabelValues(string(o.event.FallbackLevel)).Inc()
		events = append(events, o.event)
	}

	if len(events) == 0 {
		return domain.Batch{}, fmt.Errorf("%w (%d rows read, %d rejected)", ErrNoValidRecords, len(rows), len(rejections))
	}
	in.metrics.EventsIngested.Add(float64(len(events)))

	batch := domain.NewBatch(source, format, events, rejections)
	in.logger.Info("upload ingested",
		"source", source,
		"format", format,
		"batch_id", batch.ID,
		"rows", len(rows),
		"events", len(events),
		"rejected", len(rejections),
	)
	return batch, nil
}

func (in *Ingester) parse(format domain.Format, data []byte) ([]Row, error) {
	switch format {
	case domain.FormatCSV:
		if in.opts.Quoted {
			return ParseQuotedDelimited(string(data))
		}
		return ParseDelimited(string(data))
	case domain.FormatXLSX:
		return ParseSpreadsheet(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// normalizeAll fans rows out to a bounded worker group. Each worker writes
// only its own slot, so no locking is needed and order is preserved.
func (in *Ingester) normalizeAll(ctx context.Context, rows []Row) ([]outcome, error) {
	outcomes := make([]outcome, len(rows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(in.opts.Workers)
	for i, row := range rows {
		if row.Err != nil {
			outcomes[i] = outcome{err: row.Err}
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ev, err := in.normalizer.Normalize(gctx, row.Record, i)
			outcomes[i] = outcome{event: ev, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("normalize records: %w", err)
	}
	return outcomes, nil
}

func (in *Ingester) reject(source string, index int, err error) domain.Rejection {
	var rej *domain.RejectionError
	if !errors.As(err, &rej) {
		rej = domain.NewRejectionError(index, "", err, err.Error())
	}
	in.logger.Warn("record rejected",
		"source", source,
		"index", rej.Index,
		"field", rej.Field,
		"reason", rej.Reason,
	)
	in.metrics.RecordsRejected.WithLabelValues(rej.ReasonLabel()).Inc()
	return rej.Rejection()
}
