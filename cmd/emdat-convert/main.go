// Command emdat-convert normalizes an EMDAT export offline, using the same
// ingestion path as the service, and writes the resulting batch as JSON.
//
// Usage:
//
//	go run ./cmd/emdat-convert \
//	  -in data/public_emdat.xlsx \
//	  -out data/events.json \
//	  [-gazetteer gazetteer.yaml] [-natural-only] [-quoted] [-severity threshold]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/emdat-etl/internal/domain"
	"github.com/couchcryptid/emdat-etl/internal/ingest"
	"github.com/couchcryptid/emdat-etl/internal/observability"
	"github.com/couchcryptid/emdat-etl/internal/store"
)

type options struct {
	in          string
	out         string
	gazetteer   string
	naturalOnly bool
	quoted      bool
	severity    string
	workers     int
	at          string
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "emdat-convert: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("emdat-convert", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var o options
	fs.StringVar(&o.in, "in", "", "EMDAT export to convert (.csv or .xlsx)")
	fs.StringVar(&o.out, "out", "-", "output path for the batch JSON, - for stdout")
	fs.StringVar(&o.gazetteer, "gazetteer", "", "gazetteer JSON/YAML file (default: embedded table)")
	fs.BoolVar(&o.naturalOnly, "natural-only", false, "reject records that are not natural hazards")
	fs.BoolVar(&o.quoted, "quoted", false, "parse CSV with RFC 4180 quoting")
	fs.StringVar(&o.severity, "severity", string(domain.SeverityComposite), "severity model: composite or threshold")
	fs.IntVar(&o.workers, "workers", 4, "concurrent normalization workers")
	fs.StringVar(&o.at, "at", "", "fixed RFC 3339 ingestion time, for reproducible output")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if o.in == "" {
		fs.Usage()
		return errors.New("missing required flag: -in")
	}

	batch, err := convert(context.Background(), o, stderr)
	if err != nil {
		return err
	}

	if err := writeJSON(o.out, stdout, batch); err != nil {
		return fmt.Errorf("writing batch: %w", err)
	}
	printSummary(stderr, batch)
	return nil
}

func convert(ctx context.Context, o options, logOut io.Writer) (domain.Batch, error) {
	model, ok := domain.ParseSeverityModel(o.severity)
	if !ok {
		return domain.Batch{}, fmt.Errorf("unknown severity model %q", o.severity)
	}

	if o.at != "" {
		at, err := time.Parse(time.RFC3339, o.at)
		if err != nil {
			return domain.Batch{}, fmt.Errorf("invalid -at: %w", err)
		}
		domain.SetClock(clockwork.NewFakeClockAt(at.UTC()))
		defer domain.SetClock(nil)
	}

	gazetteer, err := domain.DefaultGazetteer()
	if o.gazetteer != "" {
		gazetteer, err = domain.LoadGazetteer(o.gazetteer)
	}
	if err != nil {
		return domain.Batch{}, fmt.Errorf("loading gazetteer: %w", err)
	}

	data, err := os.ReadFile(o.in)
	if err != nil {
		return domain.Batch{}, err
	}
	source := filepath.Base(o.in)
	format, err := ingest.DetectFormat(source, data)
	if err != nil {
		return domain.Batch{}, err
	}

	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: slog.LevelWarn}))
	normalizer := domain.NewNormalizer(domain.NewResolver(gazetteer, nil), domain.NormalizerOptions{
		NaturalOnly: o.naturalOnly,
		Severity:    model,
	}, logger)
	ingester := ingest.New(normalizer, ingest.Options{Workers: o.workers, Quoted: o.quoted},
		logger, observability.NewMetricsForTesting())

	return ingester.Ingest(ctx, source, format, data)
}

func writeJSON(path string, stdout io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "-" {
		_, err = stdout.Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// printSummary reports what was kept and what was dropped, so an analyst can
// fix the export or the gazetteer.
func printSummary(w io.Writer, batch domain.Batch) {
	stats := store.ComputeStats(batch.Events)

	fmt.Fprintf(w, "\n=== %s (%s) ===\n", batch.Source, batch.Format)
	fmt.Fprintf(w, "Events: %s, rejected: %s\n",
		humanize.Comma(int64(stats.TotalEvents)), humanize.Comma(int64(batch.Rejected)))
	fmt.Fprintf(w, "Deaths: %s, affected: %s, economic losses: $%s\n",
		humanize.Comma(int64(stats.TotalDeaths)), humanize.Comma(int64(stats.TotalAffected)),
		humanize.Comma(int64(stats.TotalEconomicLossUSD)))

	fmt.Fprint(w, "By type:")
	for _, t := range domain.DisasterTypes {
		if n := stats.ByType[t]; n > 0 {
			fmt.Fprintf(w, " %s=%d", t, n)
		}
	}
	fmt.Fprintln(w)

	levels := map[domain.FallbackLevel]int{}
	for i := range batch.Events {
		levels[batch.Events[i].FallbackLevel]++
	}
	fmt.Fprint(w, "By location tier:")
	for _, l := range []domain.FallbackLevel{
		domain.FallbackExact, domain.FallbackCity, domain.FallbackRegion,
		domain.FallbackCountry, domain.FallbackGeocoded,
	} {
		if n := levels[l]; n > 0 {
			fmt.Fprintf(w, " %s=%d", l, n)
		}
	}
	fmt.Fprintln(w)

	if len(batch.Rejections) == 0 {
		return
	}
	reasons := map[string]int{}
	for _, r := range batch.Rejections {
		reasons[r.Field]++
	}
	fields := make([]string, 0, len(reasons))
	for f := range reasons {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool { return reasons[fields[i]] > reasons[fields[j]] })

	fmt.Fprintln(w, "\nRejections by field:")
	for _, f := range fields {
		fmt.Fprintf(w, "  %-16s %d\n", f, reasons[f])
	}
	fmt.Fprintln(w, "\nFirst rejections:")
	for _, r := range batch.Rejections[:min(10, len(batch.Rejections))] {
		fmt.Fprintf(w, "  row %d: %s: %s\n", r.Index, r.Field, r.Reason)
	}
}
