// Command emdat-validate checks a converted batch for integrity: schema,
// coordinates, ID uniqueness, severity consistency and rejection accounting.
// Given the source export it also re-runs normalization and verifies the batch
// is reproduced exactly.
//
// Usage:
//
//	go run ./cmd/emdat-validate \
//	  -batch data/events.json \
//	  [-source data/public_emdat.xlsx] [-severity composite] [-natural-only] [-quoted]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/emdat-etl/internal/domain"
	"github.com/couchcryptid/emdat-etl/internal/ingest"
	"github.com/couchcryptid/emdat-etl/internal/observability"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

type options struct {
	batch       string
	source      string
	gazetteer   string
	severity    string
	naturalOnly bool
	quoted      bool
}

func main() {
	var o options
	flag.StringVar(&o.batch, "batch", "", "batch JSON written by emdat-convert")
	flag.StringVar(&o.source, "source", "", "optional source export to re-normalize and compare")
	flag.StringVar(&o.gazetteer, "gazetteer", "", "gazetteer used for the conversion (default: embedded table)")
	flag.StringVar(&o.severity, "severity", string(domain.SeverityComposite), "severity model used for the conversion")
	flag.BoolVar(&o.naturalOnly, "natural-only", false, "conversion used -natural-only")
	flag.BoolVar(&o.quoted, "quoted", false, "conversion used -quoted")
	flag.Parse()

	if o.batch == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(o, os.Stdout))
}

func run(o options, w io.Writer) int {
	model, ok := domain.ParseSeverityModel(o.severity)
	if !ok {
		fmt.Fprintf(w, "FATAL: unknown severity model %q\n", o.severity)
		return 1
	}

	batch, err := loadBatch(o.batch)
	if err != nil {
		fmt.Fprintf(w, "FATAL: load batch: %v\n", err)
		return 1
	}

	fmt.Fprintln(w, "=== EMDAT Batch Integrity Validation ===")

	phases := []*phase{
		validateSchema(batch.Events),
		validateCoordinates(batch.Events),
		validateUniqueness(batch.Events),
		validateSeverity(batch.Events, model),
		validateRejections(batch),
	}
	if o.source != "" {
		phases = append(phases, validateReproduction(o, model, batch))
	}

	// ── Report results ──
	fmt.Fprintln(w)
	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = fmt.Sprintf("FAIL (%d errors)", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-42s %s\n", p.name, status)
	}
	fmt.Fprintf(w, "\nEvents: %d, rejected: %d\n", len(batch.Events), batch.Rejected)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(w, "\nValidation FAILED.")
	return 1
}

func loadBatch(path string) (domain.Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Batch{}, err
	}
	var b domain.Batch
	if err := json.Unmarshal(data, &b); err != nil {
		return domain.Batch{}, err
	}
	return b, nil
}

// ── Phase 1: Schema ──

var fallbackLevels = map[domain.FallbackLevel]bool{
	domain.FallbackExact:    true,
	domain.FallbackCity:     true,
	domain.FallbackRegion:   true,
	domain.FallbackCountry:  true,
	domain.FallbackGeocoded: true,
}

func validateSchema(events []domain.DisasterEvent) *phase {
	p := &phase{name: "Phase 1: Schema"}
	for i := range events {
		e := &events[i]
		pf := func(format string, args ...any) {
			p.errorf("event %d (ID %s): "+format, append([]any{i, e.ID}, args...)...)
		}

		if !strings.HasPrefix(e.ID, "emdat-") {
			pf("id does not start with \"emdat-\"")
		}
		if _, ok := domain.ParseDisasterType(string(e.Type)); !ok {
			pf("type %q not in the category set", e.Type)
		}
		if !fallbackLevels[e.FallbackLevel] {
			pf("fallbackLevel %q is not a resolved tier", e.FallbackLevel)
		}
		if e.Name == "" {
			pf("name is empty")
		}
		if e.Location.Country == "" {
			pf("location.country is empty")
		}
		if e.StartDate.IsZero() {
			pf("startDate is zero")
		}
		if e.EndDate != nil && e.EndDate.Before(e.StartDate) {
			pf("endDate %s precedes startDate %s", e.EndDate.Format("2006-01-02"), e.StartDate.Format("2006-01-02"))
		}
		if e.Description == "" || !strings.HasSuffix(e.Description, ".") {
			pf("description %q is not a sentence", e.Description)
		}
		if e.Source == "" {
			pf("source is empty")
		}
		if e.Impact.Deaths < 0 {
			pf("deaths is negative")
		}
	}
	return p
}

// ── Phase 2: Coordinates ──

func validateCoordinates(events []domain.DisasterEvent) *phase {
	p := &phase{name: "Phase 2: Coordinates"}
	for i := range events {
		e := &events[i]
		if !domain.IsValidCoordinates(e.Location.Lat, e.Location.Lng) {
			p.errorf("event %d (ID %s): invalid coordinates (%g, %g)", i, e.ID, e.Location.Lat, e.Location.Lng)
		}
	}
	return p
}

// ── Phase 3: Uniqueness ──

func validateUniqueness(events []domain.DisasterEvent) *phase {
	p := &phase{name: "Phase 3: ID Uniqueness"}
	seen := make(map[string]int, len(events))
	for i := range events {
		if first, dup := seen[events[i].ID]; dup {
			p.errorf("event %d: id %s already used by event %d", i, events[i].ID, first)
			continue
		}
		seen[events[i].ID] = i
	}
	return p
}

// ── Phase 4: Severity ──

func validateSeverity(events []domain.DisasterEvent, model domain.SeverityModel) *phase {
	p := &phase{name: fmt.Sprintf("Phase 4: Severity (%s)", model)}
	for i := range events {
		e := &events[i]
		var affected, loss float64
		if e.Impact.Affected != nil {
			affected = float64(*e.Impact.Affected)
		}
		if e.Impact.EconomicLossUSD != nil {
			loss = *e.Impact.EconomicLossUSD
		}
		want := model.Score(float64(e.Impact.Deaths), affected, loss)
		if e.Impact.SeverityLevel != want {
			p.errorf("event %d (ID %s): severity %d, recomputed %d", i, e.ID, e.Impact.SeverityLevel, want)
		}
	}
	return p
}

// ── Phase 5: Rejection accounting ──

func validateRejections(b domain.Batch) *phase {
	p := &phase{name: "Phase 5: Rejection Accounting"}
	if b.Rejected != len(b.Rejections) {
		p.errorf("rejected=%d but %d rejections listed", b.Rejected, len(b.Rejections))
	}
	last := -1
	for _, r := range b.Rejections {
		if r.Index <= last {
			p.errorf("rejection index %d is out of order or duplicated", r.Index)
		}
		last = r.Index
		if r.Reason == "" {
			p.errorf("rejection %d has no reason", r.Index)
		}
	}
	return p
}

// ── Phase 6: Reproduction ──
// Re-normalizes the source export with the batch's own timestamp and
// requires identical events and rejections.

func validateReproduction(o options, model domain.SeverityModel, b domain.Batch) *phase {
	p := &phase{name: "Phase 6: Reproduction from Source"}

	domain.SetClock(clockwork.NewFakeClockAt(b.IngestedAt))
	defer domain.SetClock(nil)

	gazetteer, err := domain.DefaultGazetteer()
	if o.gazetteer != "" {
		gazetteer, err = domain.LoadGazetteer(o.gazetteer)
	}
	if err != nil {
		p.errorf("load gazetteer: %v", err)
		return p
	}
	data, err := os.ReadFile(o.source)
	if err != nil {
		p.errorf("read source: %v", err)
		return p
	}
	source := filepath.Base(o.source)
	format, err := ingest.DetectFormat(source, data)
	if err != nil {
		p.errorf("detect format: %v", err)
		return p
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	normalizer := domain.NewNormalizer(domain.NewResolver(gazetteer, nil), domain.NormalizerOptions{
		NaturalOnly: o.naturalOnly,
		Severity:    model,
	}, logger)
	ingester := ingest.New(normalizer, ingest.Options{Workers: 4, Quoted: o.quoted}, logger, observability.NewMetricsForTesting())

	again, err := ingester.Ingest(context.Background(), source, format, data)
	if err != nil {
		p.errorf("re-ingest: %v", err)
		return p
	}

	if diff := cmp.Diff(b.Events, again.Events); diff != "" {
		p.errorf("events differ from a fresh normalization (-batch +fresh):\n%s", diff)
	}
	if diff := cmp.Diff(b.Rejections, again.Rejections); diff != "" {
		p.errorf("rejections differ from a fresh normalization (-batch +fresh):\n%s", diff)
	}
	return p
}
