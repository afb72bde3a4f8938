package domain

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultSource    = "EMDAT"
	DefaultSourceURL = "https://www.emdat.be"

	// thousandUSD converts EMDAT's ('000 US$) columns to raw USD.
	thousandUSD = 1000
)

// NormalizerOptions tunes record normalization.
type NormalizerOptions struct {
	// NaturalOnly rejects records whose type and subtype match no known
	// natural hazard.
	NaturalOnly bool
	Severity    SeverityModel
	Source      string
	SourceURL   string
}

// Normalizer turns RawRecords into DisasterEvents. It holds no per-record
// state and is safe for concurrent use.
type Normalizer struct {
	resolver *Resolver
	opts     NormalizerOptions
	logger   *slog.Logger
}

// NewNormalizer creates a Normalizer. Empty options fall back to the
// composite severity model and EMDAT provenance.
func NewNormalizer(resolver *Resolver, opts NormalizerOptions, logger *slog.Logger) *Normalizer {
	if opts.Severity == "" {
		opts.Severity = SeverityComposite
	}
	if opts.Source == "" {
		opts.Source = DefaultSource
	}
	if opts.SourceURL == "" {
		opts.SourceURL = DefaultSourceURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{resolver: resolver, opts: opts, logger: logger}
}

// Normalize converts one record. index is the record's position in its batch
// and backs the ID when the record has no Disaster No. A non-nil error is
// always a *RejectionError; the record should be dropped, not the batch.
func (n *Normalizer) Normalize(ctx context.Context, rec RawRecord, index int) (DisasterEvent, error) {
	rawType := rec.Get(ColDisasterType)
	subType := rec.Get(ColDisasterSubtype)
	country := rec.Get(ColCountry)

	if n.opts.NaturalOnly && !IsNaturalHazard(rawType, subType) {
		return DisasterEvent{}, NewRejectionError(index, ColDisasterType, ErrDisallowedType,
			fmt.Sprintf("%q is not a natural hazard", strings.TrimSpace(rawType+" "+subType)))
	}

	in := LocationInput{
		City:    rec.Get(ColLocation),
		Region:  rec.Get(ColRegion),
		Country: country,
	}
	lat, latOK := parseOptionalFloat(rec.Get(ColLatitude))
	lng, lngOK := parseOptionalFloat(rec.Get(ColLongitude))
	if latOK && lngOK {
		in.Coordinates = &Coordinates{Lat: lat, Lng: lng}
	}
	res := n.resolver.Resolve(ctx, in)
	if res.Coordinates == nil {
		return DisasterEvent{}, NewRejectionError(index, ColCountry, ErrUnresolvedLocation, strings.Join(res.Errors, "; "))
	}

	startRaw := rec.First(ColStartDate, ColYear, ColStartYear)
	start, ok := ParseDate(startRaw)
	if !ok {
		return DisasterEvent{}, NewRejectionError(index, ColStartDate, ErrInvalidStartDate,
			fmt.Sprintf("cannot parse %q", startRaw))
	}

	var end *time.Time
	if endRaw := rec.Get(ColEndDate); endRaw != "" {
		if t, ok := ParseDate(endRaw); ok {
			end = &t
		} else {
			n.logger.Debug("ignoring unparseable end date", "index", index, "value", endRaw)
		}
	}

	impact := parseImpact(rec)
	impact.SeverityLevel = n.opts.Severity.Score(
		float64(impact.Deaths), float64(derefInt(impact.Affected)), derefFloat(impact.EconomicLossUSD))

	category := ClassifyType(rawType, subType)
	typeLabel := rawType
	if typeLabel == "" {
		typeLabel = string(category)
	}

	name := rec.Get(ColEventName)
	if name == "" {
		name = typeLabel + " in " + country
	}

	id := rec.Get(ColDisasterNo)
	if id == "" {
		id = strconv.Itoa(index)
	}

	sourceURL := rec.Get(ColSourceURL)
	if sourceURL == "" {
		sourceURL = n.opts.SourceURL
	}

	return DisasterEvent{
		ID:        "emdat-" + id,
		Name:      name,
		Type:      category,
		SubType:   subType,
		StartDate: start,
		EndDate:   end,
		Location: Location{
			Lat:     res.Coordinates.Lat,
			Lng:     res.Coordinates.Lng,
			Country: country,
			Region:  in.Region,
			City:    in.City,
		},
		Impact:        impact,
		Description:   describe(typeLabel, subType, country, impact.Deaths, impact.Affected, impact.EconomicLossUSD),
		Source:        n.opts.Source,
		SourceURL:     sourceURL,
		FallbackLevel: res.FallbackLevel,
	}, nil
}

// parseImpact reads the casualty and loss columns. Anything missing or
// unparseable is nil, except deaths which defaults to 0.
func parseImpact(rec RawRecord) Impact {
	deaths, _ := parseOptionalInt(rec.Get(ColTotalDeaths))

	economic := parseThousandsUSD(rec.Get(ColTotalDamages))
	if economic == nil {
		economic = parseThousandsUSD(rec.Get(ColTotalDamagesAdj))
	}

	return Impact{
		Deaths:                deaths,
		Injured:               optionalInt(rec.Get(ColNoInjured)),
		Missing:               optionalInt(rec.Get(ColNoMissing)),
		Affected:              optionalInt(rec.First(ColTotalAffected, ColNoAffected)),
		Displaced:             optionalInt(rec.Get(ColNoHomeless)),
		EconomicLossUSD:       economic,
		InsuredLossUSD:        parseThousandsUSD(rec.Get(ColInsuredDamages)),
		ReconstructionCostUSD: parseThousandsUSD(rec.Get(ColReconstructionCosts)),
		AidContributionUSD:    parseThousandsUSD(rec.Get(ColAidContribution)),
		InfrastructureDamage:  rec.Get(ColInfrastructure),
	}
}

// parseOptionalFloat parses s, rejecting blanks, NaN and infinities.
func parseOptionalFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// parseOptionalInt parses a non-negative count. Spreadsheet cells such as
// "12.0" are truncated to 12.
func parseOptionalInt(s string) (int, bool) {
	v, ok := parseOptionalFloat(s)
	if !ok || v < 0 || v > math.MaxInt32 {
		return 0, false
	}
	return int(v), true
}

func optionalInt(s string) *int {
	v, ok := parseOptionalInt(s)
	if !ok {
		return nil
	}
	return &v
}

func parseThousandsUSD(s string) *float64 {
	v, ok := parseOptionalFloat(s)
	if !ok || v < 0 {
		return nil
	}
	v *= thousandUSD
	return &v
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func derefFloat(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
