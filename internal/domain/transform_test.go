package domain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testDisasterNo = "2022-0401-PAK"
	testCountry    = "Pakistan"
)

func newTestNormalizer(opts NormalizerOptions) *Normalizer {
	return NewNormalizer(NewResolver(testGazetteer(), nil), opts, discardLogger())
}

func floodRecord() RawRecord {
	return RawRecord{
		ColDisasterNo:      testDisasterNo,
		ColEventName:       "Monsoon floods",
		ColDisasterType:    "Flood",
		ColDisasterSubtype: "Flash flood",
		ColCountry:         testCountry,
		ColRegion:          "Sindh Province",
		ColLocation:        "Dadu",
		ColLatitude:        "26.73",
		ColLongitude:       "67.78",
		ColStartDate:       "2022-06-14",
		ColEndDate:         "2022-10-08",
		ColTotalDeaths:     "1739",
		ColNoInjured:       "12867",
		ColTotalAffected:   "33000000",
		ColTotalDamages:    "15000000",
		ColInsuredDamages:  "",
		ColAidContribution: "250",
		ColSourceURL:       "https://doc.emdat.be/2022-0401",
	}
}

func TestNormalize_FullRecord(t *testing.T) {
	n := newTestNormalizer(NormalizerOptions{})

	got, err := n.Normalize(context.Background(), floodRecord(), 7)
	require.NoError(t, err)

	end := time.Date(2022, 10, 8, 0, 0, 0, 0, time.UTC)
	want := DisasterEvent{
		ID:        "emdat-" + testDisasterNo,
		Name:      "Monsoon floods",
		Type:      TypeFlood,
		SubType:   "Flash flood",
		StartDate: time.Date(2022, 6, 14, 0, 0, 0, 0, time.UTC),
		EndDate:   &end,
		Location: Location{
			Lat: 26.73, Lng: 67.78, Country: testCountry, Region: "Sindh Province", City: "Dadu",
		},
		Impact: Impact{
			Deaths:             1739,
			Injured:            ptr(12867),
			Affected:           ptr(33000000),
			EconomicLossUSD:    ptr(15000000000.0),
			AidContributionUSD: ptr(250000.0),
			SeverityLevel:      5,
		},
		Description:   "A flash flood (flood) occurred in Pakistan, resulting in 1,739 deaths and affecting 33,000,000 people and with economic losses of $15,000,000,000.",
		Source:        DefaultSource,
		SourceURL:     "https://doc.emdat.be/2022-0401",
		FallbackLevel: FallbackExact,
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	n := newTestNormalizer(NormalizerOptions{})
	rec := floodRecord()

	first, err := n.Normalize(context.Background(), rec, 3)
	require.NoError(t, err)
	second, err := n.Normalize(context.Background(), rec, 3)
	require.NoError(t, err)

	assert.Empty(t, cmp.Diff(first, second))
}

func TestNormalize_Defaults(t *testing.T) {
	n := newTestNormalizer(NormalizerOptions{})
	rec := RawRecord{
		ColDisasterType: "Flood",
		ColCountry:      testCountry,
		ColYear:         "2010",
		ColTotalDeaths:  "n/a",
		ColNoInjured:    "unknown",
	}

	got, err := n.Normalize(context.Background(), rec, 42)
	require.NoError(t, err)

	assert.Equal(t, "emdat-42", got.ID)
	assert.Equal(t, "Flood in Pakistan", got.Name)
	assert.Equal(t, FallbackCountry, got.FallbackLevel)
	assert.Equal(t, 30.3753, got.Location.Lat)
	assert.Equal(t, time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC), got.StartDate)
	assert.Nil(t, got.EndDate)
	assert.Equal(t, 0, got.Impact.Deaths)
	assert.Nil(t, got.Impact.Injured)
	assert.Nil(t, got.Impact.Affected)
	assert.Nil(t, got.Impact.EconomicLossUSD)
	assert.Equal(t, MinSeverity, got.Impact.SeverityLevel)
	assert.Equal(t, "A flood occurred in Pakistan.", got.Description)
	assert.Equal(t, DefaultSourceURL, got.SourceURL)
}

func TestNormalize_StartYearOnly(t *testing.T) {
	n := newTestNormalizer(NormalizerOptions{})
	rec := RawRecord{
		ColDisasterType: "Earthquake",
		ColCountry:      "Japan",
		ColStartYear:    "1990",
	}

	got, err := n.Normalize(context.Background(), rec, 0)
	require.NoError(t, err)

	assert.Equal(t, "1990-01-01T00:00:00Z", got.StartDate.Format(time.RFC3339))
}

func TestNormalize_AdjustedDamagesFallback(t *testing.T) {
	n := newTestNormalizer(NormalizerOptions{})
	rec := floodRecord()
	rec[ColTotalDamages] = ""
	rec[ColTotalDamagesAdj] = "1200"

	got, err := n.Normalize(context.Background(), rec, 0)
	require.NoError(t, err)

	require.NotNil(t, got.Impact.EconomicLossUSD)
	assert.Equal(t, 1200000.0, *got.Impact.EconomicLossUSD)
}

func TestNormalize_UnparseableEndDateIgnored(t *testing.T) {
	n := newTestNormalizer(NormalizerOptions{})
	rec := floodRecord()
	rec[ColEndDate] = "ongoing"

	got, err := n.Normalize(context.Background(), rec, 0)
	require.NoError(t, err)
	assert.Nil(t, got.EndDate)
}

func TestNormalize_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		opts      NormalizerOptions
		mutate    func(RawRecord)
		wantErr   error
		wantField string
	}{
		{
			name: "unresolvable location",
			mutate: func(r RawRecord) {
				r[ColLatitude], r[ColLongitude] = "0", "0"
				r[ColLocation], r[ColRegion], r[ColCountry] = "Nowhere", "", "Oz"
			},
			wantErr:   ErrUnresolvedLocation,
			wantField: ColCountry,
		},
		{
			name:      "unparseable start date",
			mutate:    func(r RawRecord) { r[ColStartDate] = "sometime in June" },
			wantErr:   ErrInvalidStartDate,
			wantField: ColStartDate,
		},
		{
			name:      "missing start date",
			mutate:    func(r RawRecord) { delete(r, ColStartDate) },
			wantErr:   ErrInvalidStartDate,
			wantField: ColStartDate,
		},
		{
			name: "non-natural type under natural-only filter",
			opts: NormalizerOptions{NaturalOnly: true},
			mutate: func(r RawRecord) {
				r[ColDisasterType], r[ColDisasterSubtype] = "Industrial accident", "Explosion"
			},
			wantErr:   ErrDisallowedType,
			wantField: ColDisasterType,
		},
		{
			name: "accident fire under natural-only filter",
			opts: NormalizerOptions{NaturalOnly: true},
			mutate: func(r RawRecord) {
				r[ColDisasterType], r[ColDisasterSubtype] = "Miscellaneous accident", "Fire"
			},
			wantErr:   ErrDisallowedType,
			wantField: ColDisasterType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := newTestNormalizer(tt.opts)
			rec := floodRecord().Clone()
			tt.mutate(rec)

			_, err := n.Normalize(context.Background(), rec, 5)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr))

			var rej *RejectionError
			require.True(t, errors.As(err, &rej))
			assert.Equal(t, 5, rej.Index)
			assert.Equal(t, tt.wantField, rej.Field)
			assert.NotEmpty(t, rej.Reason)
		})
	}
}

func TestNormalize_NaturalOnlyAcceptsHazards(t *testing.T) {
	n := newTestNormalizer(NormalizerOptions{NaturalOnly: true})

	_, err := n.Normalize(context.Background(), floodRecord(), 0)
	assert.NoError(t, err)
}

func TestNormalize_ThresholdModel(t *testing.T) {
	rec := floodRecord()
	rec[ColTotalDeaths] = "15000"
	rec[ColTotalAffected] = ""
	rec[ColTotalDamages] = ""

	threshold, err := newTestNormalizer(NormalizerOptions{Severity: SeverityThreshold}).Normalize(context.Background(), rec, 0)
	require.NoError(t, err)
	composite, err := newTestNormalizer(NormalizerOptions{}).Normalize(context.Background(), rec, 0)
	require.NoError(t, err)

	assert.Equal(t, SeverityLevel(5), threshold.Impact.SeverityLevel)
	assert.Equal(t, SeverityLevel(2), composite.Impact.SeverityLevel)
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name     string
		typ, sub string
		deaths   int
		affected *int
		loss     *float64
		want     string
	}{
		{"type only", "Earthquake", "", 0, nil, nil, "A earthquake occurred in Japan."},
		{"deaths only", "Earthquake", "Ground movement", 12, nil, nil,
			"A ground movement (earthquake) occurred in Japan, resulting in 12 deaths."},
		{"affected only", "Flood", "", 0, ptr(4000), nil,
			"A flood occurred in Japan, affecting 4,000 people."},
		{"deaths and affected", "Flood", "", 3, ptr(4000), nil,
			"A flood occurred in Japan, resulting in 3 deaths and affecting 4,000 people."},
		{"loss only", "Storm", "", 0, nil, ptr(2.5e6),
			"A storm occurred in Japan, with economic losses of $2,500,000."},
		{"zero values are skipped", "Storm", "", 0, ptr(0), ptr(0.0), "A storm occurred in Japan."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, describe(tt.typ, tt.sub, "Japan", tt.deaths, tt.affected, tt.loss))
		})
	}
}

func TestRejectionError_ReasonLabel(t *testing.T) {
	assert.Equal(t, "unresolved_location", NewRejectionError(0, ColCountry, ErrUnresolvedLocation, "x").ReasonLabel())
	assert.Equal(t, "invalid_start_date", NewRejectionError(0, ColStartDate, ErrInvalidStartDate, "x").ReasonLabel())
	assert.Equal(t, "disallowed_type", NewRejectionError(0, ColDisasterType, ErrDisallowedType, "x").ReasonLabel())
	assert.Equal(t, "other", NewRejectionError(0, "", errors.New("boom"), "x").ReasonLabel())

	r := NewRejectionError(9, ColStartDate, ErrInvalidStartDate, "cannot parse").Rejection()
	assert.Equal(t, Rejection{Index: 9, Field: ColStartDate, Reason: "cannot parse"}, r)
}

func ptr[T any](v T) *T { return &v }
