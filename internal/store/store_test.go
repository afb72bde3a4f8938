package store

import (
	"time"

	"github.com/couchcryptid/emdat-etl/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func event(id string, typ domain.DisasterType, start time.Time, country, region string, deaths int, affected *int, loss *float64, severity domain.SeverityLevel) domain.DisasterEvent {
	return domain.DisasterEvent{
		ID:        id,
		Name:      string(typ) + " in " + country,
		Type:      typ,
		StartDate: start,
		Location:  domain.Location{Lat: 1, Lng: 1, Country: country, Region: region},
		Impact: domain.Impact{
			Deaths:          deaths,
			Affected:        affected,
			EconomicLossUSD: loss,
			SeverityLevel:   severity,
		},
		Source:        domain.DefaultSource,
		FallbackLevel: domain.FallbackExact,
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testEvents() []domain.DisasterEvent {
	return []domain.DisasterEvent{
		event("emdat-1", domain.TypeFlood, day(2020, 7, 1), "Pakistan", "Sindh", 100, ptr(5000), ptr(1e6), 3),
		event("emdat-2", domain.TypeEarthquake, day(2021, 2, 6), "Turkey", "", 5000, ptr(100000), nil, 5),
		event("emdat-3", domain.TypeFlood, day(2021, 8, 15), "India", "Kerala", 20, nil, ptr(2e5), 2),
		event("emdat-4", domain.TypeDrought, day(2022, 1, 1), "Kenya", "", 0, ptr(2000000), nil, 4),
	}
}

func testBatch() domain.Batch {
	return domain.Batch{
		ID:         "b7a0c8c4-6d3b-4c51-9d43-0a3b5e0f2b11",
		Source:     "emdat.csv",
		Format:     domain.FormatCSV,
		IngestedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Events:     testEvents(),
		Rejected:   1,
		Rejections: []domain.Rejection{{Index: 4, Field: domain.ColCountry, Reason: "No coordinates found for country: Atlantis"}},
	}
}
