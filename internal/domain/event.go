package domain

import (
	"time"
)

// DisasterType is the closed set of categories every event is mapped onto.
type DisasterType string

const (
	TypeEarthquake DisasterType = "earthquake"
	TypeFlood      DisasterType = "flood"
	TypeHurricane  DisasterType = "hurricane"
	TypeWildfire   DisasterType = "wildfire"
	TypeTsunami    DisasterType = "tsunami"
	TypeDrought    DisasterType = "drought"
	TypeVolcano    DisasterType = "volcano"
	TypeOther      DisasterType = "other"
)

// DisasterTypes lists every category in display order.
var DisasterTypes = []DisasterType{
	TypeEarthquake, TypeFlood, TypeHurricane, TypeWildfire,
	TypeTsunami, TypeDrought, TypeVolcano, TypeOther,
}

// ParseDisasterType returns the category named by s and whether it is a member
// of the closed set.
func ParseDisasterType(s string) (DisasterType, bool) {
	for _, t := range DisasterTypes {
		if string(t) == s {
			return t, true
		}
	}
	return TypeOther, false
}

// SeverityLevel is a synthetic 1-5 magnitude score.
type SeverityLevel int

const (
	MinSeverity SeverityLevel = 1
	MaxSeverity SeverityLevel = 5
)

// FallbackLevel records which resolver tier produced an event's coordinates.
type FallbackLevel string

const (
	FallbackExact    FallbackLevel = "exact"
	FallbackCity     FallbackLevel = "city"
	FallbackRegion   FallbackLevel = "region"
	FallbackCountry  FallbackLevel = "country"
	FallbackGeocoded FallbackLevel = "geocoded"
	FallbackFailed   FallbackLevel = "failed"
)

// Coordinates is a WGS-84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// Location is where an event happened, with the coordinates the resolver chose.
type Location struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Country string  `json:"country"`
	Region  string  `json:"region,omitempty"`
	City    string  `json:"city,omitempty"`
}

// Impact holds the human and economic toll of an event. Nil pointers mean the
// source did not report a usable value.
type Impact struct {
	Deaths                int           `json:"deaths"`
	Injured               *int          `json:"injured,omitempty"`
	Missing               *int          `json:"missing,omitempty"`
	Affected              *int          `json:"affected,omitempty"`
	Displaced             *int          `json:"displaced,omitempty"`
	EconomicLossUSD       *float64      `json:"economicLossUSD,omitempty"`
	InsuredLossUSD        *float64      `json:"insuredLossUSD,omitempty"`
	ReconstructionCostUSD *float64      `json:"reconstructionCostUSD,omitempty"`
	AidContributionUSD    *float64      `json:"aidContributionUSD,omitempty"`
	InfrastructureDamage  string        `json:"infrastructureDamage,omitempty"`
	SeverityLevel         SeverityLevel `json:"severityLevel"`
}

// DisasterEvent is the canonical, normalized form of one EMDAT record. It is
// built once by the Normalizer and only read afterwards.
type DisasterEvent struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Type          DisasterType  `json:"type"`
	SubType       string        `json:"subType,omitempty"`
	StartDate     time.Time     `json:"startDate"`
	EndDate       *time.Time    `json:"endDate,omitempty"`
	Location      Location      `json:"location"`
	Impact        Impact        `json:"impact"`
	Description   string        `json:"description"`
	Source        string        `json:"source"`
	SourceURL     string        `json:"sourceUrl,omitempty"`
	FallbackLevel FallbackLevel `json:"fallbackLevel"`
}

// Coordinates returns the event's resolved position.
func (e *DisasterEvent) Coordinates() Coordinates {
	return Coordinates{Lat: e.Location.Lat, Lng: e.Location.Lng}
}

// Format identifies the tabular encoding of an upload.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Rejection explains why a single record was dropped from a batch.
type Rejection struct {
	Index  int    `json:"index"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Batch is the result of ingesting one upload. Batches replace each other
// wholesale; events from different batches are never merged.
type Batch struct {
	ID         string          `json:"id"`
	Source     string          `json:"source"`
	Format     Format          `json:"format"`
	IngestedAt time.Time       `json:"ingestedAt"`
	Events     []DisasterEvent `json:"events"`
	Rejected   int             `json:"rejected"`
	Rejections []Rejection     `json:"rejections,omitempty"`
}
