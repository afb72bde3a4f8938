package http

import (
	"time"

	"github.com/couchcryptid/emdat-etl/internal/domain"
)

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

type Feature struct {
	Type       string         `json:"type"`
	ID         string         `json:"id"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// toGeoJSON renders events as map points. Events without usable coordinates
// are left off the map.
func toGeoJSON(events []domain.DisasterEvent) FeatureCollection {
	features := make([]Feature, 0, len(events))

	for i := range events {
		e := &events[i]
		if !domain.IsValidCoordinates(e.Location.Lat, e.Location.Lng) {
			continue
		}
		props := map[string]any{
			"name":          e.Name,
			"type":          e.Type,
			"startDate":     e.StartDate.Format(time.RFC3339),
			"country":       e.Location.Country,
			"deaths":        e.Impact.Deaths,
			"severityLevel": e.Impact.SeverityLevel,
			"fallbackLevel": e.FallbackLevel,
			"description":   e.Description,
		}
		if e.SubType != "" {
			props["subType"] = e.SubType
		}
		if e.Impact.Affected != nil {
			props["affected"] = *e.Impact.Affected
		}
		if e.Impact.EconomicLossUSD != nil {
			props["economicLossUSD"] = *e.Impact.EconomicLossUSD
		}

		features = append(features, Feature{
			Type: "Feature",
			ID:   e.ID,
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{e.Location.Lng, e.Location.Lat},
			},
			Properties: props,
		})
	}

	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}
