package domain

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
)

// regionSuffixRe strips administrative suffixes so "Sichuan Province" and
// "Sichuan" hit the same gazetteer key.
var regionSuffixRe = regexp.MustCompile(`(?i)(province|state|region)$`)

// LocationInput is whatever partial location a record carries.
type LocationInput struct {
	Coordinates *Coordinates
	City        string
	Region      string
	Country     string
}

// Resolution is the outcome of resolving a LocationInput. Coordinates is nil
// when every tier failed. Errors lists one message per tier that was tried and
// missed; it is informational only.
type Resolution struct {
	Coordinates   *Coordinates
	FallbackLevel FallbackLevel
	Errors        []string
}

// Resolver picks the best available coordinates for a record, falling back
// from exact coordinates to city, region, country, and finally an optional
// remote geocoder.
type Resolver struct {
	gazetteer *Gazetteer
	geocoder  Geocoder
}

// NewResolver creates a Resolver over g. Pass a nil geocoder to keep
// resolution purely offline.
func NewResolver(g *Gazetteer, geocoder Geocoder) *Resolver {
	if g == nil {
		g = NewGazetteer(nil, nil, nil)
	}
	return &Resolver{gazetteer: g, geocoder: geocoder}
}

// Resolve walks the fallback tiers in order and stops at the first hit.
// It never returns an error; failure is reported through FallbackFailed.
func (r *Resolver) Resolve(ctx context.Context, in LocationInput) Resolution {
	var errs []string

	if in.Coordinates != nil && IsValidCoordinates(in.Coordinates.Lat, in.Coordinates.Lng) {
		c := *in.Coordinates
		return Resolution{Coordinates: &c, FallbackLevel: FallbackExact, Errors: []string{}}
	}

	if in.City != "" {
		if c, ok := r.gazetteer.City(in.City); ok {
			return Resolution{Coordinates: &c, FallbackLevel: FallbackCity, Errors: errs}
		}
		errs = append(errs, "No coordinates found for city: "+in.City)
	}

	if in.Region != "" {
		if c, ok := r.gazetteer.Region(NormalizeRegion(in.Region)); ok {
			return Resolution{Coordinates: &c, FallbackLevel: FallbackRegion, Errors: errs}
		}
		errs = append(errs, "No coordinates found for region: "+in.Region)
	}

	if in.Country != "" {
		if c, ok := r.gazetteer.Country(in.Country); ok {
			return Resolution{Coordinates: &c, FallbackLevel: FallbackCountry, Errors: errs}
		}
	}
	errs = append(errs, "No coordinates found for country: "+in.Country)

	if r.geocoder != nil {
		if c, err := r.forwardGeocode(ctx, in); err != nil {
			errs = append(errs, err.Error())
		} else {
			return Resolution{Coordinates: &c, FallbackLevel: FallbackGeocoded, Errors: errs}
		}
	}

	return Resolution{FallbackLevel: FallbackFailed, Errors: errs}
}

func (r *Resolver) forwardGeocode(ctx context.Context, in LocationInput) (Coordinates, error) {
	query := geocodeQuery(in)
	if query == "" {
		return Coordinates{}, fmt.Errorf("geocoding skipped: no place names")
	}
	result, err := r.geocoder.ForwardGeocode(ctx, query)
	if err != nil {
		return Coordinates{}, fmt.Errorf("geocoding %q failed: %w", query, err)
	}
	if !IsValidCoordinates(result.Lat, result.Lng) {
		return Coordinates{}, fmt.Errorf("no geocoding result for: %s", query)
	}
	return Coordinates{Lat: result.Lat, Lng: result.Lng}, nil
}

// geocodeQuery joins the non-empty place names from most to least specific.
func geocodeQuery(in LocationInput) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{in.City, NormalizeRegion(in.Region), in.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// NormalizeRegion trims a region name and drops a trailing
// "province", "state", or "region" suffix.
func NormalizeRegion(region string) string {
	return strings.TrimSpace(regionSuffixRe.ReplaceAllString(strings.TrimSpace(region), ""))
}

// IsValidCoordinates reports whether lat/lng are finite, within geographic
// range, and not the (0,0) placeholder EMDAT uses for "unknown".
func IsValidCoordinates(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return false
	}
	return !IsPlaceholder(lat, lng)
}

// IsPlaceholder reports whether lat/lng is the degenerate (0,0) point.
func IsPlaceholder(lat, lng float64) bool {
	return lat == 0 && lng == 0
}
