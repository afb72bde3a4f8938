package domain

import "context"

// GeocodingResult contains location data returned by a geocoding provider.
type GeocodingResult struct {
	Lat              float64
	Lng              float64
	FormattedAddress string
	PlaceName        string
	Confidence       float64 // 0.0–1.0 provider confidence score
}

// Geocoder resolves free-text place queries through an external provider. It
// backs the optional last tier of the Resolver.
type Geocoder interface {
	// ForwardGeocode converts a place query such as "Beira, Mozambique" to coordinates.
	ForwardGeocode(ctx context.Context, query string) (GeocodingResult, error)
}
