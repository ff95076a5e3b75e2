package geocode

import "context"

// Geocoder resolves coordinates into a human-readable address for
// dispatcher display. Failures are non-fatal; callers fall back to raw
// coordinates.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (string, error)
}
