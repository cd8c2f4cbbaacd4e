package geospatial

import (
	"fmt"
	"math"

	"github.com/samirrijal/pizzazones/internal/core/domain"
)

// metersPerDegree is the length of one degree of latitude.
const metersPerDegree = 111320.0

// WindowAround frames a viewport centred on a point, such as a store,
// reaching radiusMeters north, south, east and west of it.
func WindowAround(center domain.GeoPoint, radiusMeters float64) (domain.GeoWindow, error) {
	if !center.Valid() {
		return domain.GeoWindow{}, fmt.Errorf("%w: center (%g, %g)", domain.ErrInvalidCoordinate, center.Lat, center.Lng)
	}
	if radiusMeters <= 0 {
		return domain.GeoWindow{}, fmt.Errorf("%w: radius must be positive, got %g", domain.ErrInvalidWindow, radiusMeters)
	}

	dLat := radiusMeters / metersPerDegree
	dLng := radiusMeters / (metersPerDegree * math.Cos(center.Lat*math.Pi/180))
	w := domain.GeoWindow{
		North: math.Min(center.Lat+dLat, 90),
		South: math.Max(center.Lat-dLat, -90),
		East:  math.Min(center.Lng+dLng, 180),
		West:  math.Max(center.Lng-dLng, -180),
	}
	if err := w.Validate(); err != nil {
		return domain.GeoWindow{}, err
	}
	return w, nil
}
