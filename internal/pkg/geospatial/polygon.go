package geospatial

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/samirrijal/pizzazones/internal/core/domain"
)

// GeoRing converts a geographic polygon into a closed orb ring (x=lng, y=lat).
func GeoRing(points []domain.GeoPoint) orb.Ring {
	ring := make(orb.Ring, 0, len(points)+1)
	for _, p := range points {
		ring = append(ring, orb.Point{p.Lng, p.Lat})
	}
	return closeRing(ring)
}

// SurfaceRing converts a projected polygon into a closed orb ring (x, y pixels).
func SurfaceRing(points []domain.SurfacePoint) orb.Ring {
	ring := make(orb.Ring, 0, len(points)+1)
	for _, p := range points {
		ring = append(ring, orb.Point{p.X, p.Y})
	}
	return closeRing(ring)
}

func closeRing(ring orb.Ring) orb.Ring {
	if len(ring) > 0 && !ring.Closed() {
		ring = append(ring, ring[0])
	}
	return ring
}

// PolygonContains reports whether p lies inside the geographic polygon.
// Polygons are treated as planar in lng/lat, which is accurate at
// delivery-zone scale.
func PolygonContains(points []domain.GeoPoint, p domain.GeoPoint) bool {
	if len(points) < domain.MinPolygonVertices {
		return false
	}
	return planar.RingContains(GeoRing(points), orb.Point{p.Lng, p.Lat})
}

// SurfaceContains reports whether pt lies inside the projected polygon.
func SurfaceContains(points []domain.SurfacePoint, pt domain.SurfacePoint) bool {
	if len(points) < domain.MinPolygonVertices {
		return false
	}
	return planar.RingContains(SurfaceRing(points), orb.Point{pt.X, pt.Y})
}

// PolygonBounds returns the bounding box of a polygon.
func PolygonBounds(points []domain.GeoPoint) domain.Bounds {
	b := GeoRing(points).Bound()
	return domain.Bounds{MinLat: b.Min.Lat(), MinLng: b.Min.Lon(), MaxLat: b.Max.Lat(), MaxLng: b.Max.Lon()}
}

// Centroid returns the area centroid of the polygon.
func Centroid(points []domain.GeoPoint) domain.GeoPoint {
	c, _ := planar.CentroidArea(orb.Polygon{GeoRing(points)})
	return domain.GeoPoint{Lat: c.Lat(), Lng: c.Lon()}
}
