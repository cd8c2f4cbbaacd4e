package domain

import (
	"fmt"
	"math"
)

// MinPolygonVertices is the smallest vertex count that can enclose an area.
const MinPolygonVertices = 3

// colinearEpsilon bounds the cross product (in square degrees) under which
// three points are considered colinear.
const colinearEpsilon = 1e-12

// ValidatePolygon checks the vertex count, coordinate ranges and that the
// vertices are not all colinear.
func ValidatePolygon(points []GeoPoint) error {
	if len(points) < MinPolygonVertices {
		return fmt.Errorf("%w: need at least %d vertices, got %d", ErrInvalidPolygon, MinPolygonVertices, len(points))
	}
	for i, p := range points {
		if !p.Valid() {
			return fmt.Errorf("%w: vertex %d (%g, %g) out of range", ErrInvalidPolygon, i, p.Lat, p.Lng)
		}
	}
	if IsColinear(points) {
		return fmt.Errorf("%w: vertices are colinear", ErrInvalidPolygon)
	}
	return nil
}

// IsColinear reports whether every vertex lies on one line. The reference
// direction runs from the first vertex to the first vertex distinct from it,
// so repeated leading points do not hide a real shape. A list of identical
// points is colinear.
func IsColinear(points []GeoPoint) bool {
	if len(points) < 3 {
		return true
	}
	origin := points[0]
	ref := -1
	for i := 1; i < len(points); i++ {
		if points[i] != origin {
			ref = i
			break
		}
	}
	if ref < 0 {
		return true
	}
	dx := points[ref].Lng - origin.Lng
	dy := points[ref].Lat - origin.Lat
	for i := ref + 1; i < len(points); i++ {
		ex := points[i].Lng - origin.Lng
		ey := points[i].Lat - origin.Lat
		if math.Abs(dx*ey-dy*ex) > colinearEpsilon {
			return false
		}
	}
	return true
}
