package geospatial

import (
	"github.com/samirrijal/pizzazones/internal/core/domain"
)

// Transform maps between geographic coordinates and surface pixels for one
// (window, size) pair. It holds no other state: build a new one whenever the
// viewport window changes rather than keeping one across window changes.
type Transform struct {
	window domain.GeoWindow
	size   domain.SurfaceSize
}

// NewTransform validates the window and size and returns a Transform.
func NewTransform(window domain.GeoWindow, size domain.SurfaceSize) (Transform, error) {
	if err := window.Validate(); err != nil {
		return Transform{}, err
	}
	if err := size.Validate(); err != nil {
		return Transform{}, err
	}
	return Transform{window: window, size: size}, nil
}

// Window returns the geographic window the transform was built for.
func (t Transform) Window() domain.GeoWindow { return t.window }

// Size returns the surface size the transform was built for.
func (t Transform) Size() domain.SurfaceSize { return t.size }

// ToSurface projects p onto the surface. North maps to y=0. The result is
// clamped to [0,width]x[0,height].
func (t Transform) ToSurface(p domain.GeoPoint) domain.SurfacePoint {
	w, h := float64(t.size.Width), float64(t.size.Height)
	x := (p.Lng - t.window.West) / (t.window.East - t.window.West) * w
	y := (t.window.North - p.Lat) / (t.window.North - t.window.South) * h
	return domain.SurfacePoint{X: clamp(x, 0, w), Y: clamp(y, 0, h)}
}

// ToGeo is the exact inverse of ToSurface for points on the surface. The
// output is not clamped; callers decide what to do with out-of-window points.
func (t Transform) ToGeo(x, y float64) domain.GeoPoint {
	w, h := float64(t.size.Width), float64(t.size.Height)
	return domain.GeoPoint{
		Lat: t.window.North - y/h*(t.window.North-t.window.South),
		Lng: t.window.West + x/w*(t.window.East-t.window.West),
	}
}

// ProjectPolygon maps every vertex through ToSurface.
func (t Transform) ProjectPolygon(points []domain.GeoPoint) []domain.SurfacePoint {
	out := make([]domain.SurfacePoint, len(points))
	for i, p := range points {
		out[i] = t.ToSurface(p)
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
