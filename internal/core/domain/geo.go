package domain

import "fmt"

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// Valid reports whether the point lies within lat [-90,90] and lng [-180,180].
func (p GeoPoint) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// GeoWindow is the geographic bounding box currently mapped onto the drawing
// surface. It is owned by the map viewport and only ever read by the core.
type GeoWindow struct {
	North float64 `json:"north" validate:"gte=-90,lte=90"`
	South float64 `json:"south" validate:"gte=-90,lte=90"`
	East  float64 `json:"east" validate:"gte=-180,lte=180"`
	West  float64 `json:"west" validate:"gte=-180,lte=180"`
}

// Validate checks north > south and east > west.
func (w GeoWindow) Validate() error {
	if !(w.North > w.South) {
		return fmt.Errorf("%w: north (%g) must be greater than south (%g)", ErrInvalidWindow, w.North, w.South)
	}
	if !(w.East > w.West) {
		return fmt.Errorf("%w: east (%g) must be greater than west (%g)", ErrInvalidWindow, w.East, w.West)
	}
	return nil
}

// Contains reports whether p lies inside the window, edges included.
func (w GeoWindow) Contains(p GeoPoint) bool {
	return p.Lat <= w.North && p.Lat >= w.South && p.Lng <= w.East && p.Lng >= w.West
}

// SurfaceSize is the pixel size of the drawing overlay.
type SurfaceSize struct {
	Width  int `json:"width" validate:"gt=0"`
	Height int `json:"height" validate:"gt=0"`
}

// Validate checks that both dimensions are positive.
func (s SurfaceSize) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("%w: surface size must be positive, got %dx%d", ErrInvalidWindow, s.Width, s.Height)
	}
	return nil
}

// Contains reports whether pt lies on the surface, edges included.
func (s SurfaceSize) Contains(pt SurfacePoint) bool {
	return pt.X >= 0 && pt.X <= float64(s.Width) && pt.Y >= 0 && pt.Y <= float64(s.Height)
}

// SurfacePoint is a pixel-space coordinate on the overlay. Y grows downwards.
type SurfacePoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}
