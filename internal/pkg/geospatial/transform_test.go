package geospatial_test

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/pizzazones/internal/core/domain"
	"github.com/samirrijal/pizzazones/internal/pkg/geospatial"
)

const geoTolerance = 1e-6

var santiago = domain.GeoWindow{North: -32.0, South: -33.0, East: -70.0, West: -71.0}

func TestTransform_CornersAndAxisInversion(t *testing.T) {
	tr, err := geospatial.NewTransform(santiago, domain.SurfaceSize{Width: 800, Height: 600})
	require.NoError(t, err)

	nw := tr.ToSurface(domain.GeoPoint{Lat: -32.0, Lng: -71.0})
	assert.InDelta(t, 0, nw.X, 1e-9)
	assert.InDelta(t, 0, nw.Y, 1e-9)

	se := tr.ToSurface(domain.GeoPoint{Lat: -33.0, Lng: -70.0})
	assert.InDelta(t, 800, se.X, 1e-9)
	assert.InDelta(t, 600, se.Y, 1e-9)

	// North is up: a higher latitude has a smaller y.
	north := tr.ToSurface(domain.GeoPoint{Lat: -32.2, Lng: -70.5})
	south := tr.ToSurface(domain.GeoPoint{Lat: -32.8, Lng: -70.5})
	assert.Less(t, north.Y, south.Y)
}

func TestTransform_CenterPixel(t *testing.T) {
	tr, err := geospatial.NewTransform(santiago, domain.SurfaceSize{Width: 800, Height: 600})
	require.NoError(t, err)

	p := tr.ToGeo(400, 300)
	assert.InDelta(t, -32.5, p.Lat, geoTolerance)
	assert.InDelta(t, -70.5, p.Lng, geoTolerance)
}

func TestTransform_ToSurfaceClamps(t *testing.T) {
	tr, err := geospatial.NewTransform(santiago, domain.SurfaceSize{Width: 800, Height: 600})
	require.NoError(t, err)

	pt := tr.ToSurface(domain.GeoPoint{Lat: -31.0, Lng: -72.0})
	assert.Equal(t, 0.0, pt.X)
	assert.Equal(t, 0.0, pt.Y)

	pt = tr.ToSurface(domain.GeoPoint{Lat: -34.0, Lng: -69.0})
	assert.Equal(t, 800.0, pt.X)
	assert.Equal(t, 600.0, pt.Y)
}

func TestTransform_ToGeoDoesNotClamp(t *testing.T) {
	tr, err := geospatial.NewTransform(santiago, domain.SurfaceSize{Width: 800, Height: 600})
	require.NoError(t, err)

	p := tr.ToGeo(-400, 900)
	assert.InDelta(t, -33.5, p.Lat, geoTolerance)
	assert.InDelta(t, -71.5, p.Lng, geoTolerance)
}

func TestTransform_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	windows := []domain.GeoWindow{
		santiago,
		{North: 43.30, South: 43.20, East: -2.85, West: -3.00},
		{North: 10, South: -10, East: 20, West: -20},
		{North: 89.5, South: -89.5, East: 179.5, West: -179.5},
	}
	sizes := []domain.SurfaceSize{{Width: 800, Height: 600}, {Width: 1, Height: 1}, {Width: 1920, Height: 1080}}

	for _, w := range windows {
		for _, s := range sizes {
			tr, err := geospatial.NewTransform(w, s)
			require.NoError(t, err)
			for i := 0; i < 200; i++ {
				p := domain.GeoPoint{
					Lat: w.South + (0.001+0.998*rng.Float64())*(w.North-w.South),
					Lng: w.West + (0.001+0.998*rng.Float64())*(w.East-w.West),
				}
				px := tr.ToSurface(p)
				back := tr.ToGeo(px.X, px.Y)
				assert.InDelta(t, p.Lat, back.Lat, geoTolerance)
				assert.InDelta(t, p.Lng, back.Lng, geoTolerance)
			}
		}
	}
}

func TestTransform_WindowIndependence(t *testing.T) {
	polygon := []domain.GeoPoint{
		{Lat: -32.40, Lng: -70.70},
		{Lat: -32.40, Lng: -70.30},
		{Lat: -32.70, Lng: -70.30},
		{Lat: -32.70, Lng: -70.70},
	}
	size := domain.SurfaceSize{Width: 800, Height: 600}
	zoomedIn := domain.GeoWindow{North: -32.3, South: -32.8, East: -70.2, West: -70.8}

	for _, w := range []domain.GeoWindow{santiago, zoomedIn} {
		tr, err := geospatial.NewTransform(w, size)
		require.NoError(t, err)
		for i, px := range tr.ProjectPolygon(polygon) {
			back := tr.ToGeo(px.X, px.Y)
			assert.InDelta(t, polygon[i].Lat, back.Lat, geoTolerance)
			assert.InDelta(t, polygon[i].Lng, back.Lng, geoTolerance)
		}
	}
}

func TestNewTransform_RejectsInvalidWindow(t *testing.T) {
	cases := []struct {
		name   string
		window domain.GeoWindow
		size   domain.SurfaceSize
	}{
		{"north below south", domain.GeoWindow{North: -33, South: -32, East: -70, West: -71}, domain.SurfaceSize{Width: 10, Height: 10}},
		{"east equals west", domain.GeoWindow{North: -32, South: -33, East: -71, West: -71}, domain.SurfaceSize{Width: 10, Height: 10}},
		{"zero width surface", santiago, domain.SurfaceSize{Width: 0, Height: 10}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := geospatial.NewTransform(tc.window, tc.size)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidWindow))
		})
	}
}
