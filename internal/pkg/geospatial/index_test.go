package geospatial_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/pizzazones/internal/core/domain"
	"github.com/samirrijal/pizzazones/internal/pkg/geospatial"
)

func box(id string, south, west, north, east float64) domain.Zone {
	return domain.Zone{
		ID:     id,
		Name:   id,
		Active: true,
		Polygon: []domain.GeoPoint{
			{Lat: south, Lng: west}, {Lat: south, Lng: east},
			{Lat: north, Lng: east}, {Lat: north, Lng: west},
		},
	}
}

func TestZoneIndex_Locate(t *testing.T) {
	ix := geospatial.NewZoneIndex([]domain.Zone{
		box("centro", -33.5, -70.7, -33.4, -70.6),
		box("norte", -33.4, -70.7, -33.3, -70.6),
	})
	require.Equal(t, 2, ix.Len())

	z, ok := ix.Locate(domain.GeoPoint{Lat: -33.45, Lng: -70.65})
	require.True(t, ok)
	assert.Equal(t, "centro", z.ID)

	z, ok = ix.Locate(domain.GeoPoint{Lat: -33.35, Lng: -70.65})
	require.True(t, ok)
	assert.Equal(t, "norte", z.ID)

	_, ok = ix.Locate(domain.GeoPoint{Lat: -33.0, Lng: -70.65})
	assert.False(t, ok)
}

func TestZoneIndex_OverlapFirstWins(t *testing.T) {
	ix := geospatial.NewZoneIndex([]domain.Zone{
		box("big", -34, -71, -33, -70),
		box("small", -33.6, -70.6, -33.4, -70.4),
	})

	z, ok := ix.Locate(domain.GeoPoint{Lat: -33.5, Lng: -70.5})
	require.True(t, ok)
	assert.Equal(t, "big", z.ID)
}

func TestZoneIndex_SkipsShortPolygons(t *testing.T) {
	bad := domain.Zone{ID: "line", Polygon: []domain.GeoPoint{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 1}}}
	ix := geospatial.NewZoneIndex([]domain.Zone{bad})
	assert.Equal(t, 0, ix.Len())
}
