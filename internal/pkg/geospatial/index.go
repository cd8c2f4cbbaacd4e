package geospatial

import (
	"sort"

	"github.com/dhconnelly/rtreego"

	"github.com/samirrijal/pizzazones/internal/core/domain"
)

// boxPadding keeps zero-width boxes (a zone along a meridian) indexable.
const boxPadding = 1e-9

// ZoneIndex answers "which zone contains this point" over a fixed zone list.
// Bounding boxes are searched in an R-tree; candidates are then checked with
// an exact point-in-polygon test in the order the zones were given, so the
// first zone in the list wins when polygons overlap.
type ZoneIndex struct {
	tree *rtreego.Rtree
	size int
}

type indexedZone struct {
	zone  domain.Zone
	order int
	rect  rtreego.Rect
}

func (z *indexedZone) Bounds() rtreego.Rect { return z.rect }

// NewZoneIndex builds an index. Zones with fewer than 3 vertices are skipped.
func NewZoneIndex(zones []domain.Zone) *ZoneIndex {
	tree := rtreego.NewTree(2, 25, 50)
	n := 0
	for i, z := range zones {
		if len(z.Polygon) < domain.MinPolygonVertices {
			continue
		}
		b := PolygonBounds(z.Polygon)
		rect, err := rtreego.NewRectFromPoints(
			rtreego.Point{b.MinLng - boxPadding, b.MinLat - boxPadding},
			rtreego.Point{b.MaxLng + boxPadding, b.MaxLat + boxPadding},
		)
		if err != nil {
			continue
		}
		tree.Insert(&indexedZone{zone: z.Clone(), order: i, rect: rect})
		n++
	}
	return &ZoneIndex{tree: tree, size: n}
}

// Len returns the number of indexed zones.
func (ix *ZoneIndex) Len() int { return ix.size }

// Locate returns the first zone, in input order, whose polygon contains p.
func (ix *ZoneIndex) Locate(p domain.GeoPoint) (domain.Zone, bool) {
	hits := ix.tree.SearchIntersect(rtreego.Point{p.Lng, p.Lat}.ToRect(boxPadding))
	if len(hits) == 0 {
		return domain.Zone{}, false
	}

	candidates := make([]*indexedZone, 0, len(hits))
	for _, h := range hits {
		candidates = append(candidates, h.(*indexedZone))
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].order < candidates[j].order })

	for _, c := range candidates {
		if PolygonContains(c.zone.Polygon, p) {
			return c.zone.Clone(), true
		}
	}
	return domain.Zone{}, false
}
