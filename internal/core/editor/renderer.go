package editor

import (
	"github.com/samirrijal/pizzazones/internal/core/domain"
	"github.com/samirrijal/pizzazones/internal/pkg/geospatial"
)

// VisibleSet holds the ids of zones the operator has toggled on. A nil set
// shows every zone; an empty non-nil set hides them all.
type VisibleSet map[string]struct{}

// NewVisibleSet builds a set from ids.
func NewVisibleSet(ids ...string) VisibleSet {
	v := make(VisibleSet, len(ids))
	for _, id := range ids {
		v[id] = struct{}{}
	}
	return v
}

// Has reports whether the zone is visible.
func (v VisibleSet) Has(id string) bool {
	if v == nil {
		return true
	}
	_, ok := v[id]
	return ok
}

// View is everything needed to put zones on the surface: the live window,
// the surface size, the visibility filter and the selected zone.
type View struct {
	Window   domain.GeoWindow
	Size     domain.SurfaceSize
	Visible  VisibleSet
	Selected string
}

// Projection is a zone mapped onto the surface. Label is the zone's
// centroid, set only when the centroid lies inside the window.
type Projection struct {
	Zone     domain.Zone           `json:"zone"`
	Surface  []domain.SurfacePoint `json:"surface"`
	Label    *domain.SurfacePoint  `json:"label,omitempty"`
	Selected bool                  `json:"selected"`
}

// Project maps every vertex of the zone through the given window.
func Project(z domain.Zone, window domain.GeoWindow, size domain.SurfaceSize) ([]domain.SurfacePoint, error) {
	tr, err := geospatial.NewTransform(window, size)
	if err != nil {
		return nil, err
	}
	return tr.ProjectPolygon(z.Polygon), nil
}

// Render projects the visible zones in draw order: collection order with
// the selected zone moved last so it ends up on top.
func Render(zones []domain.Zone, v View) ([]Projection, error) {
	tr, err := geospatial.NewTransform(v.Window, v.Size)
	if err != nil {
		return nil, err
	}

	out := make([]Projection, 0, len(zones))
	var selected *Projection
	for _, z := range zones {
		if !v.Visible.Has(z.ID) {
			continue
		}
		p := Projection{Zone: z.Clone(), Surface: tr.ProjectPolygon(z.Polygon)}
		if c := geospatial.Centroid(z.Polygon); v.Window.Contains(c) {
			label := tr.ToSurface(c)
			p.Label = &label
		}
		if v.Selected != "" && z.ID == v.Selected {
			p.Selected = true
			selected = &p
			continue
		}
		out = append(out, p)
	}
	if selected != nil {
		out = append(out, *selected)
	}
	return out, nil
}

// HitTest returns the topmost visible zone under pt. The click is mapped
// back through the live window and tested against the zone's geographic
// polygon, so zones reaching past the window edge are hit wherever they
// are drawn, not only inside their clamped outline.
func HitTest(pt domain.SurfacePoint, zones []domain.Zone, v View) (domain.Zone, bool, error) {
	tr, err := geospatial.NewTransform(v.Window, v.Size)
	if err != nil {
		return domain.Zone{}, false, err
	}
	projected, err := Render(zones, v)
	if err != nil {
		return domain.Zone{}, false, err
	}
	at := tr.ToGeo(pt.X, pt.Y)
	for i := len(projected) - 1; i >= 0; i-- {
		if geospatial.PolygonContains(projected[i].Zone.Polygon, at) {
			return projected[i].Zone, true, nil
		}
	}
	return domain.Zone{}, false, nil
}
