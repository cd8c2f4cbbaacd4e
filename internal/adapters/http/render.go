package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/pizzazones/internal/adapters/overlay"
	"github.com/samirrijal/pizzazones/internal/core/domain"
	"github.com/samirrijal/pizzazones/internal/core/editor"
	"github.com/samirrijal/pizzazones/internal/pkg/geospatial"
)

// viewRequest describes the live viewport zones are projected through.
// A missing visible list shows every zone; an empty one hides them all.
type viewRequest struct {
	Window   domain.GeoWindow    `json:"window"`
	Size     *domain.SurfaceSize `json:"size"`
	Visible  []string            `json:"visible"`
	Selected string              `json:"selected"`
}

func (r viewRequest) view(fallback domain.SurfaceSize) editor.View {
	v := editor.View{Window: r.Window, Size: fallback, Selected: r.Selected}
	if r.Size != nil {
		v.Size = *r.Size
	}
	if r.Visible != nil {
		v.Visible = editor.NewVisibleSet(r.Visible...)
	}
	return v
}

type hitTestRequest struct {
	viewRequest
	Point domain.SurfacePoint `json:"point"`
}

// ProjectZonesHandler maps the visible zones onto a surface, in draw order.
func ProjectZonesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req viewRequest
		if ok, err := bind(c, &req); !ok {
			return err
		}
		zones, err := deps.Zones.List(c.UserContext())
		if err != nil {
			return errFromDomain(c, err)
		}
		frame, err := editor.Render(zones, req.view(deps.Surface))
		if err != nil {
			return errFromDomain(c, err)
		}
		if frame == nil {
			frame = []editor.Projection{}
		}
		return c.JSON(fiber.Map{"projections": frame})
	}
}

// HitTestHandler returns the topmost visible zone under a surface point.
func HitTestHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req hitTestRequest
		if ok, err := bind(c, &req); !ok {
			return err
		}
		zones, err := deps.Zones.List(c.UserContext())
		if err != nil {
			return errFromDomain(c, err)
		}
		z, hit, err := editor.HitTest(req.Point, zones, req.view(deps.Surface))
		if err != nil {
			return errFromDomain(c, err)
		}
		if !hit {
			return c.JSON(fiber.Map{"hit": false})
		}
		return c.JSON(fiber.Map{"hit": true, "zone": z})
	}
}

// OverlayHandler draws the visible zones as SVG, PNG or WebP.
// GET /v1/zones/overlay.svg?north=&south=&east=&west=&width=&height=&selected=&visible=a,b
func OverlayHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		format, err := overlay.ParseFormat(c.Params("format"))
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		var window domain.GeoWindow
		for _, f := range []struct {
			name string
			dst  *float64
		}{
			{"north", &window.North}, {"south", &window.South},
			{"east", &window.East}, {"west", &window.West},
		} {
			v, err := queryFloat(c, f.name)
			if err != nil {
				return errBadRequest(c, err.Error())
			}
			*f.dst = v
		}

		v := editor.View{
			Window: window,
			Size: domain.SurfaceSize{
				Width:  c.QueryInt("width", deps.Surface.Width),
				Height: c.QueryInt("height", deps.Surface.Height),
			},
			Selected: c.Query("selected"),
		}
		if raw, ok := c.Queries()["visible"]; ok {
			var ids []string
			for _, id := range strings.Split(raw, ",") {
				if id = strings.TrimSpace(id); id != "" {
					ids = append(ids, id)
				}
			}
			v.Visible = editor.NewVisibleSet(ids...)
		}
		if err := v.Size.Validate(); err != nil {
			return errFromDomain(c, err)
		}

		zones, err := deps.Zones.List(c.UserContext())
		if err != nil {
			return errFromDomain(c, err)
		}
		frame, err := editor.Render(zones, v)
		if err != nil {
			return errFromDomain(c, err)
		}
		data, err := overlay.Encode(format, frame, v.Size)
		if err != nil {
			return errInternal(c, err.Error())
		}

		c.Set(fiber.HeaderContentType, format.ContentType())
		return c.Send(data)
	}
}

// GeoJSONHandler exports every stored zone as a FeatureCollection.
func GeoJSONHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		zones, err := deps.Zones.List(c.UserContext())
		if err != nil {
			return errFromDomain(c, err)
		}

		fc := geojson.NewFeatureCollection()
		for _, z := range zones {
			fc.Append(zoneFeature(z))
		}
		data, err := fc.MarshalJSON()
		if err != nil {
			return errInternal(c, err.Error())
		}
		c.Set(fiber.HeaderContentType, "application/geo+json")
		return c.Send(data)
	}
}

// zoneFeature converts a zone to a GeoJSON feature with a closed ring.
func zoneFeature(z domain.Zone) *geojson.Feature {
	f := geojson.NewFeature(orb.Polygon{geospatial.GeoRing(z.Polygon)})
	f.ID = z.ID
	f.Properties["name"] = z.Name
	f.Properties["fee"] = z.Fee
	f.Properties["eta_label"] = z.ETALabel
	f.Properties["active"] = z.Active
	f.Properties["color"] = z.Color
	if z.Description != "" {
		f.Properties["description"] = z.Description
	}
	return f
}
