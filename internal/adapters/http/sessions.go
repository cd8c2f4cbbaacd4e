package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/pizzazones/internal/core/domain"
	"github.com/samirrijal/pizzazones/internal/pkg/geospatial"
)

type startSessionRequest struct {
	Window   domain.GeoWindow      `json:"window"`
	Center   *domain.GeoPoint      `json:"center"` // frames the window when set
	RadiusM  float64               `json:"radius_m" validate:"required_with=Center,gte=0"`
	Size     *domain.SurfaceSize   `json:"size"`
	Defaults domain.ZoneAttributes `json:"defaults"`
	ZoneID   string                `json:"zone_id" validate:"max=64"` // redraw this zone
}

// StartSessionHandler opens a drawing session under the given window.
func StartSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req startSessionRequest
		if ok, err := bind(c, &req); !ok {
			return err
		}
		window := req.Window
		if req.Center != nil {
			w, err := geospatial.WindowAround(*req.Center, req.RadiusM)
			if err != nil {
				return errFromDomain(c, err)
			}
			window = w
		}
		size := deps.Surface
		if req.Size != nil {
			size = *req.Size
		}
		sess, err := deps.Sessions.Start(c.UserContext(), window, size, req.Defaults, req.ZoneID)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(sess)
	}
}

// GetSessionHandler returns the current state of a drawing session.
func GetSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := deps.Sessions.Get(c.Params("id"))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(sess)
	}
}

// AddVertexHandler converts a surface click to a vertex of the session.
func AddVertexHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var pt domain.SurfacePoint
		if ok, err := bind(c, &pt); !ok {
			return err
		}
		id := c.Params("id")
		vertex, err := deps.Sessions.AddVertex(id, pt)
		if err != nil {
			return errFromDomain(c, err)
		}
		sess, err := deps.Sessions.Get(id)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(fiber.Map{
			"vertex":   vertex,
			"vertices": len(sess.Vertices),
		})
	}
}

// CommitSessionHandler turns the session into a stored zone.
func CommitSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var attrs domain.ZoneAttributes
		if len(c.Body()) > 0 {
			if ok, err := bind(c, &attrs); !ok {
				return err
			}
		}
		z, err := deps.Sessions.Commit(c.UserContext(), c.Params("id"), attrs)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(z)
	}
}

// CancelSessionHandler discards a drawing session.
func CancelSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Sessions.Cancel(c.Params("id")); err != nil {
			return errFromDomain(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
