package http

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/pizzazones/internal/core/domain"
)

// zoneInput is one zone of a save request. The polygon accepts the same
// encodings as the store: {lat,lng} objects or [lat,lng] pairs.
type zoneInput struct {
	ID          string          `json:"id" validate:"required,max=64"`
	Name        string          `json:"name" validate:"required,max=120"`
	Fee         *float64        `json:"fee" validate:"required,gte=0"`
	ETALabel    string          `json:"eta_label" validate:"max=60"`
	Active      *bool           `json:"active"`
	Color       string          `json:"color" validate:"omitempty,hexcolor"`
	Description string          `json:"description" validate:"max=500"`
	Polygon     json.RawMessage `json:"polygon" validate:"required"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (in zoneInput) toZone() (domain.Zone, error) {
	points, err := domain.DecodePolygon(in.Polygon)
	if err != nil {
		return domain.Zone{}, err
	}
	z := domain.Zone{ID: in.ID, Polygon: points, CreatedAt: in.CreatedAt}
	domain.ZoneAttributes{
		Name:        in.Name,
		Fee:         in.Fee,
		ETALabel:    in.ETALabel,
		Active:      in.Active,
		Color:       in.Color,
		Description: in.Description,
	}.Apply(&z)
	return z, nil
}

type saveRequest struct {
	Zones []zoneInput `json:"zones" validate:"dive"`
}

func (r saveRequest) working() ([]domain.Zone, error) {
	zones := make([]domain.Zone, 0, len(r.Zones))
	for _, in := range r.Zones {
		z, err := in.toZone()
		if err != nil {
			return nil, err
		}
		zones = append(zones, z)
	}
	return zones, nil
}

// ListZonesHandler returns stored zones with offset/limit pagination.
func ListZonesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		zones, err := deps.Zones.List(c.UserContext())
		if err != nil {
			return errFromDomain(c, err)
		}

		if c.QueryBool("active") {
			active := zones[:0]
			for _, z := range zones {
				if z.Active {
					active = append(active, z)
				}
			}
			zones = active
		}

		page, pg := paginate(c, zones, 100, 500)
		return c.JSON(PaginatedResponse{Data: page, Pagination: pg})
	}
}

// GetZoneHandler returns a single zone by ID.
func GetZoneHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		z, err := deps.Zones.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(z)
	}
}

// SaveZonesHandler makes the stored collection equal to the request body.
// Zones left out of the body are deleted. With ?async=true the plan is
// handed to a durable workflow and 202 is returned.
func SaveZonesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req saveRequest
		if ok, err := bind(c, &req); !ok {
			return err
		}
		working, err := req.working()
		if err != nil {
			return errFromDomain(c, err)
		}

		if c.QueryBool("async") {
			if deps.Saver == nil {
				return errUnavailable(c, "durable saves are not enabled")
			}
			diff, err := deps.Zones.Plan(c.UserContext(), working)
			if err != nil {
				return errFromDomain(c, err)
			}
			runID, err := deps.Saver.StartZoneSave(c.UserContext(), diff)
			if err != nil {
				return errFromDomain(c, err)
			}
			return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
				"workflow_id": runID,
				"plan":        diff,
			})
		}

		result, err := deps.Zones.Save(c.UserContext(), working)
		if err != nil {
			return errFromDomain(c, err)
		}
		status := fiber.StatusOK
		if !result.OK() {
			status = fiber.StatusMultiStatus
		}
		return c.Status(status).JSON(result)
	}
}

// PlanZonesHandler reports what a save of the request body would write.
func PlanZonesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req saveRequest
		if ok, err := bind(c, &req); !ok {
			return err
		}
		working, err := req.working()
		if err != nil {
			return errFromDomain(c, err)
		}
		diff, err := deps.Zones.Plan(c.UserContext(), working)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(diff)
	}
}

// DeleteZoneHandler removes a single zone.
func DeleteZoneHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Zones.Delete(c.UserContext(), c.Params("id")); err != nil {
			return errFromDomain(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// LocateZoneHandler resolves an address coordinate to its delivery zone.
// GET /v1/zones/locate?lat=-33.45&lng=-70.66
func LocateZoneHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat, err := queryFloat(c, "lat")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		lng, err := queryFloat(c, "lng")
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		z, err := deps.Zones.Locate(c.UserContext(), domain.GeoPoint{Lat: lat, Lng: lng})
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(z)
	}
}

// queryFloat reads a required float query parameter.
func queryFloat(c *fiber.Ctx, name string) (float64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, fiber.NewError(fiber.StatusBadRequest, name+" is required")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, name+" must be a number")
	}
	return v, nil
}
