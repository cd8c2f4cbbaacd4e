package domain

import (
	"fmt"
	"strings"
	"time"
)

// DefaultZoneColor is used when a zone is committed without a color.
const DefaultZoneColor = "#e4572e"

// Zone is a named delivery area with its fee and ETA.
type Zone struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Fee         float64    `json:"fee"`
	ETALabel    string     `json:"eta_label"`
	Active      bool       `json:"active"`
	Color       string     `json:"color"`
	Description string     `json:"description,omitempty"`
	Polygon     []GeoPoint `json:"polygon"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Validate checks the zone can be persisted: it needs an id and a valid polygon.
func (z Zone) Validate() error {
	if strings.TrimSpace(z.ID) == "" {
		return fmt.Errorf("%w: zone id is required", ErrMissingAttributes)
	}
	return ValidatePolygon(z.Polygon)
}

// SameContent reports whether two zones carry the same attributes and polygon.
// Timestamps are ignored.
func (z Zone) SameContent(o Zone) bool {
	if z.ID != o.ID || z.Name != o.Name || z.Fee != o.Fee || z.ETALabel != o.ETALabel ||
		z.Active != o.Active || z.Color != o.Color || z.Description != o.Description {
		return false
	}
	if len(z.Polygon) != len(o.Polygon) {
		return false
	}
	for i := range z.Polygon {
		if z.Polygon[i] != o.Polygon[i] {
			return false
		}
	}
	return true
}

// Clone returns a deep copy so callers cannot alias the polygon slice.
func (z Zone) Clone() Zone {
	c := z
	c.Polygon = append([]GeoPoint(nil), z.Polygon...)
	return c
}

// ZoneAttributes is the descriptive part of a zone. Pointer fields
// distinguish "absent" from the zero value.
type ZoneAttributes struct {
	Name        string   `json:"name,omitempty"`
	Fee         *float64 `json:"fee,omitempty" validate:"omitempty,gte=0"`
	ETALabel    string   `json:"eta_label,omitempty"`
	Active      *bool    `json:"active,omitempty"`
	Color       string   `json:"color,omitempty"`
	Description string   `json:"description,omitempty"`
}

// AttributesOf extracts the attributes of an existing zone.
func AttributesOf(z Zone) ZoneAttributes {
	fee := z.Fee
	active := z.Active
	return ZoneAttributes{
		Name:        z.Name,
		Fee:         &fee,
		ETALabel:    z.ETALabel,
		Active:      &active,
		Color:       z.Color,
		Description: z.Description,
	}
}

// Merge returns a copy of a with every field present in over applied on top.
func (a ZoneAttributes) Merge(over ZoneAttributes) ZoneAttributes {
	out := a
	if over.Name != "" {
		out.Name = over.Name
	}
	if over.Fee != nil {
		out.Fee = over.Fee
	}
	if over.ETALabel != "" {
		out.ETALabel = over.ETALabel
	}
	if over.Active != nil {
		out.Active = over.Active
	}
	if over.Color != "" {
		out.Color = over.Color
	}
	if over.Description != "" {
		out.Description = over.Description
	}
	return out
}

// Require checks that the attributes needed to commit a zone are present.
func (a ZoneAttributes) Require() error {
	var missing []string
	if strings.TrimSpace(a.Name) == "" {
		missing = append(missing, "name")
	}
	if a.Fee == nil {
		missing = append(missing, "fee")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingAttributes, strings.Join(missing, ", "))
	}
	return nil
}

// Apply writes the attributes onto z. Active defaults to true and Color to
// DefaultZoneColor when absent.
func (a ZoneAttributes) Apply(z *Zone) {
	z.Name = strings.TrimSpace(a.Name)
	if a.Fee != nil {
		z.Fee = *a.Fee
	}
	z.ETALabel = a.ETALabel
	z.Active = true
	if a.Active != nil {
		z.Active = *a.Active
	}
	z.Color = a.Color
	if z.Color == "" {
		z.Color = DefaultZoneColor
	}
	z.Description = a.Description
}

// DrawingSession is the transient state between "start drawing" and
// commit/cancel. It is never persisted.
type DrawingSession struct {
	ID                string         `json:"id"`
	TargetID          string         `json:"target_id,omitempty"` // set when redrawing an existing zone
	Window            GeoWindow      `json:"window"`
	Size              SurfaceSize    `json:"size"`
	Vertices          []GeoPoint     `json:"vertices"`
	PendingAttributes ZoneAttributes `json:"pending_attributes"`
	StartedAt         time.Time      `json:"started_at"`
	Committed         *Zone          `json:"committed,omitempty"` // closed but not yet stored
}
