package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/samirrijal/pizzazones/internal/core/domain"
	"github.com/samirrijal/pizzazones/internal/pkg/geospatial"
)

// percentSurface maps percent points (0..100 on both axes) onto a window.
var percentSurface = domain.SurfaceSize{Width: 100, Height: 100}

// legacyFile is an exported zone collection. Zones may also be given as a
// bare top-level array.
type legacyFile struct {
	Window *domain.GeoWindow `json:"window"`
	Zones  []legacyZone      `json:"zones"`
}

type legacyZone struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Fee         *float64        `json:"fee"`
	ETALabel    string          `json:"etaLabel"`
	ETA         string          `json:"eta"`
	Active      *bool           `json:"active"`
	Color       string          `json:"color"`
	Description string          `json:"description"`
	Polygon     json.RawMessage `json:"polygon"`
}

type percentPoint struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

// parseLegacy decodes a JSON or YAML export into zones. format is "json",
// "yaml" or "" to pick by file extension.
func parseLegacy(data []byte, name, format string) ([]domain.Zone, error) {
	if format == "" {
		switch strings.ToLower(filepath.Ext(name)) {
		case ".yaml", ".yml":
			format = "yaml"
		default:
			format = "json"
		}
	}
	if format == "yaml" {
		var doc interface{}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
		var err error
		if data, err = json.Marshal(doc); err != nil {
			return nil, fmt.Errorf("convert yaml: %w", err)
		}
	}

	var file legacyFile
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &file.Zones); err != nil {
			return nil, fmt.Errorf("parse zones: %w", err)
		}
	} else if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse zones: %w", err)
	}

	zones := make([]domain.Zone, 0, len(file.Zones))
	for i, lz := range file.Zones {
		z, err := lz.toZone(file.Window)
		if err != nil {
			return nil, fmt.Errorf("zone %d (%s): %w", i, lz.ID, err)
		}
		zones = append(zones, z)
	}
	return zones, nil
}

func (lz legacyZone) toZone(window *domain.GeoWindow) (domain.Zone, error) {
	points, err := decodeLegacyPolygon(lz.Polygon, window)
	if err != nil {
		return domain.Zone{}, err
	}
	eta := lz.ETALabel
	if eta == "" {
		eta = lz.ETA
	}
	z := domain.Zone{ID: strings.TrimSpace(lz.ID), Polygon: points}
	domain.ZoneAttributes{
		Name:        lz.Name,
		Fee:         lz.Fee,
		ETALabel:    eta,
		Active:      lz.Active,
		Color:       lz.Color,
		Description: lz.Description,
	}.Apply(&z)
	return z, nil
}

// decodeLegacyPolygon accepts the store encodings plus {x,y} percent points,
// which need the window they were drawn under.
func decodeLegacyPolygon(raw json.RawMessage, window *domain.GeoWindow) ([]domain.GeoPoint, error) {
	var pct []percentPoint
	if err := json.Unmarshal(raw, &pct); err != nil || len(pct) == 0 || pct[0].X == nil {
		return domain.DecodePolygon(raw)
	}
	if window == nil {
		return nil, fmt.Errorf("%w: percent points need a window", domain.ErrMalformedDocument)
	}
	t, err := geospatial.NewTransform(*window, percentSurface)
	if err != nil {
		return nil, err
	}
	points := make([]domain.GeoPoint, 0, len(pct))
	for _, p := range pct {
		if p.X == nil || p.Y == nil {
			return nil, fmt.Errorf("%w: percent point needs x and y", domain.ErrMalformedDocument)
		}
		points = append(points, t.ToGeo(*p.X, *p.Y))
	}
	return points, nil
}

// mergeZones overlays imported zones onto the stored ones by id.
func mergeZones(stored, imported []domain.Zone) []domain.Zone {
	byID := make(map[string]int, len(stored))
	out := make([]domain.Zone, 0, len(stored)+len(imported))
	for _, z := range stored {
		byID[z.ID] = len(out)
		out = append(out, z)
	}
	for _, z := range imported {
		if i, ok := byID[z.ID]; ok {
			z.CreatedAt = out[i].CreatedAt
			out[i] = z
			continue
		}
		byID[z.ID] = len(out)
		out = append(out, z)
	}
	return out
}
