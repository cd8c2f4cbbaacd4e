package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// ZoneDocument is the store encoding of a Zone. The store forbids nested
// arrays, so the polygon is written as a list of {lat,lng} objects. On read
// the compact [lat,lng] pair form is also accepted and normalised.
type ZoneDocument struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Fee         float64         `json:"fee"`
	ETALabel    string          `json:"etaLabel"`
	Active      bool            `json:"active"`
	Color       string          `json:"color"`
	Description string          `json:"description,omitempty"`
	Polygon     json.RawMessage `json:"polygon"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type pointDoc struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// EncodePolygon writes points as an ordered list of {lat,lng} objects.
func EncodePolygon(points []GeoPoint) (json.RawMessage, error) {
	if points == nil {
		points = []GeoPoint{}
	}
	return json.Marshal(points)
}

// DecodePolygon normalises either polygon encoding into GeoPoints.
// Elements may be {lat,lng} objects or [lat,lng] pairs, mixed freely.
func DecodePolygon(raw json.RawMessage) ([]GeoPoint, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, fmt.Errorf("%w: polygon is missing", ErrMalformedDocument)
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, fmt.Errorf("%w: polygon is not a list: %v", ErrMalformedDocument, err)
	}

	points := make([]GeoPoint, 0, len(elems))
	for i, e := range elems {
		p, err := decodePoint(bytes.TrimSpace(e))
		if err != nil {
			return nil, fmt.Errorf("%w: vertex %d: %v", ErrMalformedDocument, i, err)
		}
		if !p.Valid() {
			return nil, fmt.Errorf("%w: vertex %d (%g, %g) out of range", ErrMalformedDocument, i, p.Lat, p.Lng)
		}
		points = append(points, p)
	}
	return points, nil
}

func decodePoint(e json.RawMessage) (GeoPoint, error) {
	if len(e) == 0 {
		return GeoPoint{}, fmt.Errorf("empty vertex")
	}
	switch e[0] {
	case '[':
		var pair []float64
		if err := json.Unmarshal(e, &pair); err != nil {
			return GeoPoint{}, err
		}
		if len(pair) != 2 {
			return GeoPoint{}, fmt.Errorf("pair must have 2 values, got %d", len(pair))
		}
		return GeoPoint{Lat: pair[0], Lng: pair[1]}, nil
	case '{':
		var pd pointDoc
		if err := json.Unmarshal(e, &pd); err != nil {
			return GeoPoint{}, err
		}
		if pd.Lat == nil || pd.Lng == nil {
			return GeoPoint{}, fmt.Errorf("lat and lng are required")
		}
		return GeoPoint{Lat: *pd.Lat, Lng: *pd.Lng}, nil
	default:
		return GeoPoint{}, fmt.Errorf("unsupported vertex encoding %q", string(e))
	}
}

// EncodeZone translates a Zone into its store document.
func EncodeZone(z Zone) (ZoneDocument, error) {
	poly, err := EncodePolygon(z.Polygon)
	if err != nil {
		return ZoneDocument{}, fmt.Errorf("encode polygon: %w", err)
	}
	return ZoneDocument{
		ID:          z.ID,
		Name:        z.Name,
		Fee:         z.Fee,
		ETALabel:    z.ETALabel,
		Active:      z.Active,
		Color:       z.Color,
		Description: z.Description,
		Polygon:     poly,
		CreatedAt:   z.CreatedAt,
		UpdatedAt:   z.UpdatedAt,
	}, nil
}

// DecodeZone translates a store document into a Zone. Only the encoding is
// checked here; polygon validity is enforced on save.
func DecodeZone(doc ZoneDocument) (Zone, error) {
	if doc.ID == "" {
		return Zone{}, fmt.Errorf("%w: id is missing", ErrMalformedDocument)
	}
	poly, err := DecodePolygon(doc.Polygon)
	if err != nil {
		return Zone{}, fmt.Errorf("zone %s: %w", doc.ID, err)
	}
	return Zone{
		ID:          doc.ID,
		Name:        doc.Name,
		Fee:         doc.Fee,
		ETALabel:    doc.ETALabel,
		Active:      doc.Active,
		Color:       doc.Color,
		Description: doc.Description,
		Polygon:     poly,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}, nil
}

// DecodeZones decodes every document it can. Malformed documents are
// skipped and reported in errs; they never abort the rest of the collection.
func DecodeZones(docs []ZoneDocument) (zones []Zone, errs []error) {
	zones = make([]Zone, 0, len(docs))
	for _, d := range docs {
		z, err := DecodeZone(d)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		zones = append(zones, z)
	}
	return zones, errs
}
