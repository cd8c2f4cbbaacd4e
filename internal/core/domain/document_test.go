package domain_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/samirrijal/pizzazones/internal/core/domain"
)

func TestDecodePolygon_Encodings(t *testing.T) {
	want := []domain.GeoPoint{{Lat: -33.0, Lng: -70.0}, {Lat: -33.0, Lng: -69.0}, {Lat: -32.0, Lng: -69.0}}

	cases := map[string]string{
		"objects": `[{"lat":-33,"lng":-70},{"lat":-33,"lng":-69},{"lat":-32,"lng":-69}]`,
		"pairs":   `[[-33,-70],[-33,-69],[-32,-69]]`,
		"mixed":   `[[-33,-70],{"lat":-33,"lng":-69},[-32,-69]]`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := domain.DecodePolygon(json.RawMessage(raw))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(want) {
				t.Fatalf("expected %d points, got %d", len(want), len(got))
			}
			for i := range want {
				if got[i] != want[i] {
					t.Errorf("point %d: expected %+v, got %+v", i, want[i], got[i])
				}
			}
		})
	}
}

func TestDecodePolygon_Malformed(t *testing.T) {
	cases := map[string]string{
		"missing":     ``,
		"null":        `null`,
		"not a list":  `{"lat":1,"lng":2}`,
		"missing lng": `[{"lat":1},{"lat":2,"lng":2},{"lat":3,"lng":3}]`,
		"short pair":  `[[1],[2,2],[3,3]]`,
		"string":      `["1,2"]`,
		"range":       `[[100,0],[0,1],[1,0]]`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := domain.DecodePolygon(json.RawMessage(raw))
			if !errors.Is(err, domain.ErrMalformedDocument) {
				t.Fatalf("expected ErrMalformedDocument, got %v", err)
			}
		})
	}
}

func TestEncodeZone_WritesObjects(t *testing.T) {
	z := domain.Zone{
		ID:      "z1",
		Name:    "Centro",
		Fee:     2000,
		Active:  true,
		Polygon: []domain.GeoPoint{{Lat: -32.5, Lng: -70.5}, {Lat: -32.5, Lng: -70.4}, {Lat: -32.4, Lng: -70.4}},
	}
	doc, err := domain.EncodeZone(z)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(string(doc.Polygon), "[[") {
		t.Errorf("store encoding must not contain nested arrays: %s", doc.Polygon)
	}

	back, err := domain.DecodeZone(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !back.SameContent(z) {
		t.Errorf("expected %+v, got %+v", z, back)
	}
}

func TestDecodeZones_SkipsMalformed(t *testing.T) {
	docs := []domain.ZoneDocument{
		{ID: "ok", Polygon: json.RawMessage(`[[0,0],[0,1],[1,0]]`)},
		{ID: "bad", Polygon: json.RawMessage(`[{"lat":0}]`)},
		{Polygon: json.RawMessage(`[[0,0],[0,1],[1,0]]`)},
	}

	zones, errs := domain.DecodeZones(docs)
	if len(zones) != 1 || zones[0].ID != "ok" {
		t.Fatalf("expected only zone ok, got %+v", zones)
	}
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(errs))
	}
	for _, err := range errs {
		if !errors.Is(err, domain.ErrMalformedDocument) {
			t.Errorf("expected ErrMalformedDocument, got %v", err)
		}
	}
}
