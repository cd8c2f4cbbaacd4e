package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gofiber/fiber/v2"

	handler "github.com/samirrijal/pizzazones/internal/adapters/http"
)

// findOpenAPIDocument walks up from the package directory to api/openapi.yaml.
func findOpenAPIDocument(t *testing.T) string {
	t.Helper()
	dir, _ := os.Getwd()
	for i := 0; i < 5; i++ {
		candidate := filepath.Join(dir, filepath.FromSlash(handler.OpenAPIPath))
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		dir = filepath.Dir(dir)
	}
	t.Fatalf("could not find %s", handler.OpenAPIPath)
	return ""
}

func loadOpenAPIDocument(t *testing.T) *openapi3.T {
	t.Helper()
	doc, err := openapi3.NewLoader().LoadFromFile(findOpenAPIDocument(t))
	if err != nil {
		t.Fatalf("parse openapi.yaml: %v", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		t.Fatalf("openapi.yaml is invalid: %v", err)
	}
	return doc
}

func TestOpenAPI_DocumentsEveryRoute(t *testing.T) {
	doc := loadOpenAPIDocument(t)

	routes := []struct {
		path    string
		methods []string
	}{
		{"/v1/health", []string{"GET"}},
		{"/v1/ready", []string{"GET"}},
		{"/v1/zones", []string{"GET", "PUT"}},
		{"/v1/zones/plan", []string{"POST"}},
		{"/v1/zones/locate", []string{"GET"}},
		{"/v1/zones/project", []string{"POST"}},
		{"/v1/zones/hit-test", []string{"POST"}},
		{"/v1/zones/overlay.{format}", []string{"GET"}},
		{"/v1/zones.geojson", []string{"GET"}},
		{"/v1/zones/{id}", []string{"GET", "DELETE"}},
		{"/v1/sessions", []string{"POST"}},
		{"/v1/sessions/{id}", []string{"GET", "DELETE"}},
		{"/v1/sessions/{id}/vertices", []string{"POST"}},
		{"/v1/sessions/{id}/commit", []string{"POST"}},
		{"/graphql", []string{"POST"}},
	}

	for _, r := range routes {
		item := doc.Paths.Find(r.path)
		if item == nil {
			t.Errorf("path %s missing from openapi.yaml", r.path)
			continue
		}
		for _, m := range r.methods {
			if item.GetOperation(m) == nil {
				t.Errorf("%s %s missing from openapi.yaml", m, r.path)
			}
		}
	}
}

func TestOpenAPI_Schemas(t *testing.T) {
	doc := loadOpenAPIDocument(t)

	for _, name := range []string{
		"Zone", "ZoneInput", "ZoneAttributes", "GeoPoint", "GeoWindow",
		"SurfacePoint", "DrawingSession", "Diff", "SaveResult", "Projection",
		"APIError", "Pagination",
	} {
		if _, ok := doc.Components.Schemas[name]; !ok {
			t.Errorf("schema %s missing from openapi.yaml", name)
		}
	}

	if doc.Info.Title != "Pizza Zones API" {
		t.Errorf("expected title 'Pizza Zones API', got %q", doc.Info.Title)
	}
	if len(doc.Servers) == 0 {
		t.Error("expected at least one server")
	}
}

func TestDocs_ServesJSONAndYAML(t *testing.T) {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupDocs(app, findOpenAPIDocument(t))

	resp, err := app.Test(httptest.NewRequest("GET", "/docs/openapi.json", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var doc struct {
		Info struct {
			Title string `json:"title"`
		} `json:"info"`
	}
	data, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode openapi.json: %v", err)
	}
	if doc.Info.Title != "Pizza Zones API" {
		t.Errorf("unexpected title %q", doc.Info.Title)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/docs/openapi.yaml", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "application/yaml" {
		t.Errorf("expected application/yaml, got %q", ct)
	}
}

func TestDocs_MissingDocument(t *testing.T) {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupDocs(app, filepath.Join(t.TempDir(), "nope.yaml"))

	resp, err := app.Test(httptest.NewRequest("GET", "/docs/openapi.json", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != 404 {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}
