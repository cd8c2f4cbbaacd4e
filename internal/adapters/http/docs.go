package http

import (
	"log/slog"
	"os"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gofiber/fiber/v2"
)

// OpenAPIPath is where the API document lives relative to the working directory.
const OpenAPIPath = "api/openapi.yaml"

const redocHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Pizza Zones API</title>
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <style>body{margin:0}</style>
</head>
<body>
  <redoc spec-url="/docs/openapi.yaml" hide-download-button></redoc>
  <script src="https://cdn.jsdelivr.net/npm/redoc@2/bundles/redoc.standalone.js"></script>
</body>
</html>`

// apiDocument is the OpenAPI document loaded once on first request.
type apiDocument struct {
	path string
	once sync.Once
	yaml []byte
	json []byte
	err  error
}

func (d *apiDocument) load() {
	d.once.Do(func() {
		d.err = d.read()
		if d.err != nil {
			slog.Warn("openapi document unavailable", "path", d.path, "error", d.err)
		}
	})
}

func (d *apiDocument) read() error {
	raw, err := os.ReadFile(d.path)
	if err != nil {
		return err
	}
	doc, err := openapi3.NewLoader().LoadFromData(raw)
	if err != nil {
		return err
	}
	js, err := doc.MarshalJSON()
	if err != nil {
		return err
	}
	d.yaml, d.json = raw, js
	return nil
}

// SetupDocs registers the Redoc page at /docs and the OpenAPI document at
// /docs/openapi.yaml and /docs/openapi.json.
func SetupDocs(app fiber.Router, path string) {
	doc := &apiDocument{path: path}

	app.Get("/docs", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.SendString(redocHTML)
	})

	app.Get("/docs/openapi.yaml", func(c *fiber.Ctx) error {
		if doc.load(); doc.err != nil {
			return errNotFound(c, "openapi document not available")
		}
		c.Set(fiber.HeaderContentType, "application/yaml")
		return c.Send(doc.yaml)
	})

	app.Get("/docs/openapi.json", func(c *fiber.Ctx) error {
		if doc.load(); doc.err != nil {
			return errNotFound(c, "openapi document not available")
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(doc.json)
	})
}
