package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/pizzazones/internal/pkg/metrics"
)

const requestTimeout = 15 * time.Second

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// Rate limiting: 300 requests per minute per IP. Editors poll vertices
	// and hit-tests at pointer speed.
	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	v1.Get("/zones.geojson", timeout.NewWithContext(GeoJSONHandler(deps), requestTimeout))

	// Static zone paths must be registered before /zones/:id.
	v1.Get("/zones", timeout.NewWithContext(ListZonesHandler(deps), requestTimeout))
	v1.Put("/zones", timeout.NewWithContext(SaveZonesHandler(deps), requestTimeout))
	v1.Post("/zones/plan", timeout.NewWithContext(PlanZonesHandler(deps), requestTimeout))
	v1.Get("/zones/locate", timeout.NewWithContext(LocateZoneHandler(deps), requestTimeout))
	v1.Post("/zones/project", timeout.NewWithContext(ProjectZonesHandler(deps), requestTimeout))
	v1.Post("/zones/hit-test", timeout.NewWithContext(HitTestHandler(deps), requestTimeout))
	v1.Get("/zones/overlay.:format", timeout.NewWithContext(OverlayHandler(deps), requestTimeout))
	v1.Get("/zones/:id", timeout.NewWithContext(GetZoneHandler(deps), requestTimeout))
	v1.Delete("/zones/:id", timeout.NewWithContext(DeleteZoneHandler(deps), requestTimeout))

	// Drawing sessions
	v1.Post("/sessions", timeout.NewWithContext(StartSessionHandler(deps), requestTimeout))
	v1.Get("/sessions/:id", timeout.NewWithContext(GetSessionHandler(deps), requestTimeout))
	v1.Post("/sessions/:id/vertices", timeout.NewWithContext(AddVertexHandler(deps), requestTimeout))
	v1.Post("/sessions/:id/commit", timeout.NewWithContext(CommitSessionHandler(deps), requestTimeout))
	v1.Delete("/sessions/:id", timeout.NewWithContext(CancelSessionHandler(deps), requestTimeout))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation
	SetupDocs(app, OpenAPIPath)

	// WebSocket
	if deps.Feed != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws", websocket.New(WebSocketHandler(deps.Feed)))
	}
}
