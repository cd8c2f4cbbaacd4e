package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler returns a basic liveness check.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).String(),
			"version": "dev",
		})
	}
}

// ReadyHandler checks the database, NATS and cache. A backend that is not
// configured is reported but does not fail readiness.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		checks := make(map[string]string)
		allOK := true

		for _, b := range []struct {
			name string
			p    Pinger
		}{
			{"database", deps.DB},
			{"nats", deps.NATS},
			{"cache", deps.Cache},
		} {
			if b.p == nil {
				checks[b.name] = "not configured"
				continue
			}
			if err := b.p.Ping(ctx); err != nil {
				checks[b.name] = "error: " + err.Error()
				allOK = false
				continue
			}
			checks[b.name] = "ok"
		}

		status := "ready"
		code := fiber.StatusOK
		if !allOK {
			status = "not ready"
			code = fiber.StatusServiceUnavailable
		}

		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": checks,
		})
	}
}
