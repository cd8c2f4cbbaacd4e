package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// cacheRule assigns a Cache-Control value to paths with a prefix. exact
// rules match the whole path only.
type cacheRule struct {
	prefix string
	exact  bool
	value  string
}

// First match wins, so specific zone paths precede the /v1/zones catch-all.
var cacheRules = []cacheRule{
	{prefix: "/v1/health", exact: true, value: "public, max-age=10"},
	{prefix: "/v1/ready", exact: true, value: "public, max-age=10"},
	{prefix: "/metrics", exact: true, value: "no-cache"},
	{prefix: "/v1/sessions", value: "no-store"}, // drawing state changes on every click
	{prefix: "/v1/zones/overlay.", value: "public, max-age=15"},
	{prefix: "/v1/zones", value: "no-cache"}, // revalidate against the ETag; locate answers change on every save
	{prefix: "/docs", value: "public, max-age=3600"},
}

func cacheControlFor(path string) string {
	for _, r := range cacheRules {
		if r.exact && path == r.prefix || !r.exact && strings.HasPrefix(path, r.prefix) {
			return r.value
		}
	}
	return ""
}

// CachingMiddleware sets Cache-Control on GET responses that do not carry
// one already.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if c.Method() != fiber.MethodGet || len(c.Response().Header.Peek(fiber.HeaderCacheControl)) > 0 {
			return err
		}
		if v := cacheControlFor(c.Path()); v != "" {
			c.Set(fiber.HeaderCacheControl, v)
		}
		return err
	}
}
