package http

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/pizzazones/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int      `json:"status"`
	Code      string   `json:"code"`    // Error code: bad_request, not_found, internal_error, etc.
	Message   string   `json:"message"` // Human-readable message
	Fields    []string `json:"fields,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, "not_found", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

// errConflict returns a 409 error.
func errConflict(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusConflict, "invalid_state", msg)
}

// errUnavailable returns a 503 error.
func errUnavailable(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusServiceUnavailable, "unavailable", msg)
}

// errValidation returns a 400 error listing every rejected field.
func errValidation(c *fiber.Ctx, fields []string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(fiber.StatusBadRequest).JSON(APIError{
		Status:    fiber.StatusBadRequest,
		Code:      "validation_failed",
		Message:   "request failed validation",
		Fields:    fields,
		RequestID: reqID,
	})
}

// errFromDomain maps core errors onto API responses.
func errFromDomain(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidPolygon):
		return newError(c, fiber.StatusUnprocessableEntity, "invalid_polygon", err.Error())
	case errors.Is(err, domain.ErrMissingAttributes):
		return newError(c, fiber.StatusUnprocessableEntity, "missing_attributes", err.Error())
	case errors.Is(err, domain.ErrZoneNotFound), errors.Is(err, domain.ErrSessionNotFound):
		return errNotFound(c, err.Error())
	case errors.Is(err, domain.ErrInvalidState):
		return errConflict(c, err.Error())
	case errors.Is(err, domain.ErrInvalidWindow),
		errors.Is(err, domain.ErrInvalidCoordinate),
		errors.Is(err, domain.ErrOutOfWindow),
		errors.Is(err, domain.ErrMalformedDocument):
		return errBadRequest(c, err.Error())
	default:
		LoggerFromCtx(c.UserContext()).Error("request failed", slog.String("error", err.Error()))
		return errInternal(c, "internal error")
	}
}
