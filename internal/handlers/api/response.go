package api

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v3"

	"taskforce/internal/apperr"
)

// jsonSuccess returns a 200 response with data wrapped in the standard envelope.
func jsonSuccess(c fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"data":   data,
	})
}

// jsonError returns an error response with the given HTTP status code.
func jsonError(c fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"status": "error",
		"error":  message,
	})
}

// fail maps a service error onto the envelope. Validation errors carry their
// field list; upstream failures pass the message through.
func fail(c fiber.Ctx, err error) error {
	status := apperr.Status(err)
	if fields := apperr.Fields(err); fields != nil {
		return c.Status(status).JSON(fiber.Map{
			"status": "error",
			"error":  "validation failed",
			"fields": fields,
		})
	}
	if status == fiber.StatusInternalServerError {
		slog.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}
	return jsonError(c, status, err.Error())
}

// isForm reports whether the request body is an HTML form post.
func isForm(c fiber.Ctx) bool {
	ct := strings.ToLower(c.Get(fiber.HeaderContentType))
	return strings.HasPrefix(ct, fiber.MIMEApplicationForm) || strings.HasPrefix(ct, fiber.MIMEMultipartForm)
}

// decode unmarshals a JSON body into v. An empty body leaves v untouched.
func decode(c fiber.Ctx, v any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(c.Body(), v); err != nil {
		return apperr.Invalid("body", "must be valid JSON")
	}
	return nil
}
