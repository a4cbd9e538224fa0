package handlers

import (
	"github.com/gofiber/fiber/v3"

	"taskforce/internal/apperr"
	"taskforce/internal/models"
)

// currentUser returns the signed-in user or nil.
func currentUser(c fiber.Ctx) *models.User {
	user, _ := c.Locals("user").(*models.User)
	return user
}

// pageError maps a service error onto a fiber.Error so the error page
// shows the right status. Upstream failures keep a generic message.
func pageError(err error) error {
	status := apperr.Status(err)
	if status == fiber.StatusInternalServerError {
		return err
	}
	if fields := apperr.Fields(err); len(fields) > 0 {
		return fiber.NewError(status, fields[0].Field+" "+fields[0].Message)
	}
	return fiber.NewError(status, err.Error())
}

// flash reads the one-shot outcome carried in the query string by form
// redirects.
func flash(c fiber.Ctx) fiber.Map {
	return fiber.Map{
		"Message": c.Query("message"),
		"Error":   c.Query("error"),
	}
}
