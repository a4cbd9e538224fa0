package api

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"taskforce/internal/apperr"
	"taskforce/internal/middleware"
	"taskforce/internal/models"
)

// NotificationStore is the slice of the data service the notification
// endpoints use.
type NotificationStore interface {
	ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error)
	UnreadNotificationCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) error
}

// NotificationHandler serves a user's in-app notifications.
type NotificationHandler struct {
	store NotificationStore
}

// NewNotificationHandler creates a new notification handler.
func NewNotificationHandler(store NotificationStore) *NotificationHandler {
	return &NotificationHandler{store: store}
}

// List handles GET /api/notifications.
func (h *NotificationHandler) List(c fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return fail(c, apperr.ErrUnauthenticated)
	}
	limit := fiber.Query[int](c, "limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	items, err := h.store.ListNotifications(c.Context(), user.ID, limit)
	if err != nil {
		return fail(c, err)
	}
	unread, err := h.store.UnreadNotificationCount(c.Context(), user.ID)
	if err != nil {
		return fail(c, err)
	}
	if items == nil {
		items = []models.Notification{}
	}
	return jsonSuccess(c, fiber.Map{"items": items, "unread": unread})
}

// MarkRead handles POST /api/notifications/:id/read.
func (h *NotificationHandler) MarkRead(c fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return fail(c, apperr.ErrUnauthenticated)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, apperr.Invalid("id", "must be a valid UUID"))
	}
	if err := h.store.MarkNotificationRead(c.Context(), id, user.ID); err != nil {
		return fail(c, err)
	}
	return jsonSuccess(c, fiber.Map{"read": true})
}

// MarkAllRead handles POST /api/notifications/read-all.
func (h *NotificationHandler) MarkAllRead(c fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return fail(c, apperr.ErrUnauthenticated)
	}
	if err := h.store.MarkAllNotificationsRead(c.Context(), user.ID); err != nil {
		return fail(c, err)
	}
	return jsonSuccess(c, fiber.Map{"read": true})
}
