package handlers

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"taskforce/internal/apperr"
	"taskforce/internal/config"
	"taskforce/internal/models"
	"taskforce/internal/moderation"
)

// AdminStore is the slice of the data service the admin pages read.
type AdminStore interface {
	IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error)
	PendingCounts(ctx context.Context) (map[models.Kind]int64, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

// AdminHandler renders the moderation queues and user management.
type AdminHandler struct {
	store AdminStore
	mod   *moderation.Service
	cfg   *config.Config
}

// NewAdminHandler creates a new admin page handler.
func NewAdminHandler(store AdminStore, mod *moderation.Service, cfg *config.Config) *AdminHandler {
	return &AdminHandler{store: store, mod: mod, cfg: cfg}
}

// Index sends admins to the project queue.
func (h *AdminHandler) Index(c fiber.Ctx) error {
	return c.Redirect().To("/admin/" + models.KindProject.Plural())
}

// Queue renders the pending items of one kind with approve and reject
// forms. Outcomes of those forms arrive as ?message= or ?error=.
func (h *AdminHandler) Queue(c fiber.Ctx) error {
	kind, ok := models.ParseKind(c.Params("kind"))
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "unknown queue")
	}

	user := currentUser(c)
	items, err := h.mod.Pending(c.Context(), kind, user, 0)
	if err != nil {
		return pageError(err)
	}

	counts, err := h.store.PendingCounts(c.Context())
	if err != nil {
		slog.Warn("pending counts unavailable", "error", err)
		counts = map[models.Kind]int64{}
	}

	tabs := make([]fiber.Map, 0, len(models.Kinds))
	for _, k := range models.Kinds {
		tabs = append(tabs, fiber.Map{
			"Kind":    k,
			"Path":    "/admin/" + k.Plural(),
			"Title":   listTitle(k),
			"Pending": counts[k],
			"Active":  k == kind,
		})
	}

	data := flash(c)
	data["User"] = user
	data["Kind"] = kind
	data["Title"] = listTitle(kind)
	data["Items"] = items
	data["Tabs"] = tabs
	data["ActionBase"] = "/api/admin/" + kind.Plural()
	data["RedirectTo"] = c.OriginalURL()
	return c.Render("admin", MergeBranding(data, h.cfg, c.Path()))
}

// Users renders the user list (admin only). Role changes go through the
// JSON API, which requires superadmin.
func (h *AdminHandler) Users(c fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return pageError(apperr.ErrUnauthenticated)
	}
	ok, err := h.store.IsAdmin(c.Context(), user.ID)
	if err != nil {
		return err
	}
	if !ok {
		return pageError(apperr.ErrForbidden)
	}

	users, err := h.store.ListUsers(c.Context())
	if err != nil {
		return err
	}

	return c.Render("users", MergeBranding(fiber.Map{
		"User":  user,
		"Users": users,
		"Roles": []string{models.RoleUser, models.RoleAdmin, models.RoleSuperadmin},
	}, h.cfg, c.Path()))
}
