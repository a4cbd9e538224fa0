package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"taskforce/internal/apperr"
	"taskforce/internal/config"
	"taskforce/internal/follows"
	"taskforce/internal/listing"
	"taskforce/internal/models"
)

// PageStore is the slice of the data service the public pages read.
type PageStore interface {
	HomeStats(ctx context.Context) (*models.HomeStats, error)
	GetProjectByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	UserCanEditProject(ctx context.Context, projectID, userID uuid.UUID) (bool, error)
	ProjectsByCreator(ctx context.Context, userID uuid.UUID) ([]models.Project, error)
}

// PageHandler renders the public HTML pages.
type PageHandler struct {
	store   PageStore
	lists   *listing.Service
	follows *follows.Service
	catalog *config.Catalog
	cfg     *config.Config
}

// NewPageHandler creates a new page handler.
func NewPageHandler(store PageStore, lists *listing.Service, fs *follows.Service, catalog *config.Catalog, cfg *config.Config) *PageHandler {
	if catalog == nil {
		catalog = config.DefaultCatalog()
	}
	return &PageHandler{store: store, lists: lists, follows: fs, catalog: catalog, cfg: cfg}
}

// Home renders the landing page. With a map token it shows markers for
// every kind; otherwise the latest projects are listed in a table.
func (h *PageHandler) Home(c fiber.Ctx) error {
	stats, err := h.store.HomeStats(c.Context())
	if err != nil {
		slog.Warn("home stats unavailable", "error", err)
		stats = &models.HomeStats{}
	}

	data := fiber.Map{
		"User":  currentUser(c),
		"Stats": stats,
	}
	if h.cfg.IsMapEnabled() {
		data["Markers"] = h.lists.HomeMarkers(c.Context())
	} else {
		data["Latest"] = h.lists.Projects(c.Context(), url.Values{}, nil).Rows
	}
	return c.Render("index", MergeBranding(data, h.cfg, c.Path()))
}

// Login renders the sign-in page, or sends a signed-in user home.
func (h *PageHandler) Login(c fiber.Ctx) error {
	if currentUser(c) != nil {
		return c.Redirect().To("/")
	}
	return c.Render("login", MergeBranding(fiber.Map{
		"OIDCEnabled": h.cfg.OIDCIssuer != "",
	}, h.cfg, c.Path()))
}

// List returns the handler for the list page of kind.
func (h *PageHandler) List(kind models.Kind) fiber.Handler {
	return func(c fiber.Ctx) error {
		params, err := url.ParseQuery(string(c.Request().URI().QueryString()))
		if err != nil {
			params = url.Values{}
		}
		viewer := currentUser(c)

		var rows any
		var page, pageCount int
		var total int64
		switch kind {
		case models.KindProject:
			r := h.lists.Projects(c.Context(), params, viewer)
			rows, page, pageCount, total = r.Rows, r.Page, r.PageCount, r.TotalCount
		case models.KindOrganisation:
			r := h.lists.Organisations(c.Context(), params, viewer)
			rows, page, pageCount, total = r.Rows, r.Page, r.PageCount, r.TotalCount
		case models.KindGrant:
			r := h.lists.Grants(c.Context(), params, viewer)
			rows, page, pageCount, total = r.Rows, r.Page, r.PageCount, r.TotalCount
		default:
			r := h.lists.WatchdogIssues(c.Context(), params, viewer)
			rows, page, pageCount, total = r.Rows, r.Page, r.PageCount, r.TotalCount
		}

		data := fiber.Map{
			"User":       viewer,
			"Kind":       kind,
			"Title":      listTitle(kind),
			"Rows":       rows,
			"Total":      total,
			"Page":       page,
			"PageCount":  pageCount,
			"Query":      params.Get("q"),
			"Catalog":    h.catalog,
			"PrevURL":    pageURL(c.Path(), params, page-1, pageCount),
			"NextURL":    pageURL(c.Path(), params, page+1, pageCount),
			"Filtered":   len(params) > 0,
			"MarkersURL": "/api/" + kind.Plural() + "/markers",
		}
		return c.Render(kind.Plural(), MergeBranding(data, h.cfg, c.Path()))
	}
}

// Project renders one project. Unapproved projects are only shown to
// people who can edit them.
func (h *PageHandler) Project(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "project not found")
	}

	project, err := h.store.GetProjectByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "project not found")
		}
		return err
	}

	viewer := currentUser(c)
	canEdit := false
	if viewer != nil {
		if canEdit, err = h.store.UserCanEditProject(c.Context(), id, viewer.ID); err != nil {
			return err
		}
	}
	if !project.Status.IsApproved() && !canEdit {
		return fiber.NewError(fiber.StatusNotFound, "project not found")
	}

	following, err := h.follows.IsFollowing(c.Context(), viewer, string(models.TargetProject), id.String())
	if err != nil {
		slog.Warn("follow status unavailable", "project", id, "error", err)
	}
	followers, err := h.follows.FollowerCount(c.Context(), string(models.TargetProject), id.String())
	if err != nil {
		slog.Warn("follower count unavailable", "project", id, "error", err)
	}

	sdgs := make([]string, 0, len(project.SDGs))
	for _, n := range project.SDGs {
		sdgs = append(sdgs, h.catalog.SDGName(n))
	}

	return c.Render("project", MergeBranding(fiber.Map{
		"User":      viewer,
		"Project":   project,
		"SDGNames":  sdgs,
		"CanEdit":   canEdit,
		"Following": following,
		"Followers": followers,
	}, h.cfg, c.Path()))
}

// Profile renders the signed-in user's projects and follows.
func (h *PageHandler) Profile(c fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return c.Redirect().To("/login")
	}

	projects, err := h.store.ProjectsByCreator(c.Context(), user.ID)
	if err != nil {
		return err
	}
	following, err := h.follows.Following(c.Context(), user)
	if err != nil {
		return pageError(err)
	}

	return c.Render("profile", MergeBranding(fiber.Map{
		"User":      user,
		"Projects":  projects,
		"Following": following,
	}, h.cfg, c.Path()))
}

func listTitle(kind models.Kind) string {
	switch kind {
	case models.KindProject:
		return "Projects"
	case models.KindOrganisation:
		return "Organisations"
	case models.KindGrant:
		return "Grants"
	default:
		return "Watchdog"
	}
}

// pageURL returns path with params and page set, or "" when page is out of
// range.
func pageURL(path string, params url.Values, page, pageCount int) string {
	if page < 1 || page > pageCount {
		return ""
	}
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("page", strconv.Itoa(page))
	return path + "?" + q.Encode()
}
