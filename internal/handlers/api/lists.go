package api

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/gofiber/fiber/v3"

	"taskforce/internal/apperr"
	"taskforce/internal/listing"
	"taskforce/internal/middleware"
	"taskforce/internal/models"
)

// StatsStore provides the landing page counters.
type StatsStore interface {
	HomeStats(ctx context.Context) (*models.HomeStats, error)
}

// ListHandler serves list, marker and home page data. None of its
// endpoints fail because of the data service.
type ListHandler struct {
	svc   *listing.Service
	stats StatsStore
}

// NewListHandler creates a new list handler.
func NewListHandler(svc *listing.Service, stats StatsStore) *ListHandler {
	return &ListHandler{svc: svc, stats: stats}
}

// QueryValues returns the request's query string as url.Values.
func QueryValues(c fiber.Ctx) url.Values {
	v, err := url.ParseQuery(string(c.Request().URI().QueryString()))
	if err != nil {
		return url.Values{}
	}
	return v
}

// List handles GET /api/:kind.
func (h *ListHandler) List(c fiber.Ctx) error {
	kind, ok := models.ParseKind(c.Params("kind"))
	if !ok {
		return fail(c, apperr.ErrNotFound)
	}
	params := QueryValues(c)
	viewer := middleware.CurrentUser(c)

	switch kind {
	case models.KindProject:
		return jsonSuccess(c, h.svc.Projects(c.Context(), params, viewer))
	case models.KindOrganisation:
		return jsonSuccess(c, h.svc.Organisations(c.Context(), params, viewer))
	case models.KindGrant:
		return jsonSuccess(c, h.svc.Grants(c.Context(), params, viewer))
	default:
		return jsonSuccess(c, h.svc.WatchdogIssues(c.Context(), params, viewer))
	}
}

// Markers handles GET /api/:kind/markers.
func (h *ListHandler) Markers(c fiber.Ctx) error {
	kind, ok := models.ParseKind(c.Params("kind"))
	if !ok {
		return fail(c, apperr.ErrNotFound)
	}
	return jsonSuccess(c, h.svc.Markers(c.Context(), kind, QueryValues(c)))
}

// HomeMarkers handles GET /api/home-markers.
func (h *ListHandler) HomeMarkers(c fiber.Ctx) error {
	return jsonSuccess(c, h.svc.HomeMarkers(c.Context()))
}

// HomeStats handles GET /api/home-stats. A failing data service yields
// zero counters.
func (h *ListHandler) HomeStats(c fiber.Ctx) error {
	stats, err := h.stats.HomeStats(c.Context())
	if err != nil {
		slog.Warn("home stats unavailable", "error", err)
		stats = &models.HomeStats{}
	}
	return jsonSuccess(c, stats)
}
