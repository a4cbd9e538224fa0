// Package listing turns URL parameters into filtered, paginated list and map
// marker queries. Queries never fail: a data service error degrades to an
// empty result and a logged warning.
package listing

import (
	"context"
	"log/slog"
	"net/url"

	"golang.org/x/sync/errgroup"

	"taskforce/internal/config"
	"taskforce/internal/db"
	"taskforce/internal/metrics"
	"taskforce/internal/models"
)

// Marker caps per kind.
const (
	MaxProjectMarkers      = 2000
	MaxOrganisationMarkers = 1000
	MaxWatchdogMarkers     = 500
	MaxGrantMarkers        = 160
)

// Store is the slice of the data service listing needs.
type Store interface {
	ListProjects(ctx context.Context, f db.ProjectFilter, opts db.ListOptions) (*db.Page[models.Project], error)
	ListOrganisations(ctx context.Context, f db.OrganisationFilter, opts db.ListOptions) (*db.Page[models.Organisation], error)
	ListGrants(ctx context.Context, f db.GrantFilter, opts db.ListOptions) (*db.Page[models.Grant], error)
	ListWatchdogIssues(ctx context.Context, f db.WatchdogFilter, opts db.ListOptions) (*db.Page[models.WatchdogIssue], error)

	ProjectMarkers(ctx context.Context, f db.ProjectFilter, limit int) ([]models.Marker, error)
	OrganisationMarkers(ctx context.Context, f db.OrganisationFilter, limit int) ([]models.Marker, error)
	GrantMarkers(ctx context.Context, f db.GrantFilter, limit int) ([]models.Marker, error)
	WatchdogMarkers(ctx context.Context, f db.WatchdogFilter, limit int) ([]models.Marker, error)
}

// Result is one page of a list view.
type Result[T any] struct {
	Rows       []T   `json:"rows"`
	TotalCount int64 `json:"total_count"`
	Page       int   `json:"page"`
	PageCount  int   `json:"page_count"`
}

// Service runs list and marker queries.
type Service struct {
	store   Store
	catalog *config.Catalog
}

// NewService creates a listing service. A nil catalog uses the built-in one.
func NewService(store Store, catalog *config.Catalog) *Service {
	if catalog == nil {
		catalog = config.DefaultCatalog()
	}
	return &Service{store: store, catalog: catalog}
}

// Projects lists approved projects matching params.
func (s *Service) Projects(ctx context.Context, params url.Values, viewer *models.User) Result[models.Project] {
	opts := Options(models.KindProject, params, viewer)
	p, err := s.store.ListProjects(ctx, ProjectFilter(params, s.catalog), opts)
	return result(models.KindProject, opts, p, err)
}

// Organisations lists verified organisations matching params.
func (s *Service) Organisations(ctx context.Context, params url.Values, viewer *models.User) Result[models.Organisation] {
	opts := Options(models.KindOrganisation, params, viewer)
	p, err := s.store.ListOrganisations(ctx, OrganisationFilter(params), opts)
	return result(models.KindOrganisation, opts, p, err)
}

// Grants lists approved grants matching params.
func (s *Service) Grants(ctx context.Context, params url.Values, viewer *models.User) Result[models.Grant] {
	opts := Options(models.KindGrant, params, viewer)
	p, err := s.store.ListGrants(ctx, GrantFilter(params, s.catalog), opts)
	return result(models.KindGrant, opts, p, err)
}

// WatchdogIssues lists approved watchdog issues matching params.
func (s *Service) WatchdogIssues(ctx context.Context, params url.Values, viewer *models.User) Result[models.WatchdogIssue] {
	opts := Options(models.KindWatchdog, params, viewer)
	p, err := s.store.ListWatchdogIssues(ctx, WatchdogFilter(params, s.catalog), opts)
	return result(models.KindWatchdog, opts, p, err)
}

// Markers returns up to the kind's cap of map markers matching params.
func (s *Service) Markers(ctx context.Context, kind models.Kind, params url.Values) []models.Marker {
	var (
		out []models.Marker
		err error
	)
	switch kind {
	case models.KindProject:
		out, err = s.store.ProjectMarkers(ctx, ProjectFilter(params, s.catalog), MaxProjectMarkers)
	case models.KindOrganisation:
		out, err = s.store.OrganisationMarkers(ctx, OrganisationFilter(params), MaxOrganisationMarkers)
	case models.KindGrant:
		out, err = s.store.GrantMarkers(ctx, GrantFilter(params, s.catalog), MaxGrantMarkers)
	case models.KindWatchdog:
		out, err = s.store.WatchdogMarkers(ctx, WatchdogFilter(params, s.catalog), MaxWatchdogMarkers)
	default:
		return []models.Marker{}
	}
	if err != nil {
		fallback(kind, "markers", err)
		return []models.Marker{}
	}
	if out == nil {
		out = []models.Marker{}
	}
	return out
}

// HomeMarkers fetches unfiltered markers for every kind concurrently. Each
// kind degrades on its own.
func (s *Service) HomeMarkers(ctx context.Context) map[models.Kind][]models.Marker {
	results := make([][]models.Marker, len(models.Kinds))
	g, ctx := errgroup.WithContext(ctx)
	for i, kind := range models.Kinds {
		g.Go(func() error {
			results[i] = s.Markers(ctx, kind, url.Values{})
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[models.Kind][]models.Marker, len(models.Kinds))
	for i, kind := range models.Kinds {
		out[kind] = results[i]
	}
	return out
}

func result[T any](kind models.Kind, opts db.ListOptions, p *db.Page[T], err error) Result[T] {
	r := Result[T]{Rows: []T{}, Page: opts.Page}
	if err != nil {
		fallback(kind, "list", err)
		return r
	}
	if p == nil {
		return r
	}
	if p.Rows != nil {
		r.Rows = p.Rows
	}
	r.TotalCount = p.Total
	r.PageCount = int((p.Total + PageSize - 1) / PageSize)
	return r
}

func fallback(kind models.Kind, query string, err error) {
	metrics.RecordListFallback(kind, query)
	slog.Warn("list query failed, returning empty result", "kind", kind, "query", query, "error", err)
}
