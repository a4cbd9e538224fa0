package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"taskforce/internal/config"
	"taskforce/internal/db"
	"taskforce/internal/email"
	"taskforce/internal/follows"
	"taskforce/internal/handlers"
	"taskforce/internal/handlers/api"
	"taskforce/internal/listing"
	"taskforce/internal/middleware"
	"taskforce/internal/models"
	"taskforce/internal/moderation"
	"taskforce/internal/submission"
	"taskforce/internal/validation"
)

// RegisterRoutes wires services to the data service and registers all
// application routes.
func (s *Server) RegisterRoutes(ctx context.Context, database *db.DB, catalog *config.Catalog, notifier *email.Notifier) error {
	tokens := middleware.NewTokenManager(s.Cfg.JWTSecret, 24*time.Hour)
	auth := middleware.NewAuthMiddleware(database, tokens)

	// Services
	modSvc := moderation.NewService(database, notifier)
	listSvc := listing.NewService(database, catalog)
	followSvc := follows.NewService(database)
	submitSvc := submission.NewService(database, validation.New(catalog), notifier)

	// Page handlers
	probe := handlers.NewProbeHandler(database)
	pages := handlers.NewPageHandler(database, listSvc, followSvc, catalog, s.Cfg)
	admin := handlers.NewAdminHandler(database, modSvc, s.Cfg)

	// API handlers
	modAPI := api.NewModerationHandler(modSvc)
	followAPI := api.NewFollowHandler(followSvc)
	submitAPI := api.NewSubmissionHandler(submitSvc)
	listAPI := api.NewListHandler(listSvc, database)
	notifAPI := api.NewNotificationHandler(database)
	userAPI := api.NewUserHandler(database, tokens)

	// Probes and metrics
	s.App.Get("/healthz", probe.Liveness)
	s.App.Get("/readyz", probe.Readiness)
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Auth routes; the site stays browsable without OIDC
	if s.Cfg.OIDCIssuer != "" {
		authHandler, err := handlers.NewAuthHandler(ctx, s.Cfg, database)
		if err != nil {
			return err
		}
		s.App.Get("/auth/login", authHandler.Login)
		s.App.Get("/auth/callback", authHandler.Callback)
		s.App.Get("/auth/logout", authHandler.Logout)
	} else {
		slog.Warn("OIDC_ISSUER not set, sign-in is disabled")
	}

	// Pages
	s.App.Get("/", auth.OptionalAuth, pages.Home)
	s.App.Get("/login", auth.OptionalAuth, pages.Login)
	s.App.Get("/projects", auth.OptionalAuth, pages.List(models.KindProject))
	s.App.Get("/projects/:id", auth.OptionalAuth, pages.Project)
	s.App.Get("/organisations", auth.OptionalAuth, pages.List(models.KindOrganisation))
	s.App.Get("/grants", auth.OptionalAuth, pages.List(models.KindGrant))
	s.App.Get("/watchdog", auth.OptionalAuth, pages.List(models.KindWatchdog))
	s.App.Get("/profile", auth.RequireAuth, pages.Profile)

	s.App.Get("/admin", auth.RequireAuth, admin.Index)
	s.App.Get("/admin/users", auth.RequireAuth, admin.Users)
	s.App.Get("/admin/:kind", auth.RequireAuth, admin.Queue)

	// API; middleware is per route so public and private endpoints can share
	// the /api prefix
	r := s.App.Group("/api")
	opt, req := auth.OptionalAuth, auth.RequireAPIAuth

	r.Get("/home-markers", opt, listAPI.HomeMarkers)
	r.Get("/home-stats", opt, listAPI.HomeStats)

	r.Get("/me", req, userAPI.Me)
	r.Put("/me", req, userAPI.UpdateProfile)
	r.Post("/tokens", req, userAPI.IssueToken)
	r.Get("/users", req, userAPI.List)
	r.Put("/users/:id/role", req, userAPI.UpdateRole)

	r.Get("/follow", opt, followAPI.Status)
	r.Post("/follow", req, followAPI.Follow)
	r.Delete("/follow", req, followAPI.Unfollow)
	r.Get("/following", req, followAPI.Following)

	r.Post("/projects/submit", req, submitAPI.SubmitProject)
	r.Put("/projects/:id", req, submitAPI.UpdateProject)
	r.Post("/grants/submit", req, submitAPI.SubmitGrant)
	r.Post("/watchdog/submit", req, submitAPI.SubmitWatchdogIssue)
	r.Post("/organisations/submit", req, submitAPI.SubmitOrganisation)
	r.Post("/organisations/:id/members", req, submitAPI.AddMember)

	r.Get("/notifications", req, notifAPI.List)
	r.Post("/notifications/read-all", req, notifAPI.MarkAllRead)
	r.Post("/notifications/:id/read", req, notifAPI.MarkRead)

	r.Get("/admin/:kind/pending", req, modAPI.Pending)
	r.Post("/admin/:kind/:action", req, modAPI.Act)

	// Lists last so the fixed paths above win
	r.Get("/:kind/markers", opt, listAPI.Markers)
	r.Get("/:kind", opt, listAPI.List)

	return nil
}
